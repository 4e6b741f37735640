package codec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/tutor-billing/pkg/errors"
)

func TestFromLegacyFilesStudentShapes(t *testing.T) {
	cases := []struct {
		name         string
		students     string
		wantActive   []string
		wantArchived []string
	}{
		{
			name:         "canonical wrapper",
			students:     `{"studentsData":[{"id":"a"},{"id":"b"}],"archivedStudentsData":[{"id":"c"}]}`,
			wantActive:   []string{"a", "b"},
			wantArchived: []string{"c"},
		},
		{
			name:         "active archived wrapper",
			students:     `{"active":[{"id":"a"}],"archived":[{"id":"c"}]}`,
			wantActive:   []string{"a"},
			wantArchived: []string{"c"},
		},
		{
			name:         "bare array",
			students:     `[{"id":"a"},{"id":"b"}]`,
			wantActive:   []string{"a", "b"},
			wantArchived: []string{},
		},
		{
			name:         "archived wins on collision",
			students:     `{"studentsData":[{"id":"a"},{"id":"c"}],"archivedStudentsData":[{"id":"c","archivedSince":"2024-01"}]}`,
			wantActive:   []string{"a"},
			wantArchived: []string{"c"},
		},
		{
			name:         "unrecognised shape",
			students:     `{"pupils":[{"id":"a"}]}`,
			wantActive:   []string{},
			wantArchived: []string{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := New(nil).FromLegacyFiles(LegacyFiles{Students: []byte(tc.students)})
			require.NoError(t, err)

			active := make([]string, 0)
			for _, s := range b.StudentsData {
				active = append(active, s.ID)
			}
			archived := make([]string, 0)
			for _, s := range b.ArchivedStudentsData {
				archived = append(archived, s.ID)
			}
			assert.Equal(t, tc.wantActive, active)
			assert.Equal(t, tc.wantArchived, archived)
		})
	}
}

func TestFromLegacyFilesFoldsClassDay(t *testing.T) {
	b, err := New(nil).FromLegacyFiles(LegacyFiles{Students: []byte(`[{"id":"a","classDay":"Monday, Wednesday,"},{"id":"b","classDays":"Friday"},{"id":"c"}]`)})
	require.NoError(t, err)
	require.Len(t, b.StudentsData, 3)
	assert.Equal(t, []string{"Monday", "Wednesday"}, b.StudentsData[0].ClassDays)
	assert.Equal(t, []string{"Friday"}, b.StudentsData[1].ClassDays)
	assert.Equal(t, []string{}, b.StudentsData[2].ClassDays)
}

func TestFromLegacyFilesParentsAndSchedules(t *testing.T) {
	schedules := map[string]string{
		"monthlySchedulesByMonth wrapper": `{"monthlySchedulesByMonth":{"2024-03":{"a":[{"date":"2024/03/04"}]}}}`,
		"months wrapper":                  `{"months":{"2024-03":{"a":[{"date":"2024/03/04"}]}}}`,
		"bare month map":                  `{"2024-03":{"a":[{"date":"2024/03/04"}]}}`,
	}
	for name, raw := range schedules {
		t.Run(name, func(t *testing.T) {
			b, err := New(nil).FromLegacyFiles(LegacyFiles{
				Parents:   []byte(`{"parentsData":[{"id":"p1","children":["a"]}]}`),
				Schedules: []byte(raw),
			})
			require.NoError(t, err)
			require.Len(t, b.ParentsData, 1)
			require.Contains(t, b.Months, "2024-03")
			assert.Equal(t, "2024/03/04", b.Months["2024-03"]["a"][0].Date)
		})
	}

	b, err := New(nil).FromLegacyFiles(LegacyFiles{
		Parents:   []byte(`[{"id":"p1"},{"id":"p2"}]`),
		Schedules: []byte(`{"2024-03":{"a":[]},"notes":"x"}`),
	})
	require.NoError(t, err)
	assert.Len(t, b.ParentsData, 2)
	assert.Equal(t, []string{}, b.ParentsData[0].Children)
	assert.Empty(t, b.Months, "a map with non-month keys is not a month map")
}

func TestFromLegacyFilesReportsUnparseableFiles(t *testing.T) {
	_, err := New(nil).FromLegacyFiles(LegacyFiles{
		Students:  []byte(`[{"id":"a"}]`),
		Parents:   []byte(`{not json`),
		Schedules: []byte(`[`),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrImportFailed))
	assert.Contains(t, err.Error(), "parents, schedules")

	var importErr *ImportError
	require.True(t, errors.As(err, &importErr))
	assert.Equal(t, "parents", importErr.File)
}

func TestFromLegacyFilesNoFiles(t *testing.T) {
	b, err := New(nil).FromLegacyFiles(LegacyFiles{})
	require.NoError(t, err)
	assert.NotNil(t, b.StudentsData)
	assert.NotNil(t, b.Months)
}
