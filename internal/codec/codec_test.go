package codec

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-billing/internal/models"
)

func sampleBundle() models.Bundle {
	return models.Bundle{
		StudentsData: []models.Student{
			{ID: "s1", Name: "Ana", ClassDays: []string{"Monday", "Thursday"}, SessionLength: 1.5, HourlyRate: 600, AdditionalChargeModifier: -50},
		},
		ArchivedStudentsData: []models.Student{
			{ID: "s2", Name: "Ben", ClassDays: []string{}, SessionLength: 1, HourlyRate: 500, ArchivedSince: "2024-02"},
		},
		ParentsData: []models.Parent{
			{ID: "p1", Name: "Dana", Children: []string{"s1", "s2"}, BillModifierName: "Sibling discount", BillModifierValue: -100},
		},
		Months: models.MonthlySchedules{
			"2024-03": models.StudentSchedules{
				"s1": {
					{Date: "2024/03/04"},
					{Date: "2024/03/07", Canceled: true, Violation: true},
					{Date: "2024/03/11", Canceled: true, Makeup: &models.Makeup{Date: "2024-03-12", Time: "15:00"}},
					{Date: "2024/03/14", TimeModified: 0.5},
				},
			},
			"2024-04": models.StudentSchedules{},
		},
	}
}

func TestRoundTripIdentity(t *testing.T) {
	c := New(nil)
	for name, bundle := range map[string]models.Bundle{
		"sample": sampleBundle(),
		"empty":  models.EmptyBundle(),
	} {
		t.Run(name, func(t *testing.T) {
			raw, err := c.Encode(bundle)
			require.NoError(t, err)
			assert.Equal(t, bundle, c.Decode(raw))
		})
	}
}

func TestEncodeWireFormat(t *testing.T) {
	raw, err := New(nil).Encode(models.EmptyBundle())
	require.NoError(t, err)
	assert.JSONEq(t, `{"studentsData":[],"archivedStudentsData":[],"parentsData":[],"months":{}}`, string(raw))

	raw, err = New(nil).Encode(models.Bundle{Months: models.MonthlySchedules{"2024-03": {"s1": {{Date: "2024/03/04"}}}}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"studentsData":[],"archivedStudentsData":[],"parentsData":[],
		"months":{"2024-03":{"s1":[{"date":"2024/03/04","canceled":false,"violation":false,"makeup":null,"time modified":0}]}}}`, string(raw))
}

func TestDecodeNeverFailsOnMalformedInput(t *testing.T) {
	cases := map[string]string{
		"empty body":        ``,
		"null":              `null`,
		"array root":        `[1,2,3]`,
		"string root":       `"hello"`,
		"broken json":       `{"studentsData": [`,
		"empty object":      `{}`,
		"null fields":       `{"studentsData":null,"archivedStudentsData":null,"parentsData":null,"months":null}`,
		"wrong containers":  `{"studentsData":{},"archivedStudentsData":"x","parentsData":42,"months":[]}`,
		"months wrong deep": `{"months":{"2024-03":[],"2024-04":{"s1":{}},"bad":{"s1":[]}}}`,
		"bad elements":      `{"studentsData":[null,1,"x",{"id":"s1","hourlyRate":"oops"}],"parentsData":[null,[]]}`,
	}
	c := New(nil)
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			b := c.Decode([]byte(raw))
			assert.NotNil(t, b.StudentsData)
			assert.NotNil(t, b.ArchivedStudentsData)
			assert.NotNil(t, b.ParentsData)
			assert.NotNil(t, b.Months)
			assert.Empty(t, b.StudentsData)
			assert.Empty(t, b.ParentsData)

			reencoded, err := c.Encode(b)
			require.NoError(t, err)
			var shape map[string]json.RawMessage
			require.NoError(t, json.Unmarshal(reencoded, &shape))
			assert.Len(t, shape, 4)
		})
	}
}

func TestDecodeKeepsValidSiblingsOfMalformedEntries(t *testing.T) {
	raw := `{
		"studentsData":[{"id":"s1","name":"Ana","classDays":"Monday, Friday"},{"id":"s2","name":"Ben","classDay":"Tuesday"},7],
		"months":{"2024-03":{"s1":[{"date":"2024/03/04","canceled":false,"violation":true,"makeup":"","time modified":"0.5"},"junk"],"s2":"junk"}}
	}`
	b := New(nil).Decode([]byte(raw))

	require.Len(t, b.StudentsData, 2)
	assert.Equal(t, []string{"Monday", "Friday"}, b.StudentsData[0].ClassDays)
	assert.Equal(t, []string{"Tuesday"}, b.StudentsData[1].ClassDays)

	require.Contains(t, b.Months, "2024-03")
	sessions := b.Months["2024-03"]["s1"]
	require.Len(t, sessions, 1)
	assert.False(t, sessions[0].Violation, "violation must be cleared when not canceled")
	assert.Nil(t, sessions[0].Makeup)
	assert.Equal(t, 0.5, sessions[0].TimeModified)
	assert.NotContains(t, b.Months["2024-03"], "s2")
}

func TestNormalizeFillsNilContainers(t *testing.T) {
	b := Normalize(models.Bundle{
		StudentsData: []models.Student{{ID: "s1"}},
		Months:       models.MonthlySchedules{"2024-03": nil, "2024-04": {"s1": nil, "s2": {{Date: "2024/04/01", Violation: true}}}},
	})
	assert.Equal(t, []string{}, b.StudentsData[0].ClassDays)
	assert.NotNil(t, b.ArchivedStudentsData)
	assert.NotNil(t, b.ParentsData)
	assert.NotNil(t, b.Months["2024-03"])
	assert.NotNil(t, b.Months["2024-04"]["s1"])
	assert.False(t, b.Months["2024-04"]["s2"][0].Violation)
}

func TestDecodeMonthsKeepsHandEditedKeys(t *testing.T) {
	raw := []byte(`{"months":{
		"2024-3":{"s1":[{"date":"2024/03/04"}],"s2":[{"date":"2024/03/05"}]},
		"2024-03":{"s1":[{"date":"2024/03/11"}]},
		"2024-4":{"s3":[]},
		"spring term":{"s4":[{"date":"2024/05/01"}]}
	}}`)

	b := New(nil).Decode(raw)

	require.Contains(t, b.Months, "2024-03")
	assert.NotContains(t, b.Months, "2024-3")
	assert.Equal(t, "2024/03/11", b.Months["2024-03"]["s1"][0].Date, "the canonical spelling wins")
	assert.Equal(t, "2024/03/05", b.Months["2024-03"]["s2"][0].Date)
	assert.Contains(t, b.Months, "2024-04")
	require.Contains(t, b.Months, "spring term")
	assert.Equal(t, "2024/05/01", b.Months["spring term"]["s4"][0].Date)

	reencoded, err := New(nil).Encode(b)
	require.NoError(t, err)
	assert.Contains(t, string(reencoded), `"spring term"`)
}
