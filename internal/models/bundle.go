package models

import "time"

// Recognised local mirror keys.
const (
	MirrorKeyStudents         = "studentsData"
	MirrorKeyArchivedStudents = "archivedStudentsData"
	MirrorKeyParents          = "parentsData"
	MirrorKeySchedules        = "monthlySchedulesByMonth"
)

// MirrorKeys lists the recognised keys in a stable order.
var MirrorKeys = []string{MirrorKeyStudents, MirrorKeyArchivedStudents, MirrorKeyParents, MirrorKeySchedules}

// IsMirrorKey reports whether key is one of the recognised business keys.
func IsMirrorKey(key string) bool {
	for _, k := range MirrorKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Bundle is the persisted snapshot of all business state.
type Bundle struct {
	StudentsData         []Student        `json:"studentsData"`
	ArchivedStudentsData []Student        `json:"archivedStudentsData"`
	ParentsData          []Parent         `json:"parentsData"`
	Months               MonthlySchedules `json:"months"`
}

// EmptyBundle returns a bundle whose containers are all present and empty.
func EmptyBundle() Bundle {
	return Bundle{
		StudentsData:         []Student{},
		ArchivedStudentsData: []Student{},
		ParentsData:          []Parent{},
		Months:               MonthlySchedules{},
	}
}

// Clone deep-copies the bundle.
func (b Bundle) Clone() Bundle {
	out := Bundle{
		StudentsData:         make([]Student, len(b.StudentsData)),
		ArchivedStudentsData: make([]Student, len(b.ArchivedStudentsData)),
		ParentsData:          make([]Parent, len(b.ParentsData)),
		Months:               b.Months.Clone(),
	}
	for i, s := range b.StudentsData {
		out.StudentsData[i] = s.Clone()
	}
	for i, s := range b.ArchivedStudentsData {
		out.ArchivedStudentsData[i] = s.Clone()
	}
	for i, p := range b.ParentsData {
		out.ParentsData[i] = p.Clone()
	}
	return out
}

// FindStudent looks up a student by id among active then archived students.
func (b Bundle) FindStudent(id string) (Student, bool) {
	for _, s := range b.StudentsData {
		if s.ID == id {
			return s, true
		}
	}
	for _, s := range b.ArchivedStudentsData {
		if s.ID == id {
			return s, true
		}
	}
	return Student{}, false
}

// RemoteFileMetadata identifies a revision of a file in the remote store.
// Version is opaque and only compared for equality.
type RemoteFileMetadata struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ModifiedTime time.Time `json:"modifiedTime"`
	Version      string    `json:"version"`
}
