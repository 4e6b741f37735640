package models

// Student is an enrolled learner. Archived students carry ArchivedSince.
type Student struct {
	ID                       string   `json:"id" validate:"required"`
	Name                     string   `json:"name" validate:"required"`
	ClassDays                []string `json:"classDays"`
	SessionLength            float64  `json:"sessionLength" validate:"gte=0"`
	HourlyRate               float64  `json:"hourlyRate" validate:"gte=0"`
	AdditionalChargeModifier float64  `json:"additionalChargeModifier"`
	ArchivedSince            string   `json:"archivedSince,omitempty" validate:"omitempty,monthkey"`
}

// Parent is a billing contact for one or more students.
type Parent struct {
	ID                string   `json:"id" validate:"required"`
	Name              string   `json:"name" validate:"required"`
	Children          []string `json:"children"`
	BillModifierName  string   `json:"billModifierName"`
	BillModifierValue float64  `json:"billModifierValue"`
}

// Clone returns a copy that shares no slices with s.
func (s Student) Clone() Student {
	s.ClassDays = append([]string{}, s.ClassDays...)
	return s
}

// Clone returns a copy that shares no slices with p.
func (p Parent) Clone() Parent {
	p.Children = append([]string{}, p.Children...)
	return p
}
