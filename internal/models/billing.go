package models

// ChargeSummary is a student's expected and actual charge for one month.
type ChargeSummary struct {
	StudentID      string  `json:"studentId"`
	StudentName    string  `json:"studentName"`
	Month          string  `json:"month"`
	Known          bool    `json:"known"`
	Scheduled      int     `json:"scheduled"`
	Canceled       int     `json:"canceled"`
	Violations     int     `json:"violations"`
	Makeups        int     `json:"makeups"`
	HoursAdjusted  float64 `json:"hoursAdjusted"`
	Modifier       float64 `json:"modifier"`
	TempModifier   float64 `json:"tempModifier,omitempty"`
	PenaltyTotal   float64 `json:"penaltyTotal"`
	ExpectedCharge float64 `json:"expectedCharge"`
	ActualCharge   float64 `json:"actualCharge"`
	Ratio          float64 `json:"ratio"`
}

// ParentBill is a parent's statement for one month.
type ParentBill struct {
	ParentID          string          `json:"parentId"`
	ParentName        string          `json:"parentName"`
	Month             string          `json:"month"`
	Children          []ChargeSummary `json:"children"`
	Subtotal          float64         `json:"subtotal"`
	BillModifierName  string          `json:"billModifierName,omitempty"`
	BillModifierValue float64         `json:"billModifierValue"`
	Total             float64         `json:"total"`
}

// MonthReview lists per-student charges for one month.
type MonthReview struct {
	Month         string          `json:"month"`
	Rows          []ChargeSummary `json:"rows"`
	TotalExpected float64         `json:"totalExpected"`
	TotalActual   float64         `json:"totalActual"`
	Ratio         float64         `json:"ratio"`
}

// MonthTotal is one month's aggregate inside a range review.
type MonthTotal struct {
	Month    string  `json:"month"`
	Expected float64 `json:"expected"`
	Actual   float64 `json:"actual"`
	Ratio    float64 `json:"ratio"`
}

// RangeReview aggregates charges month by month.
type RangeReview struct {
	From          string       `json:"from"`
	To            string       `json:"to"`
	Months        []MonthTotal `json:"months"`
	TotalExpected float64      `json:"totalExpected"`
	TotalActual   float64      `json:"totalActual"`
	Ratio         float64      `json:"ratio"`
}
