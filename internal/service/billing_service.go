package service

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/tutor-billing/internal/models"
	appErrors "github.com/noah-isme/tutor-billing/pkg/errors"
)

// DefaultViolationPenalty is charged per canceled session flagged as a
// policy violation.
const DefaultViolationPenalty = 500

type billingState interface {
	Snapshot() models.Bundle
}

// BillingService computes charges from the schedules.
type BillingService struct {
	state   billingState
	penalty float64
	logger  *zap.Logger
}

// NewBillingService instantiates BillingService. A zero penalty uses
// DefaultViolationPenalty.
func NewBillingService(st billingState, penalty float64, logger *zap.Logger) *BillingService {
	if penalty == 0 {
		penalty = DefaultViolationPenalty
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BillingService{state: st, penalty: penalty, logger: logger}
}

// StudentCharge computes one student's charge for a month, active or
// archived. tempModifier is a one-off adjustment added to the actual charge.
func (s *BillingService) StudentCharge(month, studentID string, tempModifier float64) (*models.ChargeSummary, error) {
	if !models.IsMonthKey(month) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid month %q", month))
	}
	snapshot := s.state.Snapshot()
	student, ok := snapshot.FindStudent(studentID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	summary := s.charge(month, student, snapshot.Months[month][studentID], tempModifier)
	return &summary, nil
}

// ParentBill totals the month's charges of a parent's children plus the
// parent's bill modifier.
func (s *BillingService) ParentBill(month, parentID string) (*models.ParentBill, error) {
	if !models.IsMonthKey(month) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid month %q", month))
	}
	snapshot := s.state.Snapshot()
	var parent *models.Parent
	for i := range snapshot.ParentsData {
		if snapshot.ParentsData[i].ID == parentID {
			parent = &snapshot.ParentsData[i]
			break
		}
	}
	if parent == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "parent not found")
	}

	bill := &models.ParentBill{
		ParentID:          parent.ID,
		ParentName:        parent.Name,
		Month:             month,
		Children:          make([]models.ChargeSummary, 0, len(parent.Children)),
		BillModifierName:  parent.BillModifierName,
		BillModifierValue: parent.BillModifierValue,
	}
	for _, childID := range parent.Children {
		summary := s.summaryFor(snapshot, month, childID)
		bill.Children = append(bill.Children, summary)
		bill.Subtotal += summary.ActualCharge
	}
	bill.Total = bill.Subtotal + parent.BillModifierValue
	return bill, nil
}

// Review lists every student scheduled in the month or currently active.
// Ids without a known student are reported with zero charges.
func (s *BillingService) Review(month string) (*models.MonthReview, error) {
	if !models.IsMonthKey(month) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid month %q", month))
	}
	snapshot := s.state.Snapshot()
	scheduled := snapshot.Months[month]

	ids := make([]string, 0, len(snapshot.StudentsData)+len(scheduled))
	seen := make(map[string]struct{})
	for _, st := range snapshot.StudentsData {
		ids = append(ids, st.ID)
		seen[st.ID] = struct{}{}
	}
	extra := make([]string, 0)
	for id := range scheduled {
		if _, ok := seen[id]; !ok {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	ids = append(ids, extra...)

	review := &models.MonthReview{Month: month, Rows: make([]models.ChargeSummary, 0, len(ids))}
	for _, id := range ids {
		summary := s.summaryFor(snapshot, month, id)
		review.Rows = append(review.Rows, summary)
		review.TotalExpected += summary.ExpectedCharge
		review.TotalActual += summary.ActualCharge
	}
	review.Ratio = ratio(review.TotalActual, review.TotalExpected)
	return review, nil
}

// RangeReview aggregates scheduled students month by month over from..to.
func (s *BillingService) RangeReview(from, to string) (*models.RangeReview, error) {
	months, err := models.MonthRange(from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid month range")
	}
	snapshot := s.state.Snapshot()
	review := &models.RangeReview{From: from, To: to, Months: make([]models.MonthTotal, 0, len(months))}
	for _, month := range months {
		total := models.MonthTotal{Month: month}
		for id, sessions := range snapshot.Months[month] {
			student, ok := snapshot.FindStudent(id)
			if !ok {
				continue
			}
			summary := s.charge(month, student, sessions, 0)
			total.Expected += summary.ExpectedCharge
			total.Actual += summary.ActualCharge
		}
		total.Ratio = ratio(total.Actual, total.Expected)
		review.Months = append(review.Months, total)
		review.TotalExpected += total.Expected
		review.TotalActual += total.Actual
	}
	review.Ratio = ratio(review.TotalActual, review.TotalExpected)
	return review, nil
}

func (s *BillingService) summaryFor(snapshot models.Bundle, month, id string) models.ChargeSummary {
	student, ok := snapshot.FindStudent(id)
	if !ok {
		return models.ChargeSummary{
			StudentID:   id,
			StudentName: fmt.Sprintf("(Unknown: %s)", id),
			Month:       month,
			Scheduled:   len(snapshot.Months[month][id]),
		}
	}
	return s.charge(month, student, snapshot.Months[month][id], 0)
}

func (s *BillingService) charge(month string, student models.Student, sessions []models.ClassSession, tempModifier float64) models.ChargeSummary {
	summary := models.ChargeSummary{
		StudentID:    student.ID,
		StudentName:  student.Name,
		Month:        month,
		Known:        true,
		Scheduled:    len(sessions),
		Modifier:     student.AdditionalChargeModifier,
		TempModifier: tempModifier,
	}
	for _, session := range sessions {
		if session.Canceled {
			summary.Canceled++
			if session.Violation {
				summary.Violations++
			}
		} else {
			summary.HoursAdjusted += session.TimeModified
		}
		if session.Makeup != nil {
			summary.Makeups++
		}
	}

	perSession := student.HourlyRate * student.SessionLength
	billed := summary.Scheduled - summary.Canceled + summary.Makeups
	summary.PenaltyTotal = s.penalty * float64(summary.Violations)
	summary.ExpectedCharge = perSession*float64(summary.Scheduled) + student.AdditionalChargeModifier
	summary.ActualCharge = perSession*float64(billed) +
		summary.PenaltyTotal +
		student.AdditionalChargeModifier +
		tempModifier +
		student.HourlyRate*summary.HoursAdjusted
	summary.Ratio = ratio(summary.ActualCharge, summary.ExpectedCharge)
	return summary
}

func ratio(actual, expected float64) float64 {
	if expected == 0 {
		return 0
	}
	return actual / expected * 100
}
