package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-billing/internal/models"
	appErrors "github.com/noah-isme/tutor-billing/pkg/errors"
)

type scheduleState interface {
	Snapshot() models.Bundle
	Month(key string) models.StudentSchedules
	MutateMonth(key string, fn func(month models.StudentSchedules) error) error
}

var weekdayNames = []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// GenerateScheduleRequest selects students whose month schedule is built
// from their class days. Empty StudentIDs means every active student.
type GenerateScheduleRequest struct {
	StudentIDs []string `json:"studentIds"`
	Overwrite  bool     `json:"overwrite"`
}

// CancelSessionRequest marks one session canceled.
type CancelSessionRequest struct {
	Date      string         `json:"date" validate:"required,sessiondate"`
	Violation bool           `json:"violation"`
	Makeup    *models.Makeup `json:"makeup"`
}

// UncancelSessionRequest restores one session.
type UncancelSessionRequest struct {
	Date string `json:"date" validate:"required,sessiondate"`
}

// TimeModifiedRequest adjusts the billed hours of one session.
type TimeModifiedRequest struct {
	Date  string  `json:"date" validate:"required,sessiondate"`
	Hours float64 `json:"hours"`
}

// DaysOffRequest cancels every session on the given dates, either for the
// listed students or for all active students.
type DaysOffRequest struct {
	From       string   `json:"from" validate:"required,sessiondate"`
	To         string   `json:"to" validate:"required,sessiondate"`
	StudentIDs []string `json:"studentIds"`
}

// DaysOffResult reports what a days-off run touched.
type DaysOffResult struct {
	Dates     []string            `json:"dates"`
	Generated map[string][]string `json:"generated"`
	Canceled  int                 `json:"canceled"`
}

// ScheduleService maintains monthly class schedules.
type ScheduleService struct {
	state     scheduleState
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService instantiates ScheduleService.
func NewScheduleService(st scheduleState, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	registerDomainValidations(validate)
	return &ScheduleService{state: st, validator: validate, logger: logger}
}

// Month returns one month of schedules.
func (s *ScheduleService) Month(key string) (models.StudentSchedules, error) {
	if !models.IsMonthKey(key) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid month %q", key))
	}
	return s.state.Month(key), nil
}

// Generate builds schedules for a month from each student's class days.
// Existing schedules are kept unless Overwrite is set. It returns the ids
// whose schedule was written.
func (s *ScheduleService) Generate(key string, req GenerateScheduleRequest) ([]string, error) {
	if !models.IsMonthKey(key) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid month %q", key))
	}
	snapshot := s.state.Snapshot()
	targets, err := selectStudents(snapshot, req.StudentIDs)
	if err != nil {
		return nil, err
	}

	written := make([]string, 0, len(targets))
	err = s.state.MutateMonth(key, func(month models.StudentSchedules) error {
		for _, student := range targets {
			if _, exists := month[student.ID]; exists && !req.Overwrite {
				continue
			}
			sessions, genErr := GenerateSessions(student, key)
			if genErr != nil {
				return genErr
			}
			month[student.ID] = sessions
			written = append(written, student.ID)
		}
		return nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to generate schedule")
	}
	s.logger.Info("schedule generated", zap.String("month", key), zap.Int("students", len(written)))
	return written, nil
}

// CancelSession marks the session on req.Date canceled.
func (s *ScheduleService) CancelSession(key, studentID string, req CancelSessionRequest) (*models.ClassSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cancellation payload")
	}
	return s.updateSession(key, studentID, req.Date, func(session *models.ClassSession) {
		session.Cancel(req.Violation, req.Makeup)
	})
}

// UncancelSession clears the canceled, violation and make-up state.
func (s *ScheduleService) UncancelSession(key, studentID string, req UncancelSessionRequest) (*models.ClassSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	return s.updateSession(key, studentID, req.Date, func(session *models.ClassSession) {
		session.Uncancel()
	})
}

// SetTimeModified records an hour adjustment on one session.
func (s *ScheduleService) SetTimeModified(key, studentID string, req TimeModifiedRequest) (*models.ClassSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid time adjustment payload")
	}
	return s.updateSession(key, studentID, req.Date, func(session *models.ClassSession) {
		session.TimeModified = req.Hours
	})
}

// MarkDaysOff cancels, without violation, every session falling on a date
// in req.From..req.To. Missing schedules of the covered months are
// generated for all active students first.
func (s *ScheduleService) MarkDaysOff(req DaysOffRequest) (*DaysOffResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid days off payload")
	}
	dates, err := DatesBetween(req.From, req.To)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid days off range")
	}

	snapshot := s.state.Snapshot()
	selected, err := selectStudents(snapshot, req.StudentIDs)
	if err != nil {
		return nil, err
	}
	selectedIDs := make(map[string]struct{}, len(selected))
	for _, st := range selected {
		selectedIDs[st.ID] = struct{}{}
	}

	byMonth := make(map[string]map[string]struct{})
	months := make([]string, 0)
	for _, date := range dates {
		key := date[:4] + "-" + date[5:7]
		if _, ok := byMonth[key]; !ok {
			byMonth[key] = make(map[string]struct{})
			months = append(months, key)
		}
		byMonth[key][date] = struct{}{}
	}

	result := &DaysOffResult{Dates: dates, Generated: make(map[string][]string)}
	for _, key := range months {
		offDates := byMonth[key]
		err := s.state.MutateMonth(key, func(month models.StudentSchedules) error {
			for _, student := range snapshot.StudentsData {
				if _, exists := month[student.ID]; exists {
					continue
				}
				sessions, genErr := GenerateSessions(student, key)
				if genErr != nil {
					return genErr
				}
				month[student.ID] = sessions
				result.Generated[key] = append(result.Generated[key], student.ID)
			}
			for id := range selectedIDs {
				sessions := month[id]
				for i := range sessions {
					if _, off := offDates[sessions[i].Date]; !off {
						continue
					}
					sessions[i].Canceled = true
					sessions[i].Violation = false
					result.Canceled++
				}
			}
			return nil
		})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark days off")
		}
	}
	s.logger.Info("days off marked",
		zap.String("from", req.From),
		zap.String("to", req.To),
		zap.Int("canceled", result.Canceled),
	)
	return result, nil
}

func (s *ScheduleService) updateSession(key, studentID, date string, apply func(session *models.ClassSession)) (*models.ClassSession, error) {
	if !models.IsMonthKey(key) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid month %q", key))
	}
	var updated models.ClassSession
	err := s.state.MutateMonth(key, func(month models.StudentSchedules) error {
		sessions, ok := month[studentID]
		if !ok {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		for i := range sessions {
			if sessions[i].Date == date {
				apply(&sessions[i])
				sessions[i].Normalize()
				updated = sessions[i].Clone()
				return nil
			}
		}
		return appErrors.Clone(appErrors.ErrNotFound, "session not found")
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// GenerateSessions lists a student's sessions in month key, one per matching
// weekday, sorted by date. Unknown day names are skipped.
func GenerateSessions(student models.Student, key string) ([]models.ClassSession, error) {
	first, err := models.ParseMonthKey(key)
	if err != nil {
		return nil, err
	}
	wanted := make(map[time.Weekday]struct{})
	for _, day := range student.ClassDays {
		if wd, ok := parseWeekday(day); ok {
			wanted[wd] = struct{}{}
		}
	}
	sessions := make([]models.ClassSession, 0)
	for d := first; d.Month() == first.Month(); d = d.AddDate(0, 0, 1) {
		if _, ok := wanted[d.Weekday()]; ok {
			sessions = append(sessions, models.ClassSession{Date: d.Format(models.SessionDateLayout)})
		}
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].Date < sessions[j].Date })
	return sessions, nil
}

// DatesBetween lists YYYY/MM/DD dates from..to inclusive.
func DatesBetween(from, to string) ([]string, error) {
	start, err := time.Parse(models.SessionDateLayout, from)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q", from)
	}
	end, err := time.Parse(models.SessionDateLayout, to)
	if err != nil {
		return nil, fmt.Errorf("invalid end date %q", to)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("start date %s is after end date %s", from, to)
	}
	dates := make([]string, 0)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(models.SessionDateLayout))
	}
	return dates, nil
}

func parseWeekday(name string) (time.Weekday, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, candidate := range weekdayNames {
		if candidate == name {
			return time.Weekday(i), true
		}
	}
	return 0, false
}

// selectStudents resolves ids against active students; empty ids selects all.
func selectStudents(bundle models.Bundle, ids []string) ([]models.Student, error) {
	if len(ids) == 0 {
		return bundle.StudentsData, nil
	}
	byID := make(map[string]models.Student, len(bundle.StudentsData))
	for _, st := range bundle.StudentsData {
		byID[st.ID] = st
	}
	selected := make([]models.Student, 0, len(ids))
	for _, id := range ids {
		st, ok := byID[id]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("student %s not found", id))
		}
		selected = append(selected, st)
	}
	return selected, nil
}
