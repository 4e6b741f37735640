package service

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-billing/internal/models"
	appErrors "github.com/noah-isme/tutor-billing/pkg/errors"
)

type rosterState interface {
	Snapshot() models.Bundle
	UpdateStudents(students []models.Student)
	UpdateArchivedStudents(students []models.Student)
	UpdateRoster(active, archived []models.Student)
	UpdateParents(parents []models.Parent)
	MutateMonth(key string, fn func(month models.StudentSchedules) error) error
}

// ReplaceStudentsRequest carries a full student list.
type ReplaceStudentsRequest struct {
	Students []models.Student `json:"students" validate:"dive"`
}

// ReplaceParentsRequest carries a full parent list.
type ReplaceParentsRequest struct {
	Parents []models.Parent `json:"parents" validate:"dive"`
}

// ArchiveStudentRequest archives a student from a month on. KeepDates lists
// the sessions of that month to keep; nil keeps all of them and an empty
// list drops the whole month for the student.
type ArchiveStudentRequest struct {
	Since     string   `json:"since" validate:"required,monthkey"`
	KeepDates []string `json:"keepDates" validate:"omitempty,dive,sessiondate"`
}

// RosterService manages students and parents.
type RosterService struct {
	state     rosterState
	validator *validator.Validate
	logger    *zap.Logger
	mu        sync.Mutex
	newID     func(prefix string) string
}

// NewRosterService instantiates RosterService.
func NewRosterService(st rosterState, validate *validator.Validate, logger *zap.Logger) *RosterService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	registerDomainValidations(validate)
	return &RosterService{
		state:     st,
		validator: validate,
		logger:    logger,
		newID: func(prefix string) string {
			return prefix + "_" + uuid.NewString()
		},
	}
}

// ReplaceStudents replaces the active students. Missing ids are generated.
func (s *RosterService) ReplaceStudents(req ReplaceStudentsRequest) ([]models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	students := s.assignStudentIDs(req.Students)
	if err := s.validateStudents(students); err != nil {
		return nil, err
	}
	snapshot := s.state.Snapshot()
	if err := ensureUniqueStudents(students, snapshot.ArchivedStudentsData); err != nil {
		return nil, err
	}
	for i := range students {
		students[i].ArchivedSince = ""
	}
	s.state.UpdateStudents(students)
	s.logger.Info("students replaced", zap.Int("count", len(students)))
	return students, nil
}

// ReplaceArchivedStudents replaces the archived students.
func (s *RosterService) ReplaceArchivedStudents(req ReplaceStudentsRequest) ([]models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	students := s.assignStudentIDs(req.Students)
	if err := s.validateStudents(students); err != nil {
		return nil, err
	}
	snapshot := s.state.Snapshot()
	if err := ensureUniqueStudents(snapshot.StudentsData, students); err != nil {
		return nil, err
	}
	s.state.UpdateArchivedStudents(students)
	s.logger.Info("archived students replaced", zap.Int("count", len(students)))
	return students, nil
}

// ReplaceParents replaces the parents. Children must name known students,
// archived ones included.
func (s *RosterService) ReplaceParents(req ReplaceParentsRequest) ([]models.Parent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parents := make([]models.Parent, len(req.Parents))
	for i, p := range req.Parents {
		p = p.Clone()
		if strings.TrimSpace(p.ID) == "" {
			p.ID = s.newID("parent")
		}
		parents[i] = p
	}
	if err := s.validator.Struct(ReplaceParentsRequest{Parents: parents}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid parent payload")
	}

	snapshot := s.state.Snapshot()
	seen := make(map[string]struct{}, len(parents))
	for _, p := range parents {
		if _, dup := seen[p.ID]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate parent id %s", p.ID))
		}
		seen[p.ID] = struct{}{}
		for _, child := range p.Children {
			if _, ok := snapshot.FindStudent(child); !ok {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("parent %s references unknown student %s", p.ID, child))
			}
		}
	}
	s.state.UpdateParents(parents)
	s.logger.Info("parents replaced", zap.Int("count", len(parents)))
	return parents, nil
}

// ArchiveStudent moves an active student to the archive from req.Since on,
// trimming that month's sessions to req.KeepDates.
func (s *RosterService) ArchiveStudent(id string, req ArchiveStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid archive payload")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.Snapshot()
	idx := indexOfStudent(snapshot.StudentsData, id)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	if req.KeepDates != nil {
		keep := make(map[string]struct{}, len(req.KeepDates))
		for _, d := range req.KeepDates {
			keep[d] = struct{}{}
		}
		err := s.state.MutateMonth(req.Since, func(month models.StudentSchedules) error {
			sessions, ok := month[id]
			if !ok {
				return nil
			}
			kept := make([]models.ClassSession, 0, len(sessions))
			for _, session := range sessions {
				if _, ok := keep[session.Date]; ok {
					kept = append(kept, session)
				}
			}
			if len(kept) == 0 {
				delete(month, id)
				return nil
			}
			month[id] = kept
			return nil
		})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to trim schedule")
		}
	}

	student := snapshot.StudentsData[idx].Clone()
	student.ArchivedSince = req.Since
	active := append(append([]models.Student{}, snapshot.StudentsData[:idx]...), snapshot.StudentsData[idx+1:]...)
	archived := append(snapshot.ArchivedStudentsData, student)
	s.state.UpdateRoster(active, archived)
	s.logger.Info("student archived", zap.String("student_id", id), zap.String("since", req.Since))
	return &student, nil
}

// RestoreStudent moves an archived student back to the active list.
func (s *RosterService) RestoreStudent(id string) (*models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.Snapshot()
	idx := indexOfStudent(snapshot.ArchivedStudentsData, id)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "archived student not found")
	}
	student := snapshot.ArchivedStudentsData[idx].Clone()
	student.ArchivedSince = ""
	archived := append(append([]models.Student{}, snapshot.ArchivedStudentsData[:idx]...), snapshot.ArchivedStudentsData[idx+1:]...)
	active := append(snapshot.StudentsData, student)
	s.state.UpdateRoster(active, archived)
	s.logger.Info("student restored", zap.String("student_id", id))
	return &student, nil
}

func (s *RosterService) assignStudentIDs(in []models.Student) []models.Student {
	out := make([]models.Student, len(in))
	for i, st := range in {
		st = st.Clone()
		if strings.TrimSpace(st.ID) == "" {
			st.ID = s.newID("student")
		}
		out[i] = st
	}
	return out
}

func (s *RosterService) validateStudents(students []models.Student) error {
	if err := s.validator.Struct(ReplaceStudentsRequest{Students: students}); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	for _, st := range students {
		for _, day := range st.ClassDays {
			if _, ok := parseWeekday(day); !ok {
				return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s has unknown class day %q", st.ID, day))
			}
		}
	}
	return nil
}

// ensureUniqueStudents rejects ids repeated within or across both lists.
func ensureUniqueStudents(active, archived []models.Student) error {
	seen := make(map[string]struct{}, len(active)+len(archived))
	for _, list := range [][]models.Student{active, archived} {
		for _, st := range list {
			if _, dup := seen[st.ID]; dup {
				return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate student id %s", st.ID))
			}
			seen[st.ID] = struct{}{}
		}
	}
	return nil
}

func indexOfStudent(students []models.Student, id string) int {
	for i, st := range students {
		if st.ID == id {
			return i
		}
	}
	return -1
}
