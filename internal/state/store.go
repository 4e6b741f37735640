// Package state holds the in-memory business collections shared by the HTTP
// handlers, the mirror and the sync pipeline.
package state

import (
	"fmt"
	"sync"

	"github.com/noah-isme/tutor-billing/internal/codec"
	"github.com/noah-isme/tutor-billing/internal/models"
)

// UpdateListener is notified after a collection changes through an update
// entry point. key is one of the models.MirrorKey* constants.
type UpdateListener func(key string)

// ReplaceListener is notified after the whole state was replaced by a load.
type ReplaceListener func(bundle models.Bundle)

// Store owns the four business collections. All mutations go through its
// update entry points so observers see every change.
type Store struct {
	mu     sync.RWMutex
	bundle models.Bundle

	lmu       sync.RWMutex
	onUpdate  []UpdateListener
	onReplace []ReplaceListener
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{bundle: models.EmptyBundle()}
}

// OnUpdate registers a listener for entry-point mutations.
func (s *Store) OnUpdate(fn UpdateListener) {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	s.onUpdate = append(s.onUpdate, fn)
}

// OnReplace registers a listener for bulk replacement.
func (s *Store) OnReplace(fn ReplaceListener) {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	s.onReplace = append(s.onReplace, fn)
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() models.Bundle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bundle.Clone()
}

// Students returns a copy of the active students.
func (s *Store) Students() []models.Student {
	return s.Snapshot().StudentsData
}

// ArchivedStudents returns a copy of the archived students.
func (s *Store) ArchivedStudents() []models.Student {
	return s.Snapshot().ArchivedStudentsData
}

// Parents returns a copy of the parents.
func (s *Store) Parents() []models.Parent {
	return s.Snapshot().ParentsData
}

// Month returns a copy of one month's schedules, empty when absent.
func (s *Store) Month(key string) models.StudentSchedules {
	s.mu.RLock()
	defer s.mu.RUnlock()
	month, ok := s.bundle.Months[key]
	if !ok {
		return models.StudentSchedules{}
	}
	return month.Clone()
}

// Replace swaps in a freshly loaded bundle. Update listeners are not called.
func (s *Store) Replace(bundle models.Bundle) {
	bundle = codec.Normalize(bundle.Clone())
	s.mu.Lock()
	s.bundle = bundle
	s.mu.Unlock()

	snapshot := bundle.Clone()
	for _, fn := range s.replaceListeners() {
		fn(snapshot)
	}
}

// UpdateStudents replaces the active students.
func (s *Store) UpdateStudents(students []models.Student) {
	students = codec.NormalizeStudents(cloneStudents(students))
	s.mu.Lock()
	s.bundle.StudentsData = students
	s.mu.Unlock()
	s.notify(models.MirrorKeyStudents)
}

// UpdateArchivedStudents replaces the archived students.
func (s *Store) UpdateArchivedStudents(students []models.Student) {
	students = codec.NormalizeStudents(cloneStudents(students))
	s.mu.Lock()
	s.bundle.ArchivedStudentsData = students
	s.mu.Unlock()
	s.notify(models.MirrorKeyArchivedStudents)
}

// UpdateRoster replaces active and archived students together, as moving a
// student between the lists must not be observed half-done.
func (s *Store) UpdateRoster(active, archived []models.Student) {
	active = codec.NormalizeStudents(cloneStudents(active))
	archived = codec.NormalizeStudents(cloneStudents(archived))
	s.mu.Lock()
	s.bundle.StudentsData = active
	s.bundle.ArchivedStudentsData = archived
	s.mu.Unlock()
	s.notify(models.MirrorKeyStudents)
	s.notify(models.MirrorKeyArchivedStudents)
}

// UpdateParents replaces the parents.
func (s *Store) UpdateParents(parents []models.Parent) {
	cloned := make([]models.Parent, len(parents))
	for i, p := range parents {
		cloned[i] = p.Clone()
	}
	cloned = codec.NormalizeParents(cloned)
	s.mu.Lock()
	s.bundle.ParentsData = cloned
	s.mu.Unlock()
	s.notify(models.MirrorKeyParents)
}

// UpdateMonths replaces every month of schedules.
func (s *Store) UpdateMonths(months models.MonthlySchedules) {
	months = codec.NormalizeMonths(months.Clone())
	s.mu.Lock()
	s.bundle.Months = months
	s.mu.Unlock()
	s.notify(models.MirrorKeySchedules)
}

// MutateMonth applies fn to a copy of one month's schedules and stores the
// result. Returning an error discards the change and skips notification.
func (s *Store) MutateMonth(key string, fn func(month models.StudentSchedules) error) error {
	if !models.IsMonthKey(key) {
		return fmt.Errorf("invalid month key %q", key)
	}
	s.mu.Lock()
	month, ok := s.bundle.Months[key]
	if ok {
		month = month.Clone()
	} else {
		month = models.StudentSchedules{}
	}
	if err := fn(month); err != nil {
		s.mu.Unlock()
		return err
	}
	normalized := codec.NormalizeMonths(models.MonthlySchedules{key: month})
	s.bundle.Months[key] = normalized[key]
	s.mu.Unlock()

	s.notify(models.MirrorKeySchedules)
	return nil
}

// Collection returns the current value stored under a mirror key.
func (s *Store) Collection(key string) (interface{}, bool) {
	snapshot := s.Snapshot()
	switch key {
	case models.MirrorKeyStudents:
		return snapshot.StudentsData, true
	case models.MirrorKeyArchivedStudents:
		return snapshot.ArchivedStudentsData, true
	case models.MirrorKeyParents:
		return snapshot.ParentsData, true
	case models.MirrorKeySchedules:
		return snapshot.Months, true
	}
	return nil, false
}

func (s *Store) notify(key string) {
	s.lmu.RLock()
	listeners := append([]UpdateListener(nil), s.onUpdate...)
	s.lmu.RUnlock()
	for _, fn := range listeners {
		fn(key)
	}
}

func (s *Store) replaceListeners() []ReplaceListener {
	s.lmu.RLock()
	defer s.lmu.RUnlock()
	return append([]ReplaceListener(nil), s.onReplace...)
}

func cloneStudents(students []models.Student) []models.Student {
	if students == nil {
		return nil
	}
	out := make([]models.Student, len(students))
	for i, st := range students {
		out[i] = st.Clone()
	}
	return out
}
