package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/tutor-billing/internal/models"
	appErrors "github.com/noah-isme/tutor-billing/pkg/errors"
)

// LegacyFiles holds the raw contents of the three historical export files.
// A nil slice means the file was not supplied.
type LegacyFiles struct {
	Students  []byte
	Parents   []byte
	Schedules []byte
}

// ImportError reports an unparseable legacy file.
type ImportError struct {
	File string
	Err  error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("%s file: %v", e.File, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// shapeRule recognises one historical layout of a legacy file.
type shapeRule[T any] struct {
	name  string
	match func(doc interface{}) (T, bool)
}

func firstMatch[T any](rules []shapeRule[T], doc interface{}) (T, string, bool) {
	for _, rule := range rules {
		if v, ok := rule.match(doc); ok {
			return v, rule.name, true
		}
	}
	var zero T
	return zero, "", false
}

func fieldArray(field string) func(interface{}) ([]interface{}, bool) {
	return func(doc interface{}) ([]interface{}, bool) {
		obj, ok := doc.(map[string]interface{})
		if !ok {
			return nil, false
		}
		arr, ok := obj[field].([]interface{})
		return arr, ok
	}
}

func fieldObject(field string) func(interface{}) (map[string]interface{}, bool) {
	return func(doc interface{}) (map[string]interface{}, bool) {
		obj, ok := doc.(map[string]interface{})
		if !ok {
			return nil, false
		}
		inner, ok := obj[field].(map[string]interface{})
		return inner, ok
	}
}

func bareArray(doc interface{}) ([]interface{}, bool) {
	arr, ok := doc.([]interface{})
	return arr, ok
}

func bareMonthMap(doc interface{}) (map[string]interface{}, bool) {
	obj, ok := doc.(map[string]interface{})
	if !ok || len(obj) == 0 {
		return nil, false
	}
	for key, value := range obj {
		if !models.IsMonthKey(key) {
			return nil, false
		}
		if _, isObj := value.(map[string]interface{}); !isObj {
			return nil, false
		}
	}
	return obj, true
}

var (
	activeStudentRules = []shapeRule[[]interface{}]{
		{name: "studentsData", match: fieldArray("studentsData")},
		{name: "active", match: fieldArray("active")},
		{name: "array", match: bareArray},
	}
	archivedStudentRules = []shapeRule[[]interface{}]{
		{name: "archivedStudentsData", match: fieldArray("archivedStudentsData")},
		{name: "archived", match: fieldArray("archived")},
	}
	parentRules = []shapeRule[[]interface{}]{
		{name: "parentsData", match: fieldArray("parentsData")},
		{name: "array", match: bareArray},
	}
	scheduleRules = []shapeRule[map[string]interface{}]{
		{name: "monthlySchedulesByMonth", match: fieldObject("monthlySchedulesByMonth")},
		{name: "months", match: fieldObject("months")},
		{name: "month map", match: bareMonthMap},
	}
)

// FromLegacyFiles builds a bundle from the historical three-file export.
// Unrecognised shapes yield empty collections; unparseable files fail the
// whole import with an error naming each offending file.
func (c *Codec) FromLegacyFiles(files LegacyFiles) (models.Bundle, error) {
	docs := map[string]interface{}{}
	var failures []error
	for _, f := range []struct {
		name string
		raw  []byte
	}{{"students", files.Students}, {"parents", files.Parents}, {"schedules", files.Schedules}} {
		if f.raw == nil {
			continue
		}
		var doc interface{}
		if err := json.Unmarshal(f.raw, &doc); err != nil {
			failures = append(failures, &ImportError{File: f.name, Err: err})
			continue
		}
		docs[f.name] = doc
	}
	if len(failures) > 0 {
		names := make([]string, 0, len(failures))
		for _, err := range failures {
			var ie *ImportError
			if errors.As(err, &ie) {
				names = append(names, ie.File)
			}
		}
		return models.Bundle{}, appErrors.Wrap(errors.Join(failures...), appErrors.ErrImportFailed.Code, appErrors.ErrImportFailed.Status,
			"could not parse "+strings.Join(names, ", ")+" file")
	}

	out := models.EmptyBundle()

	active, _, _ := firstMatch(activeStudentRules, docs["students"])
	archived, _, _ := firstMatch(archivedStudentRules, docs["students"])
	out.ArchivedStudentsData = c.DecodeStudents(mustMarshal(nonNil(archived)))
	archivedIDs := make(map[string]struct{}, len(out.ArchivedStudentsData))
	for _, s := range out.ArchivedStudentsData {
		if s.ID != "" {
			archivedIDs[s.ID] = struct{}{}
		}
	}
	for _, s := range c.DecodeStudents(mustMarshal(nonNil(active))) {
		if _, dup := archivedIDs[s.ID]; dup {
			continue
		}
		out.StudentsData = append(out.StudentsData, s)
	}

	parents, _, _ := firstMatch(parentRules, docs["parents"])
	out.ParentsData = c.DecodeParents(mustMarshal(nonNil(parents)))

	if months, rule, ok := firstMatch(scheduleRules, docs["schedules"]); ok {
		c.logger.Debug("legacy schedules recognised", zap.String("shape", rule))
		out.Months = c.DecodeMonths(mustMarshal(months))
	}

	return out, nil
}

func nonNil(items []interface{}) []interface{} {
	if items == nil {
		return []interface{}{}
	}
	return items
}
