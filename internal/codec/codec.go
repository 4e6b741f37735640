// Package codec maps business state to and from the persisted bundle JSON.
//
// Decoding is tolerant: any field that is missing, null or of the wrong
// container type decodes to an empty container and malformed elements are
// dropped, so a hand-edited or partially corrupt file still loads.
package codec

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/tutor-billing/internal/models"
)

// Codec encodes and decodes bundles.
type Codec struct {
	logger *zap.Logger
}

// New constructs a Codec. A nil logger discards decode warnings.
func New(logger *zap.Logger) *Codec {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Codec{logger: logger}
}

// Encode serialises the bundle after normalising it.
func (c *Codec) Encode(b models.Bundle) ([]byte, error) {
	payload, err := json.Marshal(Normalize(b))
	if err != nil {
		return nil, fmt.Errorf("encode bundle: %w", err)
	}
	return payload, nil
}

// Decode parses raw bundle JSON. It never fails.
func (c *Codec) Decode(raw []byte) models.Bundle {
	out := models.EmptyBundle()

	var root map[string]json.RawMessage
	if err := json.Unmarshal(raw, &root); err != nil || root == nil {
		c.logger.Warn("bundle is not a JSON object, using empty state", zap.Error(err))
		return out
	}

	out.StudentsData = c.DecodeStudents(root["studentsData"])
	out.ArchivedStudentsData = c.DecodeStudents(root["archivedStudentsData"])
	out.ParentsData = c.DecodeParents(root["parentsData"])
	out.Months = c.DecodeMonths(root["months"])
	return out
}

// DecodeStudents parses a JSON array of students, folding legacy day fields.
func (c *Codec) DecodeStudents(raw json.RawMessage) []models.Student {
	items := c.array(raw, "students")
	students := make([]models.Student, 0, len(items))
	for i, item := range items {
		student, err := decodeStudent(item)
		if err != nil {
			c.logger.Warn("dropping malformed student", zap.Int("index", i), zap.Error(err))
			continue
		}
		students = append(students, student)
	}
	return students
}

// DecodeParents parses a JSON array of parents.
func (c *Codec) DecodeParents(raw json.RawMessage) []models.Parent {
	items := c.array(raw, "parents")
	parents := make([]models.Parent, 0, len(items))
	for i, item := range items {
		var parent models.Parent
		if err := json.Unmarshal(item, &parent); err != nil || isNull(item) {
			c.logger.Warn("dropping malformed parent", zap.Int("index", i), zap.Error(err))
			continue
		}
		if parent.Children == nil {
			parent.Children = []string{}
		}
		parents = append(parents, parent)
	}
	return parents
}

// DecodeMonths parses a year-month map of per-student sessions.
func (c *Codec) DecodeMonths(raw json.RawMessage) models.MonthlySchedules {
	out := models.MonthlySchedules{}
	months := c.object(raw, "months")
	for month, monthRaw := range months {
		students := c.object(monthRaw, "month "+month)
		if students == nil {
			continue
		}
		decoded := models.StudentSchedules{}
		for studentID, sessionsRaw := range students {
			var items []json.RawMessage
			if err := json.Unmarshal(sessionsRaw, &items); err != nil || items == nil {
				c.logger.Warn("dropping malformed schedule", zap.String("month", month), zap.String("student_id", studentID))
				continue
			}
			sessions := make([]models.ClassSession, 0, len(items))
			for _, item := range items {
				session, err := decodeSession(item)
				if err != nil {
					c.logger.Warn("dropping malformed session", zap.String("month", month), zap.String("student_id", studentID), zap.Error(err))
					continue
				}
				sessions = append(sessions, session)
			}
			decoded[studentID] = sessions
		}
		c.mergeMonth(out, month, decoded)
	}
	return out
}

// mergeMonth stores decoded under the canonical form of month. Keys that name
// no month are kept verbatim so a later save does not erase them. When both
// "2024-3" and "2024-03" are present the canonical spelling wins per student.
func (c *Codec) mergeMonth(out models.MonthlySchedules, month string, decoded models.StudentSchedules) {
	key, ok := models.CanonicalMonthKey(month)
	if !ok {
		c.logger.Warn("keeping schedules under unrecognised month key", zap.String("month", month))
		out[month] = decoded
		return
	}
	if key != month {
		c.logger.Info("normalised month key", zap.String("from", month), zap.String("to", key))
	}
	existing, found := out[key]
	if !found {
		out[key] = decoded
		return
	}
	for studentID, sessions := range decoded {
		if _, taken := existing[studentID]; taken && key != month {
			continue
		}
		existing[studentID] = sessions
	}
}

// Normalize fills nil containers and enforces the session invariant.
func Normalize(b models.Bundle) models.Bundle {
	if b.StudentsData == nil {
		b.StudentsData = []models.Student{}
	}
	if b.ArchivedStudentsData == nil {
		b.ArchivedStudentsData = []models.Student{}
	}
	if b.ParentsData == nil {
		b.ParentsData = []models.Parent{}
	}
	b.StudentsData = NormalizeStudents(b.StudentsData)
	b.ArchivedStudentsData = NormalizeStudents(b.ArchivedStudentsData)
	b.ParentsData = NormalizeParents(b.ParentsData)
	b.Months = NormalizeMonths(b.Months)
	return b
}

// NormalizeStudents replaces nil day lists with empty ones.
func NormalizeStudents(students []models.Student) []models.Student {
	if students == nil {
		return []models.Student{}
	}
	for i := range students {
		if students[i].ClassDays == nil {
			students[i].ClassDays = []string{}
		}
	}
	return students
}

// NormalizeParents replaces nil child lists with empty ones.
func NormalizeParents(parents []models.Parent) []models.Parent {
	if parents == nil {
		return []models.Parent{}
	}
	for i := range parents {
		if parents[i].Children == nil {
			parents[i].Children = []string{}
		}
	}
	return parents
}

// NormalizeMonths replaces nil containers and clears violations on sessions
// that are not canceled.
func NormalizeMonths(months models.MonthlySchedules) models.MonthlySchedules {
	if months == nil {
		return models.MonthlySchedules{}
	}
	for month, students := range months {
		if students == nil {
			months[month] = models.StudentSchedules{}
			continue
		}
		for id, sessions := range students {
			if sessions == nil {
				students[id] = []models.ClassSession{}
				continue
			}
			for i := range sessions {
				sessions[i].Normalize()
			}
		}
	}
	return months
}

func (c *Codec) array(raw json.RawMessage, field string) []json.RawMessage {
	if len(raw) == 0 || isNull(raw) {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		c.logger.Warn("expected array, using empty", zap.String("field", field), zap.Error(err))
		return nil
	}
	return items
}

func (c *Codec) object(raw json.RawMessage, field string) map[string]json.RawMessage {
	if len(raw) == 0 || isNull(raw) {
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		c.logger.Warn("expected object, using empty", zap.String("field", field), zap.Error(err))
		return nil
	}
	return obj
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

func decodeStudent(raw json.RawMessage) (models.Student, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return models.Student{}, err
	}
	if fields == nil {
		return models.Student{}, fmt.Errorf("student is null")
	}
	foldClassDays(fields)

	body, err := json.Marshal(fields)
	if err != nil {
		return models.Student{}, err
	}
	var student models.Student
	if err := json.Unmarshal(body, &student); err != nil {
		return models.Student{}, err
	}
	if student.ClassDays == nil {
		student.ClassDays = []string{}
	}
	return student, nil
}

// foldClassDays rewrites a CSV classDays string, or the singular classDay
// field, into the classDays list.
func foldClassDays(fields map[string]json.RawMessage) {
	defer delete(fields, "classDay")

	var days []string
	if raw, ok := fields["classDays"]; ok && json.Unmarshal(raw, &days) == nil && days != nil {
		return
	}
	for _, key := range []string{"classDays", "classDay"} {
		var csv string
		if raw, ok := fields[key]; ok && json.Unmarshal(raw, &csv) == nil {
			fields["classDays"] = mustMarshal(splitCSV(csv))
			return
		}
	}
	fields["classDays"] = json.RawMessage(`[]`)
}

func splitCSV(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

type wireSession struct {
	Date         string          `json:"date"`
	Canceled     bool            `json:"canceled"`
	Violation    bool            `json:"violation"`
	Makeup       json.RawMessage `json:"makeup"`
	TimeModified json.RawMessage `json:"time modified"`
}

func decodeSession(raw json.RawMessage) (models.ClassSession, error) {
	var wire wireSession
	if err := json.Unmarshal(raw, &wire); err != nil {
		return models.ClassSession{}, err
	}
	if isNull(raw) {
		return models.ClassSession{}, fmt.Errorf("session is null")
	}
	session := models.ClassSession{
		Date:      wire.Date,
		Canceled:  wire.Canceled,
		Violation: wire.Violation,
	}
	if len(wire.Makeup) > 0 && !isNull(wire.Makeup) {
		var makeup models.Makeup
		if err := json.Unmarshal(wire.Makeup, &makeup); err == nil {
			session.Makeup = &makeup
		}
	}
	session.TimeModified = parseNumber(wire.TimeModified)
	session.Normalize()
	return session, nil
}

func parseNumber(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return v
		}
	}
	return 0
}

func mustMarshal(v interface{}) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`null`)
	}
	return raw
}
