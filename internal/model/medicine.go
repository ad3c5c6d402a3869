package model

import (
	"strings"

	"github.com/Tiliavir/medrem/internal/timecalc"
)

// DefaultTakenTime is the time the add form is reset to.
const DefaultTakenTime = "08:00"

// Medicine is a single medicine record as served by the record API.
type Medicine struct {
	ID          int64    `json:"id" db:"id"`
	Name        string   `json:"name" db:"name"`
	TakenTime   string   `json:"taken_time" db:"taken_time"`
	Dosage      string   `json:"dosage" db:"dosage"`
	Uses        []string `json:"uses" db:"-"`
	SideEffects []string `json:"side_effects" db:"-"`
}

// Fields holds the editable part of a record. It is the request body of
// create and update calls.
type Fields struct {
	Name        string   `json:"name"`
	TakenTime   string   `json:"taken_time"`
	Dosage      string   `json:"dosage"`
	Uses        []string `json:"uses"`
	SideEffects []string `json:"side_effects"`
}

// Fields returns the editable fields of m.
func (m Medicine) Fields() Fields {
	return Fields{
		Name:        m.Name,
		TakenTime:   m.TakenTime,
		Dosage:      m.Dosage,
		Uses:        CleanList(m.Uses),
		SideEffects: CleanList(m.SideEffects),
	}
}

// Apply overwrites the editable fields of m with f.
func (m *Medicine) Apply(f Fields) {
	m.Name = f.Name
	m.TakenTime = f.TakenTime
	m.Dosage = f.Dosage
	m.Uses = CleanList(f.Uses)
	m.SideEffects = CleanList(f.SideEffects)
}

// Normalize trims the scalar fields and drops blank list entries. Nil lists
// become empty so the JSON encoding is always an array.
func (f Fields) Normalize() Fields {
	return Fields{
		Name:        strings.TrimSpace(f.Name),
		TakenTime:   strings.TrimSpace(f.TakenTime),
		Dosage:      strings.TrimSpace(f.Dosage),
		Uses:        CleanList(f.Uses),
		SideEffects: CleanList(f.SideEffects),
	}
}

// Validate reports a *ValidationError when name or taken time is empty, or
// when the taken time is not a 24-hour HH:MM.
func (f Fields) Validate() error {
	var missing, invalid []string
	if strings.TrimSpace(f.Name) == "" {
		missing = append(missing, "name")
	}
	if tt := strings.TrimSpace(f.TakenTime); tt == "" {
		missing = append(missing, "taken_time")
	} else if _, _, err := timecalc.ParseTakenTime(tt); err != nil {
		invalid = append(invalid, "taken_time")
	}
	if len(missing) > 0 || len(invalid) > 0 {
		return &ValidationError{Fields: missing, Invalid: invalid}
	}
	return nil
}

// ParseList splits comma-separated form input into a list, trimming each
// part and dropping empty ones.
func ParseList(s string) []string {
	return CleanList(strings.Split(s, ","))
}

// CleanList returns a copy of items with surrounding whitespace removed and
// blank entries dropped. The result is never nil.
func CleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		out = append(out, it)
	}
	return out
}

// JoinList is the inverse of ParseList for display in form fields.
func JoinList(items []string) string {
	return strings.Join(CleanList(items), ", ")
}
