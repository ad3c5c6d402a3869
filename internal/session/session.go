package session

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Tiliavir/medrem/internal/cache"
	"github.com/Tiliavir/medrem/internal/model"
)

// Form is the text content of a record form. Lists are held as the
// comma-separated text the user types.
type Form struct {
	Name        string
	TakenTime   string
	Dosage      string
	Uses        string
	SideEffects string
}

// FormFrom fills a form with the current values of m.
func FormFrom(m model.Medicine) Form {
	return Form{
		Name:        m.Name,
		TakenTime:   m.TakenTime,
		Dosage:      m.Dosage,
		Uses:        model.JoinList(m.Uses),
		SideEffects: model.JoinList(m.SideEffects),
	}
}

// Fields parses the form into record fields: scalars are trimmed, lists are
// split on commas with blank entries dropped.
func (f Form) Fields() model.Fields {
	return model.Fields{
		Name:        strings.TrimSpace(f.Name),
		TakenTime:   strings.TrimSpace(f.TakenTime),
		Dosage:      strings.TrimSpace(f.Dosage),
		Uses:        model.ParseList(f.Uses),
		SideEffects: model.ParseList(f.SideEffects),
	}
}

// Set assigns one field by its form name.
func (f *Form) Set(field, value string) error {
	switch strings.ToLower(field) {
	case "name":
		f.Name = value
	case "time", "taken_time":
		f.TakenTime = value
	case "dosage":
		f.Dosage = value
	case "uses":
		f.Uses = value
	case "side_effects", "side-effects", "sideeffects":
		f.SideEffects = value
	default:
		return fmt.Errorf("unknown field %q (want name, time, dosage, uses or side_effects)", field)
	}
	return nil
}

// Surface is where the edit form is shown.
type Surface interface {
	Open(id int64, form Form)
	Close()
}

// Session tracks which record, if any, is being edited. The id is fixed
// from Begin until End.
type Session struct {
	mu      sync.Mutex
	cache   *cache.Cache
	surface Surface
	active  bool
	id      int64
	form    Form
}

// New returns an idle session reading records from c. surface may be nil.
func New(c *cache.Cache, surface Surface) *Session {
	return &Session{cache: c, surface: surface}
}

// Begin starts editing record id. It returns false and changes nothing when
// the record is not in the cache, e.g. because it was deleted since the
// list was rendered.
func (s *Session) Begin(id int64) bool {
	m, ok := s.cache.Find(id)
	if !ok {
		return false
	}

	s.mu.Lock()
	s.active = true
	s.id = id
	s.form = FormFrom(m)
	form := s.form
	s.mu.Unlock()

	if s.surface != nil {
		s.surface.Open(id, form)
	}
	return true
}

// CurrentID returns the id being edited.
func (s *Session) CurrentID() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id, s.active
}

// Form returns the edit form while a session is active.
func (s *Session) Form() (Form, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form, s.active
}

// SetField changes one field of the edit form.
func (s *Session) SetField(field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return fmt.Errorf("no record is being edited")
	}
	return s.form.Set(field, value)
}

// End clears the session and closes the edit surface without submitting.
func (s *Session) End() {
	s.mu.Lock()
	wasActive := s.active
	s.active = false
	s.id = 0
	s.form = Form{}
	s.mu.Unlock()

	if wasActive && s.surface != nil {
		s.surface.Close()
	}
}
