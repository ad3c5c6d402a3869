package session_test

import (
	"reflect"
	"testing"

	"github.com/Tiliavir/medrem/internal/cache"
	"github.com/Tiliavir/medrem/internal/model"
	"github.com/Tiliavir/medrem/internal/session"
)

type recordingSurface struct {
	opened []int64
	forms  []session.Form
	closed int
}

func (r *recordingSurface) Open(id int64, form session.Form) {
	r.opened = append(r.opened, id)
	r.forms = append(r.forms, form)
}

func (r *recordingSurface) Close() { r.closed++ }

func newSession(t *testing.T) (*session.Session, *recordingSurface) {
	t.Helper()
	c := cache.New()
	c.ReplaceAll([]model.Medicine{
		{ID: 1, Name: "Paracetamol", TakenTime: "08:00", Dosage: "500mg", Uses: []string{"pain", "fever"}},
	})
	surface := &recordingSurface{}
	return session.New(c, surface), surface
}

func TestBeginUnknownIDIsIgnored(t *testing.T) {
	s, surface := newSession(t)

	if s.Begin(99) {
		t.Error("Begin(99) = true, want false")
	}
	if _, ok := s.CurrentID(); ok {
		t.Error("session active after Begin on unknown id")
	}
	if len(surface.opened) != 0 {
		t.Errorf("surface opened %v, want nothing", surface.opened)
	}
}

func TestBeginPopulatesForm(t *testing.T) {
	s, surface := newSession(t)

	if !s.Begin(1) {
		t.Fatal("Begin(1) = false")
	}
	id, ok := s.CurrentID()
	if !ok || id != 1 {
		t.Errorf("CurrentID = %d, %v", id, ok)
	}
	want := session.Form{Name: "Paracetamol", TakenTime: "08:00", Dosage: "500mg", Uses: "pain, fever"}
	if len(surface.forms) != 1 || surface.forms[0] != want {
		t.Errorf("surface form = %+v, want %+v", surface.forms, want)
	}
	if form, _ := s.Form(); form != want {
		t.Errorf("Form = %+v, want %+v", form, want)
	}
}

func TestEndClearsAndCloses(t *testing.T) {
	s, surface := newSession(t)
	s.Begin(1)
	s.End()

	if _, ok := s.CurrentID(); ok {
		t.Error("session still active after End")
	}
	if surface.closed != 1 {
		t.Errorf("closed = %d, want 1", surface.closed)
	}

	s.End()
	if surface.closed != 1 {
		t.Errorf("End on idle session closed the surface again")
	}
}

func TestSetField(t *testing.T) {
	s, _ := newSession(t)
	if err := s.SetField("name", "x"); err == nil {
		t.Error("SetField on idle session: expected error")
	}

	s.Begin(1)
	if err := s.SetField("side_effects", "nausea, , rash"); err != nil {
		t.Fatalf("SetField: %v", err)
	}
	if err := s.SetField("colour", "red"); err == nil {
		t.Error("SetField unknown field: expected error")
	}
	form, _ := s.Form()
	if got := form.Fields().SideEffects; !reflect.DeepEqual(got, []string{"nausea", "rash"}) {
		t.Errorf("SideEffects = %v", got)
	}
	if id, _ := s.CurrentID(); id != 1 {
		t.Errorf("id changed to %d", id)
	}
}

func TestFormFields(t *testing.T) {
	f := session.Form{Name: " Aspirin ", TakenTime: "07:30", Uses: "heart, ,pain ", SideEffects: ""}
	got := f.Fields()
	want := model.Fields{Name: "Aspirin", TakenTime: "07:30", Uses: []string{"heart", "pain"}, SideEffects: []string{}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Fields = %#v, want %#v", got, want)
	}
}
