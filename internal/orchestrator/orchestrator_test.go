package orchestrator_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Tiliavir/medrem/internal/apiclient"
	"github.com/Tiliavir/medrem/internal/model"
	"github.com/Tiliavir/medrem/internal/notify"
	"github.com/Tiliavir/medrem/internal/orchestrator"
	"github.com/Tiliavir/medrem/internal/server"
	"github.com/Tiliavir/medrem/internal/session"
	"github.com/Tiliavir/medrem/internal/store"
	"github.com/Tiliavir/medrem/internal/view"
)

// fakeGateway serves a fixed list and records every call.
type fakeGateway struct {
	mu       sync.Mutex
	records  []model.Medicine
	listErr  error
	writeErr error

	lists   int
	creates []model.Fields
	updates map[int64]model.Fields
	deletes []int64
}

func (g *fakeGateway) ListAll(context.Context) ([]model.Medicine, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lists++
	if g.listErr != nil {
		return nil, g.listErr
	}
	return append([]model.Medicine(nil), g.records...), nil
}

func (g *fakeGateway) Create(_ context.Context, f model.Fields) (apiclient.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.creates = append(g.creates, f)
	if g.writeErr != nil {
		return apiclient.Result{}, g.writeErr
	}
	return apiclient.Result{Success: true}, nil
}

func (g *fakeGateway) Update(_ context.Context, id int64, f model.Fields) (apiclient.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.updates == nil {
		g.updates = map[int64]model.Fields{}
	}
	g.updates[id] = f
	if g.writeErr != nil {
		return apiclient.Result{}, g.writeErr
	}
	return apiclient.Result{Success: true}, nil
}

func (g *fakeGateway) Delete(_ context.Context, id int64) (apiclient.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deletes = append(g.deletes, id)
	if g.writeErr != nil {
		return apiclient.Result{}, g.writeErr
	}
	return apiclient.Result{Success: true}, nil
}

func (g *fakeGateway) writes() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.creates) + len(g.updates) + len(g.deletes)
}

type recordingNotifier struct {
	got []notify.Notification
}

func (n *recordingNotifier) Notify(msg string, sev notify.Severity) {
	n.got = append(n.got, notify.Notification{Message: msg, Severity: sev})
}

func (n *recordingNotifier) last() notify.Notification {
	if len(n.got) == 0 {
		return notify.Notification{}
	}
	return n.got[len(n.got)-1]
}

type harness struct {
	o      *orchestrator.Orchestrator
	gw     *fakeGateway
	screen *view.Screen
	notes  *recordingNotifier
}

func newHarness(t *testing.T, records ...model.Medicine) *harness {
	t.Helper()
	h := &harness{
		gw:     &fakeGateway{records: records},
		screen: view.NewScreen(),
		notes:  &recordingNotifier{},
	}
	h.o = orchestrator.New(orchestrator.Options{
		Gateway:  h.gw,
		Renderer: view.NewRenderer(h.screen),
		Notifier: h.notes,
		Confirm:  func(string) bool { return true },
		Now:      func() time.Time { return time.Date(2024, 3, 1, 14, 7, 30, 0, time.Local) },
	})
	if len(records) > 0 {
		if err := h.o.Load(context.Background()); err != nil {
			t.Fatalf("Load: %v", err)
		}
	}
	return h
}

var sample = []model.Medicine{
	{ID: 1, Name: "Paracetamol", TakenTime: "08:00"},
	{ID: 2, Name: "Ibuprofen", TakenTime: "12:00"},
	{ID: 3, Name: "Aspirin", TakenTime: "20:00"},
}

func TestAddValidationMakesNoNetworkCall(t *testing.T) {
	tests := []struct {
		name    string
		form    session.Form
		wantMsg string
	}{
		{"empty name", session.Form{Name: "", TakenTime: "08:00"}, orchestrator.MsgRequired},
		{"blank name", session.Form{Name: "   ", TakenTime: "08:00"}, orchestrator.MsgRequired},
		{"empty time", session.Form{Name: "Aspirin", TakenTime: ""}, orchestrator.MsgRequired},
		{"word for time", session.Form{Name: "Aspirin", TakenTime: "banana"}, orchestrator.MsgBadTime},
		{"time out of range", session.Form{Name: "Aspirin", TakenTime: "25:99"}, orchestrator.MsgBadTime},
		{"12-hour time", session.Form{Name: "Aspirin", TakenTime: "8am"}, orchestrator.MsgBadTime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			err := h.o.Add(context.Background(), tt.form)
			var verr *model.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
			if h.gw.writes() != 0 || h.gw.lists != 0 {
				t.Errorf("network calls made: writes=%d lists=%d", h.gw.writes(), h.gw.lists)
			}
			if got := h.notes.last(); got.Message != tt.wantMsg || got.Severity != notify.Error {
				t.Errorf("notification = %+v, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestSubmitEditValidationMakesNoNetworkCall(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		value   string
		wantMsg string
	}{
		{"blank name", "name", " ", orchestrator.MsgRequired},
		{"empty time", "time", "", orchestrator.MsgRequired},
		{"malformed time", "time", "25:99", orchestrator.MsgBadTime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, sample...)
			if !h.o.BeginEdit(1) {
				t.Fatal("BeginEdit(1) = false")
			}
			if err := h.o.Session().SetField(tt.field, tt.value); err != nil {
				t.Fatalf("SetField: %v", err)
			}
			lists := h.gw.lists

			err := h.o.SubmitEdit(context.Background())
			var verr *model.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
			if len(h.gw.updates) != 0 {
				t.Errorf("updates = %+v, want none", h.gw.updates)
			}
			if h.gw.lists != lists {
				t.Errorf("lists = %d, want %d (no reload)", h.gw.lists, lists)
			}
			if id, ok := h.o.Session().CurrentID(); !ok || id != 1 {
				t.Errorf("session = %d, %v; want still editing 1", id, ok)
			}
			if got := h.notes.last(); got.Message != tt.wantMsg {
				t.Errorf("notification = %+v, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestAddReloadsAndResetsForm(t *testing.T) {
	h := newHarness(t)
	h.gw.records = []model.Medicine{{ID: 1, Name: "Aspirin", TakenTime: "08:00"}}

	form := session.Form{Name: " Aspirin ", TakenTime: "08:00", Uses: "pain, , fever"}
	h.o.SetAddForm(form)
	if err := h.o.Add(context.Background(), form); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if len(h.gw.creates) != 1 {
		t.Fatalf("creates = %d", len(h.gw.creates))
	}
	sent := h.gw.creates[0]
	if sent.Name != "Aspirin" || len(sent.Uses) != 2 {
		t.Errorf("sent fields = %+v", sent)
	}
	if h.gw.lists != 1 {
		t.Errorf("lists = %d, want 1 reload", h.gw.lists)
	}
	if _, ok := h.o.Cache().Find(1); !ok {
		t.Error("new record missing from cache after reload")
	}
	if got := h.o.AddForm(); got != (session.Form{TakenTime: model.DefaultTakenTime}) {
		t.Errorf("add form not reset: %+v", got)
	}
	if h.screen.Region(view.RegionCount) != "1" {
		t.Errorf("count region = %q", h.screen.Region(view.RegionCount))
	}
	if h.notes.last().Message != orchestrator.MsgAdded {
		t.Errorf("notification = %+v", h.notes.last())
	}
}

func TestDeleteReloadsWithoutRecord(t *testing.T) {
	h := newHarness(t, sample...)
	h.gw.records = sample[:2]

	if err := h.o.Delete(context.Background(), 3); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := h.o.Cache().Find(3); ok {
		t.Error("deleted record still cached")
	}
	if strings.Contains(h.screen.Region(view.RegionList), "Aspirin") {
		t.Error("deleted record still rendered")
	}
	if h.notes.last().Message != orchestrator.MsgDeleted {
		t.Errorf("notification = %+v", h.notes.last())
	}
}

func TestDeleteDeclined(t *testing.T) {
	h := newHarness(t, sample...)
	var prompt string
	o := orchestrator.New(orchestrator.Options{
		Gateway:  h.gw,
		Cache:    h.o.Cache(),
		Renderer: view.NewRenderer(h.screen),
		Notifier: h.notes,
		Confirm:  func(p string) bool { prompt = p; return false },
	})
	before := h.gw.lists

	if err := o.Delete(context.Background(), 2); !errors.Is(err, orchestrator.ErrDeclined) {
		t.Fatalf("err = %v, want ErrDeclined", err)
	}
	if len(h.gw.deletes) != 0 || h.gw.lists != before {
		t.Error("declined delete reached the gateway")
	}
	if !strings.Contains(prompt, "Ibuprofen") {
		t.Errorf("prompt = %q, want the record name", prompt)
	}
}

func TestWriteErrorsKeepCache(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"server message", &apiclient.ServerError{Op: "delete", Message: "Medicine not found"}, "Medicine not found"},
		{"server without message", &apiclient.ServerError{Op: "delete"}, orchestrator.MsgGeneric},
		{"network", &apiclient.NetworkError{Op: "delete", Err: errors.New("refused")}, orchestrator.MsgGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, sample...)
			h.gw.writeErr = tt.err
			lists := h.gw.lists

			err := h.o.Delete(context.Background(), 1)
			if !errors.Is(err, tt.err) {
				t.Fatalf("err = %v, want %v", err, tt.err)
			}
			if h.gw.lists != lists {
				t.Error("reload after failed write")
			}
			if h.o.Cache().Size() != 3 {
				t.Errorf("cache size = %d, want 3", h.o.Cache().Size())
			}
			if got := h.notes.last(); got.Message != tt.wantMsg || got.Severity != notify.Error {
				t.Errorf("notification = %+v, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestFailedReloadLeavesCache(t *testing.T) {
	h := newHarness(t, sample...)
	h.gw.listErr = &apiclient.NetworkError{Op: "list", Err: errors.New("timeout")}
	before := h.screen.Region(view.RegionList)

	if err := h.o.Refresh(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if h.o.Cache().Size() != 3 {
		t.Errorf("cache size = %d, want 3", h.o.Cache().Size())
	}
	if h.screen.Region(view.RegionList) != before {
		t.Error("list region changed after failed reload")
	}
	if h.notes.last().Message != orchestrator.MsgLoadFailed {
		t.Errorf("notification = %+v", h.notes.last())
	}
}

func TestRefreshNotifies(t *testing.T) {
	h := newHarness(t, sample...)
	if err := h.o.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := h.notes.last(); got.Message != orchestrator.MsgRefreshed || got.Severity != notify.Success {
		t.Errorf("notification = %+v", got)
	}
}

func TestSubmitEditUsesCapturedID(t *testing.T) {
	h := newHarness(t, sample...)
	if !h.o.BeginEdit(2) {
		t.Fatal("BeginEdit(2) = false")
	}
	if err := h.o.Session().SetField("time", "13:30"); err != nil {
		t.Fatal(err)
	}
	// A reload in between must not change which record is edited.
	if err := h.o.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := h.o.SubmitEdit(context.Background()); err != nil {
		t.Fatalf("SubmitEdit: %v", err)
	}
	f, ok := h.gw.updates[2]
	if !ok || len(h.gw.updates) != 1 {
		t.Fatalf("updates = %+v, want one for id 2", h.gw.updates)
	}
	if f.Name != "Ibuprofen" || f.TakenTime != "13:30" {
		t.Errorf("sent = %+v", f)
	}
	if _, active := h.o.Session().CurrentID(); active {
		t.Error("session still active after successful submit")
	}
}

func TestSubmitEditFailureKeepsSession(t *testing.T) {
	h := newHarness(t, sample...)
	h.o.BeginEdit(1)
	h.gw.writeErr = &apiclient.ServerError{Op: "update", Message: "Medicine 'Aspirin' already exists"}

	if err := h.o.SubmitEdit(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if id, ok := h.o.Session().CurrentID(); !ok || id != 1 {
		t.Errorf("session = %d, %v; want still editing 1", id, ok)
	}
}

func TestBeginEditUnknownIDIsNoop(t *testing.T) {
	h := newHarness(t, sample...)
	if h.o.BeginEdit(99) {
		t.Error("BeginEdit(99) = true")
	}
	if err := h.o.SubmitEdit(context.Background()); !errors.Is(err, orchestrator.ErrNoSession) {
		t.Errorf("err = %v, want ErrNoSession", err)
	}
	if len(h.gw.updates) != 0 {
		t.Error("update sent without a session")
	}
}

func TestSearchRerendersWithoutNetwork(t *testing.T) {
	h := newHarness(t, sample...)
	lists := h.gw.lists

	h.o.Search("pro")
	list := h.screen.Region(view.RegionList)
	if !strings.Contains(list, "Ibuprofen") || strings.Contains(list, "Paracetamol") {
		t.Errorf("filtered list:\n%s", list)
	}
	if h.gw.lists != lists {
		t.Error("search made a network call")
	}
	if h.screen.Region(view.RegionCount) != "3" {
		t.Errorf("count = %q, want total cache size", h.screen.Region(view.RegionCount))
	}

	// The query stays applied across reloads.
	if err := h.o.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(h.screen.Region(view.RegionList), "Paracetamol") {
		t.Error("reload dropped the active query")
	}
}

func TestDispatch(t *testing.T) {
	h := newHarness(t, sample...)
	ctx := context.Background()

	if err := h.o.Dispatch(ctx, "add", []string{"name=Vitamin D", "now"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(h.gw.creates) != 1 || h.gw.creates[0].TakenTime != "14:07" {
		t.Errorf("creates = %+v", h.gw.creates)
	}

	if err := h.o.Dispatch(ctx, "edit", []string{"#3"}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if err := h.o.Dispatch(ctx, "set", []string{"dosage", "100", "mg"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := h.o.Dispatch(ctx, "save", nil); err != nil {
		t.Fatalf("save: %v", err)
	}
	if h.gw.updates[3].Dosage != "100 mg" {
		t.Errorf("update = %+v", h.gw.updates[3])
	}

	if err := h.o.Dispatch(ctx, "delete", []string{"1"}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(h.gw.deletes) != 1 || h.gw.deletes[0] != 1 {
		t.Errorf("deletes = %v", h.gw.deletes)
	}

	if err := h.o.Dispatch(ctx, "bogus", nil); err == nil {
		t.Error("unknown action: expected error")
	}
	if err := h.o.Dispatch(ctx, "delete", []string{"x"}); err == nil {
		t.Error("bad id: expected error")
	}
}

// TestAgainstServer runs the flows through the real router and client.
func TestAgainstServer(t *testing.T) {
	st := store.NewJSONStore(filepath.Join(t.TempDir(), "medicine_data.json"))
	ts := httptest.NewServer(server.NewRouter(server.Options{Store: st}))
	defer ts.Close()

	client, err := apiclient.NewClient(ts.URL, 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	screen := view.NewScreen()
	notes := &recordingNotifier{}
	o := orchestrator.New(orchestrator.Options{
		Gateway:  client,
		Renderer: view.NewRenderer(screen),
		Notifier: notes,
		Confirm:  func(string) bool { return true },
	})
	ctx := context.Background()

	if err := o.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !strings.Contains(screen.Region(view.RegionList), "No medicines found.") {
		t.Errorf("empty list region = %q", screen.Region(view.RegionList))
	}

	if err := o.Add(ctx, session.Form{Name: "Aspirin", TakenTime: "08:00", Uses: "heart"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	err = o.Add(ctx, session.Form{Name: "aspirin", TakenTime: "09:00"})
	var serr *apiclient.ServerError
	if !errors.As(err, &serr) {
		t.Fatalf("duplicate add: err = %v, want *ServerError", err)
	}
	if notes.last().Message != "Medicine 'aspirin' already exists" {
		t.Errorf("notification = %+v", notes.last())
	}

	if !o.BeginEdit(1) {
		t.Fatal("BeginEdit(1) = false after add")
	}
	if err := o.Session().SetField("dosage", "81mg"); err != nil {
		t.Fatalf("SetField: %v", err)
	}
	if err := o.SubmitEdit(ctx); err != nil {
		t.Fatalf("SubmitEdit: %v", err)
	}
	if m, _ := o.Cache().Find(1); m.Dosage != "81mg" {
		t.Errorf("cached record = %+v", m)
	}

	if err := o.Delete(ctx, 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if o.Cache().Size() != 0 {
		t.Errorf("cache size = %d after delete", o.Cache().Size())
	}
}
