package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Tiliavir/medrem/internal/apiclient"
	"github.com/Tiliavir/medrem/internal/cache"
	"github.com/Tiliavir/medrem/internal/model"
	"github.com/Tiliavir/medrem/internal/notify"
	"github.com/Tiliavir/medrem/internal/search"
	"github.com/Tiliavir/medrem/internal/session"
	"github.com/Tiliavir/medrem/internal/timecalc"
	"github.com/Tiliavir/medrem/internal/view"
)

// Notification texts.
const (
	MsgRequired   = "Name and time are required"
	MsgBadTime    = "Time must be HH:MM"
	MsgAdded      = "Medicine added"
	MsgUpdated    = "Medicine updated"
	MsgDeleted    = "Medicine deleted"
	MsgRefreshed  = "Data refreshed"
	MsgLoadFailed = "Failed to load medicines"
	MsgGeneric    = "Something went wrong"
	MsgNoSession  = "No medicine is being edited"
)

// ErrDeclined is returned by Delete when the user does not confirm.
var ErrDeclined = errors.New("delete declined")

// ErrNoSession is returned by SubmitEdit when nothing is being edited.
var ErrNoSession = errors.New("no edit session")

// Gateway is the subset of the record API the orchestrator needs.
type Gateway interface {
	ListAll(ctx context.Context) ([]model.Medicine, error)
	Create(ctx context.Context, f model.Fields) (apiclient.Result, error)
	Update(ctx context.Context, id int64, f model.Fields) (apiclient.Result, error)
	Delete(ctx context.Context, id int64) (apiclient.Result, error)
}

// ConfirmFunc asks the user a yes/no question.
type ConfirmFunc func(prompt string) bool

// Options wires an Orchestrator. Cache, Session and Now are created or
// defaulted when nil; Gateway, Renderer and Notifier are required.
type Options struct {
	Gateway  Gateway
	Cache    *cache.Cache
	Session  *session.Session
	Renderer *view.Renderer
	Notifier notify.Notifier
	Confirm  ConfirmFunc
	Now      func() time.Time
}

// Orchestrator runs user actions against the server and keeps the cache and
// the rendered list in step with it. Every successful write is followed by
// a full reload; the cache is never patched locally.
type Orchestrator struct {
	gw       Gateway
	cache    *cache.Cache
	session  *session.Session
	renderer *view.Renderer
	notifier notify.Notifier
	confirm  ConfirmFunc
	now      func() time.Time

	mu      sync.Mutex
	query   string
	addForm session.Form

	handlers map[string]Handler
}

// New returns an Orchestrator with an empty cache and a reset add form.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		gw:       opts.Gateway,
		cache:    opts.Cache,
		session:  opts.Session,
		renderer: opts.Renderer,
		notifier: opts.Notifier,
		confirm:  opts.Confirm,
		now:      opts.Now,
	}
	if o.cache == nil {
		o.cache = cache.New()
	}
	if o.session == nil {
		o.session = session.New(o.cache, nil)
	}
	if o.confirm == nil {
		o.confirm = func(string) bool { return false }
	}
	if o.now == nil {
		o.now = time.Now
	}
	o.addForm = defaultAddForm()
	o.handlers = o.dispatchTable()
	return o
}

// Cache returns the record cache.
func (o *Orchestrator) Cache() *cache.Cache { return o.cache }

// Session returns the edit session.
func (o *Orchestrator) Session() *session.Session { return o.session }

// Query returns the active search query.
func (o *Orchestrator) Query() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.query
}

// AddForm returns the current content of the add form.
func (o *Orchestrator) AddForm() session.Form {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.addForm
}

// SetAddForm replaces the content of the add form.
func (o *Orchestrator) SetAddForm(f session.Form) {
	o.mu.Lock()
	o.addForm = f
	o.mu.Unlock()
}

// ResetAddForm clears the add form back to its defaults.
func (o *Orchestrator) ResetAddForm() {
	o.SetAddForm(defaultAddForm())
}

// UseCurrentTime sets the add form's time to the current minute.
func (o *Orchestrator) UseCurrentTime() {
	o.mu.Lock()
	o.addForm.TakenTime = timecalc.MinuteKey(o.now())
	o.mu.Unlock()
}

func defaultAddForm() session.Form {
	return session.Form{TakenTime: model.DefaultTakenTime}
}

// Load fetches the record list and renders it.
func (o *Orchestrator) Load(ctx context.Context) error {
	return o.reload(ctx)
}

// Refresh reloads the record list and confirms it to the user.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	if err := o.reload(ctx); err != nil {
		return err
	}
	o.notifier.Notify(MsgRefreshed, notify.Success)
	return nil
}

// Add validates form, creates the record on the server and reloads.
func (o *Orchestrator) Add(ctx context.Context, form session.Form) error {
	fields := form.Fields()
	if err := o.validate(fields); err != nil {
		return err
	}

	if _, err := o.gw.Create(ctx, fields); err != nil {
		o.fail(err)
		return err
	}

	o.notifier.Notify(MsgAdded, notify.Success)
	o.ResetAddForm()
	return o.reload(ctx)
}

// BeginEdit opens record id for editing. Unknown ids are ignored.
func (o *Orchestrator) BeginEdit(id int64) bool {
	return o.session.Begin(id)
}

// CancelEdit closes the edit form without submitting.
func (o *Orchestrator) CancelEdit() {
	o.session.End()
}

// SubmitEdit sends the edit form for the record captured when the session
// began, then closes the form and reloads. On failure the form stays open.
func (o *Orchestrator) SubmitEdit(ctx context.Context) error {
	id, ok := o.session.CurrentID()
	if !ok {
		o.notifier.Notify(MsgNoSession, notify.Error)
		return ErrNoSession
	}
	form, _ := o.session.Form()

	fields := form.Fields()
	if err := o.validate(fields); err != nil {
		return err
	}

	if _, err := o.gw.Update(ctx, id, fields); err != nil {
		o.fail(err)
		return err
	}

	o.notifier.Notify(MsgUpdated, notify.Success)
	o.session.End()
	return o.reload(ctx)
}

// Delete removes record id after the user confirms, then reloads.
func (o *Orchestrator) Delete(ctx context.Context, id int64) error {
	prompt := fmt.Sprintf("Delete medicine #%d?", id)
	if m, ok := o.cache.Find(id); ok {
		prompt = fmt.Sprintf("Delete %q (%s)?", m.Name, m.TakenTime)
	}
	if !o.confirm(prompt) {
		return ErrDeclined
	}

	if _, err := o.gw.Delete(ctx, id); err != nil {
		o.fail(err)
		return err
	}

	o.notifier.Notify(MsgDeleted, notify.Success)
	return o.reload(ctx)
}

// Search sets the query and re-renders the cached records through it.
func (o *Orchestrator) Search(query string) {
	o.mu.Lock()
	o.query = query
	o.mu.Unlock()
	o.render()
}

// Visible returns the cached records matching the active query.
func (o *Orchestrator) Visible() []model.Medicine {
	return search.Filter(o.cache.All(), o.Query())
}

// reload replaces the cache with the server's list and re-renders. A failed
// reload leaves the cache and the view as they were.
func (o *Orchestrator) reload(ctx context.Context) error {
	records, err := o.gw.ListAll(ctx)
	if err != nil {
		o.notifier.Notify(MsgLoadFailed, notify.Error)
		return fmt.Errorf("reloading medicines: %w", err)
	}
	o.cache.ReplaceAll(records)
	o.render()
	return nil
}

func (o *Orchestrator) render() {
	o.renderer.Render(view.RegionList, o.Visible())
	o.renderer.RenderCount(o.cache.Size())
}

// validate notifies and returns the *model.ValidationError for fields, if any.
func (o *Orchestrator) validate(fields model.Fields) error {
	err := fields.Validate()
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	if verr.Missing() {
		o.notifier.Notify(MsgRequired, notify.Error)
	} else {
		o.notifier.Notify(MsgBadTime, notify.Error)
	}
	return err
}

// fail shows the server's message when there is one, a generic text otherwise.
func (o *Orchestrator) fail(err error) {
	var serr *apiclient.ServerError
	if errors.As(err, &serr) && serr.Message != "" {
		o.notifier.Notify(serr.Message, notify.Error)
		return
	}
	o.notifier.Notify(MsgGeneric, notify.Error)
}
