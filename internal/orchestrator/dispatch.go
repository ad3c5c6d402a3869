package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Tiliavir/medrem/internal/timecalc"
)

// Handler runs one user action with its arguments.
type Handler func(ctx context.Context, args []string) error

// Dispatch runs the handler registered for action.
func (o *Orchestrator) Dispatch(ctx context.Context, action string, args []string) error {
	h, ok := o.handlers[strings.ToLower(action)]
	if !ok {
		return fmt.Errorf("unknown action %q (try: %s)", action, strings.Join(o.Actions(), ", "))
	}
	return h(ctx, args)
}

// Actions lists the registered action names.
func (o *Orchestrator) Actions() []string {
	names := make([]string, 0, len(o.handlers))
	for name := range o.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (o *Orchestrator) dispatchTable() map[string]Handler {
	return map[string]Handler{
		"list": func(ctx context.Context, args []string) error {
			o.render()
			return nil
		},
		"refresh": func(ctx context.Context, args []string) error {
			return o.Refresh(ctx)
		},
		"search": func(ctx context.Context, args []string) error {
			o.Search(strings.Join(args, " "))
			return nil
		},
		"add": func(ctx context.Context, args []string) error {
			form := o.AddForm()
			for _, arg := range args {
				if arg == "now" {
					form.TakenTime = timecalc.MinuteKey(o.now())
					continue
				}
				key, value, ok := strings.Cut(arg, "=")
				if !ok {
					return fmt.Errorf("expected field=value, got %q", arg)
				}
				if err := form.Set(key, value); err != nil {
					return err
				}
			}
			o.SetAddForm(form)
			return o.Add(ctx, form)
		},
		"now": func(ctx context.Context, args []string) error {
			o.UseCurrentTime()
			return nil
		},
		"reset": func(ctx context.Context, args []string) error {
			o.ResetAddForm()
			return nil
		},
		"edit": func(ctx context.Context, args []string) error {
			id, err := parseID(args)
			if err != nil {
				return err
			}
			if !o.BeginEdit(id) {
				return fmt.Errorf("medicine #%d not found", id)
			}
			return nil
		},
		"set": func(ctx context.Context, args []string) error {
			if len(args) < 1 {
				return fmt.Errorf("usage: set <field> <value>")
			}
			return o.session.SetField(args[0], strings.Join(args[1:], " "))
		},
		"save": func(ctx context.Context, args []string) error {
			return o.SubmitEdit(ctx)
		},
		"cancel": func(ctx context.Context, args []string) error {
			o.CancelEdit()
			return nil
		},
		"delete": func(ctx context.Context, args []string) error {
			id, err := parseID(args)
			if err != nil {
				return err
			}
			return o.Delete(ctx, id)
		},
	}
}

func parseID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected exactly one record id")
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid record id %q", args[0])
	}
	return id, nil
}
