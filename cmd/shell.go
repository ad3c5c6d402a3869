package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/medrem/internal/apiclient"
	"github.com/Tiliavir/medrem/internal/model"
	"github.com/Tiliavir/medrem/internal/orchestrator"
	"github.com/Tiliavir/medrem/internal/reminder"
	"github.com/Tiliavir/medrem/internal/session"
	"github.com/Tiliavir/medrem/internal/view"
)

var shellRemind bool

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive session: list, add, edit and delete medicines",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

func init() {
	shellCmd.Flags().BoolVar(&shellRemind, "remind", false, "Also print reminders while the shell is open")
}

const shellHelp = `Commands:
  list                          show the (filtered) list
  search <text>                 filter by name; "search" alone clears
  add name=<n> time=HH:MM [dosage=.. uses=a,b side_effects=..] [now]
  now | reset                   set the add form's time to now | reset the add form
  edit <id>                     open a medicine for editing
  set <field> <value>           change a field of the open medicine
  save | cancel                 submit | close the edit form
  delete <id>                   delete a medicine (asks first)
  refresh                       reload from the server
  clock                         show the current time
  help | quit`

// terminalSurface shows the edit form on the terminal.
type terminalSurface struct {
	out io.Writer
}

func (s terminalSurface) Open(id int64, f session.Form) {
	fmt.Fprintf(s.out, "Editing #%d\n  name: %s\n  time: %s\n  dosage: %s\n  uses: %s\n  side_effects: %s\n",
		id, f.Name, f.TakenTime, f.Dosage, f.Uses, f.SideEffects)
	fmt.Fprintln(s.out, `Use "set <field> <value>", then "save" or "cancel".`)
}

func (s terminalSurface) Close() {
	fmt.Fprintln(s.out, "Edit form closed.")
}

func runShell(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	in := bufio.NewReader(os.Stdin)
	a := newApp(cfg, terminalSurface{out: os.Stdout}, promptConfirm(in, os.Stdout))

	a.screen.OnChange = func(region, content string) {
		switch region {
		case view.RegionList:
			fmt.Print(content)
		case view.RegionCount:
			fmt.Printf("(%s medicine(s))\n", content)
		}
	}

	clock := cron.New(cron.WithSeconds())
	renderer := view.NewRenderer(a.screen)
	renderer.RenderClock(time.Now())
	if _, err := clock.AddFunc("* * * * * *", func() { renderer.RenderClock(time.Now()) }); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	clock.Start()
	defer clock.Stop()

	if shellRemind {
		r := newShellReminder(a, cfg.Reminder.Schedule, os.Stdout)
		if err := r.Start(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer r.Stop()
	}

	ctx := context.Background()
	fmt.Printf("medrem shell – %s (type \"help\")\n", cfg.Client.BaseURL)
	_ = a.orch.Load(ctx)

	for {
		fmt.Print("medrem> ")
		line, err := in.ReadString('\n')
		if err != nil && line == "" {
			fmt.Println()
			return nil
		}
		words, perr := splitArgs(line)
		if perr != nil {
			fmt.Fprintln(os.Stderr, perr)
			continue
		}
		if len(words) == 0 {
			continue
		}

		switch strings.ToLower(words[0]) {
		case "quit", "exit":
			return nil
		case "help", "?":
			fmt.Println(shellHelp)
			continue
		case "clock":
			fmt.Println(a.screen.Region(view.RegionClock))
			continue
		case "form":
			f := a.orch.AddForm()
			fmt.Printf("Add form: name=%q time=%q dosage=%q uses=%q side_effects=%q\n",
				f.Name, f.TakenTime, f.Dosage, f.Uses, f.SideEffects)
			continue
		}

		reportShellError(os.Stderr, a.orch.Dispatch(ctx, words[0], words[1:]))
	}
}

// newShellReminder polls with the shell's client into a cache of its own.
// Only orchestrator loads replace the list the shell renders.
func newShellReminder(a *app, schedule string, out io.Writer) *reminder.Reminder {
	return reminder.New(reminder.Options{
		Source:   a.client,
		Out:      out,
		Schedule: schedule,
	})
}

// reportShellError prints errors that were not already shown as a
// notification.
func reportShellError(w io.Writer, err error) {
	if err == nil {
		return
	}
	var (
		nerr *apiclient.NetworkError
		serr *apiclient.ServerError
		verr *model.ValidationError
	)
	switch {
	case errors.Is(err, orchestrator.ErrDeclined):
		fmt.Fprintln(w, "Cancelled.")
	case errors.As(err, &nerr), errors.As(err, &serr), errors.As(err, &verr),
		errors.Is(err, orchestrator.ErrNoSession):
	default:
		fmt.Fprintln(w, err)
	}
}

// splitArgs splits a shell line on whitespace. Single or double quotes group
// words; a backslash escapes the next character.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)
	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
			inWord = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inWord = true
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if inWord {
				args = append(args, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(r)
			inWord = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if inWord {
		args = append(args, cur.String())
	}
	return args, nil
}
