package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var (
	editName        string
	editTime        string
	editDosage      string
	editUses        string
	editSideEffects string
)

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change fields of a medicine",
	Long: `Change fields of a medicine. Only the flags given are changed; the other
fields keep their current values.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	editCmd.Flags().StringVar(&editName, "name", "", "New name")
	editCmd.Flags().StringVar(&editTime, "time", "", "New time of day (HH:MM)")
	editCmd.Flags().StringVar(&editDosage, "dosage", "", "New dosage")
	editCmd.Flags().StringVar(&editUses, "uses", "", "New comma-separated uses")
	editCmd.Flags().StringVar(&editSideEffects, "side-effects", "", "New comma-separated side effects")
}

func runEdit(cmd *cobra.Command, args []string) error {
	id, err := parseRecordID(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg := mustLoadConfig()
	a := newApp(cfg, nil, nil)
	ctx := context.Background()

	exitOnError(a.orch.Load(ctx))
	if !a.orch.BeginEdit(id) {
		fmt.Fprintf(os.Stderr, "Medicine #%d not found.\n", id)
		os.Exit(1)
	}

	changes := []struct {
		flag  string
		field string
		value string
	}{
		{"name", "name", editName},
		{"time", "time", editTime},
		{"dosage", "dosage", editDosage},
		{"uses", "uses", editUses},
		{"side-effects", "side_effects", editSideEffects},
	}
	changed := 0
	for _, c := range changes {
		if !cmd.Flags().Changed(c.flag) {
			continue
		}
		if err := a.orch.Session().SetField(c.field, c.value); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		changed++
	}
	if changed == 0 {
		a.orch.CancelEdit()
		fmt.Fprintln(os.Stderr, "Nothing to change; pass at least one of --name, --time, --dosage, --uses, --side-effects.")
		os.Exit(1)
	}

	exitOnError(a.orch.SubmitEdit(ctx))

	if m, ok := a.orch.Cache().Find(id); ok {
		fmt.Printf("Updated #%d %s (%s).\n", m.ID, m.Name, m.TakenTime)
	}
	return nil
}

// parseRecordID accepts "3" or "#3".
func parseRecordID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(s), "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid medicine id %q", s)
	}
	return id, nil
}
