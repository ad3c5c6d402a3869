package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/medrem/internal/model"
)

var (
	addTime        string
	addDosage      string
	addUses        string
	addSideEffects string
	addNow         bool
)

var addCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a medicine",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addTime, "time", model.DefaultTakenTime, "Time of day to take it (HH:MM)")
	addCmd.Flags().StringVar(&addDosage, "dosage", "", "Dosage, e.g. \"500mg\"")
	addCmd.Flags().StringVar(&addUses, "uses", "", "Comma-separated uses")
	addCmd.Flags().StringVar(&addSideEffects, "side-effects", "", "Comma-separated side effects")
	addCmd.Flags().BoolVar(&addNow, "now", false, "Use the current time instead of --time")
}

func runAdd(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	a := newApp(cfg, nil, nil)

	form := a.orch.AddForm()
	form.Name = args[0]
	form.TakenTime = addTime
	form.Dosage = addDosage
	form.Uses = addUses
	form.SideEffects = addSideEffects
	a.orch.SetAddForm(form)
	if addNow {
		a.orch.UseCurrentTime()
	}

	form = a.orch.AddForm()
	exitOnError(a.orch.Add(context.Background(), form))

	fmt.Printf("Added %q at %s. %d medicine(s) on the list.\n",
		form.Fields().Name, form.Fields().TakenTime, a.orch.Cache().Size())
	return nil
}
