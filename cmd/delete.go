package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a medicine",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Do not ask for confirmation")
}

func runDelete(cmd *cobra.Command, args []string) error {
	id, err := parseRecordID(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	confirm := promptConfirm(bufio.NewReader(os.Stdin), os.Stderr)
	if deleteYes {
		confirm = func(string) bool { return true }
	}

	cfg := mustLoadConfig()
	a := newApp(cfg, nil, confirm)
	ctx := context.Background()

	// Loading first lets the prompt show the medicine's name.
	exitOnError(a.orch.Load(ctx))
	exitOnError(a.orch.Delete(ctx, id))

	fmt.Printf("Deleted #%d. %d medicine(s) left.\n", id, a.orch.Cache().Size())
	return nil
}
