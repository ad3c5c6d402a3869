package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/medrem/internal/model"
	"github.com/Tiliavir/medrem/internal/view"
)

var (
	listSearch       string
	listFormat       string
	listRemoteSearch bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List medicines",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listSearch, "search", "", "Only show medicines whose name contains this text")
	listCmd.Flags().StringVar(&listFormat, "format", view.FormatText, "Output format: text, json, csv")
	listCmd.Flags().BoolVar(&listRemoteSearch, "remote-search", false, "Let the server filter by --search")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	a := newApp(cfg, nil, nil)
	ctx := context.Background()

	var records []model.Medicine
	if listRemoteSearch {
		var err error
		records, err = a.client.Search(ctx, listSearch)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(exitCode(err))
		}
	} else {
		exitOnError(a.orch.Load(ctx))
		a.orch.Search(listSearch)
		records = a.orch.Visible()
	}

	if listFormat == view.FormatText {
		printList(records, a.orch.Cache().Size(), listRemoteSearch)
		return nil
	}
	if err := view.Write(os.Stdout, listFormat, records); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return nil
}

// printList prints the cards followed by a count line.
func printList(records []model.Medicine, total int, remote bool) {
	fmt.Print(view.Cards(records))
	if len(records) == 0 {
		return
	}
	if remote || len(records) == total {
		fmt.Printf("\n%d medicine(s)\n", len(records))
		return
	}
	fmt.Printf("\n%d of %d medicine(s)\n", len(records), total)
}
