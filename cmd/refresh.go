package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Reload the medicine list from the server",
	Args:  cobra.NoArgs,
	RunE:  runRefresh,
}

func runRefresh(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	a := newApp(cfg, nil, nil)

	exitOnError(a.orch.Refresh(context.Background()))

	fmt.Printf("%d medicine(s) loaded from %s\n", a.orch.Cache().Size(), cfg.Client.BaseURL)
	return nil
}
