package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meridian-crm/meridian/internal/cli"
	"github.com/meridian-crm/meridian/internal/lifecycle"
)

func lifecycleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lifecycle",
		Short: "Lifecycle stage management",
	}

	cmd.AddCommand(lifecycleRefreshCmd())

	return cmd
}

func lifecycleRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Recalculate every user's lifecycle stage",
		Long: `Scan all users, reclassify each from their order history, and record
stage transitions in the lifecycle history log. Users whose stage is
already correct are left untouched.`,
		RunE: runLifecycleRefresh,
	}
}

func runLifecycleRefresh(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	fmt.Println(cli.FormatTitle("Lifecycle refresh"))

	recalculator := lifecycle.NewRecalculator(store)
	summary, err := recalculator.RecalculateAll(ctx)
	if err != nil {
		return fmt.Errorf("recalculation failed: %w", err)
	}

	content := fmt.Sprintf("Scanned: %s\nUpdated: %s\nFailed:  %s",
		cli.HighlightStyle.Render(fmt.Sprintf("%d", summary.Scanned)),
		cli.HighlightStyle.Render(fmt.Sprintf("%d", summary.Updated)),
		cli.HighlightStyle.Render(fmt.Sprintf("%d", summary.Failed)))
	fmt.Println(cli.RenderBox(content))

	if summary.Failed > 0 {
		fmt.Println(cli.FormatWarning(fmt.Sprintf("%d users failed to update; see logs", summary.Failed)))
	} else {
		fmt.Println(cli.FormatSuccess("All stages up to date"))
	}

	return nil
}
