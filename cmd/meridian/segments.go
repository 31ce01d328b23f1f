package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meridian-crm/meridian/internal/cli"
	"github.com/meridian-crm/meridian/internal/common"
	"github.com/meridian-crm/meridian/internal/model"
	"github.com/meridian-crm/meridian/internal/segment"
)

func segmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "segments",
		Short: "Segment management",
	}

	cmd.AddCommand(segmentsListCmd())
	cmd.AddCommand(segmentsPreviewCmd())

	return cmd
}

func segmentsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved segments",
		RunE:  runSegmentsList,
	}
}

func segmentsPreviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Preview the users matching a filter list",
		Long: `Evaluate a JSON filter list against the current user population and
print the matching users. Filters look like:

  [{"field": "order_count", "op": ">", "value": 5}]

Unsupported field/operator combinations are skipped and reported.`,
		RunE: runSegmentsPreview,
	}

	cmd.Flags().String("filters", "[]", "JSON array of segment filters")
	cmd.Flags().String("file", "", "Read the filter JSON from a file instead")

	return cmd
}

func runSegmentsList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	segments, err := store.ListSegments(ctx)
	if err != nil {
		return fmt.Errorf("failed to list segments: %w", err)
	}

	fmt.Println(cli.FormatTitle("Segments"))
	if len(segments) == 0 {
		fmt.Println(cli.MutedStyle.Render("No segments defined"))
		return nil
	}

	for _, s := range segments {
		fmt.Printf("%s %s %s\n",
			cli.HighlightStyle.Render(fmt.Sprintf("#%d", s.ID)),
			s.Name,
			cli.MutedStyle.Render(fmt.Sprintf("(%d filters)", len(s.Filters))))
	}

	return nil
}

func runSegmentsPreview(cmd *cobra.Command, _ []string) error {
	raw, _ := cmd.Flags().GetString("filters")
	file, _ := cmd.Flags().GetString("file")

	if file != "" {
		data, err := os.ReadFile(file) //nolint:gosec // operator-supplied path
		if err != nil {
			return fmt.Errorf("failed to read filter file: %w", err)
		}
		raw = string(data)
	}

	var filters []model.SegmentFilter
	if err := json.Unmarshal([]byte(raw), &filters); err != nil {
		return common.NewUserError("invalid filter JSON", err)
	}

	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	evaluator := segment.NewEvaluator(store)
	preview, err := evaluator.Preview(ctx, filters)
	if err != nil {
		return fmt.Errorf("preview failed: %w", err)
	}

	fmt.Println(cli.FormatTitle("Segment preview"))
	fmt.Printf("%s matching users\n", cli.HighlightStyle.Render(fmt.Sprintf("%d", preview.TotalCount)))

	for _, skipped := range preview.Skipped {
		fmt.Println(cli.FormatWarning(fmt.Sprintf("Skipped unsupported filter: %s %s", skipped.Field, skipped.Op)))
	}

	if len(preview.Users) == 0 {
		fmt.Println(cli.MutedStyle.Render("No users matched"))
		return nil
	}

	fmt.Println(cli.TableHeaderStyle.Render(fmt.Sprintf("%-16s %-10s %-10s %s", "ID", "Stage", "Tier", "Orders")))
	for _, u := range preview.Users {
		fmt.Printf("%-16s %-10s %-10s %d\n", u.ID, u.LifecycleStage, u.LoyaltyTier, u.OrderCount)
	}

	if preview.TotalCount > len(preview.Users) {
		fmt.Println(cli.MutedStyle.Render(fmt.Sprintf("...and %d more", preview.TotalCount-len(preview.Users))))
	}

	return nil
}
