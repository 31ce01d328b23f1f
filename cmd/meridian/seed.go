package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/meridian-crm/meridian/internal/cli"
	"github.com/meridian-crm/meridian/internal/seed"
)

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the database with synthetic demo data",
		Long: `Generate a synthetic user population with downloads, registrations,
app events, orders, and initial lifecycle stages. Useful for demoing the
dashboards or exercising the lifecycle jobs against realistic data.`,
		RunE: runSeed,
	}

	cmd.Flags().Int("count", seed.DefaultUserCount, "Number of users to generate")
	cmd.Flags().Int64("seed", 0, "RNG seed for reproducible data (0 uses current time)")

	return cmd
}

func runSeed(cmd *cobra.Command, _ []string) error {
	count, _ := cmd.Flags().GetInt("count")
	rngSeed, _ := cmd.Flags().GetInt64("seed")
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	fmt.Println(cli.FormatTitle("Seeding demo data"))

	generator := seed.NewGenerator(store, rngSeed, os.Stdout)
	created, err := generator.Generate(ctx, count)
	if err != nil {
		return fmt.Errorf("seeding failed after %d users: %w", created, err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Generated %d users", created)))

	return nil
}
