package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meridian-crm/meridian/internal/server"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the admin API server",
		Long: `Start the HTTP server that backs the admin panel: user and order
management, segment previews, automation rules, lifecycle jobs, and the
analytics dashboards.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", ":3001", "Listen address for the HTTP server")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	addr := viper.GetString("server.addr")
	if addr == "" {
		addr = ":3001"
	}

	slog.Info("Starting admin API server", "addr", addr)

	srv := server.New(store)
	if err := srv.Run(ctx, addr); err != nil {
		return fmt.Errorf("server exited: %w", err)
	}

	return nil
}
