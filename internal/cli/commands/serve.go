package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eighteen73/custom-tables/internal/admin"
	"github.com/eighteen73/custom-tables/internal/web/server"
)

// NewServeCommand creates the serve command
func NewServeCommand(opts *globalOptions) *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Register the entities and serve the admin host",
		Long: `Register every entity declared in the definitions file, bringing
the tables up to their declared versions, then serve the admin screens
and REST routes until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, opts, address)
		},
	}

	cmd.Flags().StringVarP(&address, "address", "a", "", "Listen address (overrides server.address)")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, opts *globalOptions, address string) error {
	a, err := newApp(ctx, opts.dir)
	if err != nil {
		return err
	}
	defer a.close()

	if _, err := a.initEntities(ctx); err != nil {
		return fmt.Errorf("failed to register entities: %w", err)
	}

	host := admin.NewHost(a.tables, a.panels, a.bus, admin.Options{
		AdminPrefix: a.config.Server.AdminPrefix,
		RESTPrefix:  a.config.Server.RESTPrefix,
		Logger:      a.logger,
	})

	srvConfig := server.DefaultConfig(host.Handler())
	srvConfig.Address = a.config.Server.Address
	if address != "" {
		srvConfig.Address = address
	}
	srvConfig.Logger = a.logger

	srv, err := server.New(srvConfig)
	if err != nil {
		return err
	}
	if err := srv.Listen(); err != nil {
		return err
	}

	color.New(color.FgGreen, color.Bold).Fprintf(cmd.OutOrStdout(),
		"Serving %d tables on http://%s%s\n", len(a.tables.All()), srv.Addr(), a.config.Server.AdminPrefix)
	a.logger.Info("admin host ready", zap.String("address", srv.Addr()))

	return srv.Serve(ctx)
}
