package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"ipamhosts/internal/hosts"
	"ipamhosts/internal/monitor"
	"ipamhosts/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the host directory HTTP server. With watch enabled the dnsmasq
static, leases and hosts files are imported at startup and again whenever
they change.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if cfg.Watch {
		if err := ensureUser(st, cfg.ImportOwner); err != nil {
			return fmt.Errorf("preparing import owner: %w", err)
		}
		im := newImporter(st)
		files := im.Files()
		mon := monitor.New(im, files.Static, files.Leases, files.Hosts)
		if err := mon.Start(); err != nil {
			return fmt.Errorf("starting monitor: %w", err)
		}
		defer mon.Stop()
	}

	svc := hosts.NewService(st, hosts.WithDynamicIP(cfg.AllowDynamicIP))
	server := web.NewServer(cfg, svc, st)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed: %w", err)
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
