package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/khanhnv2901/seca-recon/internal/api"
	"github.com/khanhnv2901/seca-recon/internal/checker"
	"github.com/khanhnv2901/seca-recon/internal/gateway"
	"github.com/khanhnv2901/seca-recon/internal/ratelimit"
	sharederrors "github.com/khanhnv2901/seca-recon/internal/shared/errors"
	"github.com/khanhnv2901/seca-recon/internal/telemetry"
	"github.com/khanhnv2901/seca-recon/internal/validate"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"
)

const budgetSweepInterval = time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reconnaissance REST API",
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx := getAppContext(cmd)
		shutdownTimeout, _ := cmd.Flags().GetDuration("shutdown-timeout")

		svc, err := newService(appCtx, Version)
		if err != nil {
			return err
		}
		defer svc.Close()

		ln, err := net.Listen("tcp", appCtx.Config.ListenAddr())
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", appCtx.Config.ListenAddr(), err)
		}
		if n := appCtx.Config.MaxConnections; n > 0 {
			ln = netutil.LimitListener(ln, n)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return serveUntilDone(ctx, svc.HTTPServer, ln, shutdownTimeout, cmd.OutOrStdout())
	},
}

func init() {
	serveCmd.Flags().String("host", "", "Listen host (or set HOST)")
	serveCmd.Flags().Int("port", 0, "Listen port (or set PORT)")
	serveCmd.Flags().String("api-key", "", "Shared secret expected in X-API-Key (or set API_KEY)")
	serveCmd.Flags().Int("max-requests-per-minute", 0, "Per-client budget per endpoint (or set MAX_REQUESTS_PER_MINUTE)")
	serveCmd.Flags().String("allowed-hosts", "", "Comma-separated CORS origins (or set ALLOWED_HOSTS)")
	serveCmd.Flags().Bool("trust-proxy-headers", false, "Identify clients by X-Forwarded-For")
	serveCmd.Flags().Int("max-connections", 0, "Maximum concurrent connections (0 = unlimited)")
	serveCmd.Flags().Duration("shutdown-timeout", 30*time.Second, "Graceful shutdown timeout")
}

// service is the wired HTTP stack for one serve run.
type service struct {
	HTTPServer *http.Server
	Budget     *ratelimit.Budget
	Metrics    *telemetry.Metrics
}

func newService(appCtx *AppContext, version string) (*service, error) {
	if appCtx == nil || appCtx.Config == nil {
		return nil, fmt.Errorf("%w: configuration not loaded", sharederrors.ErrInvalidConfig)
	}
	cfg := appCtx.Config
	logger := appCtx.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: set API_KEY or --api-key", sharederrors.ErrMissingAPIKey)
	}

	var (
		metrics        *telemetry.Metrics
		recorder       gateway.Recorder
		metricsHandler http.Handler
	)
	if cfg.MetricsEnabled {
		m, err := telemetry.NewMetrics()
		if err != nil {
			return nil, err
		}
		metrics, recorder, metricsHandler = m, m, m.Handler()
	}

	engine := checker.NewEngine(checker.Config{
		SocketTimeout: cfg.SocketTimeout,
		HTTPTimeout:   cfg.HTTPTimeout,
		BlockPrivate:  cfg.BlockPrivateDestinations,
		Logger:        logger,
	})

	budget := ratelimit.NewBudget(cfg.MaxRequestsPerMinute)
	budget.StartCleanup(budgetSweepInterval)

	gw, err := gateway.New(gateway.Options{
		APIKey:    cfg.APIKey,
		Budget:    budget,
		Validator: validate.Validator{MinPort: cfg.MinPort, MaxPort: cfg.MaxPort},
		Engine:    engine,
		Metrics:   recorder,
		Logger:    logger,
	})
	if err != nil {
		budget.Stop()
		return nil, err
	}

	server := api.NewServer(api.Config{
		Gateway:           gw,
		Logger:            logger,
		CORSOrigins:       cfg.AllowedHosts,
		Metrics:           metricsHandler,
		Version:           version,
		TrustProxyHeaders: cfg.TrustProxyHeaders,
	})

	// A website probe may take the full HTTP timeout after the body is read.
	writeTimeout := cfg.RequestTimeout + cfg.HTTPTimeout + cfg.SocketTimeout
	return &service{
		HTTPServer: &http.Server{
			Handler:           server,
			ReadHeaderTimeout: cfg.RequestTimeout,
			ReadTimeout:       cfg.RequestTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       120 * time.Second,
			ErrorLog:          zap.NewStdLog(logger),
		},
		Budget:  budget,
		Metrics: metrics,
	}, nil
}

// Close stops background work owned by the service.
func (s *service) Close() {
	s.Budget.Stop()
}

// serveUntilDone serves on ln until ctx is cancelled, then shuts down
// gracefully within timeout.
func serveUntilDone(ctx context.Context, srv *http.Server, ln net.Listener, timeout time.Duration, out io.Writer) error {
	serverErrors := make(chan error, 1)

	go func() {
		fmt.Fprintf(out, "%s API server listening on %s\n", colorInfo("→"), ln.Addr())
		fmt.Fprintf(out, "%s Press Ctrl+C to gracefully shutdown\n", colorInfo("→"))
		serverErrors <- srv.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		fmt.Fprintf(out, "\n%s Shutdown requested, draining connections...\n", colorInfo("→"))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		// Force close if graceful shutdown fails
		if closeErr := srv.Close(); closeErr != nil {
			return fmt.Errorf("failed to gracefully shutdown server: %w (close error: %v)", err, closeErr)
		}
		return fmt.Errorf("failed to gracefully shutdown server: %w", err)
	}

	fmt.Fprintf(out, "%s Server shutdown complete\n", colorSuccess("✓"))
	return nil
}
