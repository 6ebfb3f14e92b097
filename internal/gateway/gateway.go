// Package gateway guards every probe with authentication, a per-client rate
// budget and target validation, in that order.
//
// Each guard is a Stage. Stages are composed with Chain and the first error
// short-circuits the request, so an unauthenticated, over-budget or unsafe
// request never reaches the engine and never opens a socket.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/khanhnv2901/seca-recon/internal/checker"
	"github.com/khanhnv2901/seca-recon/internal/ratelimit"
	sharederrors "github.com/khanhnv2901/seca-recon/internal/shared/errors"
	"github.com/khanhnv2901/seca-recon/internal/validate"
	"go.uber.org/zap"
)

// Operation names a probe endpoint class.
type Operation string

const (
	OpWebsite Operation = "website"
	OpPort    Operation = "port"
	OpBanner  Operation = "banner"
)

// Request is one probe invocation as seen by the gateway. Website requests
// carry URL; port and banner requests carry Host and Port.
type Request struct {
	Operation Operation
	APIKey    string
	ClientID  string

	URL  string
	Host string
	// Port is the raw decoded value (number or string); the validate stage
	// parses it.
	Port any

	port int
}

// Stage inspects a request and returns nil to continue or an error to stop.
type Stage func(ctx context.Context, req *Request) error

// Chain runs stages in order and stops at the first error.
func Chain(stages ...Stage) Stage {
	return func(ctx context.Context, req *Request) error {
		for _, stage := range stages {
			if err := stage(ctx, req); err != nil {
				return err
			}
		}
		return nil
	}
}

// Prober is the engine surface the gateway delegates to.
type Prober interface {
	CheckWebsite(ctx context.Context, url string) checker.WebsiteResult
	CheckPort(ctx context.Context, host string, port int) checker.PortResult
	GrabBanner(ctx context.Context, host string, port int) checker.BannerResult
}

// Recorder receives gateway and probe observations.
type Recorder interface {
	ObserveProbe(operation, outcome string, d time.Duration)
	ObserveRejection(operation, reason string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveProbe(string, string, time.Duration) {}
func (nopRecorder) ObserveRejection(string, string)            {}

// Options wires a Gateway.
type Options struct {
	APIKey    string
	Budget    *ratelimit.Budget
	Validator validate.Validator
	Engine    Prober
	Metrics   Recorder
	Logger    *zap.Logger
}

// Gateway is safe for concurrent use; its only mutable state is the Budget.
type Gateway struct {
	apiKey    string
	budget    *ratelimit.Budget
	validator validate.Validator
	engine    Prober
	metrics   Recorder
	logger    *zap.Logger

	guard Stage
}

// New validates opts and builds a Gateway.
func New(opts Options) (*Gateway, error) {
	if opts.APIKey == "" {
		return nil, sharederrors.ErrMissingAPIKey
	}
	if opts.Engine == nil {
		return nil, fmt.Errorf("%w: engine is required", sharederrors.ErrInvalidConfig)
	}
	if opts.Budget == nil {
		return nil, fmt.Errorf("%w: rate budget is required", sharederrors.ErrInvalidConfig)
	}
	if opts.Metrics == nil {
		opts.Metrics = nopRecorder{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	g := &Gateway{
		apiKey:    opts.APIKey,
		budget:    opts.Budget,
		validator: opts.Validator,
		engine:    opts.Engine,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
	}
	g.guard = Chain(g.Authenticate, g.RateCheck, g.Validate)
	return g, nil
}

// Handle runs the guard stages and, if they all pass, the probe. The result
// is one of the checker result types. Probe failures are reported inside the
// result; only guard rejections and internal faults come back as *Error.
func (g *Gateway) Handle(ctx context.Context, req Request) (result any, err error) {
	if err := g.guard(ctx, &req); err != nil {
		var gwErr *Error
		if errors.As(err, &gwErr) {
			g.metrics.ObserveRejection(string(req.Operation), gwErr.Kind.String())
		}
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("probe panicked",
				zap.String("operation", string(req.Operation)),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			result, err = nil, internalError()
		}
	}()

	// Probes are bounded by their own timeouts, not by the caller going away.
	probeCtx := context.WithoutCancel(ctx)
	start := time.Now()

	switch req.Operation {
	case OpWebsite:
		res := g.engine.CheckWebsite(probeCtx, req.URL)
		g.metrics.ObserveProbe(string(req.Operation), websiteOutcome(res), time.Since(start))
		g.logger.Info("website check completed",
			zap.String("url", req.URL),
			zap.String("client", req.ClientID),
		)
		return res, nil
	case OpPort:
		res := g.engine.CheckPort(probeCtx, req.Host, req.port)
		g.metrics.ObserveProbe(string(req.Operation), res.Status, time.Since(start))
		g.logger.Info("port check completed",
			zap.String("host", req.Host),
			zap.Int("port", req.port),
			zap.String("client", req.ClientID),
		)
		return res, nil
	case OpBanner:
		res := g.engine.GrabBanner(probeCtx, req.Host, req.port)
		outcome := "Banner"
		if res.Banner == nil {
			outcome = "Error"
		}
		g.metrics.ObserveProbe(string(req.Operation), outcome, time.Since(start))
		g.logger.Info("banner grab completed",
			zap.String("host", req.Host),
			zap.Int("port", req.port),
			zap.String("client", req.ClientID),
		)
		return res, nil
	default:
		g.logger.Error("unknown operation", zap.String("operation", string(req.Operation)))
		return nil, internalError()
	}
}

// websiteOutcome is the metric label for a website check: the status class
// for any HTTP answer, the fixed failure message otherwise.
func websiteOutcome(res checker.WebsiteResult) string {
	if res.StatusCode != nil {
		return fmt.Sprintf("%dxx", *res.StatusCode/100)
	}
	return res.Message
}
