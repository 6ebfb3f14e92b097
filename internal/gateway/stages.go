package gateway

import (
	"context"

	"github.com/khanhnv2901/seca-recon/internal/validate"
	"go.uber.org/zap"
)

// Authenticate rejects requests without the configured API key.
func (g *Gateway) Authenticate(_ context.Context, req *Request) error {
	if req.APIKey == "" {
		g.logger.Warn("missing API key", zap.String("client", req.ClientID))
		return authError(MsgAPIKeyRequired)
	}
	if !validate.ValidateAPIKey(req.APIKey, g.apiKey) {
		g.logger.Warn("invalid API key", zap.String("client", req.ClientID))
		return authError(MsgInvalidAPIKey)
	}
	g.logger.Debug("valid API key used", zap.String("client", req.ClientID))
	return nil
}

// RateCheck consumes one unit of the client's budget for this operation.
func (g *Gateway) RateCheck(_ context.Context, req *Request) error {
	key := req.ClientID + "|" + string(req.Operation)
	if !g.budget.CheckAndConsume(key) {
		g.logger.Warn("rate_limit_exceeded",
			zap.String("client", req.ClientID),
			zap.String("operation", string(req.Operation)),
			zap.Int("limit", g.budget.Limit()),
		)
		return rateLimitError()
	}
	return nil
}

// Validate checks the target fields for the request's operation.
func (g *Gateway) Validate(_ context.Context, req *Request) error {
	switch req.Operation {
	case OpWebsite:
		if out := validate.ValidateURL(req.URL); !out.Valid {
			g.logger.Warn("invalid URL provided",
				zap.String("url", req.URL),
				zap.String("client", req.ClientID),
			)
			return validationError(out.Reason)
		}
	case OpPort, OpBanner:
		if out := validate.ValidateHostname(req.Host); !out.Valid {
			g.logger.Warn("invalid hostname provided",
				zap.String("host", req.Host),
				zap.String("client", req.ClientID),
			)
			return validationError(out.Reason)
		}
		port, err := validate.ParsePort(req.Port)
		if err != nil {
			g.logger.Warn("invalid port provided",
				zap.Any("port", req.Port),
				zap.String("client", req.ClientID),
			)
			return validationError(err.Error())
		}
		if out := g.validator.ValidatePort(port); !out.Valid {
			g.logger.Warn("invalid port provided",
				zap.Int("port", port),
				zap.String("client", req.ClientID),
			)
			return validationError(out.Reason)
		}
		req.port = port
	default:
		return validationError("Unsupported operation")
	}
	return nil
}
