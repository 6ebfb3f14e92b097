package checker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	consts "github.com/khanhnv2901/seca-recon/internal/shared/constants"
	sharederrors "github.com/khanhnv2901/seca-recon/internal/shared/errors"
	"go.uber.org/zap"
)

// CheckWebsite issues a single GET against target and reports the first
// response code. Redirects are not followed.
func (e *Engine) CheckWebsite(ctx context.Context, target string) WebsiteResult {
	result := WebsiteResult{URL: target}
	log := e.logger.With(zap.String("url", target))
	log.Info("checking website")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		result.Message = MessageRequestError
		result.Error = strPtr(err.Error())
		log.Error("website request build failed", zap.Error(err))
		return result
	}
	req.Header.Set("User-Agent", consts.BrowserUserAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		e.classifyWebsiteError(&result, err)
		log.Warn("website check failed",
			zap.String("message", result.Message),
			zap.Error(err),
		)
		return result
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, consts.WebsiteBodyDrainBytes))

	result.StatusCode = intPtr(resp.StatusCode)
	if resp.StatusCode == http.StatusOK {
		result.Message = MessageOnline
	} else {
		result.Message = fmt.Sprintf("Response: %d", resp.StatusCode)
	}
	log.Info("website check completed", zap.String("message", result.Message))
	return result
}

func (e *Engine) classifyWebsiteError(result *WebsiteResult, err error) {
	var urlErr *url.Error
	switch {
	case errors.Is(err, sharederrors.ErrDestinationBlocked):
		result.Message = MessageRequestError
		result.Error = strPtr(sharederrors.ErrDestinationBlocked.Error())
	case isTimeout(err):
		result.Message = MessageTimeout
		result.Error = strPtr(ErrTextRequestTimedOut)
	case isConnectFailure(err):
		result.Message = MessageConnectionError
		result.Error = strPtr(ErrTextUnableToConnect)
	case errors.As(err, &urlErr):
		result.Message = MessageRequestError
		result.Error = strPtr(err.Error())
	default:
		result.Message = MessageUnexpectedError
		result.Error = strPtr(err.Error())
	}
}
