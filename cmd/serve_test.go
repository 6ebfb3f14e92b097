package cmd

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/khanhnv2901/seca-recon/internal/config"
	sharederrors "github.com/khanhnv2901/seca-recon/internal/shared/errors"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testAppContext(t *testing.T, apiKey string) *AppContext {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	cfg, err := config.Load(v)
	require.NoError(t, err)
	cfg.APIKey = apiKey
	return &AppContext{Config: cfg, Logger: zaptest.NewLogger(t)}
}

func TestNewServiceRequiresAPIKey(t *testing.T) {
	_, err := newService(testAppContext(t, ""), "test")
	assert.ErrorIs(t, err, sharederrors.ErrMissingAPIKey)

	_, err = newService(nil, "test")
	assert.ErrorIs(t, err, sharederrors.ErrInvalidConfig)
}

func TestServeUntilDone(t *testing.T) {
	svc, err := newService(testAppContext(t, "k"), "test")
	require.NoError(t, err)
	defer svc.Close()
	require.NotNil(t, svc.Metrics)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serveUntilDone(ctx, svc.HTTPServer, ln, 5*time.Second, io.Discard)
	}()

	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(base + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, base+"/check_port", strings.NewReader(`{"host":"example.com","port":80}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err = client.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = client.Get(base + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Contains(t, string(body), `seca_recon_rejections_total{operation="port",reason="auth"} 1`)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServeCommandRefusesWithoutKey(t *testing.T) {
	t.Setenv("API_KEY", "")
	_, err := executeCommand(t, "serve", "--port", "0", "--host", "127.0.0.1")
	assert.ErrorIs(t, err, sharederrors.ErrMissingAPIKey)
}
