package app

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paysign/internal/client"
	"paysign/internal/common/errors"
	"paysign/internal/common/logging"
	"paysign/internal/config"
	"paysign/internal/signing"
	"paysign/internal/webhooks"
)

func testConfig(upstream string) *config.Config {
	return &config.Config{
		Port:               "0",
		TimestampTolerance: "300s",
		MaxBodyBytes:       "1048576",
		CredentialStore:    "memory",
		UpstreamURL:        upstream,
	}
}

func TestApp_HandlerVerifiesAndProxies(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, r.Header.Get("X-Authenticated-Api-Key"))
	}))
	defer upstream.Close()

	ctx := context.Background()
	a, err := New(ctx, testConfig(upstream.URL), logging.NewNopLogger())
	require.NoError(t, err)
	defer a.Cleanup()

	creds := signing.Credentials{APIKey: "pk_test", SecretKey: "sk_test"}
	require.NoError(t, a.Store.Put(ctx, creds))

	handler, err := a.Handler()
	require.NoError(t, err)
	gw := httptest.NewServer(handler)
	defer gw.Close()

	c, err := client.New(gw.URL, creds, client.WithHTTPClient(gw.Client()))
	require.NoError(t, err)

	resp, err := c.Do(ctx, http.MethodGet, "/api/v4/payments/raisboy/balance", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pk_test", string(body))
}

func TestApp_Metrics(t *testing.T) {
	ctx := context.Background()

	cfg := testConfig("http://upstream.internal")
	a, err := New(ctx, cfg, logging.NewNopLogger())
	require.NoError(t, err)
	defer a.Cleanup()
	require.NotNil(t, a.Metrics)

	handler, err := a.Handler()
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")

	cfg.MetricsEnabled = "false"
	b, err := New(ctx, cfg, logging.NewNopLogger())
	require.NoError(t, err)
	defer b.Cleanup()
	assert.Nil(t, b.Metrics)
}

func TestApp_UnknownStore(t *testing.T) {
	cfg := testConfig("http://upstream.internal")
	cfg.CredentialStore = "etcd"

	_, err := New(context.Background(), cfg, logging.NewNopLogger())
	assert.True(t, errors.IsType(err, errors.ErrTypeConfig))
}

func TestCallerCredentials(t *testing.T) {
	_, err := CallerCredentials(&config.Config{APIKey: "pk"})
	assert.True(t, errors.IsType(err, errors.ErrTypeConfig))

	creds, err := CallerCredentials(&config.Config{APIKey: "pk", SecretKey: "sk"})
	require.NoError(t, err)
	assert.Equal(t, "pk", creds.APIKey)
}

func TestLoggingHandler(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.NewZapLogger(logging.LogConfig{Level: logging.InfoLevel, Output: &buf, Format: "json"})
	require.NoError(t, err)

	h := LoggingHandler{Logger: logger}
	require.NoError(t, h.HandlePayout(context.Background(), webhooks.Event{Event: webhooks.EventPayoutCompleted}, webhooks.PayoutData{PayoutID: "pay_1"}))
	require.NoError(t, h.HandleDeposit(context.Background(), webhooks.Event{Event: webhooks.EventDepositFailed}, webhooks.DepositData{DepositID: "dep_1"}))

	assert.Contains(t, buf.String(), "pay_1")
	assert.Contains(t, buf.String(), "deposit.failed")
}
