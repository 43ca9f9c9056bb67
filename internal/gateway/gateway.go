// Package gateway fronts an upstream payment API with signature
// verification. Verified requests are reverse proxied unchanged apart from
// the signature header.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/gorilla/mux"

	"paysign/internal/common/errors"
	"paysign/internal/common/logging"
	"paysign/internal/credentials"
	"paysign/internal/metrics"
	"paysign/internal/middleware"
	"paysign/internal/signing"
	"paysign/internal/verifier"
	"paysign/internal/webhooks"
)

// HeaderAuthenticatedAPIKey tells the upstream which caller was verified.
const HeaderAuthenticatedAPIKey = "X-Authenticated-Api-Key"

// Options configures New.
type Options struct {
	Upstream *url.URL
	Verifier *verifier.Verifier
	Auth     middleware.AuthConfig
	// Health reports store liveness on /health when set.
	Health credentials.HealthChecker
	// Webhooks mounts /webhooks/payout and /webhooks/deposit when set.
	Webhooks *webhooks.Receiver
	// Metrics serves /metrics and records requests and verifications when set.
	Metrics *metrics.Service
	Logger  logging.Logger
}

// New builds the gateway handler: request ids and access logs around a
// router serving /health, the optional /metrics and webhook endpoints, and an
// authenticated proxy for everything else.
func New(opts Options) (http.Handler, error) {
	if opts.Upstream == nil || opts.Upstream.Scheme == "" || opts.Upstream.Host == "" {
		return nil, errors.ConfigError("gateway upstream must be an absolute URL")
	}
	if opts.Verifier == nil {
		return nil, errors.ConfigError("gateway requires a verifier")
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	if opts.Auth.Logger == nil {
		opts.Auth.Logger = opts.Logger
	}
	if opts.Metrics != nil && opts.Auth.Metrics == nil {
		opts.Auth.Metrics = opts.Metrics
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", healthHandler(opts.Health)).Methods(http.MethodGet)
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics.Handler()).Methods(http.MethodGet)
	}
	if opts.Webhooks != nil {
		opts.Webhooks.Register(r)
	}

	authenticate := middleware.Authenticate(opts.Verifier, opts.Auth)
	r.PathPrefix("/").Handler(authenticate(newProxy(opts.Upstream, opts.Logger)))

	var handler http.Handler = r
	if opts.Metrics != nil {
		handler = middleware.Metrics(opts.Metrics)(handler)
	}
	return middleware.RequestID(middleware.Logging(opts.Logger)(handler)), nil
}

func newProxy(upstream *url.URL, logger logging.Logger) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(upstream)
			pr.SetXForwarded()

			pr.Out.Header.Del(signing.HeaderSignature)
			pr.Out.Header.Del(HeaderAuthenticatedAPIKey)
			if apiKey, ok := middleware.APIKeyFromContext(pr.In.Context()); ok {
				pr.Out.Header.Set(HeaderAuthenticatedAPIKey, apiKey)
			}
			if id := logging.RequestIDFromContext(pr.In.Context()); id != "" {
				pr.Out.Header.Set(middleware.HeaderRequestID, id)
			}
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.WithContext(r.Context()).Error("Upstream request failed", err,
				logging.String("path", r.URL.Path),
			)
			middleware.WriteErrorStatus(w, http.StatusBadGateway, errors.ConnectionError("upstream unavailable", err))
		},
	}
}

// HealthResponse is the /health body.
type HealthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store,omitempty"`
}

func healthHandler(checker credentials.HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{Status: "ok"}
		status := http.StatusOK

		if checker != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			resp.Store = "ok"
			if err := checker.Health(ctx); err != nil {
				resp.Status = "degraded"
				resp.Store = "unavailable"
				status = http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
