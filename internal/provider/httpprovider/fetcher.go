package httpprovider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"dataframe-gateway/internal/logging"
	"dataframe-gateway/internal/model"
	"dataframe-gateway/internal/provider"
)

const tracerName = "dataframe-gateway/httpprovider"

// MetricsRecorder receives fetch outcomes
type MetricsRecorder interface {
	RecordFetch(parser, status string, duration time.Duration, rows int)
	RecordFetchError(kind string)
}

type noopRecorder struct{}

func (noopRecorder) RecordFetch(string, string, time.Duration, int) {}
func (noopRecorder) RecordFetchError(string)                        {}

// FetcherConfig holds transport settings shared by every fetch
type FetcherConfig struct {
	MaxIdleConns    int
	IdleConnTimeout time.Duration
	UserAgent       string
}

// Fetcher executes one HTTP request per spec over a shared connection pool
type Fetcher struct {
	client  *resty.Client
	metrics MetricsRecorder
	tracer  trace.Tracer
	logger  *slog.Logger
}

// NewFetcher creates a fetcher. A nil config uses transport defaults.
func NewFetcher(config *FetcherConfig, metrics MetricsRecorder) *Fetcher {
	if config == nil {
		config = &FetcherConfig{}
	}
	if metrics == nil {
		metrics = noopRecorder{}
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if config.MaxIdleConns > 0 {
		transport.MaxIdleConns = config.MaxIdleConns
		transport.MaxIdleConnsPerHost = config.MaxIdleConns
	}
	if config.IdleConnTimeout > 0 {
		transport.IdleConnTimeout = config.IdleConnTimeout
	}

	logger := logging.New("fetcher")
	client := resty.New().
		SetTransport(transport).
		SetRetryCount(0).
		SetAllowGetMethodPayload(true).
		SetLogger(restyLogger{logger: logger})
	if config.UserAgent != "" {
		client.SetHeader("User-Agent", config.UserAgent)
	}

	return &Fetcher{
		client:  client,
		metrics: metrics,
		tracer:  otel.Tracer(tracerName),
		logger:  logger,
	}
}

// restyLogger routes resty's own diagnostics through slog
type restyLogger struct {
	logger *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), "source", "resty")
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, v...)), "source", "resty")
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), "source", "resty")
}

// Fetch issues the request described by spec and hands the body to its
// parser. The spec timeout bounds the whole exchange, token request included.
func (f *Fetcher) Fetch(ctx context.Context, spec *RequestSpec) (*model.Dataframe, error) {
	ctx, span := f.tracer.Start(ctx, "httpprovider.Fetch", trace.WithAttributes(
		attribute.String("http.method", spec.Method),
		attribute.String("http.url", redactURL(spec.URL)),
		attribute.String("parser", spec.Parser.Name()),
	))
	defer span.End()

	start := time.Now()
	df, status, err := f.fetch(ctx, spec)
	elapsed := time.Since(start)

	if err != nil {
		kind := errorKind(err)
		f.metrics.RecordFetch(spec.Parser.Name(), "error", elapsed, 0)
		f.metrics.RecordFetchError(kind)
		f.logger.Warn("fetch failed",
			"method", spec.Method, "url", redactURL(spec.URL), "status", status,
			"kind", kind, "elapsed", elapsed, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, kind)
		return nil, err
	}

	f.metrics.RecordFetch(spec.Parser.Name(), "success", elapsed, df.RowCount())
	f.logger.Info("fetch completed",
		"method", spec.Method, "url", redactURL(spec.URL), "status", status,
		"rows", df.RowCount(), "columns", df.ColumnCount(), "elapsed", elapsed)
	span.SetAttributes(
		attribute.Int("http.status_code", status),
		attribute.Int("rows", df.RowCount()),
	)
	return df, nil
}

func (f *Fetcher) fetch(ctx context.Context, spec *RequestSpec) (*model.Dataframe, int, error) {
	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	f.logger.Debug("fetch started", "method", spec.Method, "url", redactURL(spec.URL), "timeout", timeout)

	req := f.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", spec.ContentType)
	if len(spec.Headers) > 0 {
		req.SetHeaders(spec.Headers)
	}
	if len(spec.QueryParam) > 0 {
		req.SetQueryParams(spec.QueryParam)
	}
	if spec.HasBody() {
		req.SetBody(spec.Body)
	}
	if spec.HasBasicAuth() {
		req.SetBasicAuth(spec.Username, spec.Password)
	}

	if spec.OAuth2 != nil {
		token, err := f.token(ctx, spec.OAuth2)
		if err != nil {
			return nil, 0, transportError(ctx, spec.OAuth2.TokenURL, err)
		}
		req.SetAuthScheme(token.Type())
		req.SetAuthToken(token.AccessToken)
	}

	resp, err := req.Execute(spec.Method, spec.URL)
	if err != nil {
		return nil, 0, transportError(ctx, spec.URL, err)
	}
	if !resp.IsSuccess() {
		return nil, resp.StatusCode(), &provider.FetchError{URL: redactURL(spec.URL), StatusCode: resp.StatusCode()}
	}

	f.logger.Debug("response received", "url", redactURL(spec.URL), "status", resp.StatusCode(), "bytes", len(resp.Body()))

	df, err := spec.Parser.Parse(resp.Body(), spec.Property, spec.Columns)
	if err != nil {
		return nil, resp.StatusCode(), err
	}
	return df, resp.StatusCode(), nil
}

// token obtains a client-credentials token through the shared transport
func (f *Fetcher) token(ctx context.Context, cfg *OAuth2Config) (*oauth2.Token, error) {
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       cfg.Scopes,
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, f.client.GetClient())
	token, err := cc.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain oauth2 token: %w", err)
	}
	return token, nil
}

// transportError wraps a failed exchange. Query strings are dropped from
// every URL it carries since they may hold api keys.
func transportError(ctx context.Context, target string, err error) error {
	timeout := isTimeout(err) || errors.Is(ctx.Err(), context.DeadlineExceeded)

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = redactURL(urlErr.URL)
	}
	return &provider.FetchError{URL: redactURL(target), Timeout: timeout, Cause: err}
}

// redactURL strips the query and any password from raw
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		base, _, _ := strings.Cut(raw, "?")
		return base
	}
	u.RawQuery = ""
	u.ForceQuery = false
	return u.Redacted()
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// errorKind labels an error for metrics and logs
func errorKind(err error) string {
	switch {
	case errors.Is(err, provider.ErrTimeout):
		return "timeout"
	case errors.Is(err, provider.ErrFetch):
		return "fetch"
	case errors.Is(err, provider.ErrPathNotFound):
		return "path_not_found"
	case errors.Is(err, provider.ErrParse):
		return "parse"
	case errors.Is(err, provider.ErrConfiguration):
		return "configuration"
	default:
		return "unknown"
	}
}
