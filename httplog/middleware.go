// Package httplog is net/http middleware that writes one structured log
// entry per request, holding the request and the response the handler
// produced.
package httplog

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/yoshino-s/cloudlogging/convert"
	"github.com/yoshino-s/cloudlogging/logging"
	"github.com/yoshino-s/cloudlogging/runtime"
	"github.com/yoshino-s/cloudlogging/value"
)

const (
	DefaultLogID        = "request-response"
	DefaultMaxBodyBytes = 1 << 20
)

type Middleware struct {
	writer       logging.Writer
	converter    *convert.Converter
	hooks        *runtime.HookSet
	logger       *zap.Logger
	projectID    string
	logID        string
	resource     logging.Resource
	maxBodyBytes int64
	redact       redactor
}

type Option func(m *Middleware)

func WithLogger(logger *zap.Logger) Option {
	return func(m *Middleware) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func WithConverter(c *convert.Converter) Option {
	return func(m *Middleware) {
		if c != nil {
			m.converter = c
		}
	}
}

// WithHooks runs hooks on each entry before it is written. A hook error
// drops the entry.
func WithHooks(hooks *runtime.HookSet) Option {
	return func(m *Middleware) {
		m.hooks = hooks
	}
}

func WithProjectID(projectID string) Option {
	return func(m *Middleware) {
		m.projectID = projectID
	}
}

func WithLogID(logID string) Option {
	return func(m *Middleware) {
		if logID != "" {
			m.logID = logID
		}
	}
}

func WithResource(resource logging.Resource) Option {
	return func(m *Middleware) {
		if resource.Type != "" {
			m.resource = resource
		}
	}
}

// WithMaxBodyBytes bounds how much of each body is kept for the log.
// Handlers always see the full body.
func WithMaxBodyBytes(n int64) Option {
	return func(m *Middleware) {
		if n > 0 {
			m.maxBodyBytes = n
		}
	}
}

// WithRedactedHeaders replaces the default list of redacted headers.
func WithRedactedHeaders(names ...string) Option {
	return func(m *Middleware) {
		m.redact = newRedactor(names)
	}
}

func New(w logging.Writer, opts ...Option) *Middleware {
	m := &Middleware{
		writer:       w,
		logger:       zap.NewNop(),
		logID:        DefaultLogID,
		resource:     logging.GlobalResource,
		maxBodyBytes: DefaultMaxBodyBytes,
		redact:       newRedactor(DefaultRedactedHeaders),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.converter == nil {
		m.converter = convert.New(convert.WithLogger(m.logger))
	}
	if m.writer == nil {
		m.writer = logging.Discard
	}
	return m
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		captured, truncated, err := captureBody(r, m.maxBodyBytes)
		if err != nil {
			m.logger.Debug("read request body", zap.Error(err))
		}
		// Read before the handler runs; it may consume or replace them.
		req := m.request(r, captured, truncated)

		rec := newRecorder(w, m.maxBodyBytes)
		next.ServeHTTP(rec, r)

		// The request context ends with the handler; the entry outlives it.
		ctx := context.WithoutCancel(r.Context())
		m.write(ctx, r, req, rec, int64(len(captured)), time.Since(start))
	})
}

func (m *Middleware) request(r *http.Request, captured []byte, truncated bool) Request {
	return Request{
		Host:          r.Host,
		Path:          r.URL.Path,
		Method:        r.Method,
		Protocol:      r.Proto,
		Scheme:        scheme(r),
		QueryString:   r.URL.RawQuery,
		Body:          body(captured, truncated),
		BodyTruncated: truncated,
		Headers:       m.redact.headerLines(r.Header),
		Cookies:       m.redact.cookieLines(r.Cookies()),
	}
}

func (m *Middleware) write(ctx context.Context, r *http.Request, req Request, rec *recorder, reqSize int64, latency time.Duration) {
	res := Response{
		StatusCode:    rec.status,
		Body:          body(rec.body.Bytes(), rec.truncated()),
		BodyTruncated: rec.truncated(),
		Headers:       m.redact.headerLines(rec.Header()),
	}
	payload := value.Struct(
		value.F("Request", m.converter.ToValue(req)),
		value.F("Response", m.converter.ToValue(res)),
	)

	entry := logging.NewEntry(logging.LogName(m.projectID, m.logID), logging.SeverityForStatus(rec.status), payload)
	entry.Resource = m.resource
	if r.ContentLength > reqSize {
		reqSize = r.ContentLength
	}
	entry.HTTPRequest = &logging.HTTPRequest{
		RequestMethod: r.Method,
		RequestURL:    r.URL.String(),
		RequestSize:   reqSize,
		Status:        rec.status,
		ResponseSize:  rec.size,
		UserAgent:     r.UserAgent(),
		RemoteIP:      hostOnly(r.RemoteAddr),
		ServerIP:      serverIP(r),
		Referer:       r.Referer(),
		Latency:       latency,
		Protocol:      r.Proto,
	}

	if err := m.hooks.RunHooks(ctx, runtime.StageRequest, entry); err != nil {
		if !errors.Is(err, runtime.ErrSkipEntry) {
			m.logger.Debug("hook dropped log entry", zap.String("path", req.Path), zap.Error(err))
		}
		return
	}
	if err := m.writer.WriteEntries(ctx, entry); err != nil {
		m.logger.Warn("write log entry", zap.String("path", req.Path), zap.Error(err))
	}
}
