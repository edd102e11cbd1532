package poller

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/saaswatch/saaswatch/internal/appconfig"
	"github.com/saaswatch/saaswatch/internal/common"
	"github.com/saaswatch/saaswatch/internal/secret"
)

// DefaultMaxBodyChars bounds the response body carried on a result, to
// respect downstream payload-size limits. Truncation is silent.
const DefaultMaxBodyChars = 240000

// Options tune poller behavior that is not per-application.
type Options struct {
	// Debug enables sanitized per-attempt records on the result.
	Debug bool
	// MaxBodyChars overrides DefaultMaxBodyChars when > 0.
	MaxBodyChars int
}

// Poller executes one authenticated HTTP poll with retry and linear
// backoff. The retry loop is strictly sequential: one in-flight request at
// a time, blocking between attempts for the backoff interval. One Poller is
// safe for concurrent executions; the underlying transport is shared as a
// connection-reuse optimization only.
type Poller struct {
	resolver     secret.Resolver
	client       *resty.Client
	debug        bool
	maxBodyChars int
}

// New creates a Poller that resolves credentials through the given
// resolver. Resolution happens fresh on every Execute so rotation takes
// effect on the next scheduled poll.
func New(resolver secret.Resolver, opts Options) *Poller {
	maxBody := opts.MaxBodyChars
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyChars
	}
	return &Poller{
		resolver:     resolver,
		client:       resty.New(),
		debug:        opts.Debug,
		maxBodyChars: maxBody,
	}
}

// Execute runs the configured poll. It always returns a structured Result,
// never an error: secret resolution failures, HTTP failures, timeouts and
// connection errors all fold into OK=false with ErrorKind set. Only
// execution cancellation is special-cased, via Result.Cancelled.
func (p *Poller) Execute(ctx context.Context, cfg *appconfig.AppConfig) *Result {
	logger := common.GetLogger().WithComponent("poller").WithApp(cfg.AppName)
	start := time.Now()

	cred, kind, err := p.resolveCredential(ctx, cfg)
	if err != nil {
		if ctx.Err() != nil {
			return &Result{ErrorKind: ErrKindCancelled, Error: ctx.Err().Error(), ElapsedMillis: msSince(start)}
		}
		logger.Error("credential resolution failed", "secret", cfg.Secret.Name, "error", err)
		return &Result{
			ErrorKind:     kind,
			Error:         err.Error(),
			ElapsedMillis: msSince(start),
		}
	}

	headers := p.buildHeaders(cfg, cred)
	logger.Info("prepared request",
		"method", cfg.Method,
		"url", cfg.URL,
		"headers", common.MaskHeaders(headers, cfg.AuthHeader),
		"timeout", cfg.Timeout(),
		"max_attempts", cfg.Retry.MaxAttempts,
	)

	res := p.run(ctx, cfg, headers, cred, logger)
	res.ElapsedMillis = msSince(start)
	if !p.debug {
		res.Attempts = nil
	}
	return res
}

// resolveCredential maps secret resolver failures onto result error kinds.
// A config without a secret reference polls unauthenticated.
func (p *Poller) resolveCredential(ctx context.Context, cfg *appconfig.AppConfig) (secret.Credential, ErrorKind, error) {
	if cfg.Secret.Name == "" {
		return secret.Credential{}, ErrKindNone, nil
	}
	cred, err := p.resolver.Resolve(ctx, secret.Ref{Name: cfg.Secret.Name, JSONKey: cfg.Secret.JSONKey})
	if err == nil {
		return cred, ErrKindNone, nil
	}
	switch {
	case errors.Is(err, secret.ErrFieldMissing):
		return secret.Credential{}, ErrKindSecretFieldMissing, err
	case errors.Is(err, secret.ErrFormat):
		return secret.Credential{}, ErrKindSecretFormat, err
	default:
		return secret.Credential{}, ErrKindSecretNotFound, err
	}
}

// buildHeaders merges config headers with the auth header. The auth header
// is written last so a config header can never silently overwrite it.
func (p *Poller) buildHeaders(cfg *appconfig.AppConfig, cred secret.Credential) map[string]string {
	headers := make(map[string]string, len(cfg.Headers)+1)
	for k, v := range cfg.Headers {
		headers[k] = v
	}
	if !cred.IsZero() {
		headers[cfg.AuthHeader] = cfg.AuthPrefixValue() + cred.Value()
	}
	return headers
}

func (p *Poller) run(ctx context.Context, cfg *appconfig.AppConfig, headers map[string]string, cred secret.Credential, logger *common.Logger) *Result {
	res := &Result{}
	attempt := 0
	for {
		attempt++
		res.AttemptCount = attempt

		status, body, err := p.doAttempt(ctx, cfg, headers, res)
		if err == nil {
			res.Status = status
			if status >= 200 && status < 300 {
				res.OK = true
				p.setBody(res, body)
				logger.Info("poll succeeded", "status", status, "attempts", attempt)
				return res
			}
			if cfg.Retry.ShouldRetry(status) {
				if attempt < cfg.Retry.MaxAttempts {
					logger.Warn("retryable status, backing off",
						"status", status, "attempt", attempt, "max_attempts", cfg.Retry.MaxAttempts)
					if !p.sleep(ctx, cfg.Retry.Delay(attempt)) {
						res.ErrorKind = ErrKindCancelled
						res.Error = ctx.Err().Error()
						return res
					}
					continue
				}
				res.ErrorKind = ErrKindTransientHTTP
				res.Error = fmt.Sprintf("status %d after %d attempts", status, attempt)
			} else {
				res.ErrorKind = ErrKindPermanentHTTP
				res.Error = fmt.Sprintf("status %d", status)
			}
			p.setBody(res, body)
			logger.Warn("poll failed", "status", status, "attempts", attempt, "error_kind", res.ErrorKind)
			return res
		}

		// Transport-level failure. Scrub the recorded attempt before
		// anything else can observe it.
		sanitized := common.MaskIfContains(err.Error(), cred.Value())
		if n := len(res.Attempts); n > 0 {
			res.Attempts[n-1].Error = sanitized
		}
		// Execution cancellation wins over any retry decision.
		if ctx.Err() != nil {
			res.ErrorKind = ErrKindCancelled
			res.Error = ctx.Err().Error()
			return res
		}
		kind := classifyTransportError(err)
		// Timeouts and connection errors share the same attempt budget as
		// HTTP-status retries: one counter, never double-counted.
		if attempt < cfg.Retry.MaxAttempts {
			logger.Warn("transport error, backing off",
				"error", sanitized, "attempt", attempt, "max_attempts", cfg.Retry.MaxAttempts)
			if !p.sleep(ctx, cfg.Retry.Delay(attempt)) {
				res.ErrorKind = ErrKindCancelled
				res.Error = ctx.Err().Error()
				return res
			}
			continue
		}
		res.ErrorKind = kind
		res.Error = sanitized
		logger.Error("poll failed", "attempts", attempt, "error_kind", kind, "error", sanitized)
		return res
	}
}

// doAttempt issues one HTTP request bounded by the per-attempt timeout.
// The timeout is a hard cutoff for this attempt only, not a cumulative
// budget; expiry cancels the in-flight request.
func (p *Poller) doAttempt(ctx context.Context, cfg *appconfig.AppConfig, headers map[string]string, res *Result) (int, []byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, cfg.Timeout())
	defer cancel()

	started := time.Now()
	req := p.client.R().
		SetContext(attemptCtx).
		SetHeaders(headers).
		SetQueryParams(cfg.Query)

	resp, err := execByMethod(req, cfg.Method, cfg.URL)
	duration := msSince(started)

	record := Attempt{
		Number:         res.AttemptCount,
		Timestamp:      started.UTC(),
		DurationMillis: duration,
	}
	if err != nil {
		record.Error = err.Error()
		res.Attempts = append(res.Attempts, record)
		return 0, nil, err
	}
	record.Status = resp.StatusCode()
	res.Attempts = append(res.Attempts, record)
	return resp.StatusCode(), resp.Body(), nil
}

func (p *Poller) setBody(res *Result, body []byte) {
	text := string(body)
	if len(text) > p.maxBodyChars {
		text = text[:p.maxBodyChars]
		res.BodyTruncated = true
	}
	res.Body = text
}

// sleep blocks for the backoff interval, honoring cancellation. Returns
// false when the context ended first.
func (p *Poller) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func classifyTransportError(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrKindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrKindTimeout
	}
	return ErrKindConnection
}

func execByMethod(req *resty.Request, method, url string) (*resty.Response, error) {
	switch method {
	case http.MethodGet:
		return req.Get(url)
	case http.MethodPost:
		return req.Post(url)
	case http.MethodPut:
		return req.Put(url)
	case http.MethodPatch:
		return req.Patch(url)
	case http.MethodDelete:
		return req.Delete(url)
	case http.MethodHead:
		return req.Head(url)
	default:
		return nil, fmt.Errorf("poller: unsupported method: %s", method)
	}
}

func msSince(t time.Time) int64 {
	return time.Since(t).Milliseconds()
}
