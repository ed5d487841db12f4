// Package courtlistener implements the external case-law lookup used to
// verify extracted citations against the CourtListener citation API.
package courtlistener

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/turtacn/CiteGuard/internal/config"
	"github.com/turtacn/CiteGuard/internal/domain/citation"
	"github.com/turtacn/CiteGuard/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CiteGuard/pkg/errors"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultMaxRetries     = 3
	defaultRetryBackoff   = 500 * time.Millisecond

	// maxRetryAfter caps how long a Retry-After header can stall a lookup.
	maxRetryAfter = 30 * time.Second

	sourceName = "courtlistener"
)

// lookupEntry mirrors one element of the citation-lookup response body.
type lookupEntry struct {
	Citation     string          `json:"citation"`
	Normalized   []string        `json:"normalized_citations"`
	Status       int             `json:"status"`
	ErrorMessage string          `json:"error_message"`
	Clusters     []lookupCluster `json:"clusters"`
}

type lookupCluster struct {
	CaseName    string `json:"case_name"`
	DateFiled   string `json:"date_filed"`
	AbsoluteURL string `json:"absolute_url"`
	CourtID     string `json:"court_id"`
}

// Client talks to the CourtListener citation-lookup endpoint.  It
// implements citation.Verifier.
type Client struct {
	cfg        config.CourtListenerConfig
	httpClient *http.Client
	logger     logging.Logger

	// mu serializes the rate gate; the API enforces a per-key rate limit
	// and concurrent callers must share one clock.
	mu       sync.Mutex
	lastCall time.Time
}

// NewClient builds a Client from configuration.  An empty API key is
// accepted: lookups then classify as unavailable without touching the
// network, so extraction still works offline.
func NewClient(cfg config.CourtListenerConfig, logger logging.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.NewInvalidInputError("courtlistener: base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("courtlistener: invalid base URL %q", cfg.BaseURL))
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = defaultRetryBackoff
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		logger:     logger,
	}, nil
}

// LookupCase resolves a single citation string against CourtListener.
//
// Outcomes are three-valued on purpose: Verified and NotFound are
// authoritative answers from the source, while Unavailable means the
// source could not be consulted and says nothing about the citation.
func (c *Client) LookupCase(ctx context.Context, cite, nameHint string) (*citation.LookupResult, error) {
	if strings.TrimSpace(cite) == "" {
		return nil, errors.NewInvalidInputError("courtlistener: empty citation")
	}
	if c.cfg.APIKey == "" {
		return &citation.LookupResult{Outcome: citation.OutcomeUnavailable, Source: sourceName}, nil
	}

	if err := c.waitRateGate(ctx); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeVerifierUnavailable, "courtlistener: cancelled before dispatch")
	}

	body, err := c.postLookup(ctx, cite)
	if err != nil {
		return nil, err
	}

	var entries []lookupEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeVerifierResponseInvalid, "courtlistener: malformed lookup response")
	}
	if len(entries) == 0 {
		return &citation.LookupResult{Outcome: citation.OutcomeNotFound, Source: sourceName}, nil
	}

	entry := entries[0]
	if entry.Status == http.StatusNotFound || len(entry.Clusters) == 0 {
		return &citation.LookupResult{Outcome: citation.OutcomeNotFound, Source: sourceName}, nil
	}

	cluster := pickCluster(entry.Clusters, nameHint)
	return &citation.LookupResult{
		Outcome:  citation.OutcomeVerified,
		CaseName: cluster.CaseName,
		Date:     cluster.DateFiled,
		URL:      absoluteURL(c.cfg.BaseURL, cluster.AbsoluteURL),
		Court:    cluster.CourtID,
		Source:   sourceName,
	}, nil
}

// Health checks reachability of the API without spending a lookup.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/", nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeVerifierUnavailable, "courtlistener: health request")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeVerifierUnavailable, "courtlistener: unreachable")
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= http.StatusInternalServerError {
		return errors.New(errors.ErrCodeVerifierUnavailable,
			fmt.Sprintf("courtlistener: health status %d", resp.StatusCode))
	}
	return nil
}

// postLookup performs the POST with bounded retries.  5xx and 429 retry
// with exponential backoff; a Retry-After header on 429 overrides the
// backoff, capped at maxRetryAfter.  4xx other than 429 never retry.
func (c *Client) postLookup(ctx context.Context, cite string) ([]byte, error) {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/citation-lookup/"
	form := url.Values{"text": {cite}}.Encode()

	var lastErr error
	backoff := c.cfg.RetryBackoff

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, errors.Wrap(ctx.Err(), errors.ErrCodeVerifierUnavailable, "courtlistener: cancelled during retry")
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "courtlistener: build request")
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Authorization", "Token "+c.cfg.APIKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = errors.Wrap(err, errors.ErrCodeVerifierUnavailable, "courtlistener: request failed")
			continue
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if readErr != nil {
				return nil, errors.Wrap(readErr, errors.ErrCodeVerifierResponseInvalid, "courtlistener: truncated response")
			}
			return body, nil

		case resp.StatusCode == http.StatusTooManyRequests:
			wait := retryAfter(resp.Header.Get("Retry-After"), backoff)
			c.logger.Warn("courtlistener rate limited",
				logging.String("citation", cite),
				logging.String("retry_after", wait.String()))
			lastErr = errors.New(errors.ErrCodeVerifierRateLimited, "courtlistener: rate limited")
			select {
			case <-ctx.Done():
				return nil, errors.Wrap(ctx.Err(), errors.ErrCodeVerifierUnavailable, "courtlistener: cancelled during rate-limit wait")
			case <-time.After(wait):
			}

		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, errors.New(errors.ErrCodeVerifierAuthFailed,
				fmt.Sprintf("courtlistener: authentication rejected (status %d)", resp.StatusCode))

		case resp.StatusCode >= http.StatusInternalServerError:
			lastErr = errors.New(errors.ErrCodeVerifierUnavailable,
				fmt.Sprintf("courtlistener: server error %d", resp.StatusCode))

		default:
			return nil, errors.New(errors.ErrCodeVerifierResponseInvalid,
				fmt.Sprintf("courtlistener: unexpected status %d", resp.StatusCode))
		}
	}

	if lastErr == nil {
		lastErr = errors.New(errors.ErrCodeVerifierUnavailable, "courtlistener: retries exhausted")
	}
	return nil, lastErr
}

// waitRateGate enforces the configured minimum interval between requests.
func (c *Client) waitRateGate(ctx context.Context) error {
	if c.cfg.RateInterval <= 0 {
		return nil
	}
	c.mu.Lock()
	wait := c.cfg.RateInterval - time.Since(c.lastCall)
	if wait < 0 {
		wait = 0
	}
	c.lastCall = time.Now().Add(wait)
	c.mu.Unlock()

	if wait == 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

// pickCluster prefers the cluster whose case name best agrees with the
// hint; without a hint (or a usable match) the first cluster wins.
func pickCluster(clusters []lookupCluster, nameHint string) lookupCluster {
	if nameHint == "" || len(clusters) == 1 {
		return clusters[0]
	}
	want := citation.NormalizeCaseName(nameHint)
	for _, cl := range clusters {
		if citation.NormalizeCaseName(cl.CaseName) == want {
			return cl
		}
	}
	return clusters[0]
}

func retryAfter(header string, fallback time.Duration) time.Duration {
	if header == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(header); err == nil && secs >= 0 {
		d := time.Duration(secs) * time.Second
		if d > maxRetryAfter {
			return maxRetryAfter
		}
		return d
	}
	return fallback
}

// absoluteURL resolves CourtListener's site-relative opinion paths against
// the host part of the configured base URL.
func absoluteURL(base, path string) string {
	if path == "" || strings.HasPrefix(path, "http") {
		return path
	}
	u, err := url.Parse(base)
	if err != nil {
		return path
	}
	return u.Scheme + "://" + u.Host + path
}
