package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/minjaelee/vigil/pkg/config"
	"github.com/minjaelee/vigil/pkg/httputil"
	"github.com/minjaelee/vigil/pkg/logger"
)

// Client talks to the upstream discovery API. It retains the last
// health signal observed on any response so the trade flow can consult
// SafeToTrade without an extra round trip.
type Client struct {
	http    *httputil.Client
	baseURL string
	logger  *logger.Logger

	mu     sync.RWMutex
	health SystemHealth
}

// NewClient creates a discovery API client
func NewClient(cfg *config.Config, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		http:    httpClient,
		baseURL: cfg.Discovery.BaseURL,
		logger:  log,
		health:  SystemHealth{State: "unknown", ObservedAt: time.Now()},
	}
}

// Contenders fetches the primary candidate feed
func (c *Client) Contenders(ctx context.Context, limit int) ([]json.RawMessage, error) {
	return c.fetchList(ctx, "/discovery/contenders", url.Values{
		"limit": {strconv.Itoa(limit)},
	})
}

// ContendersV2 fetches the second-generation candidate feed, which
// reports the same universe under different field names.
func (c *Client) ContendersV2(ctx context.Context, limit int) ([]json.RawMessage, error) {
	return c.fetchList(ctx, "/discovery/contenders-v2", url.Values{
		"limit": {strconv.Itoa(limit)},
	})
}

// SqueezeCandidates fetches strategy-filtered squeeze setups
func (c *Client) SqueezeCandidates(ctx context.Context, strategy string, minScore float64) ([]json.RawMessage, error) {
	return c.fetchList(ctx, "/discovery/squeeze-candidates", url.Values{
		"strategy":  {strategy},
		"min_score": {strconv.FormatFloat(minScore, 'f', -1, 64)},
	})
}

// Audit fetches the per-symbol audit detail. The payload is passed
// through untouched; it is display-only.
func (c *Client) Audit(ctx context.Context, symbol string) (json.RawMessage, error) {
	resp, err := c.http.Get(ctx, c.baseURL+"/discovery/audit/"+url.PathEscape(symbol))
	if err != nil {
		return nil, fmt.Errorf("audit request failed: %w", err)
	}
	defer resp.Body.Close()

	c.observeHealth(resp.Header)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("audit request returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audit response: %w", err)
	}

	return json.RawMessage(body), nil
}

// Health returns the most recently observed upstream health signal
func (c *Client) Health() SystemHealth {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.health
}

// SafeToTrade reports whether the last observed health signal permits
// order submission.
func (c *Client) SafeToTrade() bool {
	return c.Health().SafeToTrade()
}

func (c *Client) fetchList(ctx context.Context, path string, query url.Values) ([]json.RawMessage, error) {
	resp, err := c.http.Get(ctx, c.baseURL+path+"?"+query.Encode())
	if err != nil {
		return nil, fmt.Errorf("discovery request failed: %w", err)
	}
	defer resp.Body.Close()

	c.observeHealth(resp.Header)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discovery endpoint %s returned status %d", path, resp.StatusCode)
	}

	var list candidateList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode discovery response: %w", err)
	}

	return list.Candidates, nil
}

// observeHealth parses the out-of-band health headers when present and
// retains the result. A malformed header degrades to a log line, never
// to a failed fetch.
func (c *Client) observeHealth(h http.Header) {
	state := h.Get("X-System-State")
	statsRaw := h.Get("X-Reason-Stats")
	if state == "" && statsRaw == "" {
		return
	}

	health := SystemHealth{State: state, ObservedAt: time.Now()}
	if statsRaw != "" {
		if err := json.Unmarshal([]byte(statsRaw), &health.ReasonStats); err != nil {
			c.logger.WithError(err).Warn("Malformed X-Reason-Stats header")
		}
	}

	c.mu.Lock()
	prev := c.health.State
	c.health = health
	c.mu.Unlock()

	if prev != health.State {
		c.logger.WithFields(map[string]interface{}{
			"state":         health.State,
			"safe_to_trade": health.SafeToTrade(),
		}).Info("Upstream system state changed")
	}
}
