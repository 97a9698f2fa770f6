// Package remote is the only place that talks to the external semantic
// search/chat service. Every transport, timeout or status failure is folded
// into models.ErrRemoteUnavailable so callers can fall back locally without
// ever leaking a raw transport error into user-facing results.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shopmate/backend/config"
	"github.com/shopmate/backend/internal/rank"
	"github.com/shopmate/backend/models"
)

// Client issues timeout-bounded requests to the remote service with a small
// retry budget and exponential backoff.
type Client struct {
	baseURL   string
	client    *http.Client
	retries   int
	backoff   time.Duration
	healthTTL time.Duration

	mu        sync.Mutex
	healthy   bool
	lastProbe time.Time
}

// NewClient builds a Client from configuration. Zero timeouts get sane
// defaults.
func NewClient(cfg config.RemoteConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	backoff := cfg.Backoff
	if backoff == 0 {
		backoff = 300 * time.Millisecond
	}
	healthTTL := cfg.HealthTTL
	if healthTTL == 0 {
		healthTTL = 30 * time.Second
	}
	retries := cfg.Retries
	if retries < 0 {
		retries = 0
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		client:    &http.Client{Timeout: timeout},
		retries:   retries,
		backoff:   backoff,
		healthTTL: healthTTL,
	}
}

// Search asks the remote service for up to limit products. Results are
// normalized into canonical scored records; entries without identity fields
// are dropped. Any failure surfaces as models.ErrRemoteUnavailable.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]rank.Scored, error) {
	var resp searchResponse
	err := c.doJSON(ctx, http.MethodPost, "/search", searchRequest{Query: query, Limit: limit}, &resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrRemoteUnavailable, err)
	}
	return normalizeAll(resp.Products), nil
}

// Chat sends a conversational turn. The reply's product payload is
// normalized the same way search results are.
func (c *Client) Chat(ctx context.Context, sessionID, message string) (models.ChatReply, error) {
	var resp chatResponse
	err := c.doJSON(ctx, http.MethodPost, "/chat", chatRequest{Message: message, SessionID: sessionID}, &resp)
	if err != nil {
		return models.ChatReply{}, fmt.Errorf("%w: %v", models.ErrRemoteUnavailable, err)
	}
	reply := models.ChatReply{
		Response:           resp.Response,
		NeedsClarification: resp.NeedsClarification,
	}
	reply.ClarificationPrompts = append(reply.ClarificationPrompts, resp.ClarificationQuestions...)
	for _, sc := range normalizeAll(resp.Products) {
		reply.Products = append(reply.Products, sc.ProductRecord)
	}
	return reply, nil
}

// ClearSession deletes server-side conversation state. Best effort: the
// caller clears local state regardless of the outcome.
func (c *Client) ClearSession(ctx context.Context, sessionID string) error {
	err := c.doJSON(ctx, http.MethodDelete, "/session/"+sessionID, nil, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrRemoteUnavailable, err)
	}
	return nil
}

// Healthy reports the connected/offline flag. Probes are cached for the
// configured TTL so hot paths do not spam the health endpoint.
func (c *Client) Healthy(ctx context.Context) bool {
	c.mu.Lock()
	if time.Since(c.lastProbe) < c.healthTTL {
		h := c.healthy
		c.mu.Unlock()
		return h
	}
	c.mu.Unlock()

	h := c.probe(ctx)

	c.mu.Lock()
	c.healthy = h
	c.lastProbe = time.Now()
	c.mu.Unlock()
	return h
}

func (c *Client) probe(ctx context.Context) bool {
	if c.baseURL == "" {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	if c.baseURL == "" {
		return errors.New("remote base url not configured")
	}
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = b
	}

	var lastErr error
	tries := c.retries + 1
	for attempt := 0; attempt < tries; attempt++ {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return err
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
		} else {
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				if out == nil {
					_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
					resp.Body.Close()
					return nil
				}
				err := json.NewDecoder(resp.Body).Decode(out)
				resp.Body.Close()
				return err
			}
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			lastErr = errors.New(resp.Status + ": " + string(b))
		}

		if attempt < tries-1 {
			select {
			case <-time.After(c.backoff * time.Duration(1<<attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return lastErr
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type searchResponse struct {
	Products []rawProduct `json:"products"`
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type chatResponse struct {
	Response               string       `json:"response"`
	Products               []rawProduct `json:"products"`
	NeedsClarification     bool         `json:"needs_clarification"`
	ClarificationQuestions []string     `json:"clarification_questions"`
}
