package codecks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Fetcher defines the read operations the project cache depends on.
// This interface is implemented by *Client and can be used for testing.
type Fetcher interface {
	FetchProject(ctx context.Context) (*ProjectPayload, error)
	FetchHistory(ctx context.Context, since time.Time) (*ActivityPayload, error)
	FetchCards(ctx context.Context, ids []string) (*CardPayload, error)
}

// Ensure Client implements Fetcher at compile time.
var _ Fetcher = (*Client)(nil)

// Recorder receives one observation per request. Implemented by the metrics
// package; nil disables recording.
type Recorder interface {
	ObserveRequest(op string, outcome string, elapsed time.Duration)
}

const (
	DefaultBaseURL   = "https://api.codecks.io/"
	defaultUserAgent = "codecks-bot/0.1"
	requestTimeout   = 10 * time.Second
	maxErrorBody     = 512
)

// Options configure a Client.
type Options struct {
	BaseURL  string
	Account  string
	Token    string
	Logger   *slog.Logger
	Recorder Recorder
	HTTP     *http.Client // nil uses a client with the fixed request timeout
}

// Client talks to the Codecks HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	account   string
	token     string
	userAgent string
	logger    *slog.Logger
	recorder  Recorder
}

// NewClient builds a Client for the given account and token.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Account) == "" {
		return nil, fmt.Errorf("codecks account is required")
	}
	if strings.TrimSpace(opts.Token) == "" {
		return nil, fmt.Errorf("codecks token is required")
	}
	base, err := parseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	httpClient := opts.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:   base,
		http:      httpClient,
		account:   strings.TrimSpace(opts.Account),
		token:     strings.TrimSpace(opts.Token),
		userAgent: defaultUserAgent,
		logger:    logger.With("component", "codecks"),
		recorder:  opts.Recorder,
	}, nil
}

// FetchProject retrieves every deck and card of the account.
func (c *Client) FetchProject(ctx context.Context) (*ProjectPayload, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload ProjectPayload
	if err := c.do(ctx, "fetch_project", projectQuery(), &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// FetchHistory retrieves activities created strictly after since.
func (c *Client) FetchHistory(ctx context.Context, since time.Time) (*ActivityPayload, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	query, err := historyQuery(since)
	if err != nil {
		return nil, &FetchError{Op: "fetch_history", Kind: KindUnexpected, Err: err}
	}
	var payload ActivityPayload
	if err := c.do(ctx, "fetch_history", query, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// FetchCards retrieves the current fields of the requested cards. The server
// omits cards that no longer exist; that is not an error.
func (c *Client) FetchCards(ctx context.Context, ids []string) (*CardPayload, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if len(ids) == 0 {
		return &CardPayload{}, nil
	}
	query, err := cardsQuery(ids)
	if err != nil {
		return nil, &FetchError{Op: "fetch_cards", Kind: KindUnexpected, Err: err}
	}
	var payload CardPayload
	if err := c.do(ctx, "fetch_cards", query, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) do(ctx context.Context, op string, query Query, dest any) error {
	started := time.Now()
	err := c.post(ctx, op, query, dest)
	outcome := "ok"
	if err != nil {
		outcome = KindOf(err).String()
		c.logger.Warn("api request failed", "op", op, "outcome", outcome, "error", err)
	} else {
		c.logger.Info("api request successful", "op", op, "elapsed", time.Since(started).Round(time.Millisecond))
	}
	if c.recorder != nil {
		c.recorder.ObserveRequest(op, outcome, time.Since(started))
	}
	return err
}

func (c *Client) post(ctx context.Context, op string, query Query, dest any) error {
	body, err := json.Marshal(query)
	if err != nil {
		return &FetchError{Op: op, Kind: KindUnexpected, Err: fmt.Errorf("encode query: %w", err)}
	}
	c.logger.Debug("api request", "op", op, "url", c.baseURL.String(), "query", string(body))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL.String(), bytes.NewReader(body))
	if err != nil {
		return &FetchError{Op: op, Kind: KindUnexpected, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Account", c.account)
	req.Header.Set("X-Auth-Token", c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return &FetchError{Op: op, Kind: classifyTransport(err), Err: fmt.Errorf("execute request: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		fe := &FetchError{Op: op, Kind: classifyStatus(resp.StatusCode), Status: resp.StatusCode}
		if text := strings.TrimSpace(string(snippet)); text != "" {
			fe.Err = errors.New(text)
		}
		return fe
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return &FetchError{Op: op, Kind: KindUnexpected, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", raw, err)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
