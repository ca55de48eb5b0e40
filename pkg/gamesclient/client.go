// Package gamesclient is a typed HTTP client for the board game catalog API.
// It talks to the catalog service directly or through the gateway.
package gamesclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"GameShelf/internal/catalog"
)

const (
	gamesPath      = "/api/board-games"
	defaultTimeout = 3 * time.Second
	maxErrorBody   = 64 << 10
)

var (
	ErrNotFound      = errors.New("board game not found")
	ErrDuplicateName = errors.New("board game name taken")
	ErrInvalid       = errors.New("board game rejected")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrUnavailable   = errors.New("catalog unavailable")
	ErrBadStatus     = errors.New("catalog bad status")
)

// APIError is returned for any non-success response. It matches one of the
// package sentinels through errors.Is.
type APIError struct {
	Status    int
	Message   string
	Details   json.RawMessage
	RequestID string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("catalog: status=%d: %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch e.Status {
	case http.StatusNotFound:
		return target == ErrNotFound
	case http.StatusConflict:
		return target == ErrDuplicateName
	case http.StatusBadRequest:
		return target == ErrInvalid
	case http.StatusUnauthorized, http.StatusForbidden:
		return target == ErrUnauthorized
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return target == ErrUnavailable
	default:
		return target == ErrBadStatus
	}
}

// Fields decodes the details of a validation failure into a field to message
// map. It returns nil for other errors.
func (e *APIError) Fields() map[string]string {
	if e.Status != http.StatusBadRequest || len(e.Details) == 0 {
		return nil
	}
	var out map[string]string
	if err := json.Unmarshal(e.Details, &out); err != nil {
		return nil
	}
	return out
}

type Client struct {
	BaseURL string
	HTTP    *http.Client

	// Token, when set, is sent as a bearer token on every request.
	Token string
}

func New(baseURL string) *Client {
	if u, err := url.Parse(baseURL); err == nil && u.Scheme != "" && u.Host != "" {
		baseURL = strings.TrimRight(baseURL, "/")
	}
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: defaultTimeout},
	}
}

// WithToken returns a copy of c that authenticates as the given token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.Token = token
	return &cp
}

func (c *Client) List(ctx context.Context) ([]catalog.BoardGame, error) {
	var out []catalog.BoardGame
	err := c.do(ctx, http.MethodGet, gamesPath, nil, &out)
	return out, err
}

func (c *Client) Get(ctx context.Context, id int64) (catalog.BoardGame, error) {
	var g catalog.BoardGame
	err := c.do(ctx, http.MethodGet, gamePath(id), nil, &g)
	return g, err
}

func (c *Client) GetByName(ctx context.Context, name string) (catalog.BoardGame, error) {
	var g catalog.BoardGame
	err := c.do(ctx, http.MethodGet, gamesPath+"/by-name?name="+url.QueryEscape(name), nil, &g)
	return g, err
}

func (c *Client) Search(ctx context.Context, keyword string) ([]catalog.BoardGame, error) {
	var out []catalog.BoardGame
	err := c.do(ctx, http.MethodGet, gamesPath+"/search?keyword="+url.QueryEscape(keyword), nil, &out)
	return out, err
}

func (c *Client) ForPlayers(ctx context.Context, players int) ([]catalog.BoardGame, error) {
	var out []catalog.BoardGame
	err := c.do(ctx, http.MethodGet, gamesPath+"/for-players?count="+strconv.Itoa(players), nil, &out)
	return out, err
}

func (c *Client) Create(ctx context.Context, d catalog.Draft) (catalog.BoardGame, error) {
	var g catalog.BoardGame
	err := c.do(ctx, http.MethodPost, gamesPath, d, &g)
	return g, err
}

// Update sends a partial update. Fields left unset in p are not sent.
func (c *Client) Update(ctx context.Context, id int64, p catalog.Patch) (catalog.BoardGame, error) {
	var g catalog.BoardGame
	err := c.do(ctx, http.MethodPatch, gamePath(id), p, &g)
	return g, err
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, gamePath(id), nil, nil)
}

func gamePath(id int64) string {
	return gamesPath + "/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, r)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var body struct {
		Error     string          `json:"error"`
		Details   json.RawMessage `json:"details"`
		RequestID string          `json:"request_id"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.Details = body.Details
		apiErr.RequestID = body.RequestID
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
	}
	return apiErr
}
