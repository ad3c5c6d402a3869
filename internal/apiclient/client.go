package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Tiliavir/medrem/internal/model"
)

const medicinesPath = "/api/medicines"

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 1 << 20

// Client talks to the record API. It never retries: a failed call is
// reported to the caller once.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	return NewClientWithHTTP(baseURL, &http.Client{Timeout: timeout})
}

// NewClientWithHTTP creates a client that sends requests through hc.
func NewClientWithHTTP(baseURL string, hc *http.Client) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: hc,
	}, nil
}

// Result is the envelope returned by write operations.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// listResponse is the envelope returned by list and search.
type listResponse struct {
	Success   bool             `json:"success"`
	Message   string           `json:"message,omitempty"`
	Medicines []model.Medicine `json:"medicines"`
}

// ListAll fetches the full record collection.
func (c *Client) ListAll(ctx context.Context) ([]model.Medicine, error) {
	var resp listResponse
	if err := c.do(ctx, "list", http.MethodGet, medicinesPath, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &ServerError{Op: "list", Message: resp.Message}
	}
	if resp.Medicines == nil {
		return []model.Medicine{}, nil
	}
	return resp.Medicines, nil
}

// Search asks the server for records whose name contains query.
func (c *Client) Search(ctx context.Context, query string) ([]model.Medicine, error) {
	path := medicinesPath + "/search?q=" + url.QueryEscape(query)
	var resp listResponse
	if err := c.do(ctx, "search", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &ServerError{Op: "search", Message: resp.Message}
	}
	if resp.Medicines == nil {
		return []model.Medicine{}, nil
	}
	return resp.Medicines, nil
}

// Create submits a new record. The new id is not returned; callers reload
// the list to see it.
func (c *Client) Create(ctx context.Context, f model.Fields) (Result, error) {
	return c.write(ctx, "create", http.MethodPost, medicinesPath, f.Normalize())
}

// Update replaces the editable fields of record id.
func (c *Client) Update(ctx context.Context, id int64, f model.Fields) (Result, error) {
	return c.write(ctx, "update", http.MethodPut, recordPath(id), f.Normalize())
}

// Delete removes record id.
func (c *Client) Delete(ctx context.Context, id int64) (Result, error) {
	return c.write(ctx, "delete", http.MethodDelete, recordPath(id), nil)
}

func recordPath(id int64) string {
	return medicinesPath + "/" + strconv.FormatInt(id, 10)
}

func (c *Client) write(ctx context.Context, op, method, path string, in any) (Result, error) {
	var res Result
	if err := c.do(ctx, op, method, path, in, &res); err != nil {
		return Result{}, err
	}
	if !res.Success {
		return res, &ServerError{Op: op, Message: res.Message}
	}
	return res, nil
}

// do sends one request and decodes the JSON envelope into out. Any failure
// to reach the server or to read its reply as JSON is a *NetworkError; the
// envelope's success flag is left to the caller.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return &NetworkError{Op: op, Err: fmt.Errorf("encoding request: %w", err)}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &NetworkError{Op: op, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: fmt.Errorf("api request failed: %w", err)}
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	resp.Body.Close()
	if err != nil {
		return &NetworkError{Op: op, Err: fmt.Errorf("reading response body: %w", err)}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &NetworkError{Op: op, Err: fmt.Errorf("api error %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))}
		}
		return &NetworkError{Op: op, Err: fmt.Errorf("decoding api response: %w", err)}
	}
	return nil
}
