/*
Package httpapi implements kvstore.Store against the host platform's REST API.

PURPOSE:
  The church-management host exposes the custom-data primitive as plain
  REST: categories and values of a named module, JSON in and out, with the
  host handling authentication and persistence. This client is a thin
  collaborator - no retries, no caching, no auth logic beyond attaching
  the login token.

ENDPOINTS:
  GET    /custommodules/{module}/customdatacategories
  POST   /custommodules/{module}/customdatacategories
  GET    /custommodules/{module}/customdatacategories/{catID}/customdatavalues
  POST   /custommodules/{module}/customdatacategories/{catID}/customdatavalues
  PUT    .../customdatavalues/{valueID}
  DELETE .../customdatavalues/{valueID}

FAILURE SEMANTICS:
  Every transport or non-2xx failure wraps engine.ErrTransient. The action
  boundary in tracker decides whether that collapses to an empty read
  fallback or propagates (writes always propagate).

SEE ALSO:
  - kvstore/kvstore.go: The Store contract
  - tracker/: The consuming repositories
*/
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/stundenwerk/timetrack-engine/engine"
	"github.com/stundenwerk/timetrack-engine/kvstore"
)

// Client talks to the host platform's custom-data API for one module.
type Client struct {
	BaseURL string
	Token   string
	Module  string
	HTTP    *http.Client
}

var _ kvstore.Store = (*Client)(nil)

// NewClient builds a client with sane transport defaults.
func NewClient(baseURL, token, module string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Module:  module,
		HTTP: &http.Client{
			Timeout: 20 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

// NewClientFromEnv reads HOST_API_URL, HOST_API_TOKEN, and HOST_MODULE.
func NewClientFromEnv() (*Client, error) {
	base := strings.TrimSpace(os.Getenv("HOST_API_URL"))
	token := strings.TrimSpace(os.Getenv("HOST_API_TOKEN"))
	module := strings.TrimSpace(os.Getenv("HOST_MODULE"))
	if base == "" || token == "" {
		return nil, fmt.Errorf("HOST_API_URL and HOST_API_TOKEN must be set")
	}
	if module == "" {
		module = "timetracking"
	}
	return NewClient(base, token, module), nil
}

// envelope is the host's standard response wrapper.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	u, err := url.JoinPath(c.BaseURL, path)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Login "+c.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", engine.ErrTransient, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: %s %s: status=%d body=%s", engine.ErrTransient, method, path, resp.StatusCode, string(b))
	}
	if out == nil {
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%w: decoding %s %s: %v", engine.ErrTransient, method, path, err)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: decoding %s %s: %v", engine.ErrTransient, method, path, err)
	}
	return nil
}

func (c *Client) categoriesPath() string {
	return fmt.Sprintf("/custommodules/%s/customdatacategories", c.Module)
}

func (c *Client) valuesPath(categoryID int64) string {
	return fmt.Sprintf("%s/%d/customdatavalues", c.categoriesPath(), categoryID)
}

func (c *Client) GetCategory(ctx context.Context, shorty string) (*kvstore.Category, error) {
	var cats []kvstore.Category
	if err := c.do(ctx, http.MethodGet, c.categoriesPath(), nil, &cats); err != nil {
		return nil, err
	}
	for _, cat := range cats {
		if cat.Shorty == shorty {
			found := cat
			return &found, nil
		}
	}
	return nil, nil
}

func (c *Client) CreateCategory(ctx context.Context, spec kvstore.CategorySpec) (*kvstore.Category, error) {
	var cat kvstore.Category
	if err := c.do(ctx, http.MethodPost, c.categoriesPath(), spec, &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

func (c *Client) Values(ctx context.Context, categoryID int64) ([]kvstore.Value, error) {
	var values []kvstore.Value
	if err := c.do(ctx, http.MethodGet, c.valuesPath(categoryID), nil, &values); err != nil {
		return nil, err
	}
	return values, nil
}

func (c *Client) CreateValue(ctx context.Context, categoryID int64, payload string) (kvstore.Value, error) {
	body := map[string]string{"value": payload}
	var v kvstore.Value
	if err := c.do(ctx, http.MethodPost, c.valuesPath(categoryID), body, &v); err != nil {
		return kvstore.Value{}, err
	}
	if v.Payload == "" {
		v.Payload = payload
	}
	return v, nil
}

func (c *Client) UpdateValue(ctx context.Context, categoryID, valueID int64, payload string) error {
	body := map[string]string{"value": payload}
	path := fmt.Sprintf("%s/%d", c.valuesPath(categoryID), valueID)
	return c.do(ctx, http.MethodPut, path, body, nil)
}

func (c *Client) DeleteValue(ctx context.Context, categoryID, valueID int64) error {
	path := fmt.Sprintf("%s/%d", c.valuesPath(categoryID), valueID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}
