package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/stundenwerk/timetrack-engine/engine"
)

// =============================================================================
// HTTP CLIENT - Group membership via the host platform's API
// =============================================================================

// HTTPClient resolves group members from the host REST API.
type HTTPClient struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

var _ GroupClient = (*HTTPClient)(nil)

func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 20 * time.Second},
	}
}

func (c *HTTPClient) GroupMembers(ctx context.Context, groupID int) ([]Member, error) {
	u := fmt.Sprintf("%s/groups/%d/members", c.BaseURL, groupID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Login "+c.Token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: group %d members: %v", engine.ErrTransient, groupID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: group %d members: status=%d body=%s", engine.ErrTransient, groupID, resp.StatusCode, string(b))
	}

	var env struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: group %d members: %v", engine.ErrTransient, groupID, err)
	}
	return NormalizeAll(env.Data), nil
}
