// Package provision exchanges API credentials for a join token via the
// call-provisioning endpoint.
package provision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Call is the provisioning response. The client consumes only the
// transport URL, the join credential and the id (log correlation);
// everything else is passed through for display.
type Call struct {
	ID           string         `json:"id"`
	AgentID      string         `json:"agent_id"`
	Tags         map[string]any `json:"tags"`
	StartedAt    string         `json:"started_at"`
	EndedAt      *string        `json:"ended_at"`
	TransportURL string         `json:"livekit_url"`
	JoinToken    string         `json:"livekit_token"`
}

type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

// CreateCall provisions a new call against the given agent.
func (c *Client) CreateCall(ctx context.Context, agentID string) (*Call, error) {
	body, err := json.Marshal(map[string]string{"agent_id": agentID})
	if err != nil {
		return nil, fmt.Errorf("create call: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create call: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("create call: status %d: %s", resp.StatusCode, string(detail))
	}

	var call Call
	if err := json.NewDecoder(resp.Body).Decode(&call); err != nil {
		return nil, fmt.Errorf("create call: decode response: %w", err)
	}

	log.Info().Str("module", "provision").Str("call_id", call.ID).Str("agent_id", call.AgentID).Msg("call created")
	return &call, nil
}
