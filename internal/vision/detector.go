package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultDetectorURL = "http://localhost:8000"

// DetectorClient talks to the face detection sidecar. The sidecar owns
// the camera: a single GET /detect grabs a frame, runs detection and
// returns the faces found in it.
type DetectorClient struct {
	baseURL string
	client  *http.Client
}

// NewDetectorClient creates a client for the detection sidecar.
func NewDetectorClient(baseURL string) *DetectorClient {
	if baseURL == "" {
		baseURL = defaultDetectorURL
	}
	return &DetectorClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// detectResponse represents the response from the detection sidecar.
type detectResponse struct {
	Faces []Detection `json:"faces"`
}

// Detect grabs one frame from the sidecar and returns its detections.
// An empty frame is a normal result, not an error.
func (c *DetectorClient) Detect(ctx context.Context) ([]Detection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/detect", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var detResp detectResponse
	if err := json.Unmarshal(body, &detResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return detResp.Faces, nil
}
