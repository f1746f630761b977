package syncer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/faceguard/faceguard/internal/snapshot"
	"github.com/faceguard/faceguard/internal/store"
)

// Client talks to the store server's sync API. The zero value is not
// usable, construct it with NewClient.
type Client struct {
	baseURL   string
	parsedURL *url.URL
	clientID  string
	http      *http.Client
}

// NewClient creates a sync client for the given server base URL. The
// client id identifies this installation in pushed records.
func NewClient(rawURL, clientID string) (*Client, error) {
	apiURL := strings.TrimSuffix(rawURL, "/") + "/api"
	parsed, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	return &Client{
		baseURL:   apiURL,
		parsedURL: parsed,
		clientID:  clientID,
		http:      http.DefaultClient,
	}, nil
}

// resolveURL builds a full URL from the base API URL and the given path
// segments. A query string on the last segment is split off so JoinPath
// only receives the path portion.
func (c *Client) resolveURL(pathSegments ...string) string {
	if len(pathSegments) == 0 {
		return c.parsedURL.String()
	}
	last := pathSegments[len(pathSegments)-1]
	if pathPart, query, ok := strings.Cut(last, "?"); ok {
		pathSegments[len(pathSegments)-1] = pathPart
		result := c.parsedURL.JoinPath(pathSegments...)
		result.RawQuery = query
		return result.String()
	}
	return c.parsedURL.JoinPath(pathSegments...).String()
}

// Pull fetches the server's snapshot for the given day.
func (c *Client) Pull(ctx context.Context, day string) (*snapshot.Snapshot, error) {
	return doGetJSON[snapshot.Snapshot](ctx, c, "sync?day="+url.QueryEscape(day))
}

// syncAck is the push response: the merged snapshot plus the server
// clock at merge time.
type syncAck struct {
	snapshot.Snapshot
	ServerTime int64 `json:"serverTime"`
}

// Push sends the local snapshot for the given day and returns the merged
// snapshot the server holds afterwards.
func (c *Client) Push(ctx context.Context, day string, snap snapshot.Snapshot) (*snapshot.Snapshot, error) {
	ack, err := doPostJSON[syncAck](ctx, c, "sync?day="+url.QueryEscape(day), snap)
	if err != nil {
		return nil, err
	}
	return &ack.Snapshot, nil
}

// assetUpload is the JSON payload for binary asset uploads.
type assetUpload struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
	Data string `json:"data"`
}

type assetAck struct {
	Status string `json:"status"`
}

// UploadAsset sends a binary asset (profile photo or capture) base64
// encoded in a JSON envelope.
func (c *Client) UploadAsset(ctx context.Context, id string, kind store.AssetKind, data []byte) error {
	payload := assetUpload{
		ID:   id,
		Kind: string(kind),
		Data: base64.StdEncoding.EncodeToString(data),
	}
	_, err := doPostJSON[assetAck](ctx, c, "assets", payload)
	return err
}

// DeleteIdentity removes an identity from the server store.
func (c *Client) DeleteIdentity(ctx context.Context, id string) error {
	return doRequestRaw(ctx, c, http.MethodDelete, "identities/"+url.PathEscape(id), nil)
}

// Wipe clears the whole server store.
func (c *Client) Wipe(ctx context.Context) error {
	return doRequestRaw(ctx, c, http.MethodPost, "wipe", nil)
}

// doGetJSON performs a GET request and unmarshals the JSON response into
// the result type. The endpoint is the path after the base API URL.
func doGetJSON[T any](ctx context.Context, c *Client, endpoint string) (*T, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolveURL(endpoint), nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	req.Header.Set("X-Client-ID", c.clientID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}

	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("could not unmarshal response: %w", err)
	}

	return &result, nil
}

// doPostJSON performs a POST request with a JSON body and unmarshals the
// JSON response.
func doPostJSON[T any](ctx context.Context, c *Client, endpoint string, requestBody any) (*T, error) {
	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("could not marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolveURL(endpoint), bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	req.Header.Set("X-Client-ID", c.clientID)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}

	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("could not unmarshal response: %w", err)
	}

	return &result, nil
}

// doRequestRaw performs an HTTP request without unmarshaling the
// response. Only the admin operations use it, so the admin role header
// is always attached.
func doRequestRaw(ctx context.Context, c *Client, method, endpoint string, requestBody any) error {
	var bodyReader io.Reader
	if requestBody != nil {
		jsonBody, err := json.Marshal(requestBody)
		if err != nil {
			return fmt.Errorf("could not marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolveURL(endpoint), bodyReader)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}

	req.Header.Set("X-Client-ID", c.clientID)
	req.Header.Set("X-Actor-Role", "admin")
	if requestBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	return nil
}

// readErrorBody reads the response body for error messages. Returns a
// placeholder if reading fails, we are already in an error path.
func readErrorBody(r io.Reader) string {
	body, err := io.ReadAll(r)
	if err != nil {
		return "(could not read error body)"
	}
	return string(body)
}
