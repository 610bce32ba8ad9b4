package recording

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"meetvault/internal/config"
)

// VendorClient talks to the cloud recording vendor's REST API. Every call
// accepts non-2xx without failing the transport layer and normalizes the
// error body into a VendorError.
type VendorClient struct {
	baseURL    string
	appID      string
	authHeader string
	httpClient *http.Client
	log        zerolog.Logger
}

func NewVendorClient(cfg config.VendorConfig, log zerolog.Logger) *VendorClient {
	credentials := base64.StdEncoding.EncodeToString(
		[]byte(cfg.CustomerID + ":" + cfg.CustomerSecret),
	)
	return &VendorClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		appID:      cfg.AppID,
		authHeader: "Basic " + credentials,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		log:        log,
	}
}

// Acquire obtains a recording resource handle for the channel.
func (c *VendorClient) Acquire(ctx context.Context, cname string, uid uint32, resourceExpiredHours int) (string, error) {
	body := map[string]any{
		"cname": cname,
		"uid":   fmt.Sprintf("%d", uid),
		"clientRequest": map[string]any{
			"resourceExpiredHour": resourceExpiredHours,
		},
	}

	resp, err := c.do(ctx, http.MethodPost, "/acquire", body)
	if err != nil {
		return "", err
	}

	resourceID, _ := resp["resourceId"].(string)
	if resourceID == "" {
		return "", fmt.Errorf("acquire response missing resourceId")
	}
	return resourceID, nil
}

// Start begins recording on an acquired resource. Returns the vendor session
// id and the raw response document.
func (c *VendorClient) Start(ctx context.Context, resourceID, mode, cname string, uid uint32, clientRequest map[string]any) (string, map[string]any, error) {
	body := map[string]any{
		"cname":         cname,
		"uid":           fmt.Sprintf("%d", uid),
		"clientRequest": clientRequest,
	}
	path := fmt.Sprintf("/resourceid/%s/mode/%s/start", resourceID, mode)

	resp, err := c.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return "", nil, err
	}

	sid, _ := resp["sid"].(string)
	if sid == "" {
		return "", nil, fmt.Errorf("start response missing sid")
	}
	return sid, resp, nil
}

// Stop ends a recording session. A vendor 404 means the session is already
// gone on the vendor side and is reported via gone=true, not an error.
func (c *VendorClient) Stop(ctx context.Context, resourceID, sid, mode, cname string, uid uint32) (resp map[string]any, gone bool, err error) {
	body := map[string]any{
		"cname":         cname,
		"uid":           fmt.Sprintf("%d", uid),
		"clientRequest": map[string]any{},
	}
	path := fmt.Sprintf("/resourceid/%s/sid/%s/mode/%s/stop", resourceID, sid, mode)

	resp, err = c.do(ctx, http.MethodPost, path, body)
	if err != nil {
		var vendorErr *VendorError
		if errors.As(err, &vendorErr) && vendorErr.Status == http.StatusNotFound {
			c.log.Info().Str("sid", sid).Msg("vendor session already gone, treating stop as success")
			return nil, true, nil
		}
		return nil, false, err
	}
	return resp, false, nil
}

// Query fetches the vendor's view of the session.
func (c *VendorClient) Query(ctx context.Context, resourceID, sid, mode string) (map[string]any, error) {
	path := fmt.Sprintf("/resourceid/%s/sid/%s/mode/%s/query", resourceID, sid, mode)
	return c.do(ctx, http.MethodGet, path, nil)
}

// Update adjusts which participant audio streams are subscribed mid-session.
// An empty uid list subscribes all streams.
func (c *VendorClient) Update(ctx context.Context, resourceID, sid, mode, cname string, uid uint32, subscribeUids []string) (map[string]any, error) {
	if len(subscribeUids) == 0 {
		subscribeUids = []string{"#allstream#"}
	}
	body := map[string]any{
		"cname": cname,
		"uid":   fmt.Sprintf("%d", uid),
		"clientRequest": map[string]any{
			"streamSubscribe": map[string]any{
				"audioUidList": map[string]any{
					"subscribeAudioUids": subscribeUids,
				},
			},
		},
	}
	path := fmt.Sprintf("/resourceid/%s/sid/%s/mode/%s/update", resourceID, sid, mode)
	return c.do(ctx, http.MethodPost, path, body)
}

func (c *VendorClient) do(ctx context.Context, method, path string, body any) (map[string]any, error) {
	url := fmt.Sprintf("%s/apps/%s/cloud_recording%s", c.baseURL, c.appID, path)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode vendor request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build vendor request: %w", err)
	}
	req.Header.Set("Authorization", c.authHeader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vendor request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read vendor response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, parseVendorError(resp.StatusCode, raw)
	}

	parsed := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return nil, fmt.Errorf("failed to decode vendor response: %w", err)
		}
	}
	return parsed, nil
}

// parseVendorError extracts the {code, reason} shape from a vendor error
// body, falling back to the raw body when it is not JSON.
func parseVendorError(status int, raw []byte) *VendorError {
	vendorErr := &VendorError{Status: status, Reason: "Unknown error"}

	var parsed map[string]any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		if len(raw) > 0 {
			vendorErr.Reason = string(raw)
		}
		return vendorErr
	}

	if code, ok := parsed["code"].(float64); ok {
		vendorErr.Code = int(code)
	}
	if reason, ok := parsed["reason"].(string); ok && reason != "" {
		vendorErr.Reason = reason
	} else if len(raw) > 0 {
		vendorErr.Reason = string(raw)
	}
	return vendorErr
}
