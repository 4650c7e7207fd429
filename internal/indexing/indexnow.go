package indexing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	indexNowEndpoint    = "https://api.indexnow.org/indexnow"
	indexNowMaxURLs     = 50
	indexNowHTTPTimeout = 10 * time.Second
)

// IndexNowClient submits URL change notifications via the IndexNow
// protocol: one JSON POST with a shared key that must also be hosted
// at https://{host}/{key}.txt.
type IndexNowClient struct {
	key      string
	client   *http.Client
	endpoint string
	keyLoc   string // overrides the derived key location when non-empty
}

// NewIndexNowClient returns a client using the given shared key.
func NewIndexNowClient(key string) *IndexNowClient {
	return &IndexNowClient{
		key:      key,
		client:   &http.Client{Timeout: indexNowHTTPTimeout},
		endpoint: indexNowEndpoint,
	}
}

// Name identifies this client in orchestration outcomes.
func (c *IndexNowClient) Name() Provider { return ProviderIndexNow }

type indexNowPayload struct {
	Host        string   `json:"host"`
	Key         string   `json:"key"`
	KeyLocation string   `json:"keyLocation"`
	URLList     []string `json:"urlList"`
}

// Submit posts the URL list to the IndexNow API. The protocol has no
// notion of update vs delete — engines recrawl and observe the 404
// themselves — so there is no notification type here.
//
// More than indexNowMaxURLs URLs is a validation error, rejected
// before any network I/O.
func (c *IndexNowClient) Submit(ctx context.Context, urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	if len(urls) > indexNowMaxURLs {
		return fmt.Errorf("indexnow accepts at most %d URLs per call, got %d", indexNowMaxURLs, len(urls))
	}
	if c.key == "" {
		return fmt.Errorf("indexnow key is not configured")
	}

	host, err := hostOf(urls[0])
	if err != nil {
		return err
	}

	payload, err := json.Marshal(indexNowPayload{
		Host:        host,
		Key:         c.key,
		KeyLocation: c.keyLocation(host),
		URLList:     urls,
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("indexnow request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("indexnow returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	return nil
}

// VerifyKeyFile fetches the hosted key file and asserts its content
// matches the configured key. The two failure modes are distinct and
// actionable: an unreachable file is a hosting problem, a mismatch is
// a stale or wrong key.
func (c *IndexNowClient) VerifyKeyFile(ctx context.Context, host string) error {
	loc := c.keyLocation(host)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("key file not reachable at %s: %w", loc, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("key file not reachable at %s: status %d", loc, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("key file not reachable at %s: %w", loc, err)
	}

	if strings.TrimSpace(string(body)) != strings.TrimSpace(c.key) {
		return fmt.Errorf("key file content mismatch at %s", loc)
	}
	return nil
}

func (c *IndexNowClient) keyLocation(host string) string {
	if c.keyLoc != "" {
		return c.keyLoc
	}
	return fmt.Sprintf("https://%s/%s.txt", host, c.key)
}

func hostOf(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("cannot derive host from URL %q", raw)
	}
	return u.Host, nil
}
