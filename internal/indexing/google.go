package indexing

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"
)

const (
	googleBatchURL    = "https://indexing.googleapis.com/batch"
	googlePublishPath = "/v3/urlNotifications:publish"
	googleScope       = "https://www.googleapis.com/auth/indexing"
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleChunkSize   = 100
	googleHTTPTimeout = 10 * time.Second
)

// ErrAuth marks 401/403 responses from Google. The retry wrapper does
// not retry these — bad credentials will not self-resolve.
var ErrAuth = errors.New("google indexing auth rejected")

// googleCreds mirrors the fields of a service-account JSON key file
// the client needs for JWT signing.
type googleCreds struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	TokenURI    string `json:"token_uri"`
}

// GoogleClient submits URL notifications to the Google Indexing API
// in multipart batches of at most googleChunkSize URLs, paced at one
// chunk per ~300ms to respect provider rate limits.
//
// A fresh access token is exchanged per submission. Submissions are
// infrequent webhook-driven events, so token caching is not worth the
// expiry bookkeeping.
type GoogleClient struct {
	creds    googleCreds
	key      *rsa.PrivateKey
	client   *http.Client
	limiter  *rate.Limiter
	tokenURL string
	batchURL string
}

// NewGoogleClient parses raw service-account JSON and its embedded RSA
// private key. Malformed credentials are an operator error and fail here.
func NewGoogleClient(credsJSON string) (*GoogleClient, error) {
	if strings.TrimSpace(credsJSON) == "" {
		return nil, fmt.Errorf("service account JSON is empty")
	}

	var creds googleCreds
	if err := json.Unmarshal([]byte(credsJSON), &creds); err != nil {
		return nil, fmt.Errorf("parse service account JSON: %w", err)
	}
	if creds.ClientEmail == "" || creds.PrivateKey == "" {
		return nil, fmt.Errorf("service account JSON missing client_email or private_key")
	}
	if creds.TokenURI == "" {
		creds.TokenURI = googleTokenURL
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(creds.PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("parse service account private key: %w", err)
	}

	return &GoogleClient{
		creds:    creds,
		key:      key,
		client:   &http.Client{Timeout: googleHTTPTimeout},
		limiter:  rate.NewLimiter(rate.Every(300*time.Millisecond), 1),
		tokenURL: creds.TokenURI,
		batchURL: googleBatchURL,
	}, nil
}

// Name identifies this client in orchestration outcomes.
func (c *GoogleClient) Name() Provider { return ProviderGoogle }

// accessToken signs a service-account JWT and exchanges it for a
// bearer token.
func (c *GoogleClient) accessToken(ctx context.Context) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   c.creds.ClientEmail,
		"scope": googleScope,
		"aud":   c.tokenURL,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}

	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("sign JWT: %w", err)
	}

	form := url.Values{}
	form.Set("grant_type", "urn:ietf:params:oauth:grant-type:jwt-bearer")
	form.Set("assertion", assertion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token exchange: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("token exchange read body: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", fmt.Errorf("%w: token endpoint returned %d: %s", ErrAuth, resp.StatusCode, string(body))
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var tok struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("token response unmarshal: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}
	return tok.AccessToken, nil
}

// Submit notifies Google about every URL, chunked and paced. One
// URLResult is returned per submitted URL. The error is non-nil only
// when nothing was attempted (token exchange failed); per-chunk
// transport failures are folded into failed URLResults instead.
func (c *GoogleClient) Submit(ctx context.Context, urls []string, typ NotificationType) ([]URLResult, error) {
	if len(urls) == 0 {
		return nil, nil
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return failAll(urls, fmt.Sprintf("access token: %v", err)), err
	}

	var results []URLResult
	for start := 0; start < len(urls); start += googleChunkSize {
		end := min(start+googleChunkSize, len(urls))
		chunk := urls[start:end]

		if err := c.limiter.Wait(ctx); err != nil {
			results = append(results, failAll(chunk, fmt.Sprintf("cancelled: %v", err))...)
			continue
		}
		results = append(results, c.submitChunk(ctx, token, chunk, typ)...)
	}
	return results, nil
}

// SubmitWithRetry retries failed URLs with exponential backoff
// (1s, 2s, 4s). Auth failures are returned immediately — retrying a
// 401/403 only burns quota.
func (c *GoogleClient) SubmitWithRetry(ctx context.Context, urls []string, typ NotificationType) []URLResult {
	backoff := time.Second
	pending := urls
	succeeded := make(map[string]URLResult, len(urls))

	for attempt := 0; attempt < 4; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return mergeResults(urls, succeeded, failAll(pending, "cancelled before retry"))
			}
			backoff *= 2
		}

		results, err := c.Submit(ctx, pending, typ)
		var failed []string
		for _, r := range results {
			if r.Succeeded {
				succeeded[r.URL] = r
			} else {
				failed = append(failed, r.URL)
			}
		}
		if len(failed) == 0 {
			return mergeResults(urls, succeeded, nil)
		}
		if errors.Is(err, ErrAuth) {
			log.Printf("[indexing] google auth failure — not retrying: %v", err)
			return mergeResults(urls, succeeded, results)
		}
		pending = failed
	}
	return mergeResults(urls, succeeded, failAll(pending, "retries exhausted"))
}

// submitChunk performs one multipart batch call. Never returns an
// error: transport and status failures become failed URLResults for
// every URL in the chunk.
func (c *GoogleClient) submitChunk(ctx context.Context, token string, urls []string, typ NotificationType) []URLResult {
	body := &strings.Builder{}
	mw := multipart.NewWriter(body)

	for i, u := range urls {
		hdr := make(map[string][]string)
		hdr["Content-Type"] = []string{"application/http"}
		hdr["Content-ID"] = []string{fmt.Sprintf("<item-%d>", i+1)}

		part, err := mw.CreatePart(hdr)
		if err != nil {
			return failAll(urls, fmt.Sprintf("build multipart body: %v", err))
		}

		payload, _ := json.Marshal(map[string]string{"url": u, "type": string(typ)})
		fmt.Fprintf(part, "POST %s HTTP/1.1\r\nContent-Type: application/json\r\n\r\n%s", googlePublishPath, payload)
	}
	mw.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.batchURL, strings.NewReader(body.String()))
	if err != nil {
		return failAll(urls, fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Content-Type", "multipart/mixed; boundary="+mw.Boundary())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return failAll(urls, fmt.Sprintf("batch request: %v", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return failAll(urls, fmt.Sprintf("read batch response: %v", err))
	}
	if resp.StatusCode != http.StatusOK {
		return failAll(urls, fmt.Sprintf("batch endpoint returned %d: %s", resp.StatusCode, truncate(string(respBody), 200)))
	}

	return correlateParts(urls, resp.Header.Get("Content-Type"), respBody)
}

// correlateParts matches each submitted URL to its sub-response. A URL
// is successful when some part of the multipart response contains both
// the URL and a 200 status fragment. Correlation is per part, keeping
// the one-result-per-URL contract without relying on part ordering.
func correlateParts(urls []string, contentType string, body []byte) []URLResult {
	parts := splitMultipart(contentType, body)
	if parts == nil {
		// Unparseable response: fall back to whole-body matching.
		parts = []string{string(body)}
	}

	results := make([]URLResult, 0, len(urls))
	for _, u := range urls {
		matched := false
		for _, p := range parts {
			if strings.Contains(p, u) && strings.Contains(p, "200") {
				matched = true
				break
			}
		}
		if matched {
			results = append(results, URLResult{URL: u, Succeeded: true})
		} else {
			results = append(results, URLResult{URL: u, Succeeded: false, Message: "no 200 sub-response for URL"})
		}
	}
	return results
}

func splitMultipart(contentType string, body []byte) []string {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil || params["boundary"] == "" {
		return nil
	}

	var parts []string
	mr := multipart.NewReader(strings.NewReader(string(body)), params["boundary"])
	for {
		p, err := mr.NextPart()
		if err != nil {
			break
		}
		data, _ := io.ReadAll(p)
		parts = append(parts, string(data))
	}
	return parts
}

func failAll(urls []string, msg string) []URLResult {
	results := make([]URLResult, 0, len(urls))
	for _, u := range urls {
		results = append(results, URLResult{URL: u, Succeeded: false, Message: msg})
	}
	return results
}

// mergeResults reassembles per-URL results in the caller's original
// order from the succeeded map plus the final failed set.
func mergeResults(urls []string, succeeded map[string]URLResult, failed []URLResult) []URLResult {
	failures := make(map[string]URLResult, len(failed))
	for _, r := range failed {
		failures[r.URL] = r
	}

	out := make([]URLResult, 0, len(urls))
	for _, u := range urls {
		if r, ok := succeeded[u]; ok {
			out = append(out, r)
		} else if r, ok := failures[u]; ok {
			out = append(out, r)
		} else {
			out = append(out, URLResult{URL: u, Succeeded: false, Message: "not attempted"})
		}
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
