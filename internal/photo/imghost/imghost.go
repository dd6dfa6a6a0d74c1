// Package imghost uploads photos to an imgbb-compatible HTTP image host.
package imghost

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"sync/atomic"

	"pataalerta/internal/photo"
)

// Config describes the remote image host.
type Config struct {
	Endpoint  string
	APIKey    string
	HTTPProxy string
}

// Host posts images as a base64 multipart field and reads back a JSON
// envelope of the form {success, data{url}, status, error{message}}.
type Host struct {
	cfg    Config
	client *http.Client
}

// New builds a Host. The client has no timeout of its own; the upload
// deadline comes from the request context.
func New(cfg Config) *Host {
	var transport http.RoundTripper = &http.Transport{}
	if cfg.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.HTTPProxy)
		if err != nil {
			log.Printf("Warning: Invalid proxy URL %q: %v. Image host will not use a proxy.", cfg.HTTPProxy, err)
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}
	return &Host{cfg: cfg, client: &http.Client{Transport: transport}}
}

// WithClient swaps the HTTP client, mostly for tests.
func (h *Host) WithClient(c *http.Client) *Host {
	h.client = c
	return h
}

func (h *Host) Configured() bool {
	return h != nil && h.cfg.Endpoint != "" && h.cfg.APIKey != ""
}

type envelope struct {
	Success bool `json:"success"`
	Status  int  `json:"status"`
	Data    struct {
		URL string `json:"url"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error"`
}

func (h *Host) Upload(ctx context.Context, p photo.Payload, progress photo.ProgressFunc) (string, error) {
	body, contentType, err := encodeForm(p)
	if err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}

	endpoint, err := url.Parse(h.cfg.Endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid image host endpoint: %w", err)
	}
	q := endpoint.Query()
	q.Set("key", h.cfg.APIKey)
	endpoint.RawQuery = q.Encode()

	total := int64(len(body))
	cr := &countingReader{r: bytes.NewReader(body), total: total, progress: progress}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), cr)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.ContentLength = total
	req.Header.Set("Content-Type", contentType)

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 || (decodeErr == nil && !env.Success) {
		status := resp.StatusCode
		if env.Status != 0 {
			status = env.Status
		}
		return "", &photo.BackendError{Code: CodeForStatus(status), Raw: rawCode(status, env)}
	}
	if decodeErr != nil {
		return "", &photo.BackendError{Code: photo.Unknown, Raw: "invalid_response"}
	}
	if env.Data.URL == "" {
		return "", &photo.BackendError{Code: photo.Unknown, Raw: "missing_url"}
	}
	return env.Data.URL, nil
}

// CodeForStatus maps an HTTP status from the host onto the closed code set.
func CodeForStatus(status int) photo.Code {
	switch {
	case status == http.StatusBadRequest, status == http.StatusRequestEntityTooLarge, status == http.StatusUnsupportedMediaType:
		return photo.InvalidFile
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return photo.Unauthorized
	case status == http.StatusPaymentRequired, status == http.StatusInsufficientStorage:
		return photo.QuotaExceeded
	case status == http.StatusTooManyRequests:
		return photo.RateLimited
	case status >= 500:
		return photo.ServerUnavailable
	}
	return photo.Unknown
}

func rawCode(status int, env envelope) string {
	if env.Error.Code != nil {
		return fmt.Sprint(env.Error.Code)
	}
	return strconv.Itoa(status)
}

func encodeForm(p photo.Payload) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("image", base64.StdEncoding.EncodeToString(p.Data)); err != nil {
		return nil, "", err
	}
	name := strings.TrimSuffix(path.Base(p.Name), path.Ext(p.Name))
	if err := w.WriteField("name", name); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// countingReader reports bytes handed to the transport.
type countingReader struct {
	r        io.Reader
	sent     atomic.Int64
	total    int64
	progress photo.ProgressFunc
}

func (c *countingReader) Read(b []byte) (int, error) {
	n, err := c.r.Read(b)
	if n > 0 && c.progress != nil {
		c.progress(c.sent.Add(int64(n)), c.total)
	}
	return n, err
}
