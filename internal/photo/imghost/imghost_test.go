package imghost

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pataalerta/internal/failure"
	"pataalerta/internal/photo"
)

func jpeg300(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 300, 300)), nil))
	return buf.Bytes()
}

type progressLog struct {
	mu   sync.Mutex
	seen []photo.Percent
}

func (l *progressLog) OnProgress(p photo.Percent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen = append(l.seen, p)
}

func TestUpload_EndToEnd(t *testing.T) {
	var gotKey, gotName string
	var gotImage []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		require.NoError(t, r.ParseMultipartForm(10<<20))
		gotName = r.FormValue("name")
		gotImage, _ = base64.StdEncoding.DecodeString(r.FormValue("image"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"success":true,"status":200,"data":{"url":"https://i.example/abc.jpg"}}`)
	}))
	defer srv.Close()

	host := New(Config{Endpoint: srv.URL + "/1/upload", APIKey: "secret"})
	log := &progressLog{}
	res := photo.NewPipeline(host).Upload(context.Background(), photo.NewFile("rex.jpg", "image/jpeg", jpeg300(t)), log)

	require.True(t, res.Success, "%+v", res.Failure)
	assert.Equal(t, "https://i.example/abc.jpg", res.URL)
	assert.Equal(t, "secret", gotKey)
	assert.Regexp(t, `^\d+_[0-9a-f]{6}$`, gotName)
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(gotImage))
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Width)

	require.NotEmpty(t, log.seen)
	assert.Less(t, log.seen[0], photo.Percent(50))
	for i := 1; i < len(log.seen); i++ {
		assert.GreaterOrEqual(t, log.seen[i], log.seen[i-1])
	}
	assert.Equal(t, photo.Percent(100), log.seen[len(log.seen)-1])
}

func TestUpload_ConnectionDroppedMidTransfer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.CopyN(io.Discard, r.Body, 512)
		conn, _, err := w.(http.Hijacker).Hijack()
		require.NoError(t, err)
		conn.Close()
	}))
	defer srv.Close()

	host := New(Config{Endpoint: srv.URL, APIKey: "k"})
	log := &progressLog{}
	res := photo.NewPipeline(host).Upload(context.Background(), photo.NewFile("rex.jpg", "image/jpeg", jpeg300(t)), log)

	assert.False(t, res.Success)
	require.NotNil(t, res.Failure)
	assert.Equal(t, failure.NetworkFailure, res.Failure.Kind)
	assert.NotContains(t, log.seen, photo.Percent(100))
}

func TestUpload_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"bad image", http.StatusBadRequest, `{"success":false,"status":400,"error":{"message":"Invalid image","code":310}}`, "Invalid image file. Choose another photo."},
		{"bad key", http.StatusForbidden, `{"success":false,"status":403}`, "Photo upload not authorized. Contact the administrator."},
		{"throttled", http.StatusTooManyRequests, `{}`, "Too many uploads. Wait a moment and try again."},
		{"down", http.StatusBadGateway, `<html>bad gateway</html>`, "Photo service unavailable. Try again later."},
		{"unmapped", http.StatusTeapot, `{"success":false}`, "Failed to upload photo. Try again. (code: 418)"},
		{"no url", http.StatusOK, `{"success":true,"data":{}}`, "Failed to upload photo. Try again. (code: missing_url)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.Copy(io.Discard, r.Body)
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			res := photo.NewPipeline(New(Config{Endpoint: srv.URL, APIKey: "k"})).
				Upload(context.Background(), photo.NewFile("rex.jpg", "image/jpeg", jpeg300(t)), nil)
			require.NotNil(t, res.Failure)
			assert.Equal(t, failure.BackendRejection, res.Failure.Kind)
			assert.Equal(t, tt.message, res.Failure.UserMessage())
		})
	}
}

func TestConfigured(t *testing.T) {
	assert.False(t, New(Config{Endpoint: "https://api.example"}).Configured())
	assert.False(t, New(Config{APIKey: "k"}).Configured())
	assert.True(t, New(Config{Endpoint: "https://api.example", APIKey: "k"}).Configured())

	var h *Host
	assert.False(t, h.Configured())
}

func TestCodeForStatus(t *testing.T) {
	assert.Equal(t, photo.InvalidFile, CodeForStatus(413))
	assert.Equal(t, photo.QuotaExceeded, CodeForStatus(507))
	assert.Equal(t, photo.ServerUnavailable, CodeForStatus(503))
	assert.Equal(t, photo.Unknown, CodeForStatus(302))
}
