package probe

import (
	"context"
	"encoding/pem"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/frgrisk/trust-prompt/internal/server"
	"github.com/frgrisk/trust-prompt/internal/testcert"
)

func writeServerCA(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	name := filepath.Join(t.TempDir(), "rootCA.pem")
	data := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: ts.Certificate().Raw})
	require.NoError(t, os.WriteFile(name, data, 0o600))
	return name
}

func TestCheckPageAgainstServer(t *testing.T) {
	pair := testcert.Write(t)
	s, err := server.New(server.Config{Addr: "127.0.0.1:0", CertFile: pair.Combined},
		server.WithLogger(log.New(io.Discard)))
	require.NoError(t, err)
	require.NoError(t, s.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()
	defer func() {
		cancel()
		assert.NoError(t, <-done)
	}()

	base := "https://" + s.Addr().String()

	res, err := CheckPage(context.Background(), base+"/", TLSOptions{Insecure: true})
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Contains(t, string(res.Body), "Certificate Trust")

	res, err = CheckPage(context.Background(), base+"/arbitrary/nonexistent/path", TLSOptions{Insecure: true})
	require.NoError(t, err)
	assert.Equal(t, s.Body(), res.Body)

	res, err = CheckPage(context.Background(), base+"/", TLSOptions{CAFile: pair.CertFile})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	_, err = FetchPage(context.Background(), base+"/", TLSOptions{})
	assert.Error(t, err, "self-signed certificate must not verify against system roots")
}

func TestCheckPageUnexpectedResponse(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, "{}")
	}))
	defer ts.Close()

	res, err := CheckPage(context.Background(), ts.URL, TLSOptions{CAFile: writeServerCA(t, ts)})
	require.ErrorIs(t, err, ErrUnexpectedResponse)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.False(t, res.OK())
}

func TestPageResultOK(t *testing.T) {
	testcases := []struct {
		status      int
		contentType string
		expected    bool
	}{
		{200, "text/html", true},
		{200, "text/html; charset=utf-8", true},
		{200, "text/plain", false},
		{500, "text/html", false},
		{200, "", false},
	}

	for _, c := range testcases {
		r := &PageResult{StatusCode: c.status, ContentType: c.contentType}
		assert.Equal(t, c.expected, r.OK(), "%d %q", c.status, c.contentType)
	}
}

func TestTLSOptionsConfig(t *testing.T) {
	_, err := TLSOptions{CAFile: filepath.Join(t.TempDir(), "missing.pem")}.Config()
	assert.Error(t, err)

	garbage := filepath.Join(t.TempDir(), "garbage.pem")
	require.NoError(t, os.WriteFile(garbage, []byte("not a certificate"), 0o600))
	_, err = TLSOptions{CAFile: garbage}.Config()
	assert.Error(t, err)

	cfg, err := TLSOptions{Insecure: true, ServerName: "localhost"}.Config()
	require.NoError(t, err)
	assert.True(t, cfg.InsecureSkipVerify)
	assert.Equal(t, "localhost", cfg.ServerName)
	assert.Nil(t, cfg.RootCAs)
}

func TestWebSocket(t *testing.T) {
	ts := httptest.NewTLSServer(websocket.Handler(func(ws *websocket.Conn) {
		io.Copy(io.Discard, ws)
	}))
	defer ts.Close()

	wssURL := "wss://" + strings.TrimPrefix(ts.URL, "https://")

	require.NoError(t, WebSocket(context.Background(), wssURL, "", TLSOptions{Insecure: true}))
	require.NoError(t, WebSocket(context.Background(), wssURL, "https://localhost:9000", TLSOptions{CAFile: writeServerCA(t, ts)}))

	err := WebSocket(context.Background(), wssURL, "", TLSOptions{})
	assert.Error(t, err)
}

func TestWebSocketNothingListening(t *testing.T) {
	ts := httptest.NewTLSServer(http.NotFoundHandler())
	wssURL := "wss://" + strings.TrimPrefix(ts.URL, "https://")
	ts.Close()

	err := WebSocket(context.Background(), wssURL, "", TLSOptions{Insecure: true})
	assert.Error(t, err)
}
