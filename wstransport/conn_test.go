package wstransport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newEchoServer starts an httptest server that upgrades every request to a
// WebSocket and echoes back whatever it receives, once, closing afterward.
func newEchoServer(t *testing.T) *httptest.Server {
	t.Helper()
	up := NewUpgrader()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		msg, err := conn.Recv(context.Background())
		if err != nil {
			return
		}
		conn.Send(context.Background(), msg)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

func TestConnSendRecvRoundTrip(t *testing.T) {
	srv := newEchoServer(t)

	conn, err := Dial(context.Background(), wsURL(srv.URL))
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, conn.Send(ctx, []byte("ping")))
	got, err := conn.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(got))
}

func TestConnWithCompressionRoundTrip(t *testing.T) {
	up := NewUpgrader()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Accept(w, r, nil)
		if err != nil {
			return
		}
		conn.WithCompression("flate")
		defer conn.Close()
		msg, err := conn.Recv(context.Background())
		if err != nil {
			return
		}
		conn.Send(context.Background(), msg)
	}))
	t.Cleanup(srv.Close)

	conn, err := Dial(context.Background(), wsURL(srv.URL))
	require.NoError(t, err)
	conn.WithCompression("flate")
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	payload := []byte(strings.Repeat("compress me please ", 50))
	require.NoError(t, conn.Send(ctx, payload))
	got, err := conn.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestConnRecvAfterPeerCloseReturnsError(t *testing.T) {
	up := NewUpgrader()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Accept(w, r, nil)
		if err != nil {
			return
		}
		conn.Close()
	}))
	t.Cleanup(srv.Close)

	conn, err := Dial(context.Background(), wsURL(srv.URL))
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Recv(context.Background())
	assert.Error(t, err)
}
