package server

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validation(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New(&Config{Address: ":0"})
	assert.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig(http.NotFoundHandler())
	assert.Equal(t, ":8080", cfg.Address)
	assert.Equal(t, 15*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestServer_ServeAndShutdown(t *testing.T) {
	cfg := DefaultConfig(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	cfg.Address = "127.0.0.1:0"
	cfg.ShutdownTimeout = time.Second

	srv, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, srv.Listen())

	hookRan := make(chan struct{})
	srv.OnShutdown(func(context.Context) error {
		close(hookRan)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	resp, err := http.Get("http://" + srv.Addr() + "/")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}

	select {
	case <-hookRan:
	default:
		t.Fatal("shutdown hook did not run")
	}
}

func TestServer_ServeWithoutListen(t *testing.T) {
	srv, err := New(DefaultConfig(http.NotFoundHandler()))
	require.NoError(t, err)
	assert.Error(t, srv.Serve(context.Background()))
	assert.Equal(t, ":8080", srv.Addr())
}
