package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"
)

func testServer(handler http.Handler) *Server {
	return New(handler, Options{
		ShutdownTimeout: 2 * time.Second,
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestServer_ServeAndShutdown(t *testing.T) {
	srv := testServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	var order []string
	srv.OnShutdown("store", func(ctx context.Context) error {
		order = append(order, "store")
		return nil
	})
	srv.OnShutdown("cache", func(ctx context.Context) error {
		order = append(order, "cache")
		return nil
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusTeapot {
		t.Errorf("status = %d, want 418", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve() = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	if len(order) != 2 || order[0] != "cache" || order[1] != "store" {
		t.Errorf("shutdown order = %v, want [cache store]", order)
	}
}

func TestServer_ShutdownJoinsErrors(t *testing.T) {
	srv := testServer(http.NotFoundHandler())

	errStore := errors.New("store close failed")
	ran := false
	srv.OnShutdown("store", func(ctx context.Context) error { return errStore })
	srv.OnShutdown("cache", func(ctx context.Context) error {
		ran = true
		return nil
	})

	err := srv.Shutdown()
	if !errors.Is(err, errStore) {
		t.Errorf("Shutdown() = %v, want wrapped store error", err)
	}
	if !ran {
		t.Error("later components must still shut down")
	}
}
