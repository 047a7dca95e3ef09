package main

import (
	"net/http"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestServeReturnsOnShutdownSignal(t *testing.T) {
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NewServeMux()}
	stop := make(chan os.Signal, 1)

	done := make(chan error, 1)
	go func() {
		done <- serve(srv, stop, zap.NewNop().Sugar())
	}()

	time.Sleep(50 * time.Millisecond)
	stop <- os.Interrupt

	// serve must return so main's deferred cleanup (engine pool, database
	// adapters) actually runs.
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve returned error after shutdown: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not return after a shutdown signal")
	}
}

func TestServeReturnsListenError(t *testing.T) {
	srv := &http.Server{Addr: "127.0.0.1:-1"}
	stop := make(chan os.Signal, 1)

	if err := serve(srv, stop, zap.NewNop().Sugar()); err == nil {
		t.Fatal("expected listen error")
	}
}
