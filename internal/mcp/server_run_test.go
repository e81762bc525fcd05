package mcp

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestServer_Serve_ClosedInput(t *testing.T) {
	env := newTestEnv(t, nil)

	var out bytes.Buffer
	done := make(chan error, 1)
	go func() {
		done <- env.server.Serve(context.Background(), strings.NewReader(""), &out)
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v, want nil when the client closes stdin", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after end of input")
	}
}

func TestServer_Serve_ContextCancellation(t *testing.T) {
	env := newTestEnv(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	done := make(chan error, 1)
	go func() {
		done <- env.server.Serve(ctx, strings.NewReader(""), &out)
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v, want nil on cancellation", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancellation")
	}
}
