package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestNewPingsServer(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := New(context.Background(), mr.Addr(), 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = client.Close() }()
	if err := client.Set(context.Background(), "k", "v", time.Minute).Err(); err != nil {
		t.Fatalf("Set: %v", err)
	}
}

func TestNewFailsFast(t *testing.T) {
	// Nothing listens on this address; the bounded ping must surface it.
	_, err := New(context.Background(), "127.0.0.1:1", 100*time.Millisecond)
	if err == nil {
		t.Fatal("expected connection error")
	}
}
