package operator

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func TestCloseStopsReaderAfterCancelledAsk(t *testing.T) {
	p := New(strings.NewReader("1\n2\n3\n"), io.Discard, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _ = p.Ask(ctx, "? ")

	p.Close()
	select {
	case <-p.stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("reader goroutine still blocked after Close")
	}
	if _, err := p.Ask(context.Background(), "? "); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF after Close, got %v", err)
	}
	p.Close()
}
