package writeid

import (
	"context"
	"testing"
)

func TestNewContextRoundTrip(t *testing.T) {
	ctx, id := NewContext(context.Background())
	got, ok := FromContext(ctx)
	if !ok || got != id {
		t.Fatalf("FromContext = %d, %v; want %d, true", got, ok, id)
	}
}

func TestFromContextWithoutID(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Fatal("bare context reported a write ID")
	}
}
