package ctxkeys

import (
	"context"
	"testing"
)

func TestWithValue_SetsAndGetsTypedKey(t *testing.T) {
	t.Parallel()

	ctx := WithValue(context.Background(), ClientID, "dashboard")
	got, ok := String(ctx, ClientID)
	if !ok {
		t.Fatalf("expected value under ClientID")
	}
	if got != "dashboard" {
		t.Fatalf("expected dashboard, got %q", got)
	}
}

func TestString_UntypedKeyDoesNotCollide(t *testing.T) {
	t.Parallel()

	//nolint:staticcheck // deliberately uses a plain string key
	ctx := context.WithValue(context.Background(), "client_id", "intruder")
	if _, ok := String(ctx, ClientID); ok {
		t.Fatalf("plain string key must not satisfy ctxkeys.ClientID")
	}
}

func TestString_EmptyValue(t *testing.T) {
	t.Parallel()

	ctx := WithValue(context.Background(), ClientID, "")
	if _, ok := String(ctx, ClientID); ok {
		t.Fatalf("empty value must report missing")
	}
}
