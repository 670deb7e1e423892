package vm

import (
	"context"
	"testing"
)

func TestNewAndClose(t *testing.T) {
	ctx := context.Background()
	d, err := New(ctx)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestNewWithSecretsProvider(t *testing.T) {
	ctx := context.Background()
	sp := fakeSecrets{"api-key": "shh"}
	d, err := New(ctx, WithSecretsProvider(sp))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close(ctx)
	if d.secrets == nil {
		t.Fatal("expected secrets provider to be wired")
	}
}

type fakeSecrets map[string]string

func (f fakeSecrets) Resolve(ctx context.Context, key string) (string, bool) {
	v, ok := f[key]
	return v, ok
}
