package storage

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/starford/notable/internal/apperr"
)

// exerciseProvider runs the behaviour every Provider must share.
func exerciseProvider(t *testing.T, p Provider) {
	t.Helper()
	ctx := context.Background()

	if _, err := p.Get(ctx, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Get missing: err = %v, want ErrNotFound", err)
	}
	if err := p.Set(ctx, "k1", []byte("v1")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := p.Set(ctx, "k1", []byte("v2")); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	got, err := p.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "v2" {
		t.Errorf("Get = %q, want v2", got)
	}
	if err := p.Set(ctx, "../bad", []byte("x")); err == nil {
		t.Error("expected invalid key error")
	}
}

func TestMemoryProvider(t *testing.T) {
	exerciseProvider(t, NewMemory())
}

func TestMemory_ReturnsCopies(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	buf := []byte("abc")
	_ = m.Set(ctx, "k", buf)
	buf[0] = 'z'
	got, _ := m.Get(ctx, "k")
	got[1] = 'z'
	again, _ := m.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("stored value mutated: %q", again)
	}
}

func TestFSProvider(t *testing.T) {
	exerciseProvider(t, tempStore(t))
}

func TestSQLiteProvider(t *testing.T) {
	dbFile, err := os.CreateTemp("", "notable-kv-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	s, err := OpenSQLite(dbFile.Name())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	exerciseProvider(t, s)
}

func TestRedisProvider(t *testing.T) {
	addr := os.Getenv("NOTABLE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("NOTABLE_TEST_REDIS_ADDR not set")
	}
	r, err := ConnectRedis(context.Background(), RedisOptions{Addr: addr, Prefix: "notable-test:" + t.Name() + ":"})
	if err != nil {
		t.Fatalf("ConnectRedis: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	exerciseProvider(t, r)
}
