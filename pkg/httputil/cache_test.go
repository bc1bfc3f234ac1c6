package httputil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCache_GetSet(t *testing.T) {
	c, _ := NewCache(t.TempDir(), time.Hour)

	if err := c.Set("defs:https://example.org/tree.toml", []byte("[[research]]")); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	var body []byte
	ok, err := c.Get("defs:https://example.org/tree.toml", &body)
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v; want true, nil", ok, err)
	}
	if string(body) != "[[research]]" {
		t.Errorf("Get() body = %q", body)
	}

	var missing string
	ok, err = c.Get("missing", &missing)
	if err != nil || ok {
		t.Errorf("Get(missing) = %v, %v; want false, nil", ok, err)
	}
}

func TestCache_Expiration(t *testing.T) {
	c, _ := NewCache(t.TempDir(), 10*time.Millisecond)
	if err := c.Set("key", "value"); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	var res string
	if ok, err := c.Get("key", &res); err != nil || !ok {
		t.Fatalf("Get() = %v, %v; want true, nil", ok, err)
	}

	time.Sleep(20 * time.Millisecond)

	ok, err := c.Get("key", &res)
	if !errors.Is(err, ErrExpired) {
		t.Errorf("got error %v, want ErrExpired", err)
	}
	if ok {
		t.Error("Get() returned true for expired key")
	}
}

func TestCache_KeyStability(t *testing.T) {
	c, _ := NewCache(t.TempDir(), time.Hour)
	if c.keyPath("test") != c.keyPath("test") {
		t.Error("path should be deterministic")
	}
	if c.keyPath("test") == c.keyPath("other") {
		t.Error("different keys should produce different paths")
	}
}

func TestNewCache_DefaultDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}
	c, err := NewCache("", time.Hour)
	if err != nil {
		t.Fatalf("NewCache() failed: %v", err)
	}
	want := filepath.Join(home, ".cache", "techtree", "http")
	if c.Dir() != want {
		t.Errorf("got Dir = %s, want %s", c.Dir(), want)
	}
	if c.TTL() != time.Hour {
		t.Errorf("got TTL = %v, want 1h", c.TTL())
	}
}

func TestCache_Namespace(t *testing.T) {
	c, _ := NewCache(t.TempDir(), time.Hour)

	t.Run("isolation", func(t *testing.T) {
		defs := c.Namespace("defs:")
		layouts := c.Namespace("layouts:")
		if err := defs.Set("tree", "defs-data"); err != nil {
			t.Fatal(err)
		}
		if err := layouts.Set("tree", "layout-data"); err != nil {
			t.Fatal(err)
		}

		var a, b string
		if ok, err := defs.Get("tree", &a); !ok || err != nil {
			t.Fatalf("defs.Get() = %v, %v", ok, err)
		}
		if ok, err := layouts.Get("tree", &b); !ok || err != nil {
			t.Fatalf("layouts.Get() = %v, %v", ok, err)
		}
		if a != "defs-data" || b != "layout-data" {
			t.Errorf("got %q and %q", a, b)
		}
	})

	t.Run("chained", func(t *testing.T) {
		outer := c.Namespace("remote:")
		inner := outer.Namespace("defs:")
		if err := inner.Set("x", "value"); err != nil {
			t.Fatal(err)
		}
		var got string
		if ok, _ := outer.Get("x", &got); ok {
			t.Error("value accessible without full namespace chain")
		}
		if ok, err := c.Get("remote:defs:x", &got); !ok || err != nil || got != "value" {
			t.Errorf("Get() = %v, %v, %q", ok, err, got)
		}
	})

	t.Run("preservesDirAndTTL", func(t *testing.T) {
		ns := c.Namespace("test:")
		if ns.Dir() != c.Dir() || ns.TTL() != c.TTL() {
			t.Errorf("namespace changed dir or ttl")
		}
	})
}
