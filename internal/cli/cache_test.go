package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/matzehuels/techtree/pkg/config"
)

func TestCacheDir(t *testing.T) {
	s := config.Default()
	s.Cache.Dir = "/srv/techtree-cache"
	dir, err := cacheDir(s)
	if err != nil || dir != "/srv/techtree-cache" {
		t.Errorf("cacheDir() = %q, %v; want configured dir", dir, err)
	}

	if runtime.GOOS != "linux" {
		t.Skip("XDG_CACHE_HOME only applies on linux")
	}
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)
	dir, err = cacheDir(config.Default())
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if want := filepath.Join(xdg, appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestCacheCommands(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(t.TempDir(), "techtree.toml")
	if err := os.WriteFile(cfg, []byte("[cache]\ndir = \""+filepath.ToSlash(dir)+"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	entry := filepath.Join(dir, "ab", "cdef.json")
	if err := os.MkdirAll(filepath.Dir(entry), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(entry, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(&bytes.Buffer{}, LogInfo)

	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"cache", "path", "-c", cfg})
	if err := root.Execute(); err != nil {
		t.Fatalf("cache path: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != dir {
		t.Errorf("cache path = %q, want %q", got, dir)
	}

	root = c.RootCommand()
	root.SetArgs([]string{"cache", "clear", "-c", cfg})
	if err := root.Execute(); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if _, err := os.Stat(entry); !os.IsNotExist(err) {
		t.Errorf("cache entry should be removed, stat err = %v", err)
	}
}
