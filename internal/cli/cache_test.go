package cli

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/ctabridge/pkg/cache"
	"github.com/matzehuels/ctabridge/pkg/config"
)

func fileCacheSection(dir string) string {
	return "[cache]\nbackend = \"file\"\npath = \"" + filepath.ToSlash(dir) + "\"\n"
}

func TestCachePath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "responses")
	cfg := writeConfig(t, nil, fileCacheSection(dir))

	out, _, err := execute(t, "--config", cfg, "cache", "path")
	if err != nil {
		t.Fatalf("cache path error: %v", err)
	}
	for _, want := range []string{"file", filepath.ToSlash(dir), "1m0s"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCacheClearAndPurge(t *testing.T) {
	up := newUpstream(t, xmlBody(predictionsXML))
	dir := t.TempDir()
	cfg := writeConfig(t, up, fileCacheSection(dir))

	out, _, err := execute(t, "--config", cfg, "cache", "clear")
	if err != nil {
		t.Fatalf("cache clear error: %v", err)
	}
	if !strings.Contains(out, "Cache is empty") {
		t.Errorf("clear on empty cache = %q", out)
	}

	for _, stpid := range []string{"stpid=1", "stpid=2"} {
		if _, _, err := execute(t, "--config", cfg, "bus", "predictions", "-q", "-p", stpid); err != nil {
			t.Fatalf("call error: %v", err)
		}
	}

	out, _, err = execute(t, "--config", cfg, "cache", "purge")
	if err != nil {
		t.Fatalf("cache purge error: %v", err)
	}
	if !strings.Contains(out, "Removed 0 expired entries") {
		t.Errorf("purge output = %q", out)
	}

	out, _, err = execute(t, "--config", cfg, "cache", "clear")
	if err != nil {
		t.Fatalf("cache clear error: %v", err)
	}
	if !strings.Contains(out, "Cleared 2 cached entries") {
		t.Errorf("clear output = %q", out)
	}
}

func TestCacheLocation(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Cache
		want string
	}{
		{"sqlite", config.Cache{Backend: cache.BackendSQLite, Path: "/tmp/c.db"}, "/tmp/c.db"},
		{"postgres url", config.Cache{Backend: cache.BackendPostgres, DSN: "postgres://app:secret@db:5432/cta"}, "postgres://app:xxxxx@db:5432/cta"},
		{"postgres keyword dsn", config.Cache{Backend: cache.BackendPostgres, DSN: "host=db password=secret"}, "(configured)"},
		{"redis", config.Cache{Backend: cache.BackendRedis, RedisAddr: "localhost:6379", RedisDB: 3}, "localhost:6379/3"},
		{"mongo", config.Cache{Backend: cache.BackendMongo, MongoURI: "mongodb://u:p@m:27017", MongoDatabase: "cta"}, "mongodb://u:xxxxx@m:27017 (cta)"},
		{"memory", config.Cache{Backend: cache.BackendMemory}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cacheLocation(tt.cfg); got != tt.want {
				t.Errorf("cacheLocation() = %q, want %q", got, tt.want)
			}
		})
	}
}
