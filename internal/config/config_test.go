package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeVars(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write vars file: %v", err)
	}
	return path
}

func clearOverrides(t *testing.T) {
	t.Helper()
	for _, key := range envOverrides {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.BaseURL != "http://127.0.0.1:9191" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.PageSize != 250 {
		t.Errorf("PageSize = %d, want 250", cfg.PageSize)
	}
	if diff := cmp.Diff([]string{"*"}, cfg.AccountNames); diff != "" {
		t.Errorf("AccountNames mismatch (-want +got):\n%s", diff)
	}
	if !cfg.DeleteOld || !cfg.ExportMovies || !cfg.ExportSeries {
		t.Error("DeleteOld, ExportMovies and ExportSeries should default to true")
	}
	if !cfg.Fallback {
		t.Error("Fallback should default to true")
	}
	if cfg.DryRun || cfg.EnableNFO {
		t.Error("DryRun and EnableNFO should default to false")
	}
	if cfg.TMDBThrottle != 300*time.Millisecond {
		t.Errorf("TMDBThrottle = %v, want 300ms", cfg.TMDBThrottle)
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	clearOverrides(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.sh"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_ValidFile(t *testing.T) {
	clearOverrides(t)
	path := writeVars(t, `# Dispatcharr connection
export DISPATCHARR_BASE_URL="http://dispatcharr:9191"
DISPATCHARR_API_USER=admin
DISPATCHARR_API_PASS='s3cret'
MOVIES_DIR=/data/{XC_NAME}/Movies
SERIES_DIR=/data/{XC_NAME}/Series
XC_NAMES="Provider A, Backup*"
DELETE_OLD=false
ENABLE_NFO=yes
TMDB_THROTTLE_SEC=0.5
LIMIT_SERIES=25
ENABLE_XC_EPISODE_FALLBACK=on
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := DefaultConfig()
	want.BaseURL = "http://dispatcharr:9191"
	want.Username = "admin"
	want.Password = "s3cret"
	want.MoviesDir = "/data/{XC_NAME}/Movies"
	want.SeriesDir = "/data/{XC_NAME}/Series"
	want.AccountNames = []string{"Provider A", "Backup*"}
	want.DeleteOld = false
	want.EnableNFO = true
	want.TMDBThrottle = 500 * time.Millisecond
	want.LimitSeries = 25
	want.Fallback = true

	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearOverrides(t)
	path := writeVars(t, "DRY_RUN=false\nLIMIT_MOVIES=10\nLOG_LEVEL=INFO\nDELETE_OLD=true\n")

	t.Setenv("DRY_RUN", "1")
	t.Setenv("LIMIT_MOVIES", "")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("ENABLE_XC_EPISODE_FALLBACK", "TRUE")
	t.Setenv("DELETE_OLD", "false") // not an override key

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.DryRun {
		t.Error("DryRun should be overridden to true")
	}
	if cfg.LimitMovies != 0 {
		t.Errorf("LimitMovies = %d, want 0", cfg.LimitMovies)
	}
	if cfg.LogLevel != "DEBUG" {
		t.Errorf("LogLevel = %q, want DEBUG", cfg.LogLevel)
	}
	if !cfg.Fallback {
		t.Error("Fallback should be overridden to true")
	}
	if !cfg.DeleteOld {
		t.Error("DELETE_OLD must only come from the vars file")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	clearOverrides(t)
	cfg := DefaultConfig()
	cfg.Username = "admin"
	cfg.Password = "pw"
	cfg.AccountNames = []string{"A*", "B"}
	cfg.LimitMovies = 5
	cfg.TMDBThrottle = 1500 * time.Millisecond

	path := filepath.Join(t.TempDir(), "nested", DefaultFileName)
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	tests := map[string]struct {
		mutate  func(*Config)
		wantErr bool
	}{
		"valid":           {mutate: func(c *Config) {}, wantErr: false},
		"missing url":     {mutate: func(c *Config) { c.BaseURL = " " }, wantErr: true},
		"missing user":    {mutate: func(c *Config) { c.Username = "" }, wantErr: true},
		"bad page size":   {mutate: func(c *Config) { c.PageSize = 0 }, wantErr: true},
		"nothing enabled": {mutate: func(c *Config) { c.ExportMovies, c.ExportSeries = false, false }, wantErr: true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			cfg.Username, cfg.Password = "u", "p"
			tc.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestParseBool(t *testing.T) {
	t.Parallel()
	for _, v := range []string{"1", "true", "YES", " on "} {
		if !ParseBool(v) {
			t.Errorf("ParseBool(%q) = false, want true", v)
		}
	}
	for _, v := range []string{"", "0", "false", "off", "nope"} {
		if ParseBool(v) {
			t.Errorf("ParseBool(%q) = true, want false", v)
		}
	}
}

func TestAccountRoots(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.MoviesDir = "/vod/{XC_NAME}/Movies"
	cfg.SeriesDir = "/vod/{XC_NAME}/Series"
	if got := cfg.MoviesRoot("Provider_A"); got != "/vod/Provider_A/Movies" {
		t.Errorf("MoviesRoot() = %q", got)
	}
	if got := cfg.SeriesRoot("Provider_A"); got != "/vod/Provider_A/Series" {
		t.Errorf("SeriesRoot() = %q", got)
	}
}

func TestConfigPath(t *testing.T) {
	if got := ConfigPath("/etc/vod2strm.sh"); got != "/etc/vod2strm.sh" {
		t.Errorf("ConfigPath(explicit) = %q", got)
	}
	t.Setenv(PathEnv, "/tmp/from-env.sh")
	if got := ConfigPath(""); got != "/tmp/from-env.sh" {
		t.Errorf("ConfigPath(env) = %q", got)
	}
}

func TestRedacted(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.Username = "admin"
	cfg.Password = "secret"
	cfg.TMDBAPIKey = "tmdb-key"

	got := cfg.Redacted()
	want := map[string]string{
		"DISPATCHARR_API_USER": "admin",
		"DISPATCHARR_API_PASS": "********",
		"TMDB_API_KEY":         "********",
		"OMDB_API_KEY":         "",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("Redacted()[%q] = %q, want %q", k, got[k], v)
		}
	}
}

func TestLoad_FallbackDefaultAndDisable(t *testing.T) {
	tests := map[string]struct {
		file string
		env  string
		want bool
	}{
		"missing key keeps default": {file: "DRY_RUN=false\n", want: true},
		"empty value keeps default": {file: "ENABLE_XC_EPISODE_FALLBACK=\n", want: true},
		"file disables":             {file: "ENABLE_XC_EPISODE_FALLBACK=false\n", want: false},
		"env disables":              {file: "ENABLE_XC_EPISODE_FALLBACK=true\n", env: "off", want: false},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			clearOverrides(t)
			if tc.env != "" {
				t.Setenv("ENABLE_XC_EPISODE_FALLBACK", tc.env)
			}
			cfg, err := Load(writeVars(t, tc.file))
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.Fallback != tc.want {
				t.Errorf("Fallback = %v, want %v", cfg.Fallback, tc.want)
			}
		})
	}
}
