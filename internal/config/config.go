package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultFileName is the vars file looked up next to the executable.
const DefaultFileName = "VOD2strm_vars.sh"

// PathEnv overrides the vars file location.
const PathEnv = "VOD2STRM_CONFIG"

// AccountPlaceholder is replaced with the sanitized account name in output
// directory templates.
const AccountPlaceholder = "{XC_NAME}"

// Config holds every setting for an export run.
type Config struct {
	// Primary service
	BaseURL  string
	Username string
	Password string
	PageSize int

	// Output
	MoviesDir    string
	SeriesDir    string
	AccountNames []string
	ExportMovies bool
	ExportSeries bool
	DeleteOld    bool
	CategoryDirs bool
	DryRun       bool
	LimitMovies  int
	LimitSeries  int
	ClearCache   bool
	CacheDir     string
	Fallback     bool
	UserAgent    string
	HTTPTimeout  time.Duration

	// Enrichment
	EnableNFO     bool
	OverwriteNFO  bool
	EnableArtwork bool
	TMDBAPIKey    string
	NFOLanguage   string
	TMDBThrottle  time.Duration
	OMDBAPIKey    string

	// Logging
	LogFile              string
	LogLevel             string
	LogFormat            string
	EnableJournal        bool
	JournalRetentionDays int
}

// DefaultConfig returns the settings used when the vars file omits a key.
func DefaultConfig() *Config {
	cacheDir := filepath.Join(os.TempDir(), "vod2strm", "cache")
	if home, err := os.UserHomeDir(); err == nil {
		cacheDir = filepath.Join(home, ".vod2strm", "cache")
	}
	return &Config{
		BaseURL:              "http://127.0.0.1:9191",
		PageSize:             250,
		MoviesDir:            "/mnt/Share-VOD/" + AccountPlaceholder + "/Movies",
		SeriesDir:            "/mnt/Share-VOD/" + AccountPlaceholder + "/Series",
		AccountNames:         []string{"*"},
		ExportMovies:         true,
		ExportSeries:         true,
		DeleteOld:            true,
		Fallback:             true,
		CacheDir:             cacheDir,
		UserAgent:            "VOD2strm/1.0",
		HTTPTimeout:          30 * time.Second,
		EnableArtwork:        true,
		NFOLanguage:          "en-US",
		TMDBThrottle:         300 * time.Millisecond,
		LogLevel:             "INFO",
		LogFormat:            "auto",
		EnableJournal:        true,
		JournalRetentionDays: 30,
	}
}

// ConfigPath returns the vars file to load: the explicit path when given,
// then $VOD2STRM_CONFIG, then VOD2strm_vars.sh beside the executable.
func ConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(PathEnv); env != "" {
		return env
	}
	exe, err := os.Executable()
	if err != nil {
		return DefaultFileName
	}
	return filepath.Join(filepath.Dir(exe), DefaultFileName)
}

// Load reads the vars file at path, fills missing keys from defaults and
// applies environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	vars := map[string]string{}
	if path != "" {
		read, err := godotenv.Read(path)
		switch {
		case err == nil:
			vars = read
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := DefaultConfig()
	cfg.apply(vars)
	cfg.applyEnv()
	return cfg, nil
}

// apply copies values present in vars over the defaults.
func (cfg *Config) apply(vars map[string]string) {
	str := func(key string, dst *string) {
		if v, ok := vars[key]; ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := vars[key]; ok && strings.TrimSpace(v) != "" {
			*dst = ParseBool(v)
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := vars[key]; ok && strings.TrimSpace(v) != "" {
			*dst = parseLimit(v)
		}
	}
	seconds := func(key string, dst *time.Duration) {
		if v, ok := vars[key]; ok {
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && f >= 0 {
				*dst = time.Duration(f * float64(time.Second))
			}
		}
	}

	str("DISPATCHARR_BASE_URL", &cfg.BaseURL)
	str("DISPATCHARR_API_USER", &cfg.Username)
	str("DISPATCHARR_API_PASS", &cfg.Password)
	integer("PAGE_SIZE", &cfg.PageSize)

	str("MOVIES_DIR", &cfg.MoviesDir)
	str("SERIES_DIR", &cfg.SeriesDir)
	if v, ok := vars["XC_NAMES"]; ok && strings.TrimSpace(v) != "" {
		cfg.AccountNames = SplitPatterns(v)
	}
	boolean("EXPORT_MOVIES", &cfg.ExportMovies)
	boolean("EXPORT_SERIES", &cfg.ExportSeries)
	boolean("DELETE_OLD", &cfg.DeleteOld)
	boolean("CATEGORY_DIRS", &cfg.CategoryDirs)
	boolean("DRY_RUN", &cfg.DryRun)
	integer("LIMIT_MOVIES", &cfg.LimitMovies)
	integer("LIMIT_SERIES", &cfg.LimitSeries)
	boolean("CLEAR_CACHE", &cfg.ClearCache)
	str("CACHE_DIR", &cfg.CacheDir)
	boolean("ENABLE_XC_EPISODE_FALLBACK", &cfg.Fallback)
	str("HTTP_USER_AGENT", &cfg.UserAgent)
	seconds("HTTP_TIMEOUT_SEC", &cfg.HTTPTimeout)

	boolean("ENABLE_NFO", &cfg.EnableNFO)
	boolean("OVERWRITE_NFO", &cfg.OverwriteNFO)
	boolean("ENABLE_ARTWORK", &cfg.EnableArtwork)
	str("TMDB_API_KEY", &cfg.TMDBAPIKey)
	str("NFO_LANG", &cfg.NFOLanguage)
	seconds("TMDB_THROTTLE_SEC", &cfg.TMDBThrottle)
	str("OMDB_API_KEY", &cfg.OMDBAPIKey)

	str("LOG_FILE", &cfg.LogFile)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LOG_FORMAT", &cfg.LogFormat)
	boolean("JOURNAL", &cfg.EnableJournal)
	integer("JOURNAL_RETENTION_DAYS", &cfg.JournalRetentionDays)
}

// envOverrides are the run-modifying keys the environment may override.
var envOverrides = []string{
	"DRY_RUN",
	"CLEAR_CACHE",
	"LOG_LEVEL",
	"LIMIT_MOVIES",
	"LIMIT_SERIES",
	"ENABLE_XC_EPISODE_FALLBACK",
}

func (cfg *Config) applyEnv() {
	vars := make(map[string]string, len(envOverrides))
	for _, key := range envOverrides {
		if v, ok := os.LookupEnv(key); ok {
			vars[key] = v
		}
	}
	// An explicitly empty limit in the environment clears a file limit.
	for _, key := range []string{"LIMIT_MOVIES", "LIMIT_SERIES"} {
		if v, ok := vars[key]; ok && strings.TrimSpace(v) == "" {
			vars[key] = "0"
		}
	}
	cfg.apply(vars)
}

// Validate checks the settings an export run cannot do without.
func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return errors.New("DISPATCHARR_BASE_URL is required")
	}
	if cfg.Username == "" || cfg.Password == "" {
		return errors.New("DISPATCHARR_API_USER and DISPATCHARR_API_PASS are required")
	}
	if cfg.PageSize <= 0 {
		return fmt.Errorf("PAGE_SIZE must be positive, got %d", cfg.PageSize)
	}
	if !cfg.ExportMovies && !cfg.ExportSeries {
		return errors.New("nothing to do: EXPORT_MOVIES and EXPORT_SERIES are both disabled")
	}
	return nil
}

// MoviesRoot returns the movie output directory for an account.
func (cfg *Config) MoviesRoot(safeAccount string) string {
	return strings.ReplaceAll(cfg.MoviesDir, AccountPlaceholder, safeAccount)
}

// SeriesRoot returns the series output directory for an account.
func (cfg *Config) SeriesRoot(safeAccount string) string {
	return strings.ReplaceAll(cfg.SeriesDir, AccountPlaceholder, safeAccount)
}

// JournalDir is where operation journals are written.
func (cfg *Config) JournalDir() string {
	return filepath.Join(cfg.CacheDir, "journal")
}

// LockPath is the file locked for the duration of an export run.
func (cfg *Config) LockPath() string {
	return filepath.Join(cfg.CacheDir, "vod2strm.lock")
}

// Save writes cfg as a vars file that Load reads back unchanged.
func (cfg *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := godotenv.Write(cfg.vars(), path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// secretKeys are masked by Redacted.
var secretKeys = []string{"DISPATCHARR_API_PASS", "TMDB_API_KEY", "OMDB_API_KEY"}

// Redacted returns the vars file keys with secrets masked, for display.
func (cfg *Config) Redacted() map[string]string {
	vars := cfg.vars()
	for _, k := range secretKeys {
		if vars[k] != "" {
			vars[k] = "********"
		}
	}
	return vars
}

func (cfg *Config) vars() map[string]string {
	b := strconv.FormatBool
	sec := func(d time.Duration) string {
		return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
	}
	return map[string]string{
		"DISPATCHARR_BASE_URL":       cfg.BaseURL,
		"DISPATCHARR_API_USER":       cfg.Username,
		"DISPATCHARR_API_PASS":       cfg.Password,
		"PAGE_SIZE":                  strconv.Itoa(cfg.PageSize),
		"MOVIES_DIR":                 cfg.MoviesDir,
		"SERIES_DIR":                 cfg.SeriesDir,
		"XC_NAMES":                   strings.Join(cfg.AccountNames, ","),
		"EXPORT_MOVIES":              b(cfg.ExportMovies),
		"EXPORT_SERIES":              b(cfg.ExportSeries),
		"DELETE_OLD":                 b(cfg.DeleteOld),
		"CATEGORY_DIRS":              b(cfg.CategoryDirs),
		"DRY_RUN":                    b(cfg.DryRun),
		"LIMIT_MOVIES":               strconv.Itoa(cfg.LimitMovies),
		"LIMIT_SERIES":               strconv.Itoa(cfg.LimitSeries),
		"CLEAR_CACHE":                b(cfg.ClearCache),
		"CACHE_DIR":                  cfg.CacheDir,
		"ENABLE_XC_EPISODE_FALLBACK": b(cfg.Fallback),
		"HTTP_USER_AGENT":            cfg.UserAgent,
		"HTTP_TIMEOUT_SEC":           sec(cfg.HTTPTimeout),
		"ENABLE_NFO":                 b(cfg.EnableNFO),
		"OVERWRITE_NFO":              b(cfg.OverwriteNFO),
		"ENABLE_ARTWORK":             b(cfg.EnableArtwork),
		"TMDB_API_KEY":               cfg.TMDBAPIKey,
		"NFO_LANG":                   cfg.NFOLanguage,
		"TMDB_THROTTLE_SEC":          sec(cfg.TMDBThrottle),
		"OMDB_API_KEY":               cfg.OMDBAPIKey,
		"LOG_FILE":                   cfg.LogFile,
		"LOG_LEVEL":                  cfg.LogLevel,
		"LOG_FORMAT":                 cfg.LogFormat,
		"JOURNAL":                    b(cfg.EnableJournal),
		"JOURNAL_RETENTION_DAYS":     strconv.Itoa(cfg.JournalRetentionDays),
	}
}

// ParseBool accepts 1/true/yes/on in any case. Everything else is false.
func ParseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// SplitPatterns splits a comma separated pattern list, dropping blanks.
func SplitPatterns(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// parseLimit reads a non-negative integer; invalid or negative values are 0.
func parseLimit(v string) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
