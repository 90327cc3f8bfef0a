package contract

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/repoaudit/schema"
)

// Default values for configuration.
const (
	DefaultUser           = "local"
	DefaultModel          = "gpt-4o-mini"
	DefaultRequestTimeout = 2 * time.Minute
	DefaultScanTimeout    = 30 * time.Minute
	MaxWorkers            = 64
)

// DefaultWorkers is the default number of concurrent assessment workers.
var DefaultWorkers = min(runtime.GOMAXPROCS(0), 8)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// AssessorConfig is the immutable configuration of the external assessment service.
// It is built once at startup and passed to the assessor constructor.
type AssessorConfig struct {
	Provider       schema.Provider
	Endpoint       string
	APIKey         string
	Model          string // Deployment name for azure, model name for openai
	RequestTimeout time.Duration
}

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the validated runtime configuration.
type Config struct {
	// Scan parameters
	RepoURL        string
	Branch         string
	WorkDir        string
	Workers        int
	Excludes       []string
	ScanTimeout    time.Duration
	RemoveAttempts int
	RemoveDelay    time.Duration
	UserID         string
	Assessor       AssessorConfig

	// Lookup parameters
	ReportID string

	// Output parameters
	Output     schema.OutputMode
	OutputFile string
	Detail     bool
	Width      int
	UseColors  bool

	// Persistence parameters
	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string
	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string
}

// ConfigRawInput holds the raw, unvalidated values from file, env and flags.
type ConfigRawInput struct {
	// These are set manually from positional args, so no tag
	RepoURL  string
	ReportID string

	// --- Fields from rootCmd.PersistentFlags() ---
	Workers        int    `mapstructure:"workers"`
	Output         string `mapstructure:"output"`
	OutputFile     string `mapstructure:"output-file"`
	Detail         bool   `mapstructure:"detail"`
	Width          int    `mapstructure:"width"`
	Color          string `mapstructure:"color"`
	User           string `mapstructure:"user"`
	StoreBackend   string `mapstructure:"store-backend"`
	StoreDBConnect string `mapstructure:"store-db-connect"`
	CacheBackend   string `mapstructure:"cache-backend"`
	CacheDBConnect string `mapstructure:"cache-db-connect"`

	// --- Fields from scanCmd.Flags() ---
	Branch         string `mapstructure:"branch"`
	WorkDir        string `mapstructure:"work-dir"`
	Exclude        string `mapstructure:"exclude"`
	ScanTimeout    string `mapstructure:"scan-timeout"`
	RemoveAttempts int    `mapstructure:"remove-attempts"`
	RemoveDelay    string `mapstructure:"remove-delay"`

	// --- Assessment service ---
	Provider       string `mapstructure:"provider"`
	Endpoint       string `mapstructure:"endpoint"`
	APIKey         string `mapstructure:"api-key"`
	Model          string `mapstructure:"model"`
	RequestTimeout string `mapstructure:"request-timeout"`
}

// Clone returns a deep copy of the config.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Excludes = slices.Clone(c.Excludes)
	return &clone
}

// RemovePolicy returns the retry policy for working copy removal.
func (c *Config) RemovePolicy() RetryPolicy {
	return RetryPolicy{Attempts: c.RemoveAttempts, Delay: c.RemoveDelay}
}

// Reference returns the repository reference for the configured scan.
func (c *Config) Reference() schema.RepositoryReference {
	return schema.RepositoryReference{URL: c.RepoURL, Branch: c.Branch}
}

// ProcessAndValidate processes the raw input and validates it into cfg.
// Assessment service credentials are checked separately by ValidateAssessorConfig,
// since only scanning commands need them.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateScanInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	return processAssessorConfig(cfg, input)
}

// ProcessProfilingConfig enables profiling when a profile prefix is given.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	profilePrefix = strings.TrimSpace(profilePrefix)
	if profilePrefix == "" {
		*profile = ProfileConfig{}
		return nil
	}
	if dir := filepath.Dir(profilePrefix); dir != "." {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return fmt.Errorf("profile directory %s does not exist", dir)
		}
	}
	profile.Enabled = true
	profile.Prefix = profilePrefix
	return nil
}

// ValidateAssessorConfig checks that the assessment service can be reached with a.
func ValidateAssessorConfig(a AssessorConfig) error {
	if _, ok := schema.ValidProviders[a.Provider]; !ok {
		return fmt.Errorf("invalid provider '%s'. must be azure, openai", a.Provider)
	}
	if a.APIKey == "" {
		return fmt.Errorf("api-key is required for the %s provider", a.Provider)
	}
	if a.Provider == schema.AzureProvider && a.Endpoint == "" {
		return fmt.Errorf("endpoint is required for the %s provider", a.Provider)
	}
	if a.Model == "" {
		return fmt.Errorf("model is required for the %s provider", a.Provider)
	}
	if a.RequestTimeout <= 0 {
		return fmt.Errorf("request-timeout must be positive (received %s)", a.RequestTimeout)
	}
	return nil
}

// ValidateRepositoryURL rejects values that cannot name a clonable repository.
func ValidateRepositoryURL(url string) error {
	trimmed := strings.TrimSpace(url)
	if trimmed == "" {
		return fmt.Errorf("%w: empty", ErrInvalidRepository)
	}
	if strings.HasPrefix(trimmed, "-") {
		return fmt.Errorf("%w: %q looks like a flag", ErrInvalidRepository, trimmed)
	}
	if RepositoryName(trimmed) == "" {
		return fmt.Errorf("%w: %q has no repository name", ErrInvalidRepository, trimmed)
	}
	return nil
}

// RepositoryName derives the checkout directory name from a repository URL:
// the last path element without a trailing ".git".
func RepositoryName(url string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(url), "/")
	if i := strings.LastIndexAny(trimmed, "/:"); i >= 0 {
		trimmed = trimmed[i+1:]
	}
	name := strings.TrimSuffix(trimmed, ".git")
	if name == "." || name == ".." {
		return ""
	}
	return name
}

// ValidateDatabaseConnectionString checks the connection string shape for backend.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	default:
		return fmt.Errorf("invalid backend '%s'. must be %s", backend, strings.Join(backendNames(), ", "))
	}
	return nil
}

// ParseBackend lowercases s and checks it against the known backends.
func ParseBackend(s string) (schema.DatabaseBackend, error) {
	backend := schema.DatabaseBackend(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", fmt.Errorf("invalid backend '%s'. must be %s", s, strings.Join(backendNames(), ", "))
	}
	return backend, nil
}

func backendNames() []string {
	var names []string
	for b := range maps.Keys(schema.ValidDatabaseBackends) {
		names = append(names, string(b))
	}
	slices.Sort(names)
	return names
}

func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.OutputFile = input.OutputFile
	cfg.Detail = input.Detail
	cfg.Width = input.Width
	cfg.ReportID = strings.TrimSpace(input.ReportID)

	// Parse color flag
	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Workers Validation ---
	if input.Workers <= 0 || input.Workers > MaxWorkers {
		return fmt.Errorf("workers must be greater than 0 and cannot exceed %d (received %d)", MaxWorkers, input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 2. Output Validation ---
	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json", input.Output)
	}
	if input.Width < 0 {
		return fmt.Errorf("width cannot be negative (received %d)", input.Width)
	}

	// --- 3. Identity ---
	cfg.UserID = strings.TrimSpace(input.User)
	if cfg.UserID == "" {
		cfg.UserID = DefaultUser
	}

	return nil
}

func validateScanInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.RepoURL = strings.TrimSpace(input.RepoURL)
	if cfg.RepoURL != "" {
		if err := ValidateRepositoryURL(cfg.RepoURL); err != nil {
			return err
		}
	}

	cfg.Branch = strings.TrimSpace(input.Branch)
	if cfg.Branch == "" {
		cfg.Branch = schema.DefaultBranch
	}
	if strings.HasPrefix(cfg.Branch, "-") {
		return fmt.Errorf("invalid branch %q", cfg.Branch)
	}

	cfg.WorkDir = input.WorkDir
	if cfg.WorkDir == "" {
		cfg.WorkDir = GetDefaultWorkDir()
	}
	abs, err := filepath.Abs(cfg.WorkDir)
	if err != nil {
		return fmt.Errorf("invalid work-dir %q: %w", cfg.WorkDir, err)
	}
	cfg.WorkDir = abs

	cfg.Excludes = ParseExcludes(input.Exclude)

	cfg.ScanTimeout, err = parseDurationOr(input.ScanTimeout, DefaultScanTimeout)
	if err != nil {
		return fmt.Errorf("invalid scan-timeout: %w", err)
	}

	cfg.RemoveAttempts = input.RemoveAttempts
	if cfg.RemoveAttempts == 0 {
		cfg.RemoveAttempts = DefaultRemoveAttempts
	}
	if cfg.RemoveAttempts < 0 {
		return fmt.Errorf("remove-attempts must be positive (received %d)", input.RemoveAttempts)
	}
	cfg.RemoveDelay, err = parseDurationOr(input.RemoveDelay, DefaultRemoveDelay)
	if err != nil {
		return fmt.Errorf("invalid remove-delay: %w", err)
	}
	return nil
}

func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Report Store Backend Validation ---
	backend, err := ParseBackend(input.StoreBackend)
	if err != nil {
		return fmt.Errorf("store-backend: %w", err)
	}
	cfg.StoreBackend = backend
	cfg.StoreDBConnect = input.StoreDBConnect
	if err := ValidateDatabaseConnectionString(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
		return err
	}

	// --- Assessment Cache Backend Validation ---
	backend, err = ParseBackend(input.CacheBackend)
	if err != nil {
		return fmt.Errorf("cache-backend: %w", err)
	}
	cfg.CacheBackend = backend
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	// Validate that reports and cache use different SQLite files
	if cfg.StoreBackend == schema.SQLiteBackend && cfg.CacheBackend == schema.SQLiteBackend {
		storePath := cfg.StoreDBConnect
		if storePath == "" {
			storePath = GetReportDBFilePath()
		}
		cachePath := cfg.CacheDBConnect
		if cachePath == "" {
			cachePath = GetCacheDBFilePath()
		}
		if storePath == cachePath {
			return fmt.Errorf("report store and assessment cache must use different SQLite database files. Both resolve to %q", storePath)
		}
	}
	return nil
}

func processAssessorConfig(cfg *Config, input *ConfigRawInput) error {
	provider := schema.Provider(strings.ToLower(strings.TrimSpace(input.Provider)))
	if provider == "" {
		provider = schema.AzureProvider
	}
	if _, ok := schema.ValidProviders[provider]; !ok {
		return fmt.Errorf("invalid provider '%s'. must be azure, openai", input.Provider)
	}

	timeout, err := parseDurationOr(input.RequestTimeout, DefaultRequestTimeout)
	if err != nil {
		return fmt.Errorf("invalid request-timeout: %w", err)
	}

	model := strings.TrimSpace(input.Model)
	if model == "" {
		model = DefaultModel
	}

	cfg.Assessor = AssessorConfig{
		Provider:       provider,
		Endpoint:       strings.TrimSpace(input.Endpoint),
		APIKey:         strings.TrimSpace(input.APIKey),
		Model:          model,
		RequestTimeout: timeout,
	}
	return nil
}

// parseDurationOr parses s as a Go duration, returning fallback for an empty string.
func parseDurationOr(s string, fallback time.Duration) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration %s is negative", s)
	}
	return d, nil
}

// GetDefaultWorkDir returns the directory under which working copies are created.
func GetDefaultWorkDir() string {
	return filepath.Join(os.TempDir(), "repoaudit")
}
