package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ProjectType represents the type of project detected.
type ProjectType string

const (
	ProjectTypeGo      ProjectType = "go"
	ProjectTypeNode    ProjectType = "node"
	ProjectTypePython  ProjectType = "python"
	ProjectTypeUnknown ProjectType = "unknown"
)

// Config represents the complete engine configuration, covering paths,
// retrieval tuning, the embedding provider, storage, and analytics.
type Config struct {
	Version    int              `yaml:"version" json:"version"`
	Paths      PathsConfig      `yaml:"paths" json:"paths"`
	Search     SearchConfig     `yaml:"search" json:"search"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" json:"embeddings"`
	Store      StoreConfig      `yaml:"store" json:"store"`
	Graph      GraphConfig      `yaml:"graph" json:"graph"`
	Snapshot   SnapshotConfig   `yaml:"snapshot" json:"snapshot"`
	LogLevel   string           `yaml:"log_level" json:"log_level"`
}

// PathsConfig configures which paths to include and exclude from indexing.
type PathsConfig struct {
	Include    []string        `yaml:"include" json:"include"`
	Exclude    []string        `yaml:"exclude" json:"exclude"`
	Submodules SubmoduleConfig `yaml:"submodules" json:"submodules"`
}

// SubmoduleConfig configures whether the indexer's walk descends into
// git submodules (opt-in: a submodule may be an independently-versioned
// repository the caller doesn't want folded into this one's index).
type SubmoduleConfig struct {
	Enabled   bool     `yaml:"enabled" json:"enabled"`
	Recursive bool     `yaml:"recursive" json:"recursive"`
	Include   []string `yaml:"include" json:"include"`
	Exclude   []string `yaml:"exclude" json:"exclude"`
}

// SearchConfig configures hybrid retrieval and ranking parameters.
type SearchConfig struct {
	// VectorWeight, FTSWeight, ExactWeight are the RRF leg weights; they
	// need not sum to 1 since RRF operates on rank, not raw score.
	VectorWeight float64 `yaml:"vector_weight" json:"vector_weight"`
	FTSWeight    float64 `yaml:"fts_weight" json:"fts_weight"`
	ExactWeight  float64 `yaml:"exact_weight" json:"exact_weight"`

	// RRFConstant is the RRF fusion smoothing parameter (k). Default 60,
	// the industry-standard value used by Azure AI Search and OpenSearch.
	RRFConstant int `yaml:"rrf_constant" json:"rrf_constant"`

	ChunkSize    int `yaml:"chunk_size" json:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap" json:"chunk_overlap"`
	MaxResults   int `yaml:"max_results" json:"max_results"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	Provider   string `yaml:"provider" json:"provider"`
	Model      string `yaml:"model" json:"model"`
	Dimensions int    `yaml:"dimensions" json:"dimensions"`
	BatchSize  int    `yaml:"batch_size" json:"batch_size"`
	CacheSize  int    `yaml:"cache_size" json:"cache_size"`
}

// StoreConfig configures the on-disk store location and tuning.
type StoreConfig struct {
	Dir           string `yaml:"dir" json:"dir"`
	SQLiteCacheMB int    `yaml:"sqlite_cache_mb" json:"sqlite_cache_mb"`
	LockStaleness string `yaml:"lock_staleness" json:"lock_staleness"`
}

// GraphConfig configures PageRank and call-graph analytics.
type GraphConfig struct {
	Damping    float64 `yaml:"damping" json:"damping"`
	MaxIters   int     `yaml:"max_iters" json:"max_iters"`
	Epsilon    float64 `yaml:"epsilon" json:"epsilon"`
	CacheTTL   string  `yaml:"cache_ttl" json:"cache_ttl"`
	MaxWorkers int     `yaml:"max_workers" json:"max_workers"`
}

// SnapshotConfig configures snapshot/trend and risk analysis.
type SnapshotConfig struct {
	RetentionDays int `yaml:"retention_days" json:"retention_days"`
	CoChangeDays  int `yaml:"co_change_days" json:"co_change_days"`
}

// defaultExcludePatterns are always excluded.
var defaultExcludePatterns = []string{
	"**/node_modules/**",
	"**/.git/**",
	"**/vendor/**",
	"**/__pycache__/**",
	"**/dist/**",
	"**/build/**",
	"**/*.min.js",
	"**/*.min.css",
	"**/package-lock.json",
	"**/yarn.lock",
	"**/pnpm-lock.yaml",
	"**/go.sum",
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			Include:    []string{},
			Exclude:    defaultExcludePatterns,
			Submodules: SubmoduleConfig{Enabled: false, Recursive: true},
		},
		Search: SearchConfig{
			VectorWeight: 1.0,
			FTSWeight:    1.0,
			ExactWeight:  1.5,
			RRFConstant:  60,
			ChunkSize:    1500,
			ChunkOverlap: 200,
			MaxResults:   20,
		},
		Embeddings: EmbeddingsConfig{
			Provider:   "static",
			Model:      "static",
			Dimensions: 256,
			BatchSize:  32,
			CacheSize:  1000,
		},
		Store: StoreConfig{
			Dir:           defaultStoreDir(),
			SQLiteCacheMB: 64,
			LockStaleness: "30s",
		},
		Graph: GraphConfig{
			Damping:    0.85,
			MaxIters:   20,
			Epsilon:    1e-4,
			CacheTTL:   "5m",
			MaxWorkers: runtime.NumCPU(),
		},
		Snapshot: SnapshotConfig{
			RetentionDays: 90,
			CoChangeDays:  180,
		},
		LogLevel: "info",
	}
}

// defaultStoreDir returns the default on-disk store directory, rooted in
// the project the caller is indexing.
func defaultStoreDir() string {
	return ".yep-mem"
}

// GetUserConfigPath returns the path to the user/global configuration
// file, following the XDG Base Directory specification.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "yepmem", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "yepmem", "config.yaml")
	}
	return filepath.Join(home, ".config", "yepmem", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// loadUserConfig loads the user/global configuration file if it exists.
// Returns nil config and nil error if the file doesn't exist.
func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()
	if !fileExists(configPath) {
		return nil, nil
	}

	cfg := NewConfig()
	if err := cfg.loadYAML(configPath); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", configPath, err)
	}
	return cfg, nil
}

// Load loads configuration from the specified directory, applying
// precedence: hardcoded defaults -> user config -> project config -> env.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile attempts to load configuration from .yepmem.yaml or .yepmem.yml.
func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ".yepmem.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".yepmem.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return c.loadYAML(ymlPath)
	}

	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if len(other.Paths.Include) > 0 {
		c.Paths.Include = other.Paths.Include
	}
	if len(other.Paths.Exclude) > 0 {
		c.Paths.Exclude = append(c.Paths.Exclude, other.Paths.Exclude...)
	}

	if other.Search.VectorWeight != 0 {
		c.Search.VectorWeight = other.Search.VectorWeight
	}
	if other.Search.FTSWeight != 0 {
		c.Search.FTSWeight = other.Search.FTSWeight
	}
	if other.Search.ExactWeight != 0 {
		c.Search.ExactWeight = other.Search.ExactWeight
	}
	if other.Search.RRFConstant != 0 {
		c.Search.RRFConstant = other.Search.RRFConstant
	}
	if other.Search.ChunkSize != 0 {
		c.Search.ChunkSize = other.Search.ChunkSize
	}
	if other.Search.ChunkOverlap != 0 {
		c.Search.ChunkOverlap = other.Search.ChunkOverlap
	}
	if other.Search.MaxResults != 0 {
		c.Search.MaxResults = other.Search.MaxResults
	}

	if other.Embeddings.Provider != "" {
		c.Embeddings.Provider = other.Embeddings.Provider
	}
	if other.Embeddings.Model != "" {
		c.Embeddings.Model = other.Embeddings.Model
	}
	if other.Embeddings.Dimensions != 0 {
		c.Embeddings.Dimensions = other.Embeddings.Dimensions
	}
	if other.Embeddings.BatchSize != 0 {
		c.Embeddings.BatchSize = other.Embeddings.BatchSize
	}
	if other.Embeddings.CacheSize != 0 {
		c.Embeddings.CacheSize = other.Embeddings.CacheSize
	}

	if other.Store.Dir != "" {
		c.Store.Dir = other.Store.Dir
	}
	if other.Store.SQLiteCacheMB != 0 {
		c.Store.SQLiteCacheMB = other.Store.SQLiteCacheMB
	}
	if other.Store.LockStaleness != "" {
		c.Store.LockStaleness = other.Store.LockStaleness
	}

	if other.Graph.Damping != 0 {
		c.Graph.Damping = other.Graph.Damping
	}
	if other.Graph.MaxIters != 0 {
		c.Graph.MaxIters = other.Graph.MaxIters
	}
	if other.Graph.Epsilon != 0 {
		c.Graph.Epsilon = other.Graph.Epsilon
	}
	if other.Graph.CacheTTL != "" {
		c.Graph.CacheTTL = other.Graph.CacheTTL
	}
	if other.Graph.MaxWorkers != 0 {
		c.Graph.MaxWorkers = other.Graph.MaxWorkers
	}

	if other.Snapshot.RetentionDays != 0 {
		c.Snapshot.RetentionDays = other.Snapshot.RetentionDays
	}
	if other.Snapshot.CoChangeDays != 0 {
		c.Snapshot.CoChangeDays = other.Snapshot.CoChangeDays
	}

	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
}

// applyEnvOverrides applies YEPMEM_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("YEPMEM_VECTOR_WEIGHT"); v != "" {
		if w, err := parseFloat64(v); err == nil && w >= 0 {
			c.Search.VectorWeight = w
		}
	}
	if v := os.Getenv("YEPMEM_FTS_WEIGHT"); v != "" {
		if w, err := parseFloat64(v); err == nil && w >= 0 {
			c.Search.FTSWeight = w
		}
	}
	if v := os.Getenv("YEPMEM_EXACT_WEIGHT"); v != "" {
		if w, err := parseFloat64(v); err == nil && w >= 0 {
			c.Search.ExactWeight = w
		}
	}
	if v := os.Getenv("YEPMEM_RRF_CONSTANT"); v != "" {
		if k, err := strconv.Atoi(v); err == nil && k > 0 {
			c.Search.RRFConstant = k
		}
	}
	if v := os.Getenv("YEPMEM_EMBEDDINGS_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("YEPMEM_EMBEDDINGS_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("YEPMEM_STORE_DIR"); v != "" {
		c.Store.Dir = v
	}
	if v := os.Getenv("YEPMEM_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// parseFloat64 parses a string to float64, used for config parsing.
func parseFloat64(s string) (float64, error) {
	var f float64
	_, err := fmt.Sscanf(strings.TrimSpace(s), "%f", &f)
	return f, err
}

// DetectProjectType detects the project type based on marker files.
// Priority: go.mod > package.json > pyproject.toml/requirements.txt.
func DetectProjectType(dir string) ProjectType {
	if fileExists(filepath.Join(dir, "go.mod")) {
		return ProjectTypeGo
	}
	if fileExists(filepath.Join(dir, "package.json")) {
		return ProjectTypeNode
	}
	if fileExists(filepath.Join(dir, "pyproject.toml")) ||
		fileExists(filepath.Join(dir, "requirements.txt")) {
		return ProjectTypePython
	}
	return ProjectTypeUnknown
}

// FindProjectRoot finds the project root directory, walking up from
// startDir looking for a .git directory or a .yepmem.yaml/.yml file.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if dirExists(filepath.Join(currentDir, ".git")) {
			return currentDir, nil
		}
		if fileExists(filepath.Join(currentDir, ".yepmem.yaml")) ||
			fileExists(filepath.Join(currentDir, ".yepmem.yml")) {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return absDir, nil
		}
		currentDir = parentDir
	}
}

// DiscoverSourceDirs discovers common source directories in the project.
func DiscoverSourceDirs(dir string) []string {
	commonSourceDirs := []string{"src", "lib", "pkg", "internal", "cmd"}
	frameworkDirs := []string{"app", "pages"}

	var found []string
	for _, d := range commonSourceDirs {
		if dirExists(filepath.Join(dir, d)) {
			found = append(found, d)
		}
	}

	if isNextJS(dir) {
		for _, d := range frameworkDirs {
			if dirExists(filepath.Join(dir, d)) {
				found = append(found, d)
			}
		}
	}

	return found
}

// DiscoverDocsDirs discovers documentation directories in the project.
func DiscoverDocsDirs(dir string) []string {
	commonDocDirs := []string{"docs", "doc"}
	commonDocFiles := []string{"README.md", "readme.md", "README.markdown"}

	var found []string
	for _, d := range commonDocDirs {
		if dirExists(filepath.Join(dir, d)) {
			found = append(found, d)
		}
	}

	for _, f := range commonDocFiles {
		if fileExists(filepath.Join(dir, f)) {
			found = append(found, f)
			break
		}
	}

	return found
}

// isNextJS checks if the project is a Next.js project.
func isNextJS(dir string) bool {
	pkgPath := filepath.Join(dir, "package.json")
	if !fileExists(pkgPath) {
		return false
	}

	data, err := os.ReadFile(pkgPath)
	if err != nil {
		return false
	}

	var pkg struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return false
	}

	_, hasNext := pkg.Dependencies["next"]
	_, hasNextDev := pkg.DevDependencies["next"]
	return hasNext || hasNextDev
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// String returns a string representation of ProjectType.
func (p ProjectType) String() string {
	return string(p)
}

// IsKnown returns true if the project type is known (not unknown).
func (p ProjectType) IsKnown() bool {
	return p != ProjectTypeUnknown
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Search.VectorWeight < 0 {
		return fmt.Errorf("vector_weight must be non-negative, got %f", c.Search.VectorWeight)
	}
	if c.Search.FTSWeight < 0 {
		return fmt.Errorf("fts_weight must be non-negative, got %f", c.Search.FTSWeight)
	}
	if c.Search.ExactWeight < 0 {
		return fmt.Errorf("exact_weight must be non-negative, got %f", c.Search.ExactWeight)
	}
	if c.Search.RRFConstant <= 0 {
		return fmt.Errorf("rrf_constant must be positive, got %d", c.Search.RRFConstant)
	}
	if c.Search.MaxResults < 0 {
		return fmt.Errorf("max_results must be non-negative, got %d", c.Search.MaxResults)
	}
	if c.Search.ChunkSize < 0 {
		return fmt.Errorf("chunk_size must be non-negative, got %d", c.Search.ChunkSize)
	}

	validProviders := map[string]bool{"static": true, "ollama": true}
	if c.Embeddings.Provider != "" && !validProviders[strings.ToLower(c.Embeddings.Provider)] {
		return fmt.Errorf("embeddings.provider must be 'static', 'ollama', or empty, got %s", c.Embeddings.Provider)
	}

	if c.Graph.Damping <= 0 || c.Graph.Damping >= 1 {
		return fmt.Errorf("graph.damping must be between 0 and 1, got %f", c.Graph.Damping)
	}
	if c.Graph.MaxIters <= 0 {
		return fmt.Errorf("graph.max_iters must be positive, got %d", c.Graph.MaxIters)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.LogLevel)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadUserConfig loads the user configuration file.
// Returns nil config and nil error if the file doesn't exist.
func LoadUserConfig() (*Config, error) {
	return loadUserConfig()
}

// MergeNewDefaults adds new default fields while preserving existing
// values. Returns the names of fields that were added.
func (c *Config) MergeNewDefaults() []string {
	defaults := NewConfig()
	var added []string

	if c.Search.VectorWeight == 0 {
		c.Search.VectorWeight = defaults.Search.VectorWeight
		added = append(added, "search.vector_weight")
	}
	if c.Search.FTSWeight == 0 {
		c.Search.FTSWeight = defaults.Search.FTSWeight
		added = append(added, "search.fts_weight")
	}
	if c.Search.ExactWeight == 0 {
		c.Search.ExactWeight = defaults.Search.ExactWeight
		added = append(added, "search.exact_weight")
	}
	if c.Search.RRFConstant == 0 {
		c.Search.RRFConstant = defaults.Search.RRFConstant
		added = append(added, "search.rrf_constant")
	}
	if c.Store.SQLiteCacheMB == 0 {
		c.Store.SQLiteCacheMB = defaults.Store.SQLiteCacheMB
		added = append(added, "store.sqlite_cache_mb")
	}
	if c.Graph.Damping == 0 {
		c.Graph.Damping = defaults.Graph.Damping
		added = append(added, "graph.damping")
	}

	return added
}
