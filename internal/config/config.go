package config

import (
	_ "embed"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Matcher    MatcherConfig
	Agent      AgentConfig
	Enrollment EnrollmentConfig
	Remote     RemoteConfig
	Server     ServerConfig
	Database   DatabaseConfig
}

type MatcherConfig struct {
	MatchThreshold     float64 // max Euclidean distance for an attendance match
	DuplicateThreshold float64 // stricter same-person distance used during enrollment
	EmbeddingDim       int     // fixed embedding dimensionality, validated at ingestion
	IndexMinIdentities int     // identity count above which the HNSW index kicks in
}

type AgentConfig struct {
	DataDir         string        // local cache directory (snapshot + assets)
	DetectorURL     string        // detection sidecar base URL, empty disables the camera loop
	DetectInterval  time.Duration // detection loop tick, overlapping ticks are skipped
	SyncInterval    time.Duration // sync loop tick, free-running
	MinCaptureScore float64       // detection score below which a frame is never captured
}

type EnrollmentConfig struct {
	RequiredPoses []string // head poses that must be captured before enrollment completes
}

type RemoteConfig struct {
	URL string // base URL of the store server, empty disables sync
}

type ServerConfig struct {
	DataFile  string // JSON snapshot file for the file-backed store
	AssetsDir string // directory for uploaded binary assets
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL, empty selects the file store
	MaxOpenConns int
	MaxIdleConns int
}

// defaults mirrors the embedded defaults.yaml layout.
type defaults struct {
	Matcher struct {
		MatchThreshold     float64 `yaml:"match_threshold"`
		DuplicateThreshold float64 `yaml:"duplicate_threshold"`
		EmbeddingDim       int     `yaml:"embedding_dim"`
		IndexMinIdentities int     `yaml:"index_min_identities"`
	} `yaml:"matcher"`
	Agent struct {
		DetectInterval  string  `yaml:"detect_interval"`
		SyncInterval    string  `yaml:"sync_interval"`
		MinCaptureScore float64 `yaml:"min_capture_score"`
	} `yaml:"agent"`
	Enrollment struct {
		RequiredPoses []string `yaml:"required_poses"`
	} `yaml:"enrollment"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// envDuration reads an environment variable and parses it as a duration.
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// parseDuration parses a duration string from defaults.yaml, falling back
// when the value is missing or malformed.
func parseDuration(s string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return fallback
}

func Load() *Config {
	var def defaults
	if err := yaml.Unmarshal(defaultsYAML, &def); err != nil {
		// Embedded file, should never happen in practice.
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}

	return &Config{
		Matcher: MatcherConfig{
			MatchThreshold:     envFloat("FACEGUARD_MATCH_THRESHOLD", def.Matcher.MatchThreshold),
			DuplicateThreshold: envFloat("FACEGUARD_DUPLICATE_THRESHOLD", def.Matcher.DuplicateThreshold),
			EmbeddingDim:       envInt("FACEGUARD_EMBEDDING_DIM", def.Matcher.EmbeddingDim),
			IndexMinIdentities: envInt("FACEGUARD_INDEX_MIN_IDENTITIES", def.Matcher.IndexMinIdentities),
		},
		Agent: AgentConfig{
			DataDir:         envString("FACEGUARD_DATA_DIR", ".faceguard"),
			DetectorURL:     os.Getenv("FACEGUARD_DETECTOR_URL"),
			DetectInterval:  envDuration("FACEGUARD_DETECT_INTERVAL", parseDuration(def.Agent.DetectInterval, 800*time.Millisecond)),
			SyncInterval:    envDuration("FACEGUARD_SYNC_INTERVAL", parseDuration(def.Agent.SyncInterval, 30*time.Second)),
			MinCaptureScore: envFloat("FACEGUARD_MIN_CAPTURE_SCORE", def.Agent.MinCaptureScore),
		},
		Enrollment: EnrollmentConfig{
			RequiredPoses: def.Enrollment.RequiredPoses,
		},
		Remote: RemoteConfig{
			URL: os.Getenv("FACEGUARD_REMOTE_URL"),
		},
		Server: ServerConfig{
			DataFile:  envString("FACEGUARD_DATA_FILE", "db.json"),
			AssetsDir: envString("FACEGUARD_ASSETS_DIR", "uploads"),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
	}
}
