package config

import (
    "os"
    "strconv"
    "strings"
    "time"

    "github.com/joho/godotenv"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
    Level        string
    Pretty       bool
    File         string
    MaxSizeMB    int
    MaxBackups   int
    MaxAgeDays   int
    Compress     bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
    Send          bool
    APIKey        string
    OrgID         string
    Dataset       string
    FlushInterval time.Duration
}

// RenderConfig controls how pages are rendered and shown.
type RenderConfig struct {
    Async       bool
    ColorMode   string // "rgb"|"gray"
    Format      string // "png"|"jpeg"
    JPEGQuality int
}

// SourceConfig controls how remote document references are fetched.
type SourceConfig struct {
    DownloadDir string
    HTTPTimeout time.Duration
}

// SessionConfig controls document replacement.
type SessionConfig struct {
    // KeepOnFailedOpen keeps the open document when opening another fails.
    KeepOnFailedOpen bool
}

// WebConfig configures the HTTP front end.
type WebConfig struct {
    Port     string
    Username string
    Password string
    Console  bool
}

// Config is the top-level configuration.
type Config struct {
    Logging LoggingConfig
    Axiom   AxiomConfig
    Render  RenderConfig
    Source  SourceConfig
    Session SessionConfig
    Web     WebConfig
}

// FromEnv loads configuration from environment with sensible defaults.
// A .env file in the working directory is read first if present.
func FromEnv() Config {
    _ = godotenv.Load(".env")

    cfg := Config{}

    cfg.Logging = LoggingConfig{
        Level:      getEnv("LOG_LEVEL", "info"),
        Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
        File:       getEnv("LOG_FILE", "logs/pageviewer.log"),
        MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
        MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
        MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
        Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
    }

    baseDataset := getEnv("AXIOM_DATASET", "dev")
    cfg.Axiom = AxiomConfig{
        Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
        APIKey:        getEnv("AXIOM_API_KEY", ""),
        OrgID:         getEnv("AXIOM_ORG_ID", ""),
        Dataset:       baseDataset + "_pageviewer",
        FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
    }

    cfg.Render = RenderConfig{
        Async:       parseBool(getEnv("RENDER_ASYNC", "false")),
        ColorMode:   oneOf(getEnv("RENDER_COLOR_MODE", "rgb"), "rgb", "rgb", "gray"),
        Format:      oneOf(getEnv("RENDER_FORMAT", "png"), "png", "png", "jpeg"),
        JPEGQuality: parseInt(getEnv("RENDER_JPEG_QUALITY", "90"), 90),
    }

    cfg.Source = SourceConfig{
        DownloadDir: getEnv("SOURCE_DOWNLOAD_DIR", ""),
        HTTPTimeout: parseDuration(getEnv("SOURCE_HTTP_TIMEOUT", "60s"), 60*time.Second),
    }

    cfg.Session = SessionConfig{
        KeepOnFailedOpen: parseBool(getEnv("SESSION_KEEP_ON_FAILED_OPEN", "false")),
    }

    cfg.Web = WebConfig{
        Port:     getEnv("PORT", "8080"),
        Username: getEnv("WEB_USERNAME", ""),
        Password: getEnv("WEB_PASSWORD", ""),
        Console:  parseBool(getEnv("CONSOLE", "false")),
    }

    return cfg
}

// Helpers
func getEnv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func parseInt(s string, def int) int {
    if s == "" { return def }
    if n, err := strconv.Atoi(s); err == nil { return n }
    return def
}

func parseBool(s string) bool {
    v := strings.ToLower(strings.TrimSpace(s))
    return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
    if s == "" { return def }
    if d, err := time.ParseDuration(s); err == nil { return d }
    return def
}

func oneOf(s, def string, allowed ...string) string {
    v := strings.ToLower(strings.TrimSpace(s))
    for _, a := range allowed {
        if v == a { return v }
    }
    return def
}

func devDefaultPretty() string {
    env := strings.ToLower(os.Getenv("ENVIRONMENT"))
    if env == "dev" || env == "development" || env == "local" { return "true" }
    return "false"
}
