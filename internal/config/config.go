package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kozaktomas/facefit/internal/constants"
)

type Config struct {
	API       APIConfig
	Web       WebConfig
	Camera    CameraConfig
	Log       LogConfig
	RateLimit RateLimitConfig
}

type APIConfig struct {
	URL     string        // analysis service base URL, defaults to http://localhost:5001
	Timeout time.Duration // bound on a single analyze call, defaults to 30s
}

type WebConfig struct {
	Host           string
	Port           int
	SessionSecret  string
	AllowedOrigins []string
}

type CameraConfig struct {
	URL string // MJPEG feed of a network camera (optional)
}

// Enabled reports whether a server-side camera is configured.
func (c *CameraConfig) Enabled() bool {
	return c.URL != ""
}

type LogConfig struct {
	Level string // debug, info, warn, error
}

type RateLimitConfig struct {
	RPS   int // analyze submissions per second per session
	Burst int
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

// envString returns the first non-empty value among keys, or defaultVal.
func envString(defaultVal string, keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return defaultVal
}

// envList splits a comma-separated environment variable, dropping empty entries.
func envList(key string) []string {
	var out []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func Load() *Config {
	return &Config{
		API: APIConfig{
			// REACT_APP_API_URL is what older deployments of the browser bundle were configured with
			URL:     strings.TrimRight(envString(constants.DefaultAPIURL, "FACEFIT_API_URL", "REACT_APP_API_URL"), "/"),
			Timeout: time.Duration(envInt("FACEFIT_API_TIMEOUT_SECONDS", int(constants.AnalyzeTimeout/time.Second))) * time.Second,
		},
		Web: WebConfig{
			Host:           envString("0.0.0.0", "WEB_HOST"),
			Port:           envInt("WEB_PORT", 8080),
			SessionSecret:  os.Getenv("WEB_SESSION_SECRET"),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
		},
		Camera: CameraConfig{
			URL: os.Getenv("FACEFIT_CAMERA_URL"),
		},
		Log: LogConfig{
			Level: envString("info", "LOG_LEVEL"),
		},
		RateLimit: RateLimitConfig{
			RPS:   envInt("ANALYZE_RATE_LIMIT_RPS", constants.DefaultAnalyzeRPS),
			Burst: envInt("ANALYZE_RATE_LIMIT_BURST", constants.DefaultAnalyzeBurst),
		},
	}
}
