// Package config reads thermalwatch configuration from environment
// variables with sensible defaults. cmd/thermalwatch loads a .env file
// first, so both direct env vars and .env entries work.
package config

import (
	"os"
	"runtime"
	"strconv"
	"time"
)

// Config holds all thermalwatch configuration.
type Config struct {
	Output Output
	Watch  Watch
	Infer  Infer
	Log    Log
}

// Output holds artifact tree settings.
type Output struct {
	Root string // root of the json/labeled/filtered/masks tree
}

// Watch holds regeneration loop settings.
type Watch struct {
	QuietWindow time.Duration // debounce quiet period per file
	Workers     int           // bound on concurrent regenerations
	Republish   bool          // rewrite records with recomputed centers
	RemoveStale bool          // delete artifacts when their record is deleted
}

// Infer holds anomaly model settings.
type Infer struct {
	ModelPath      string  // ONNX model file
	LibraryPath    string  // onnxruntime shared library; empty = next to model
	ScoreThreshold float64 // per-pixel anomaly score cutoff
	MinArea        int     // minimum detection region, in pixels
}

// Log holds logging settings.
type Log struct {
	Level  string // debug, info, warn, error
	Format string // text or json
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		Output: Output{
			Root: getenv("THERMALWATCH_OUTPUT_ROOT", "output_image"),
		},
		Watch: Watch{
			QuietWindow: getenvDuration("THERMALWATCH_QUIET_WINDOW", 750*time.Millisecond),
			Workers:     getenvInt("THERMALWATCH_WORKERS", runtime.GOMAXPROCS(0)),
			Republish:   getenvBool("THERMALWATCH_REPUBLISH", true),
			RemoveStale: getenvBool("THERMALWATCH_REMOVE_STALE", false),
		},
		Infer: Infer{
			ModelPath:      getenv("THERMALWATCH_MODEL_PATH", "models/anomaly.onnx"),
			LibraryPath:    os.Getenv("THERMALWATCH_ORT_LIBRARY"),
			ScoreThreshold: getenvFloat("THERMALWATCH_SCORE_THRESHOLD", 0.5),
			MinArea:        getenvInt("THERMALWATCH_MIN_AREA", 64),
		},
		Log: Log{
			Level:  getenv("THERMALWATCH_LOG_LEVEL", "info"),
			Format: getenv("THERMALWATCH_LOG_FORMAT", "text"),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// getenvDuration accepts Go duration syntax ("500ms", "2s") or a bare
// millisecond count for convenience.
func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}
