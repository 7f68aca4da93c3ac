/*
Package config resolves server settings from flags and the environment.

PRECEDENCE:
  1. Command-line flag, when given
  2. Environment variable
  3. Built-in default

FLAGS / ENVIRONMENT:
  -port             PORT             HTTP port (default: 8080)
  -db               DB_PATH          SQLite path, ":memory:" allowed (default: finance.db)
  -session-secret   SESSION_SECRET   HMAC key for session tokens (default: random)
  -secure-cookie    SECURE_COOKIE    Mark the session cookie Secure (default: false)
  -allowed-origins  ALLOWED_ORIGINS  Comma-separated CORS origins
  -log-level        LOG_LEVEL        debug | info | warn | error (default: info)
  -static           STATIC_DIR       Built frontend to serve (default: ./web/dist)

SESSION SECRET:
  Without a configured secret a random one is generated at startup. Sessions
  then do not survive a restart; Load reports this through GeneratedSecret
  so the caller can warn.
*/
package config

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port           int
	DBPath         string
	SessionSecret  string
	SecureCookie   bool
	AllowedOrigins []string
	LogLevel       string
	StaticDir      string

	// GeneratedSecret is true when SessionSecret was not configured.
	GeneratedSecret bool
}

// Load parses args (without the program name) on top of getenv.
func Load(args []string, getenv func(string) string, stderr io.Writer) (*Config, error) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(stderr)

	port := fs.Int("port", envInt(getenv, "PORT", 8080), "HTTP server port")
	dbPath := fs.String("db", envString(getenv, "DB_PATH", "finance.db"), "SQLite database path")
	secret := fs.String("session-secret", getenv("SESSION_SECRET"), "HMAC key for session tokens")
	secure := fs.Bool("secure-cookie", envBool(getenv, "SECURE_COOKIE", false), "mark the session cookie Secure")
	origins := fs.String("allowed-origins",
		envString(getenv, "ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"),
		"comma-separated CORS origins")
	logLevel := fs.String("log-level", envString(getenv, "LOG_LEVEL", "info"), "debug, info, warn or error")
	staticDir := fs.String("static", envString(getenv, "STATIC_DIR", "./web/dist"), "directory of the built frontend")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *port <= 0 || *port > 65535 {
		return nil, fmt.Errorf("invalid port %d", *port)
	}

	cfg := &Config{
		Port:           *port,
		DBPath:         *dbPath,
		SessionSecret:  *secret,
		SecureCookie:   *secure,
		AllowedOrigins: splitList(*origins),
		LogLevel:       *logLevel,
		StaticDir:      *staticDir,
	}

	if cfg.SessionSecret == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
		cfg.SessionSecret = hex.EncodeToString(buf)
		cfg.GeneratedSecret = true
	}

	return cfg, nil
}

// FromOS is Load over os.Args and the process environment.
func FromOS() (*Config, error) {
	return Load(os.Args[1:], os.Getenv, os.Stderr)
}

func envString(getenv func(string) string, key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(getenv func(string) string, key string, def int) int {
	if v, err := strconv.Atoi(getenv(key)); err == nil {
		return v
	}
	return def
}

func envBool(getenv func(string) string, key string, def bool) bool {
	if v, err := strconv.ParseBool(getenv(key)); err == nil {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
