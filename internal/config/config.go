// Package config reads service settings from flags with environment
// fallbacks.
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds the service settings.
type Config struct {
	Addr       string
	Debug      bool
	DSN        string
	SourceURL  string
	Engine     string
	ReplyDelay time.Duration
}

// Load parses args (without the program name). Flags override the
// PUZZLE_* environment variables, which override the defaults.
func Load(args []string) (Config, error) {
	var c Config
	fs := flag.NewFlagSet("puzzlechess", flag.ContinueOnError)
	fs.StringVar(&c.Addr, "addr", getenv("PUZZLE_ADDR", ":8080"), "listen address")
	fs.BoolVar(&c.Debug, "debug", getenb("PUZZLE_DEBUG", false), "enable debug logging")
	fs.StringVar(&c.DSN, "dsn", getenv("PUZZLE_DSN", ""), "postgres DSN; empty disables persistence")
	fs.StringVar(&c.SourceURL, "source", getenv("PUZZLE_SOURCE_URL", "https://api.chess.com"), "puzzle API base URL")
	fs.StringVar(&c.Engine, "engine", getenv("PUZZLE_ENGINE", ""), "path to a UCI engine binary; empty disables analysis")
	delay := fs.String("reply-delay", getenv("PUZZLE_REPLY_DELAY", "200ms"), "delay before the opponent's solution reply")
	if err := fs.Parse(args); err != nil {
		return c, err
	}
	d, err := time.ParseDuration(*delay)
	if err != nil {
		return c, fmt.Errorf("reply-delay: %w", err)
	}
	if d < 0 {
		return c, fmt.Errorf("reply-delay: negative duration %s", d)
	}
	c.ReplyDelay = d
	return c, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenb(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return def
}
