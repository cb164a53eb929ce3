package config

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	c, err := Load(nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Addr != ":8080" || c.Debug || c.DSN != "" || c.Engine != "" || c.ReplyDelay != 200*time.Millisecond {
		t.Fatalf("unexpected defaults %+v", c)
	}
}

func TestEnvAndFlags(t *testing.T) {
	t.Setenv("PUZZLE_ADDR", ":9000")
	t.Setenv("PUZZLE_DEBUG", "yes")
	t.Setenv("PUZZLE_REPLY_DELAY", "1s")

	c, err := Load(nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Addr != ":9000" || !c.Debug || c.ReplyDelay != time.Second {
		t.Fatalf("environment not applied: %+v", c)
	}

	c, err = Load([]string{"-addr", ":7000", "-debug=false", "-reply-delay", "50ms"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Addr != ":7000" || c.Debug || c.ReplyDelay != 50*time.Millisecond {
		t.Fatalf("flags must override the environment: %+v", c)
	}
}

func TestBadDelay(t *testing.T) {
	if _, err := Load([]string{"-reply-delay", "soon"}); err == nil {
		t.Fatalf("expected error for bad duration")
	}
	if _, err := Load([]string{"-reply-delay", "-1s"}); err == nil {
		t.Fatalf("expected error for negative duration")
	}
}
