package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, "warn")

	c.Debugf("debug message")
	c.Infof("info message")
	c.Warnf("warn message")
	c.Errorf("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("messages below warn leaked through: %q", out)
	}
	if !strings.Contains(out, "warn message") || !strings.Contains(out, "error message") {
		t.Errorf("warn/error messages missing: %q", out)
	}
}

func TestDefaultLevelIsInfo(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, "bogus")

	c.Tracef("trace message")
	c.Infof("info message")

	out := buf.String()
	if strings.Contains(out, "trace message") {
		t.Errorf("trace leaked at default level: %q", out)
	}
	if !strings.Contains(out, "info message") {
		t.Errorf("info missing at default level: %q", out)
	}
}

func TestMessageFormat(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, "info")
	c.Warnf("cannot access %s", "/tmp/x")

	out := buf.String()
	if !strings.Contains(out, "[WARN] cannot access /tmp/x") {
		t.Errorf("unexpected format: %q", out)
	}
	if !strings.HasPrefix(out, "[") {
		t.Errorf("missing timestamp prefix: %q", out)
	}
}

func TestNilWriterDiscards(t *testing.T) {
	c := NewConsole(nil, "info")
	// Must not panic.
	c.Infof("into the void")
}

func TestNonTTYWriterIsPlain(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, "info")
	if c.colored {
		t.Error("a bytes.Buffer is not a terminal")
	}
}

func TestConcurrentUse(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, "info")

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			for j := 0; j < 50; j++ {
				c.Infof("message")
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	if got := strings.Count(buf.String(), "\n"); got != 400 {
		t.Errorf("lines = %d, want 400", got)
	}
}
