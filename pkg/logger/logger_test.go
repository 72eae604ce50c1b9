package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggerErrorIncludesContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf})

	ctx := log.WithRequestID(context.Background(), "req-123")
	ctx = log.WithLoadID(ctx, "load-1")
	log.Error(ctx, "boom", errors.New("boom"))

	for _, field := range []string{`"request_id":"req-123"`, `"load_id":"load-1"`, `"stack"`} {
		if !bytes.Contains(buf.Bytes(), []byte(field)) {
			t.Fatalf("expected %s in entry=%s", field, buf.String())
		}
	}
}

func TestLoggerWarnStackToggle(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Output: buf, WarnStack: true})
	log.Warn(context.Background(), "warny")
	if !bytes.Contains(buf.Bytes(), []byte(`"stack"`)) {
		t.Fatalf("expected stack when warn stack enabled")
	}

	buf.Reset()
	quiet := New(Options{ServiceName: "test", Output: buf})
	quiet.Warn(context.Background(), "warny")
	if bytes.Contains(buf.Bytes(), []byte(`"stack"`)) {
		t.Fatalf("expected no stack when warn stack disabled")
	}
}

func TestLoggerWithActor(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Output: buf})
	ctx := log.WithActor(context.Background(), "user-1", "Loader")
	log.Info(ctx, "hello")
	if !bytes.Contains(buf.Bytes(), []byte(`"actor_role":"Loader"`)) {
		t.Fatalf("expected actor role in entry=%s", buf.String())
	}
}

func TestParseLevelDefaults(t *testing.T) {
	if lvl := ParseLevel(""); lvl != zerolog.InfoLevel {
		t.Fatalf("expected default info level, got %v", lvl)
	}
	if lvl := ParseLevel("invalid"); lvl != zerolog.InfoLevel {
		t.Fatalf("invalid level should fallback to info, got %v", lvl)
	}
	if lvl := ParseLevel("WARN"); lvl != zerolog.WarnLevel {
		t.Fatalf("expected warn level, got %v", lvl)
	}
}

func TestLoggerDebugFilteredByLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Output: buf, Format: FormatJSON})
	log.Debug(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected debug to be filtered at info level, got %s", buf.String())
	}
}

func TestLoggerFieldsDoNotLeakAcrossContexts(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Output: buf, Format: FormatJSON})
	parent := log.WithProject(context.Background(), "T7")
	_ = log.WithLoadID(parent, "load-9")
	log.Info(parent, "parent only")
	if bytes.Contains(buf.Bytes(), []byte("load-9")) {
		t.Fatalf("child field leaked into parent entry=%s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"project_code":"T7"`)) {
		t.Fatalf("expected project code in entry=%s", buf.String())
	}
}
