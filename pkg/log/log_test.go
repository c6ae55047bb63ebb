package log

import (
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func TestMain(m *testing.M) {
	os.Setenv("APP_ENV", "test")
	NewLogger()
	os.Exit(m.Run())
}

func TestErrorWithTraceIDUsesRequestID(t *testing.T) {
	got := ErrorWithTraceID(Fields{"request_id": "01HZX3"}, "[log.test] failure")
	if got != "01HZX3" {
		t.Errorf("Expected request id as trace id, got %q", got)
	}
}

func TestErrorWithTraceIDGeneratesUUID(t *testing.T) {
	got := ErrorWithTraceID(nil, "[log.test] failure")
	if _, err := uuid.Parse(got); err != nil {
		t.Errorf("Expected a generated uuid, got %q", got)
	}
}

func TestLevelFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	if lvl := levelFromEnv(); lvl != logrus.WarnLevel {
		t.Errorf("Expected warn level, got %s", lvl)
	}

	t.Setenv("LOG_LEVEL", "")
	t.Setenv("APP_ENV", "production")
	if lvl := levelFromEnv(); lvl != logrus.InfoLevel {
		t.Errorf("Expected info level in production, got %s", lvl)
	}
}
