package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLog_WithComponentWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New()
	l.Logger.SetOutput(&buf)

	l.WithComponent("market").WithFields(Fields{"exchange": "bitmex"}).Info("markets loaded")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if entry["component"] != "market" || entry["exchange"] != "bitmex" {
		t.Fatalf("missing fields in %v", entry)
	}
	if entry["message"] != "markets loaded" {
		t.Fatalf("message=%v, want markets loaded", entry["message"])
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Fatalf("timestamp field missing: %v", entry)
	}
}

func TestLog_Configure(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	l := New()
	if err := l.Configure("debug", "text", "stdout", 0); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	if !l.Logger.IsLevelEnabled(5) { // logrus.DebugLevel
		t.Fatalf("debug level not enabled")
	}
	if err := l.Configure("loud", "json", "stdout", 0); err == nil {
		t.Fatalf("invalid level should fail")
	}
	if err := l.Configure("info", "xml", "stdout", 0); err == nil {
		t.Fatalf("invalid format should fail")
	}
}

func TestLog_ConfigureFileOutput(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	path := filepath.Join(t.TempDir(), "exbridge.log")
	l := New()
	if err := l.Configure("info", "json", path, 0); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	l.WithComponent("dispatch").LogDuration("select", time.Now(), nil)
	l.WithComponent("dispatch").Info("relay selected")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !bytes.Contains(data, []byte("relay selected")) {
		t.Fatalf("log file does not contain the message: %s", data)
	}
}
