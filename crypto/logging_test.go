package crypto

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/opd-ai/envelope/cryptoerr"
	"github.com/sirupsen/logrus"
)

// setupTestLogger configures logrus for testing and returns a buffer to capture output
func setupTestLogger(t *testing.T) *bytes.Buffer {
	var buf bytes.Buffer
	prevOut, prevLevel, prevFormatter := logrus.StandardLogger().Out, logrus.GetLevel(), logrus.StandardLogger().Formatter
	logrus.SetOutput(&buf)
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableColors:    true,
		DisableTimestamp: true,
	})
	logrus.SetLevel(logrus.DebugLevel)
	t.Cleanup(func() {
		logrus.SetOutput(prevOut)
		logrus.SetLevel(prevLevel)
		logrus.SetFormatter(prevFormatter)
	})
	return &buf
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name     string
		logger   *LoggerHelper
		function string
		pkg      string
	}{
		{"crypto function", NewLogger("GenerateKeyPair"), "GenerateKeyPair", "crypto"},
		{"empty function", NewLogger(""), "", "crypto"},
		{"other package", NewPackageLogger("cipherset", "New"), "New", "cipherset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.logger.function != tt.function {
				t.Errorf("function = %v, want %v", tt.logger.function, tt.function)
			}
			if tt.logger.pkg != tt.pkg {
				t.Errorf("pkg = %v, want %v", tt.logger.pkg, tt.pkg)
			}
			if tt.logger.fields["package"] != tt.pkg {
				t.Errorf("fields[package] = %v, want %v", tt.logger.fields["package"], tt.pkg)
			}
		})
	}
}

func TestLoggerHelper_Fields(t *testing.T) {
	logger := NewLogger("Test").
		WithField("key_type", "ECP256").
		WithFields(logrus.Fields{"steps": 3, "restricted": false}).
		WithError(cryptoerr.Dataf("bad needle"), "agree")

	want := map[string]interface{}{
		"key_type":   "ECP256",
		"steps":      3,
		"restricted": false,
		"error_kind": "data",
		"operation":  "agree",
	}
	for k, v := range want {
		if logger.fields[k] != v {
			t.Errorf("fields[%s] = %v, want %v", k, logger.fields[k], v)
		}
	}

	withCaller := logger.WithCaller()
	if _, ok := withCaller.fields["caller"]; !ok {
		t.Error("WithCaller did not add caller field")
	}
}

func TestLoggerHelper_WithCopies(t *testing.T) {
	base := NewPackageLogger("cipherset", "New")
	child := base.WithField("digest", "SHA256").WithPreview([]byte{1, 2}, "blob")

	if _, ok := base.fields["digest"]; ok {
		t.Error("WithField modified the parent helper")
	}
	if child.fields["digest"] != "SHA256" || child.fields["blob_size"] != 2 {
		t.Errorf("child fields = %v", child.fields)
	}
	if child.function != "New" || child.pkg != "cipherset" {
		t.Errorf("child lost identity: %s/%s", child.pkg, child.function)
	}
}

func TestErrorKindName(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{cryptoerr.Logicf("x"), "logic"},
		{cryptoerr.ErrSizeLimit, "data"},
		{cryptoerr.Crypto("agree", nil), "crypto"},
		{cryptoerr.ErrWrongPassword, "wrong_password"},
		{errors.New("disk full"), "external"},
	}
	for _, tt := range tests {
		if got := ErrorKindName(tt.err); got != tt.want {
			t.Errorf("ErrorKindName(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestLoggerHelper_LoggingMethods(t *testing.T) {
	tests := []struct {
		name        string
		method      func(*LoggerHelper, string)
		expectLevel string
	}{
		{"Entry", func(l *LoggerHelper, m string) { l.Entry(m) }, "level=debug"},
		{"Debug", func(l *LoggerHelper, m string) { l.Debug(m) }, "level=debug"},
		{"Info", func(l *LoggerHelper, m string) { l.Info(m) }, "level=info"},
		{"Warn", func(l *LoggerHelper, m string) { l.Warn(m) }, "level=warning"},
		{"Error", func(l *LoggerHelper, m string) { l.Error(m) }, "level=error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := setupTestLogger(t)
			tt.method(NewLogger("TestFunc"), "hello")

			out := buf.String()
			if !strings.Contains(out, tt.expectLevel) {
				t.Errorf("output %q missing %q", out, tt.expectLevel)
			}
			if !strings.Contains(out, "function=TestFunc") {
				t.Errorf("output %q missing function field", out)
			}
		})
	}

	buf := setupTestLogger(t)
	NewLogger("Leaving").Exit()
	if !strings.Contains(buf.String(), "Function exit: Leaving") {
		t.Errorf("Exit output = %q", buf.String())
	}
	if strings.Contains(buf.String(), "elapsed=") {
		t.Errorf("Exit without Entry reported elapsed time: %q", buf.String())
	}

	buf.Reset()
	timed := NewLogger("Timed")
	timed.Entry("start")
	timed.Exit()
	if !strings.Contains(buf.String(), "elapsed=") {
		t.Errorf("Exit after Entry output = %q", buf.String())
	}
}

func TestSecureFieldHash(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		size    int
		preview string
	}{
		{"nil data", nil, 0, "nil"},
		{"empty data", []byte{}, 0, "nil"},
		{"short data", []byte{0x01, 0x02, 0x03, 0x04}, 4, "01020304"},
		{"exact data", []byte{1, 2, 3, 4, 5, 6, 7, 8}, 8, "0102030405060708"},
		{"long data", []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}, 9, "0102030405060708..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := SecureFieldHash(tt.data, "blob")
			if fields["blob_size"] != tt.size {
				t.Errorf("size = %v, want %v", fields["blob_size"], tt.size)
			}
			if fields["blob_preview"] != tt.preview {
				t.Errorf("preview = %v, want %v", fields["blob_preview"], tt.preview)
			}
		})
	}
}

func TestOperationFields(t *testing.T) {
	fields := OperationFields("encrypt", "ok", logrus.Fields{"steps": 2}, logrus.Fields{"bytes": 10})
	if fields["operation"] != "encrypt" || fields["status"] != "ok" {
		t.Errorf("unexpected base fields %v", fields)
	}
	if fields["steps"] != 2 || fields["bytes"] != 10 {
		t.Errorf("additional fields not merged: %v", fields)
	}
}

func TestLoggerConcurrency(t *testing.T) {
	setupTestLogger(t)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			NewLogger("Concurrent").WithField("id", id).Debug("message")
		}(i)
	}
	wg.Wait()
}
