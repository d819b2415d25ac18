package influxdb_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/terrain-web/internal/infrastructure/config"
	"github.com/nerrad567/terrain-web/internal/infrastructure/influxdb"
)

// fakeInflux answers /ping and collects line protocol sent to /api/v2/write.
type fakeInflux struct {
	mu        sync.Mutex
	lines     []string
	writeCode int
}

func (f *fakeInflux) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/api/v2/write", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body) //nolint:errcheck // test server
		f.mu.Lock()
		code := f.writeCode
		if code == 0 || code == http.StatusNoContent {
			f.lines = append(f.lines, strings.Split(strings.TrimSpace(string(body)), "\n")...)
			code = http.StatusNoContent
		}
		f.mu.Unlock()
		w.WriteHeader(code)
	})
	return mux
}

func (f *fakeInflux) written() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lines...)
}

func startFake(t *testing.T) (*fakeInflux, config.InfluxDBConfig) {
	t.Helper()
	fake := &fakeInflux{}
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	return fake, config.InfluxDBConfig{
		Enabled:       true,
		URL:           srv.URL,
		Token:         "terrainweb-test-token",
		Org:           "terrainweb",
		Bucket:        "launches",
		BatchSize:     100,
		FlushInterval: 1,
	}
}

func TestConnect(t *testing.T) {
	_, cfg := startFake(t)

	client, err := influxdb.Connect(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect()")
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestConnect_Disabled(t *testing.T) {
	_, cfg := startFake(t)
	cfg.Enabled = false

	_, err := influxdb.Connect(context.Background(), cfg)
	if !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	cfg := config.InfluxDBConfig{
		Enabled: true,
		URL:     "http://127.0.0.1:1",
		Org:     "terrainweb",
		Bucket:  "launches",
	}

	_, err := influxdb.Connect(context.Background(), cfg)
	if !errors.Is(err, influxdb.ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestConnect_DefaultBatchSettings(t *testing.T) {
	_, cfg := startFake(t)
	cfg.BatchSize = -1
	cfg.FlushInterval = 0

	client, err := influxdb.Connect(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	client.Close()
}

func TestWriteLaunch(t *testing.T) {
	fake, cfg := startFake(t)

	client, err := influxdb.Connect(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	at := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	client.WriteLaunch("terrain", "hardened", 2, at)
	client.Flush()

	lines := waitForLines(t, fake, 1)
	line := lines[0]
	for _, want := range []string{
		"page_launches,",
		"escape_mode=hardened",
		"page_id=terrain",
		"forwarded_params=2i",
	} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
	if !strings.HasSuffix(line, " 1792411200000000000") {
		t.Errorf("line %q has wrong timestamp", line)
	}
}

func TestWritePoint(t *testing.T) {
	fake, cfg := startFake(t)

	client, err := influxdb.Connect(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	client.WritePoint("render_stats",
		map[string]string{"site": "terrain"},
		map[string]interface{}{"renders": 3})
	client.Flush()

	lines := waitForLines(t, fake, 1)
	if !strings.HasPrefix(lines[0], "render_stats,site=terrain renders=3i ") {
		t.Errorf("line = %q", lines[0])
	}
}

func TestWriteErrorCallback(t *testing.T) {
	fake, cfg := startFake(t)
	fake.writeCode = http.StatusBadRequest

	client, err := influxdb.Connect(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	errCh := make(chan error, 1)
	client.SetOnError(func(err error) {
		select {
		case errCh <- err:
		default:
		}
	})

	client.WriteLaunch("terrain", "parity", 0, time.Now())
	client.Flush()

	select {
	case err := <-errCh:
		if !errors.Is(err, influxdb.ErrWriteFailed) {
			t.Errorf("callback error = %v, want ErrWriteFailed", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("write error callback not invoked")
	}
}

func TestClose(t *testing.T) {
	fake, cfg := startFake(t)

	client, err := influxdb.Connect(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	client.WriteLaunch("terrain", "hardened", 1, time.Now())
	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close()")
	}
	if len(fake.written()) != 1 {
		t.Errorf("Close() should flush pending points, got %d lines", len(fake.written()))
	}

	// Writes, Flush and a second Close after Close are no-ops.
	client.WriteLaunch("terrain", "hardened", 1, time.Now())
	client.Flush()
	if err := client.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := client.HealthCheck(context.Background()); !errors.Is(err, influxdb.ErrNotConnected) {
		t.Errorf("HealthCheck() after Close error = %v, want ErrNotConnected", err)
	}
}

func TestClose_Nil(t *testing.T) {
	var client *influxdb.Client
	if err := client.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() on nil client = true")
	}
}

func waitForLines(t *testing.T, fake *fakeInflux, n int) []string {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if lines := fake.written(); len(lines) >= n {
			return lines
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("expected %d line(s), got %v", n, fake.written())
	return nil
}
