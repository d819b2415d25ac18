package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/terrain-web/internal/api"
	"github.com/nerrad567/terrain-web/internal/embedpage"
	"github.com/nerrad567/terrain-web/internal/infrastructure/config"
	"github.com/nerrad567/terrain-web/internal/infrastructure/logging"
)

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("TERRAINWEB_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
	if !strings.Contains(err.Error(), "loading config") {
		t.Errorf("run() error = %v, want loading config error", err)
	}
}

// TestRun_InvalidEscapeMode verifies validation stops startup.
func TestRun_InvalidEscapeMode(t *testing.T) {
	configPath := writeConfig(t, `
site:
  id: terrain
page:
  escape_mode: none
logging:
  level: error
`)
	t.Setenv("TERRAINWEB_CONFIG", configPath)

	err := run(context.Background())
	if err == nil {
		t.Fatal("run() should fail with invalid escape mode")
	}
	if !strings.Contains(err.Error(), "page.escape_mode") {
		t.Errorf("run() error = %v, want page.escape_mode message", err)
	}
}

// TestRun_ServesPage starts the service with the launch database enabled,
// renders a page, lists the launch and shuts down.
func TestRun_ServesPage(t *testing.T) {
	tmpDir := t.TempDir()
	staticDir := filepath.Join(tmpDir, "web")
	if err := os.MkdirAll(staticDir, 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(staticDir, "RunPanda3D.js"), []byte("// bootstrap"), 0o600); err != nil {
		t.Fatal(err)
	}

	port := freePort(t)
	configPath := writeConfig(t, fmt.Sprintf(`
site:
  id: terrain
page:
  static_dir: %q
  forward_unvalidated_params: on
api:
  host: "127.0.0.1"
  port: %d
database:
  enabled: true
  path: %q
  wal_mode: true
  busy_timeout: 5
logging:
  level: error
  format: text
`, staticDir, port, filepath.Join(tmpDir, "data", "terrainweb.db")))
	t.Setenv("TERRAINWEB_CONFIG", configPath)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx) }()

	base := fmt.Sprintf("http://127.0.0.1:%d", port)
	body := waitForGet(t, base+"/?foo=bar&level=3")
	if !strings.Contains(body, "'foo', 'bar'") || !strings.Contains(body, "'level', '3'") {
		t.Errorf("page missing forwarded params:\n%s", body)
	}

	if got := waitForGet(t, base+"/RunPanda3D.js"); got != "// bootstrap" {
		t.Errorf("asset body = %q", got)
	}

	// Launches are recorded asynchronously.
	deadline := time.Now().Add(5 * time.Second)
	for {
		launches := waitForGet(t, base+"/api/v1/launches")
		if strings.Contains(launches, `"total":1`) {
			if !strings.Contains(launches, `"forwarded_keys":["foo","level"]`) {
				t.Errorf("launch record = %s", launches)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("launch not recorded: %s", launches)
		}
		time.Sleep(50 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run() error = %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("run() did not return after cancel")
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("TERRAINWEB_CONFIG", "")
	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}

	t.Setenv("TERRAINWEB_CONFIG", "/etc/terrainweb/config.yaml")
	if got := getConfigPath(); got != "/etc/terrainweb/config.yaml" {
		t.Errorf("getConfigPath() = %q", got)
	}
}

func TestBuildAssembler(t *testing.T) {
	cfg := config.Default().Page

	page, err := buildAssembler(cfg)
	if err != nil {
		t.Fatalf("buildAssembler() error = %v", err)
	}
	opts := page.Options()
	if opts.EscapeMode != embedpage.EscapeHardened || !opts.ForwardParams || opts.DataFile != "myapp.p3d" {
		t.Errorf("options = %+v", opts)
	}

	cfg.EscapeMode = "bogus"
	if _, err := buildAssembler(cfg); err == nil {
		t.Error("buildAssembler() should reject unknown escape mode")
	}

	cfg = config.Default().Page
	cfg.ScriptPath = `x" onload="y`
	if _, err := buildAssembler(cfg); err == nil {
		t.Error("buildAssembler() should reject unsafe script path")
	}
}

func TestHealthCheck_NotStarted(t *testing.T) {
	page, err := buildAssembler(config.Default().Page)
	if err != nil {
		t.Fatal(err)
	}
	server, err := api.New(api.Deps{Logger: logging.Discard(), Page: page})
	if err != nil {
		t.Fatal(err)
	}

	if err := healthCheck(context.Background(), server, nil, nil, nil); err == nil {
		t.Error("healthCheck() should fail before the server is started")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("finding free port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

// waitForGet retries until the server answers, then returns the body.
func waitForGet(t *testing.T, url string) string {
	t.Helper()
	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := client.Get(url) //nolint:noctx // test helper
		if err == nil {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				t.Fatalf("reading %s: %v", url, readErr)
			}
			return string(body)
		}
		if time.Now().After(deadline) {
			t.Fatalf("GET %s: %v", url, err)
		}
		time.Sleep(50 * time.Millisecond)
	}
}
