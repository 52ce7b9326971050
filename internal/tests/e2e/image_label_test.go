//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/medlabel/apiserver/config"
	internaldb "github.com/medlabel/apiserver/internal/db"
	"github.com/medlabel/apiserver/internal/server"
	"github.com/medlabel/apiserver/internal/services"
)

const (
	serverPort = 18080
	username   = "e2e-annotator"
	password   = "testpass123!"
)

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	root, err := repoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to locate repo root: %v\n", err)
		os.Exit(1)
	}

	if err := dockerCompose(ctx, root, "up", "-d"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start docker compose: %v\n", err)
		os.Exit(1)
	}

	if err := waitForPostgres(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "postgres not ready: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	if err := runMigrations(root); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	imageRoot, err := os.MkdirTemp("", "medlabel-e2e-images")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create image root: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	if err := provisionFixtures(ctx, imageRoot); err != nil {
		fmt.Fprintf(os.Stderr, "failed to provision fixtures: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	srv, err := startServer(imageRoot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	if err := waitForHealth(ctx, baseURL+"/healthz"); err != nil {
		fmt.Fprintf(os.Stderr, "server not healthy: %v\n", err)
		_ = srv.Shutdown()
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	code := m.Run()

	_ = srv.Shutdown()
	_ = os.RemoveAll(imageRoot)
	_ = dockerCompose(context.Background(), root, "down")
	os.Exit(code)
}

func TestImageLabelLifecycle(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)

	if status, _ := request(t, http.MethodGet, baseURL+"/images", "", "", nil); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without credentials, got %d", status)
	}

	var image struct {
		ImageID int64  `json:"image_id"`
		Path    string `json:"path"`
	}
	status, body := request(t, http.MethodPost, baseURL+"/image", username, password,
		map[string]string{"path": "brain.jpeg"})
	if status != http.StatusOK {
		t.Fatalf("create image status %d: %s", status, body)
	}
	decode(t, body, &image)
	if image.ImageID == 0 {
		t.Fatalf("expected image id to be set")
	}
	if image.Path != "brain.jpeg" {
		t.Fatalf("unexpected image path %q", image.Path)
	}

	classID, err := provisionClass("tumour")
	if err != nil {
		t.Fatalf("provision class: %v", err)
	}

	var created struct {
		LabelID int64 `json:"label_id"`
	}
	status, body = request(t, http.MethodPost, baseURL+"/label", username, password, map[string]any{
		"image_id": image.ImageID,
		"class_id": classID,
		"geometry": "MULTIPOLYGON (((10 10, 20 25, 15 30, 10 10)))",
	})
	if status != http.StatusOK {
		t.Fatalf("create label status %d: %s", status, body)
	}
	decode(t, body, &created)
	if created.LabelID == 0 {
		t.Fatalf("expected label id to be set")
	}

	labelURL := fmt.Sprintf("%s/label/%d", baseURL, created.LabelID)

	status, body = request(t, http.MethodPut, labelURL, username, password,
		map[string]string{"geometry": "POLYGON ((0 0, 1 0, 1 1, 0 0))"})
	if status != http.StatusOK {
		t.Fatalf("update label status %d: %s", status, body)
	}

	var detail struct {
		ImageID  int64  `json:"image_id"`
		Username string `json:"username"`
		Geometry string `json:"geometry"`
	}
	status, body = request(t, http.MethodGet, labelURL, username, password, nil)
	if status != http.StatusOK {
		t.Fatalf("get label status %d: %s", status, body)
	}
	decode(t, body, &detail)
	if detail.ImageID != image.ImageID {
		t.Fatalf("unexpected label image id %d", detail.ImageID)
	}
	if detail.Username != username {
		t.Fatalf("unexpected annotator %q", detail.Username)
	}
	if detail.Geometry != "POLYGON ((0 0, 1 0, 1 1, 0 0))" {
		t.Fatalf("unexpected geometry %q", detail.Geometry)
	}

	if status, body := request(t, http.MethodDelete, labelURL, username, password, nil); status != http.StatusOK {
		t.Fatalf("delete label status %d: %s", status, body)
	}
	if status, _ := request(t, http.MethodGet, labelURL, username, password, nil); status != http.StatusGone {
		t.Fatalf("expected 410 after label delete, got %d", status)
	}

	imageURL := fmt.Sprintf("%s/image/%d", baseURL, image.ImageID)
	if status, body := request(t, http.MethodDelete, imageURL, username, password, nil); status != http.StatusOK {
		t.Fatalf("delete image status %d: %s", status, body)
	}
	if status, _ := request(t, http.MethodGet, imageURL, username, password, nil); status != http.StatusGone {
		t.Fatalf("expected 410 after image delete, got %d", status)
	}

	var logs struct {
		Total int `json:"total"`
	}
	status, body = request(t, http.MethodGet, baseURL+"/logs", username, password, nil)
	if status != http.StatusOK {
		t.Fatalf("list logs status %d: %s", status, body)
	}
	decode(t, body, &logs)
	// Image insert/delete, label insert/update/delete.
	if logs.Total < 5 {
		t.Fatalf("expected at least 5 audit entries, got %d", logs.Total)
	}
}

func request(t *testing.T, method, url, user, pass string, payload any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.SetBasicAuth(user, pass)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp.StatusCode, body
}

func decode(t *testing.T, body []byte, value any) {
	t.Helper()
	if err := json.Unmarshal(body, value); err != nil {
		t.Fatalf("decode %q: %v", strings.TrimSpace(string(body)), err)
	}
}

// provisionFixtures creates the annotator account and a sample image
// file the way the provision command would.
func provisionFixtures(ctx context.Context, imageRoot string) error {
	cfg := testConfig(imageRoot)
	conn, err := internaldb.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := services.NewUserService(conn).Create(ctx, username, "End", "ToEnd", password); err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(imageRoot, "brain.jpeg"), []byte("not really a jpeg"), 0o644)
}

func provisionClass(name string) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := internaldb.Open(ctx, config.LoadConfig())
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	return services.NewClassService(conn).Create(ctx, name)
}

func waitForPostgres(ctx context.Context) error {
	dsn := internaldb.DSN(config.LoadConfig())
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("postgres ping timeout: %w", err)
		case <-ticker.C:
		}
	}
}

func waitForHealth(ctx context.Context, url string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			return fmt.Errorf("health check failed with status")
		case <-ticker.C:
		}
	}
}

func runMigrations(root string) error {
	dsn := internaldb.DSN(config.LoadConfig())
	migrationsPath := filepath.Join(root, "internal", "db", "migrations")
	migrationsURL := "file://" + migrationsPath

	migrator, err := migrate.New(migrationsURL, dsn)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := migrator.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func startServer(imageRoot string) (*server.Server, error) {
	_ = os.Setenv("SERVER_PORT", fmt.Sprintf("%d", serverPort))
	_ = os.Setenv("IMAGE_ROOT", imageRoot)

	srv, err := server.New(context.Background(), config.LoadConfig())
	if err != nil {
		return nil, err
	}

	go func() {
		_ = srv.Start()
	}()

	return srv, nil
}

func testConfig(imageRoot string) config.Config {
	cfg := config.LoadConfig()
	cfg.ServerPort = serverPort
	cfg.ImageRoot = imageRoot
	return cfg
}

func dockerCompose(ctx context.Context, root string, args ...string) error {
	composeFile := filepath.Join(root, "development", "docker-compose.yml")
	baseArgs := append([]string{"compose", "-f", composeFile}, args...)
	cmd := exec.CommandContext(ctx, "docker", baseArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found")
		}
		dir = parent
	}
}
