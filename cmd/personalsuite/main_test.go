package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/personalsuite/pkg/config"
	"github.com/platinummonkey/personalsuite/pkg/database"
	"github.com/platinummonkey/personalsuite/pkg/modules"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "modules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestModulesCommand(t *testing.T) {
	t.Setenv("PERSONALSUITE_MODULES_FILE", "")

	out, err := execute(t, "modules")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "housekeeping"))
	assert.True(t, strings.HasPrefix(lines[2], "notes"))
}

func TestModulesCommand_OtherGroup(t *testing.T) {
	t.Setenv("PERSONALSUITE_MODULES_FILE", "")

	out, err := execute(t, "modules", "--group", "elsewhere")
	require.NoError(t, err)
	assert.Equal(t, "NAME  STATUS", strings.TrimSpace(out))
}

func TestModulesCommand_Manifest(t *testing.T) {
	path := writeManifest(t, `
modules:
  - name: notes
  - name: housekeeping
    enabled: false
  - name: ghost
`)

	out, err := execute(t, "modules", "--manifest", path)
	require.NoError(t, err)
	assert.Regexp(t, `notes\s+enabled`, out)
	assert.Regexp(t, `housekeeping\s+disabled`, out)
	assert.Regexp(t, `ghost\s+missing`, out)

	t.Setenv("PERSONALSUITE_MODULES_FILE", path)
	fromEnv, err := execute(t, "modules")
	require.NoError(t, err)
	assert.Equal(t, out, fromEnv)
}

func TestModulesCommand_InvalidManifest(t *testing.T) {
	path := writeManifest(t, "modules:\n  - name: notes\n  - name: notes\n")

	_, err := execute(t, "modules", "--manifest", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate module")
}

func TestServe_ConfigError(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PERSONALSUITE_API_KEY", "")

	_, err := execute(t, "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")

	_, err = execute(t)
	require.Error(t, err, "the root command serves by default")
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestBuild(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	engine, err := database.Open(context.Background(), database.Config{
		URL:    "sqlite:///:memory:",
		Logger: logger,
	})
	require.NoError(t, err)

	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            "8000",
			HealthPort:      "9000",
			ShutdownTimeout: 5 * time.Second,
		},
		Security:      config.SecurityConfig{APIKey: "key"},
		Observability: config.ObservabilityConfig{MetricsEnabled: true},
	}

	srv, manager, err := build(context.Background(), cfg, logger, engine, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		manager.Shutdown(context.Background())
		engine.Close()
	})

	assert.Equal(t, modules.StateRegistered, manager.State())
	assert.Equal(t, []string{"housekeeping", "notes"}, manager.Names())

	req := httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.Header.Set("X-API-Key", "key")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = httptest.NewRecorder()
	srv.HealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "personalsuite_modules_loaded 2")
	assert.Contains(t, rec.Body.String(), "go_sql_open_connections")
}

func TestBuild_ManifestSelectsModules(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	engine, err := database.Open(context.Background(), database.Config{URL: "sqlite://", Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })

	cfg := &config.Config{
		Security: config.SecurityConfig{APIKey: "key"},
		Modules:  config.ModulesConfig{ManifestFile: writeManifest(t, "modules:\n  - name: notes\n")},
	}

	_, manager, err := build(context.Background(), cfg, logger, engine, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"notes"}, manager.Names())
}

func TestBuild_UnknownManifestModule(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	engine, err := database.Open(context.Background(), database.Config{URL: "sqlite://", Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })

	cfg := &config.Config{
		Security: config.SecurityConfig{APIKey: "key"},
		Modules:  config.ModulesConfig{ManifestFile: writeManifest(t, "modules:\n  - name: notes\n  - name: ghost\n")},
	}

	_, manager, err := build(context.Background(), cfg, logger, engine, nil)
	var resolveErr *modules.ResolutionError
	require.ErrorAs(t, err, &resolveErr)
	assert.Equal(t, "ghost", resolveErr.Name)
	require.NotNil(t, manager)
	assert.Equal(t, modules.StateFailed, manager.State())
}
