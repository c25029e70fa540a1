package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("BOOKMEND_CONFIG_FILE", "/nonexistent/config.yaml")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "/mnt/ext1/system/explorer-3/explorer-3.db", cfg.DatabaseFilePath)
	assert.Equal(t, 5, cfg.DatabaseConnectRetryCount)
	assert.Equal(t, 2*time.Second, cfg.DatabaseConnectRetryDelay)
	assert.Equal(t, 5*time.Second, cfg.DatabaseBusyTimeout)
	assert.Equal(t, 3, cfg.DatabaseMaxRetries)
	assert.False(t, cfg.DatabaseDebug)
	assert.Equal(t, 1, cfg.StorageID)
	assert.Equal(t, "epub", cfg.BookExtension)
	assert.Equal(t, []string{"/mnt/ext1/Digital Editions"}, cfg.DRMFolders)
	assert.Equal(t, 1, cfg.ParseWorkers)
	assert.False(t, cfg.DryRun)
	assert.False(t, cfg.FillMissingSortKeys)
	assert.Equal(t, "/ebrmain/bin/dialog", cfg.DialogPath)
	assert.Equal(t, DialogAuto, cfg.UseDialog)
	assert.Equal(t, ReportText, cfg.ReportFormat)
}

func TestNew_WithEnvVar(t *testing.T) {
	t.Setenv("BOOKMEND_CONFIG_FILE", "/nonexistent/config.yaml")
	t.Setenv("BOOKMEND_DATABASE_FILE_PATH", "  /tmp/test.db ")
	t.Setenv("BOOKMEND_PARSE_WORKERS", "4")
	t.Setenv("BOOKMEND_DRY_RUN", "true")
	t.Setenv("BOOKMEND_DRM_FOLDERS", "/mnt/ext1/Digital Editions:/mnt/ext1/Vault")
	t.Setenv("BOOKMEND_BOOK_EXTENSION", "EPUB")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/test.db", cfg.DatabaseFilePath)
	assert.Equal(t, 4, cfg.ParseWorkers)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, []string{"/mnt/ext1/Digital Editions", "/mnt/ext1/Vault"}, cfg.DRMFolders)
	assert.Equal(t, "epub", cfg.BookExtension)
}

func TestNew_WithConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
database_file_path: /data/explorer-3.db
database_debug: true
database_connect_retry_delay: 500ms
storage_id: 2
drm_folders:
  - /mnt/ext1/Digital Editions
  - /mnt/ext2/Digital Editions
report_format: json
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	t.Setenv("BOOKMEND_CONFIG_FILE", configPath)

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "/data/explorer-3.db", cfg.DatabaseFilePath)
	assert.True(t, cfg.DatabaseDebug)
	assert.Equal(t, 500*time.Millisecond, cfg.DatabaseConnectRetryDelay)
	assert.Equal(t, 2, cfg.StorageID)
	assert.Equal(t, []string{"/mnt/ext1/Digital Editions", "/mnt/ext2/Digital Editions"}, cfg.DRMFolders)
	assert.Equal(t, ReportJSON, cfg.ReportFormat)
}

func TestNew_EnvVarOverridesConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
database_file_path: /data/from-file.db
parse_workers: 2
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	t.Setenv("BOOKMEND_CONFIG_FILE", configPath)
	t.Setenv("BOOKMEND_DATABASE_FILE_PATH", "/data/from-env.db")
	t.Setenv("BOOKMEND_PARSE_WORKERS", "3")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "/data/from-env.db", cfg.DatabaseFilePath)
	assert.Equal(t, 3, cfg.ParseWorkers)
}

func TestNew_RequiredFieldMissing(t *testing.T) {
	t.Setenv("BOOKMEND_CONFIG_FILE", "/nonexistent/config.yaml")
	t.Setenv("BOOKMEND_DATABASE_FILE_PATH", "   ")

	cfg, err := New()
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required config")
	assert.Contains(t, err.Error(), "BOOKMEND_DATABASE_FILE_PATH")
	assert.Contains(t, err.Error(), "database_file_path")
}

func TestNew_InvalidValue(t *testing.T) {
	t.Setenv("BOOKMEND_CONFIG_FILE", "/nonexistent/config.yaml")
	t.Setenv("BOOKMEND_REPORT_FORMAT", "xml")

	_, err := New()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report_format")
	assert.Contains(t, err.Error(), "BOOKMEND_REPORT_FORMAT")
}

func TestNew_BrokenConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("database_file_path: [unterminated"), 0644))
	t.Setenv("BOOKMEND_CONFIG_FILE", configPath)

	_, err := New()
	require.Error(t, err)
	assert.Contains(t, err.Error(), configPath)
}

func TestNewForTest(t *testing.T) {
	cfg := NewForTest()
	assert.Equal(t, ":memory:", cfg.DatabaseFilePath)
	assert.Equal(t, 1, cfg.DatabaseConnectRetryCount)
	assert.Equal(t, "epub", cfg.BookExtension)
	assert.False(t, cfg.DialogEnabled())
}

func TestDialogEnabled(t *testing.T) {
	assert.True(t, (&Config{UseDialog: DialogAlways}).DialogEnabled())
	assert.False(t, (&Config{UseDialog: DialogNever}).DialogEnabled())
}

func TestToSnakeCase(t *testing.T) {
	assert.Equal(t, "database_file_path", toSnakeCase("DatabaseFilePath"))
	assert.Equal(t, "drm_folders", toSnakeCase("DRMFolders"))
	assert.Equal(t, "storage_id", toSnakeCase("StorageID"))
}
