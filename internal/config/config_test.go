package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.ServicePort)
	assert.Equal(t, "file_manager", cfg.DBDatabase)
	assert.Equal(t, "local", cfg.StorageBackend)
	assert.Equal(t, "/tmp/files_manager", cfg.FolderPath)
	assert.Equal(t, 1, cfg.WorkerConcurrency)
	assert.Equal(t, 0, cfg.RedisDB)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("STORAGE_BACKEND", "minio")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("FOLDER_PATH", "/srv/content")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.ServicePort)
	assert.Equal(t, "db.internal", cfg.DBHost)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, "minio", cfg.StorageBackend)
	assert.True(t, cfg.MinIOUseSSL)
	assert.Equal(t, "/srv/content", cfg.FolderPath)
}

func TestGetDSN(t *testing.T) {
	cfg := &Config{
		DBUser:     "app",
		DBPassword: "pw",
		DBHost:     "localhost",
		DBPort:     "3306",
		DBDatabase: "file_manager",
	}
	assert.Equal(t,
		"app:pw@tcp(localhost:3306)/file_manager?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.GetDSN())
}

func TestGetRedisAddr(t *testing.T) {
	cfg := &Config{RedisHost: "cache", RedisPort: "6380"}
	assert.Equal(t, "cache:6380", cfg.GetRedisAddr())
}

func TestGetEnvAsBoolInvalid(t *testing.T) {
	t.Setenv("MINIO_USE_SSL", "definitely")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.False(t, cfg.MinIOUseSSL)
}
