package server

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServerConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := LoadServerConfig()
	require.NoError(t, err)

	assert.Equal(t, "10s", cfg.ShutdownTimeout)
	assert.Equal(t, MetadataTypeSQLite, cfg.Metadata.Type)
	assert.Equal(t, int64(2*1024*1024), cfg.Uploads.MaxSize)
	assert.ElementsMatch(t, []string{"image/png", "image/jpeg", "image/webp", "video/mp4"}, cfg.Uploads.AllowedTypes)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
}

func TestLoadServerConfig_Overrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("metadata.type", "postgres")
	viper.Set("metadata.postgres.dsn", "host=localhost dbname=forms")
	viper.Set("uploads.max_size", 1024)

	cfg, err := LoadServerConfig()
	require.NoError(t, err)

	assert.Equal(t, MetadataTypePostgres, cfg.Metadata.Type)
	assert.Equal(t, "host=localhost dbname=forms", cfg.Metadata.Postgres.DSN)
	assert.Equal(t, int64(1024), cfg.Uploads.MaxSize)
}

func TestValidate(t *testing.T) {
	t.Run("unknown metadata type", func(t *testing.T) {
		cfg := GetServerDefault()
		cfg.Metadata.Type = "mysql"
		assert.Error(t, cfg.Validate())
	})

	t.Run("postgres without dsn", func(t *testing.T) {
		cfg := GetServerDefault()
		cfg.Metadata.Type = MetadataTypePostgres
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad shutdown timeout", func(t *testing.T) {
		cfg := GetServerDefault()
		cfg.ShutdownTimeout = "soon"
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero upload size", func(t *testing.T) {
		cfg := GetServerDefault()
		cfg.Uploads.MaxSize = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("defaults are valid", func(t *testing.T) {
		cfg := GetServerDefault()
		assert.NoError(t, cfg.Validate())
	})
}
