package server

const (
	MetadataTypeSQLite   = "sqlite"
	MetadataTypePostgres = "postgres"
)

// MetadataServerConfig selects and configures the relational form store
type MetadataServerConfig struct {
	Type     string                 `mapstructure:"type"     yaml:"type"`
	SQLite   MetadataSQLiteConfig   `mapstructure:"sqlite"   yaml:"sqlite"`
	Postgres MetadataPostgresConfig `mapstructure:"postgres" yaml:"postgres"`
}

type MetadataSQLiteConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type MetadataPostgresConfig struct {
	DSN          string `mapstructure:"dsn"            yaml:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
}
