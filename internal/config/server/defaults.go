package server

import "github.com/spf13/viper"

func GetServerDefault() BaseServerConfig {
	return BaseServerConfig{
		ShutdownTimeout: "10s",

		Log: LogServerConfig{
			Level:      "INFO",
			TimeFormat: "2006-01-02 15:04:05",
			File:       "",
			NoColor:    false,
			JSON:       false,
			NoTerminal: false,
			Rotation: LogServerRotationConfig{
				MaxSize:    128,
				MaxBackups: 5,
				MaxAge:     16,
				Compress:   false,
			},
		},

		Metadata: MetadataServerConfig{
			Type: MetadataTypeSQLite,
			SQLite: MetadataSQLiteConfig{
				Path: "./data/goforms.db",
			},
			Postgres: MetadataPostgresConfig{
				DSN:          "",
				MaxOpenConns: 10,
				MaxIdleConns: 2,
			},
		},

		HTTP: HTTPServerConfig{
			Address:      ":8080",
			BodyLimit:    16 * 1024 * 1024,
			ReadTimeout:  "15s",
			WriteTimeout: "15s",
		},

		Uploads: UploadsServerConfig{
			Directory: "./data/uploads",
			MaxSize:   2 * 1024 * 1024,
			AllowedTypes: []string{
				"image/png",
				"image/jpeg",
				"image/webp",
				"video/mp4",
			},
		},

		Auth: AuthServerConfig{
			JWTSecret: "",
			Issuer:    "goforms",
		},
	}
}

func setDefaults() {
	defaults := GetServerDefault()

	viper.SetDefault("shutdown_timeout", defaults.ShutdownTimeout)

	viper.SetDefault("log.level", defaults.Log.Level)
	viper.SetDefault("log.time_format", defaults.Log.TimeFormat)
	viper.SetDefault("log.file", defaults.Log.File)
	viper.SetDefault("log.no_color", defaults.Log.NoColor)
	viper.SetDefault("log.json", defaults.Log.JSON)
	viper.SetDefault("log.no_terminal", defaults.Log.NoTerminal)
	viper.SetDefault("log.rotation.max_size", defaults.Log.Rotation.MaxSize)
	viper.SetDefault("log.rotation.max_backups", defaults.Log.Rotation.MaxBackups)
	viper.SetDefault("log.rotation.max_age", defaults.Log.Rotation.MaxAge)
	viper.SetDefault("log.rotation.compress", defaults.Log.Rotation.Compress)

	viper.SetDefault("metadata.type", defaults.Metadata.Type)
	viper.SetDefault("metadata.sqlite.path", defaults.Metadata.SQLite.Path)
	viper.SetDefault("metadata.postgres.dsn", defaults.Metadata.Postgres.DSN)
	viper.SetDefault("metadata.postgres.max_open_conns", defaults.Metadata.Postgres.MaxOpenConns)
	viper.SetDefault("metadata.postgres.max_idle_conns", defaults.Metadata.Postgres.MaxIdleConns)

	viper.SetDefault("http.address", defaults.HTTP.Address)
	viper.SetDefault("http.body_limit", defaults.HTTP.BodyLimit)
	viper.SetDefault("http.read_timeout", defaults.HTTP.ReadTimeout)
	viper.SetDefault("http.write_timeout", defaults.HTTP.WriteTimeout)

	viper.SetDefault("uploads.directory", defaults.Uploads.Directory)
	viper.SetDefault("uploads.max_size", defaults.Uploads.MaxSize)
	viper.SetDefault("uploads.allowed_types", defaults.Uploads.AllowedTypes)

	viper.SetDefault("auth.jwt_secret", defaults.Auth.JWTSecret)
	viper.SetDefault("auth.issuer", defaults.Auth.Issuer)
}
