package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	envFiles    = []string{".env", ".env.local"}
	configPaths = []string{".", "./config", "/etc/goforms", "$HOME/.goforms"}
)

// loadEnvFiles loads .env files from dir. Missing files are ignored.
func loadEnvFiles(dir string) {
	for _, envFile := range envFiles {
		godotenv.Load(filepath.Join(os.ExpandEnv(dir), envFile))
	}
}

func initConfig(path string) error {
	loadEnvFiles(".")

	if path != "" {
		viper.SetConfigFile(path)
		loadEnvFiles(filepath.Dir(path))
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		for _, configPath := range configPaths {
			viper.AddConfigPath(configPath)
			loadEnvFiles(configPath)
		}
	}

	// GOFORMS_HTTP_ADDRESS overrides http.address
	viper.SetEnvPrefix("GOFORMS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}
