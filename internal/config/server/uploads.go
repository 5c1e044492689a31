package server

type UploadsServerConfig struct {
	Directory    string   `mapstructure:"directory"     yaml:"directory"`
	MaxSize      int64    `mapstructure:"max_size"      yaml:"max_size"`
	AllowedTypes []string `mapstructure:"allowed_types" yaml:"allowed_types"`
}
