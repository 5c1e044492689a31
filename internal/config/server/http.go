package server

// HTTPServerConfig configures the fiber listener.
type HTTPServerConfig struct {
	Address      string `mapstructure:"address"       yaml:"address"`
	BodyLimit    int    `mapstructure:"body_limit"    yaml:"body_limit"`
	ReadTimeout  string `mapstructure:"read_timeout"  yaml:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout" yaml:"write_timeout"`
}

// AuthServerConfig holds the HS256 secret operator tokens are signed with.
// The token subject is used as the owner id of every operator request.
type AuthServerConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"     yaml:"issuer"`
}
