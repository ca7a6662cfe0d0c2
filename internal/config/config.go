package config

type Config interface {
	EnvConfig
	CorsConfig
	BackendConfig
	AuthConfig
	SecurityConfig
}

type mainConfig struct {
	EnvVars
	Cors
	Backend
	Auth
	Security
}

func New() Config {
	return mainConfig{}
}
