package config

import "strings"

type CorsConfig interface {
	GetAllowedOrigins() []string
}

type Cors struct{}

var _ CorsConfig = Cors{}

// GetAllowedOrigins returns the origins permitted to call the API.
// Comma-separated in CORS_ORIGINS; defaults to the local web frontend.
func (Cors) GetAllowedOrigins() []string {
	raw := GetEnv("CORS_ORIGINS", "http://localhost:3000")
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
