package config

import "strings"

type Cors struct{}

var _ CorsConfig = Cors{}

// GetAllowedOrigins reads ALLOWED_ORIGINS as a comma separated list. The
// default covers local web client development.
func (Cors) GetAllowedOrigins() []string {
	raw := GetEnv("ALLOWED_ORIGINS", "http://localhost:3000")
	origins := strings.Split(raw, ",")
	for i, origin := range origins {
		origins[i] = strings.TrimSpace(origin)
	}
	return origins
}

func (Cors) GetAllowedMethods() []string {
	return []string{"GET", "POST", "PUT", "PATCH", "DELETE"}
}

func (Cors) GetAllowedHeaders() []string {
	return []string{"Content-Type", "Authorization", "x-user-token", "x-session-token", "x-api-key"}
}
