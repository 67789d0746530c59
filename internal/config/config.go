package config

import "github.com/caarlos0/env/v11"

// Config aggregates every process-level setting, loaded from the
// environment once at startup.
type Config struct {
	Server ServerConfig
	Mongo  MongoConfig
	Token  TokenConfig
	Audit  AuditConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string `env:"SERVER_PORT"             envDefault:"8080"`
	ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT_SECONDS" envDefault:"10"`
}

// MongoConfig holds database connection settings.
type MongoConfig struct {
	URI      string `env:"MONGO_URI,required"`
	Database string `env:"MONGO_DATABASE" envDefault:"learnhub"`
}

// TokenConfig holds the provider token verification settings. The secret is
// the provider's shared signing secret; tokens are verified offline against
// it, never against the provider over the network.
type TokenConfig struct {
	Secret   string `env:"TOKEN_SECRET,required"`
	Issuer   string `env:"TOKEN_ISSUER"`
	Audience string `env:"TOKEN_AUDIENCE" envDefault:"authenticated"`
}

// AuditConfig controls where audit events go besides the structured log.
type AuditConfig struct {
	Persist bool `env:"AUDIT_PERSIST" envDefault:"false"`
}

// Load parses the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
