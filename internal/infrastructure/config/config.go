package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=9622"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// TokenSecret signs session tokens. The default exists so a dev
	// checkout runs out of the box; production deployments must set it.
	TokenSecret string        `env:"TOKEN_SECRET, default=tenantgate-dev-secret"`
	TokenTTL    time.Duration `env:"TOKEN_TTL,    default=48h"`

	// APIKey is the static service key honored on X-API-Key. Empty
	// disables API-key identities.
	APIKey string `env:"API_KEY"`
	// AuthRequired rejects requests that resolve to no identity instead
	// of degrading them to anonymous.
	AuthRequired bool `env:"AUTH_REQUIRED, default=false"`
	// AuthAccounts seeds the user store on first run:
	// "user:pass,other@corp.com:pass".
	AuthAccounts string `env:"AUTH_ACCOUNTS"`

	UsersFile  string `env:"USERS_FILE,  default=./users.json"`
	WorkingDir string `env:"WORKING_DIR, default=./rag_storage"`
	// PersistOnLogin makes last_login durable on every successful
	// authentication instead of waiting for the next explicit save.
	PersistOnLogin bool `env:"PERSIST_ON_LOGIN, default=false"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
