package agent

// In this file: environment configuration for the LLM side of the agent.

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// ErrNoAPIKey is returned when no OPENAI_API_KEY is configured.
var ErrNoAPIKey = errors.New("OPENAI_API_KEY is not set; add it to .env or the environment")

// Env is the chat-model configuration the agent reads from .env and the
// process environment.
type Env struct {
	APIKey  string
	BaseURL string
	Model   string
}

// LoadEnv loads a .env file (if it exists) and reads the agent's
// configuration. The API key is mandatory; base URL and model are
// optional overrides.
func LoadEnv(dotenvPath string) (*Env, error) {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("loading %s: %w", dotenvPath, err)
		}
	}

	e := &Env{
		APIKey:  os.Getenv("OPENAI_API_KEY"),
		BaseURL: os.Getenv("BASE_URL"),
		Model:   os.Getenv("MODEL"),
	}
	if e.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	return e, nil
}
