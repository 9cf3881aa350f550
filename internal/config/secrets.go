package config

import (
	"fmt"
	"os"
	"strings"
)

// ResolveSecret reads a secret using the *_FILE convention.
// If envName+"_FILE" is set its file content wins, otherwise the value of
// envName is returned. Unset secrets resolve to "".
func ResolveSecret(envName string) (string, error) {
	fileEnv := envName + "_FILE"
	if filePath := os.Getenv(fileEnv); filePath != "" {
		content, err := os.ReadFile(filePath)
		if err != nil {
			return "", fmt.Errorf("failed to read secret from %s=%s: %w", fileEnv, filePath, err)
		}
		return strings.TrimSpace(string(content)), nil
	}
	return os.Getenv(envName), nil
}

// Credentials holds the basic auth accounts for the HTTP API.
type Credentials struct {
	AdminUser  string
	AdminPass  string
	PlayerUser string
	PlayerPass string
}

// Enabled returns true if admin credentials are set. Without them the API
// runs open.
func (c Credentials) Enabled() bool {
	return c.AdminUser != "" && c.AdminPass != ""
}

// LoadCredentials resolves DECISIONSIM_ADMIN_USER, DECISIONSIM_ADMIN_PASS,
// DECISIONSIM_PLAYER_USER and DECISIONSIM_PLAYER_PASS, each with *_FILE support.
func LoadCredentials() (Credentials, error) {
	var c Credentials
	targets := []struct {
		name string
		dst  *string
	}{
		{EnvPrefix + "ADMIN_USER", &c.AdminUser},
		{EnvPrefix + "ADMIN_PASS", &c.AdminPass},
		{EnvPrefix + "PLAYER_USER", &c.PlayerUser},
		{EnvPrefix + "PLAYER_PASS", &c.PlayerPass},
	}
	for _, tgt := range targets {
		v, err := ResolveSecret(tgt.name)
		if err != nil {
			return Credentials{}, err
		}
		*tgt.dst = v
	}
	return c, nil
}
