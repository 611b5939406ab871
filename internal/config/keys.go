package config

import "os"

// CredentialStatus reports whether a provider credential is available in
// the environment.
type CredentialStatus struct {
	Provider string `json:"provider"`
	Name     string `json:"name"`
	EnvVar   string `json:"env_var"`
	IsSet    bool   `json:"is_set"`
	Masked   string `json:"masked,omitempty"` // e.g., "abc...xyz"
}

// CheckEnvCredential inspects a single environment-backed credential.
func CheckEnvCredential(providerName, name, envVar string) CredentialStatus {
	status := CredentialStatus{
		Provider: providerName,
		Name:     name,
		EnvVar:   envVar,
	}

	value := os.Getenv(envVar)
	if value != "" {
		status.IsSet = true
		status.Masked = maskKey(value)
	}
	return status
}

// maskKey abbreviates a credential to its first and last three
// characters. Keys too short to mask safely are hidden outright.
func maskKey(key string) string {
	const edge = 3
	if len(key) <= 2*edge+2 {
		return "***"
	}
	return key[:edge] + "..." + key[len(key)-edge:]
}
