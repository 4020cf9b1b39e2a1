package config

import "os"

// CredentialSource represents where a credential comes from.
type CredentialSource string

const (
	SourceEnv    CredentialSource = "env"
	SourceConfig CredentialSource = "config"
	SourceNone   CredentialSource = "none"
)

// CredentialStatus represents the status of a configured credential.
type CredentialStatus struct {
	Name   string           `json:"name"`
	EnvVar string           `json:"env_var"`
	Source CredentialSource `json:"source"`
	IsSet  bool             `json:"is_set"`
	Masked string           `json:"masked,omitempty"` // e.g., "Jan...com"
}

// CheckCredentials returns the status of the identities the SEC requires.
func CheckCredentials(cfg *Config) []CredentialStatus {
	return []CredentialStatus{
		checkCredential("SEC User-Agent", cfg.SEC.UserAgent, EnvPrefix+"_SEC_USER_AGENT"),
	}
}

// checkCredential checks if a value is set and where it came from.
func checkCredential(name, value, envVar string) CredentialStatus {
	status := CredentialStatus{
		Name:   name,
		EnvVar: envVar,
		IsSet:  value != "",
	}

	if value != "" {
		if os.Getenv(envVar) != "" {
			status.Source = SourceEnv
		} else {
			status.Source = SourceConfig
		}
		status.Masked = maskValue(value)
	} else {
		status.Source = SourceNone
	}

	return status
}

// maskValue masks a value for display, showing only first 3 and last 3 chars.
func maskValue(v string) string {
	if len(v) <= 8 {
		return "***"
	}
	return v[:3] + "..." + v[len(v)-3:]
}
