package backend

import (
	"fmt"

	"bankrecon/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.Ledger.Backend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.Ledger.Backend)
	}

	return Config{
		Type: backendType,

		GoogleServiceAccountJSON: appConfig.Google.ServiceAccountJSON,
		GoogleServiceAccountFile: appConfig.Google.ServiceAccountFile,
		GoogleOAuthClientFile:    appConfig.Google.OAuthClientFile,
		GoogleOAuthTokenFile:     appConfig.Google.OAuthTokenFile,
		MetadataTTL:              appConfig.Ledger.MetadataTTL,

		DataDirectory: appConfig.Ledger.DataDir,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SheetsBackend:
		hasServiceAccount := c.GoogleServiceAccountJSON != "" || c.GoogleServiceAccountFile != ""
		hasOAuth := c.GoogleOAuthClientFile != "" && c.GoogleOAuthTokenFile != ""
		if !hasServiceAccount && !hasOAuth {
			return fmt.Errorf("either a service account or an OAuth client and token file must be provided for sheets backend")
		}
	case MemoryBackend:
		// DataDirectory defaults to "data" if empty
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{SheetsBackend, MemoryBackend}
}
