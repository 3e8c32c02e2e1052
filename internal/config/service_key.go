package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// serviceKey mirrors the JSON layout of an SAP BTP service key for the
// Document Information Extraction service.
type serviceKey struct {
	URL     string `json:"url"`
	RestURL string `json:"resturl"`
	UAA     struct {
		URL          string `json:"url"`
		ClientID     string `json:"clientid"`
		ClientSecret string `json:"clientsecret"`
	} `json:"uaa"`
}

// loadServiceKey reads the service key file and fills in any credential
// fields not already set by the environment. The file is searched relative
// to the working directory and one level up, matching common deployment
// layouts where the key sits next to the binary or in the repo root.
func (c *DocumentAIConfig) loadServiceKey() error {
	if c.ServiceKeyPath == "" {
		return nil
	}

	paths := []string{
		c.ServiceKeyPath,
		filepath.Join("..", c.ServiceKeyPath),
	}

	var data []byte
	var err error
	for _, p := range paths {
		data, err = os.ReadFile(p)
		if err == nil {
			break
		}
	}
	if err != nil {
		// No service key file. Not an error unless the env vars are
		// also absent, which Configured() will report.
		return nil
	}

	var key serviceKey
	if err := json.Unmarshal(data, &key); err != nil {
		return fmt.Errorf("failed to parse service key %s: %w", c.ServiceKeyPath, err)
	}

	if c.UAAURL == "" {
		c.UAAURL = key.UAA.URL
	}
	if c.ClientID == "" {
		c.ClientID = key.UAA.ClientID
	}
	if c.ClientSecret == "" {
		c.ClientSecret = key.UAA.ClientSecret
	}
	if c.BaseURL == "" {
		c.BaseURL = key.URL
	}
	// Like the credential fields, the key only fills the API path when the
	// operator has not set one; the default counts as unset.
	if key.RestURL != "" && (c.APIPath == "" || c.APIPath == defaultAPIPath) {
		c.APIPath = key.RestURL
	}

	return nil
}
