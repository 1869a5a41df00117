package config

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	keychainService = "lango"
	tokenAccount    = "api_token"
)

// Keychain abstracts the platform secret store so tests can swap in a fake.
type Keychain interface {
	Get(service, account string) ([]byte, error)
	Set(service, account, value string) error
}

type platformKeychain struct{}

func (platformKeychain) Get(service, account string) ([]byte, error) {
	return keychainGet(service, account)
}

func (platformKeychain) Set(service, account, value string) error {
	return keychainSet(service, account, value)
}

func NewKeychain() Keychain {
	return platformKeychain{}
}

// GetAPIToken returns the API bearer token, generating and storing a new
// one on first use.
func GetAPIToken(kc Keychain) (string, error) {
	if data, err := kc.Get(keychainService, tokenAccount); err == nil {
		token := strings.TrimSpace(string(data))
		if token != "" {
			return token, nil
		}
	}

	token := uuid.NewString()
	if err := kc.Set(keychainService, tokenAccount, token); err != nil {
		return "", fmt.Errorf("storing API token: %w", err)
	}
	return token, nil
}
