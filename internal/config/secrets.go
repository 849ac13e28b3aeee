package config

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/zalando/go-keyring"
)

// SubmitToken returns the bearer token used by the HTTP submitter.
// A token that was never stored yields an empty string and no error.
func SubmitToken() (string, error) {
	token, err := keyring.Get(KeyringService, KeyringTokenUser)
	if errors.Is(err, keyring.ErrNotFound) {
		slog.Debug(MsgTokenMissing, LogKeyComponent, CompConfig)
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", ErrKeyring, err)
	}
	return token, nil
}

// SetSubmitToken stores the token in the keyring. An empty token removes it.
func SetSubmitToken(token string) error {
	if token == "" {
		err := keyring.Delete(KeyringService, KeyringTokenUser)
		if err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("%s: %w", ErrKeyring, err)
		}
		return nil
	}
	if err := keyring.Set(KeyringService, KeyringTokenUser, token); err != nil {
		return fmt.Errorf("%s: %w", ErrKeyring, err)
	}
	return nil
}
