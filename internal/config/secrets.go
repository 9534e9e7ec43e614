package config

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const keyringService = "sitewisedb"

// SavePassword stores the password of a connection profile in the OS keyring.
func SavePassword(connection, password string) error {
	if err := keyring.Set(keyringService, connection, password); err != nil {
		return fmt.Errorf("save password for %s: %w", connection, err)
	}
	return nil
}

// LoadPassword returns the stored password of a connection profile.
// A missing entry yields an empty password.
func LoadPassword(connection string) (string, error) {
	secret, err := keyring.Get(keyringService, connection)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("load password for %s: %w", connection, err)
	}
	return secret, nil
}

// DeletePassword removes the stored password of a connection profile.
func DeletePassword(connection string) error {
	if err := keyring.Delete(keyringService, connection); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("delete password for %s: %w", connection, err)
	}
	return nil
}

// WithPassword returns conn with its password filled in from the keyring.
func WithPassword(conn Connection) (Connection, error) {
	if conn.Password != "" {
		return conn, nil
	}
	secret, err := LoadPassword(conn.Name)
	if err != nil {
		return conn, err
	}
	conn.Password = secret
	return conn, nil
}
