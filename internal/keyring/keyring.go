// Package keyring stores cmucal secrets in the OS keyring: the Clerk user id
// and the PostgreSQL connection string.
package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/cmucal/internal/constants"
)

var (
	// ErrNotFound is returned when no credentials are found in the keyring
	ErrNotFound = errors.New("credentials not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

func get(item string) (string, error) {
	v, err := keyring.Get(constants.AppName, item)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return v, nil
}

func set(item, what, value string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", what)
	}
	if err := keyring.Set(constants.AppName, item, value); err != nil {
		return fmt.Errorf("failed to store %s in keyring: %w", what, err)
	}
	return nil
}

func del(item, what string) error {
	if err := keyring.Delete(constants.AppName, item); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete %s from keyring: %w", what, err)
	}
	return nil
}

// GetUserID returns the Clerk user id saved by `cmucal login`.
func GetUserID() (string, error) { return get(constants.UserIDKeyringUser) }

func SetUserID(userID string) error {
	return set(constants.UserIDKeyringUser, "user id", userID)
}

func DeleteUserID() error { return del(constants.UserIDKeyringUser, "user id") }

// GetConnectionString returns the PostgreSQL connection string, which may
// carry a password and therefore never lives in the config file.
func GetConnectionString() (string, error) { return get(constants.DefaultKeyringUser) }

func SetConnectionString(connStr string) error {
	return set(constants.DefaultKeyringUser, "connection string", connStr)
}

func DeleteConnectionString() error {
	return del(constants.DefaultKeyringUser, "connection string")
}

// IsAvailable reports whether the OS keyring answers a read.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
