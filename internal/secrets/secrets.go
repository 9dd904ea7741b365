// Package secrets reads API tokens from the OS keychain when the environment
// does not provide them.
package secrets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService groups the engine's entries in the OS keychain.
const KeyringService = "engage-engine"

// Names lists the secrets that may live in the keychain.
var Names = []string{"OPENAI_API_KEY", "CHATWORK_TOKEN", "INSTANT_LINE_ACCESS_TOKEN"}

func known(name string) bool {
	for _, n := range Names {
		if n == name {
			return true
		}
	}
	return false
}

// Get returns the keychain entry for name, or "" when there is none.
func Get(name string) (string, error) {
	v, err := keyring.Get(KeyringService, name)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("keyring get %s: %w", name, err)
	}
	return strings.TrimSpace(v), nil
}

func Set(name, value string) error {
	if !known(name) {
		return fmt.Errorf("unknown secret %q (want one of %s)", name, strings.Join(Names, ", "))
	}
	if strings.TrimSpace(value) == "" {
		return errors.New("secret value is empty")
	}
	return keyring.Set(KeyringService, name, value)
}

func Delete(name string) error {
	if !known(name) {
		return fmt.Errorf("unknown secret %q", name)
	}
	if err := keyring.Delete(KeyringService, name); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}

// Fill replaces each empty value in vals (keyed by secret name) with its
// keychain entry. A keychain that cannot be reached leaves values empty.
func Fill(vals map[string]*string) error {
	var errs []error
	for name, p := range vals {
		if p == nil || strings.TrimSpace(*p) != "" {
			continue
		}
		v, err := Get(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		*p = v
	}
	return errors.Join(errs...)
}
