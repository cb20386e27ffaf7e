package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService groups this app's secrets in the OS keychain.
const KeyringService = "jobpress"

// Get resolves a secret: OS keychain first, then the env fallback. Account
// names look like "jobpress:wordpress:user@host".
func Get(account, envFallback string) (string, error) {
	if strings.TrimSpace(account) != "" {
		pw, err := keyring.Get(KeyringService, account)
		if err == nil && strings.TrimSpace(pw) != "" {
			return pw, nil
		}
	}
	if envFallback != "" {
		if v := strings.TrimSpace(os.Getenv(envFallback)); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("secret %q not found (set it in the keychain or via %s)", account, envFallback)
}

func Set(account, value string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(value) == "" {
		return errors.New("secret value is empty")
	}
	return keyring.Set(KeyringService, account, value)
}

func Delete(account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, account)
}

// WordPressAccount names the keychain entry for a publish credential pair.
func WordPressAccount(user, apiURL string) string {
	return fmt.Sprintf("jobpress:wordpress:%s@%s", user, apiURL)
}

// IMAPAccount names the keychain entry for an email-alert source.
func IMAPAccount(username, host string) string {
	return fmt.Sprintf("jobpress:imap:%s@%s", username, host)
}
