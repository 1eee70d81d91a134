package wallet

import (
	"fmt"
	"os"
	"strings"
)

// SignerConfig describes where the mnemonic lives and how to derive the key.
type SignerConfig struct {
	// MnemonicSource is env:NAME or file:PATH. Inline mnemonics are not accepted.
	MnemonicSource string
	Passphrase     string
	HDPath         string
	Prefix         string
}

// ReadSecret resolves an env:NAME or file:PATH reference.
func ReadSecret(source string) (string, error) {
	scheme, ref, ok := strings.Cut(strings.TrimSpace(source), ":")
	if !ok || ref == "" {
		return "", fmt.Errorf("secret source must be env:NAME or file:PATH")
	}

	switch scheme {
	case "env":
		value, ok := os.LookupEnv(ref)
		if !ok || strings.TrimSpace(value) == "" {
			return "", fmt.Errorf("secret env %s is not set", ref)
		}
		return strings.TrimSpace(value), nil
	case "file":
		data, err := os.ReadFile(ref)
		if err != nil {
			return "", fmt.Errorf("read secret file: %w", err)
		}
		defer zero(data)
		value := strings.TrimSpace(string(data))
		if value == "" {
			return "", fmt.Errorf("secret file %s is empty", ref)
		}
		return value, nil
	default:
		return "", fmt.Errorf("unsupported secret scheme %q", scheme)
	}
}

// Open acquires the mnemonic and derives the signing key. Callers must Close the key.
func Open(cfg SignerConfig) (*Key, error) {
	mnemonic, err := ReadSecret(cfg.MnemonicSource)
	if err != nil {
		return nil, err
	}
	return FromMnemonic(mnemonic, cfg.Passphrase, cfg.HDPath, cfg.Prefix)
}
