package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"dataframe-gateway/internal/model"
)

var (
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
	ErrInvalidKeyLength  = errors.New("encryption key must be 32 bytes for AES-256")
)

// encryptedPrefix marks values sealed by the vault inside a source configuration
const encryptedPrefix = "enc:v1:"

// MaskPlaceholder replaces secret values in configurations returned to clients
const MaskPlaceholder = "******"

// secretKeys are the configuration keys whose values are sealed at rest
var secretKeys = map[string]bool{
	"password":     true,
	"clientSecret": true,
}

// credentialMaps hold request parameters whose entries are secret when
// their name looks like a credential
var credentialMaps = map[string]bool{
	"headers":    true,
	"queryParam": true,
}

// isSecret reports whether the value stored under key inside parent is sealed
func isSecret(parent, key string) bool {
	if secretKeys[key] {
		return true
	}
	if !credentialMaps[parent] {
		return false
	}
	name := strings.ToLower(key)
	return name == "authorization" ||
		strings.HasSuffix(name, "key") ||
		strings.Contains(name, "token") ||
		strings.Contains(name, "secret")
}

// CredentialVault handles encryption and decryption of credentials
type CredentialVault struct {
	masterKey []byte
}

// NewCredentialVault creates a new credential vault with the given master key
// The master key should be 32 bytes for AES-256-GCM
func NewCredentialVault(masterKey []byte) (*CredentialVault, error) {
	if len(masterKey) != 32 {
		return nil, ErrInvalidKeyLength
	}
	return &CredentialVault{masterKey: masterKey}, nil
}

// NewCredentialVaultFromPassphrase derives a 32-byte key from a configured passphrase
func NewCredentialVaultFromPassphrase(passphrase string) (*CredentialVault, error) {
	if passphrase == "" {
		return nil, ErrInvalidKeyLength
	}
	key := sha256.Sum256([]byte(passphrase))
	return NewCredentialVault(key[:])
}

// EncryptCredentials encrypts the credentials using AES-256-GCM
// Returns base64-encoded ciphertext
func (cv *CredentialVault) EncryptCredentials(plaintext []byte) (string, error) {
	gcm, err := cv.gcm()
	if err != nil {
		return "", err
	}

	// Generate a random nonce
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	// Encrypt and authenticate
	ciphertext := gcm.Seal(nonce, nonce, plaintext, nil)

	// Return base64-encoded (nonce || ciphertext)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// DecryptCredentials decrypts the base64-encoded ciphertext
func (cv *CredentialVault) DecryptCredentials(ciphertextB64 string) ([]byte, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(ciphertextB64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}

	gcm, err := cv.gcm()
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, ErrInvalidCiphertext
	}

	nonce, cipherText := ciphertext[:nonceSize], ciphertext[nonceSize:]

	plaintext, err := gcm.Open(nil, nonce, cipherText, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}

	return plaintext, nil
}

func (cv *CredentialVault) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(cv.masterKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// SealConfig returns a copy of config with every secret value encrypted.
// Values that are already sealed are left alone.
func (cv *CredentialVault) SealConfig(config model.SourceConfig) (model.SourceConfig, error) {
	out := config.Clone()
	err := walkSecrets(out, func(value string) (string, error) {
		if value == "" || strings.HasPrefix(value, encryptedPrefix) {
			return value, nil
		}
		sealed, err := cv.EncryptCredentials([]byte(value))
		if err != nil {
			return "", err
		}
		return encryptedPrefix + sealed, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// OpenConfig returns a copy of config with every sealed value decrypted
func (cv *CredentialVault) OpenConfig(config model.SourceConfig) (model.SourceConfig, error) {
	out := config.Clone()
	err := walkSecrets(out, func(value string) (string, error) {
		if !strings.HasPrefix(value, encryptedPrefix) {
			return value, nil
		}
		plain, err := cv.DecryptCredentials(strings.TrimPrefix(value, encryptedPrefix))
		if err != nil {
			return "", err
		}
		return string(plain), nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MaskConfig returns a copy of config with secret values replaced for display
func MaskConfig(config model.SourceConfig) model.SourceConfig {
	out := config.Clone()
	_ = walkSecrets(out, func(value string) (string, error) {
		if value == "" {
			return value, nil
		}
		return MaskPlaceholder, nil
	})
	return out
}

// RestoreMasked returns a copy of config where every secret still holding
// MaskPlaceholder takes the value stored at the same path in previous.
// Clients echo a fetched configuration back unchanged this way.
func RestoreMasked(config, previous model.SourceConfig) model.SourceConfig {
	out := config.Clone()
	restoreMasked(map[string]interface{}(out), map[string]interface{}(previous), "")
	return out
}

func restoreMasked(node, previous interface{}, parent string) {
	switch v := node.(type) {
	case map[string]interface{}:
		prev := asMap(previous)
		for key, inner := range v {
			if s, ok := inner.(string); ok && isSecret(parent, key) {
				if stored, ok := prev[key].(string); ok && s == MaskPlaceholder {
					v[key] = stored
				}
				continue
			}
			restoreMasked(inner, prev[key], key)
		}
	case []interface{}:
		prev, _ := previous.([]interface{})
		for i, inner := range v {
			var prevInner interface{}
			if i < len(prev) {
				prevInner = prev[i]
			}
			restoreMasked(inner, prevInner, parent)
		}
	}
}

func asMap(node interface{}) map[string]interface{} {
	switch v := node.(type) {
	case model.SourceConfig:
		return v
	case map[string]interface{}:
		return v
	}
	return nil
}

// walkSecrets rewrites every string stored under a secret key, at any depth
func walkSecrets(node interface{}, fn func(string) (string, error)) error {
	return walkNode(node, "", fn)
}

func walkNode(node interface{}, parent string, fn func(string) (string, error)) error {
	switch v := node.(type) {
	case model.SourceConfig:
		return walkNode(map[string]interface{}(v), parent, fn)
	case map[string]interface{}:
		for key, inner := range v {
			if s, ok := inner.(string); ok && isSecret(parent, key) {
				rewritten, err := fn(s)
				if err != nil {
					return fmt.Errorf("%s: %w", key, err)
				}
				v[key] = rewritten
				continue
			}
			if err := walkNode(inner, key, fn); err != nil {
				return err
			}
		}
	case []interface{}:
		for _, inner := range v {
			if err := walkNode(inner, parent, fn); err != nil {
				return err
			}
		}
	}
	return nil
}
