package config

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/hex"
	"regexp"
	"strings"

	"go.trai.ch/canarist/internal/core/domain"
	"go.trai.ch/zerr"
)

const encryptedPrefix = "enc:"

var keyPattern = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

// Env reads and clears process environment variables.
type Env interface {
	Getenv(key string) string
	Unsetenv(key string) error
}

// decryptURL returns the plain URL for an "enc:" prefixed value.
//
// The value is the base64 encoding of the URL encrypted with AES-256-CBC, a
// zero IV and PKCS#7 padding. The key is read from CANARIST_ENCRYPTION_KEY,
// which is removed from the environment once read.
func decryptURL(env Env, input string) (string, error) {
	encoded, ok := strings.CutPrefix(input, encryptedPrefix)
	if !ok {
		return input, nil
	}

	keyString := env.Getenv(domain.EncryptionKeyEnv)
	if !keyPattern.MatchString(keyString) {
		return "", domain.ErrInvalidEncryptionKey
	}
	key, err := hex.DecodeString(keyString)
	if err != nil {
		return "", zerr.Wrap(err, domain.ErrInvalidEncryptionKey.Error())
	}
	if err := env.Unsetenv(domain.EncryptionKeyEnv); err != nil {
		return "", zerr.Wrap(err, "failed to unset encryption key")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", zerr.Wrap(err, domain.ErrDecryptFailed.Error())
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", zerr.With(domain.ErrDecryptFailed, "reason", "ciphertext is not a multiple of the block size")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", zerr.Wrap(err, domain.ErrDecryptFailed.Error())
	}
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, make([]byte, aes.BlockSize)).CryptBlocks(plaintext, ciphertext)

	plaintext, err = unpad(plaintext)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

func unpad(b []byte) ([]byte, error) {
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize || n > len(b) {
		return nil, zerr.With(domain.ErrDecryptFailed, "reason", "bad padding")
	}
	if !bytes.Equal(b[len(b)-n:], bytes.Repeat([]byte{byte(n)}, n)) {
		return nil, zerr.With(domain.ErrDecryptFailed, "reason", "bad padding")
	}
	return b[:len(b)-n], nil
}
