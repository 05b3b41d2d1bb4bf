package protocol

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// GogoGate2Key is the AES key shared by every GogoGate2 hub.
	GogoGate2Key = "0e3b7%i1X9@54cAf"

	// tokenSuffix is appended to the lowercased username before hashing
	tokenSuffix = "@ismartgate"

	blockSize = aes.BlockSize
)

// lowerUsername lowercases with the full Unicode mappings the hub firmware
// applies (final sigma, dotted capital I), not the simple per-rune mapping.
func lowerUsername(username string) string {
	return cases.Lower(language.Und).String(username)
}

// DeriveToken returns the iSmartGate request token for a username.
// The hub lowercases usernames itself, so the token does too.
func DeriveToken(username string) string {
	sum := sha1.Sum([]byte(lowerUsername(username) + tokenSuffix))
	return hex.EncodeToString(sum[:])
}

// DeriveKey returns the iSmartGate AES key for a username and password.
func DeriveKey(username, password string) string {
	sum := sha1.Sum([]byte(lowerUsername(username) + password))
	h := hex.EncodeToString(sum[:])
	return h[32:36] + "a" + h[7:10] + "!" + h[18:21] + "*#" + h[24:26]
}

// NewIV returns a fresh random IV string.
func NewIV() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Cipher encrypts commands and decrypts responses for one key.
// It holds no mutable state and is safe for concurrent use.
type Cipher struct {
	block cipher.Block
}

// NewCipher creates a cipher for a 16 byte ASCII key.
func NewCipher(key string) (*Cipher, error) {
	if len(key) != blockSize {
		return nil, fmt.Errorf("cipher key must be %d bytes, got %d", blockSize, len(key))
	}
	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	return &Cipher{block: block}, nil
}

// Encrypt returns the wire form of plaintext: the IV followed by the base64
// ciphertext. The IV string is padded like the plaintext and cut to one
// block, so any string (including a 32 character hex IV) is accepted.
func (c *Cipher) Encrypt(plaintext, iv string) string {
	ivBytes := pkcs7Pad([]byte(iv), blockSize)[:blockSize]
	padded := pkcs7Pad([]byte(plaintext), blockSize)

	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, ivBytes).CryptBlocks(out, padded)

	return string(ivBytes) + base64.StdEncoding.EncodeToString(out)
}

// Decrypt reverses Encrypt. Every failure wraps ErrDecrypt.
func (c *Cipher) Decrypt(wire string) (string, error) {
	wire = strings.TrimSpace(wire)
	if len(wire) <= blockSize {
		return "", fmt.Errorf("%w: body too short (%d bytes)", ErrDecrypt, len(wire))
	}

	iv := []byte(wire[:blockSize])
	ciphertext, err := base64.StdEncoding.DecodeString(wire[blockSize:])
	if err != nil {
		return "", fmt.Errorf("%w: invalid base64: %v", ErrDecrypt, err)
	}
	if len(ciphertext) == 0 || len(ciphertext)%blockSize != 0 {
		return "", fmt.Errorf("%w: ciphertext length %d is not a multiple of %d", ErrDecrypt, len(ciphertext), blockSize)
	}

	plain := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(plain, ciphertext)

	plain, err = pkcs7Unpad(plain, blockSize)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	if !utf8.Valid(plain) {
		return "", fmt.Errorf("%w: plaintext is not valid UTF-8", ErrDecrypt)
	}
	return string(plain), nil
}

func pkcs7Pad(data []byte, size int) []byte {
	pad := size - (len(data) % size)
	padded := make([]byte, len(data), len(data)+pad)
	copy(padded, data)
	return append(padded, bytes.Repeat([]byte{byte(pad)}, pad)...)
}

func pkcs7Unpad(data []byte, size int) ([]byte, error) {
	if len(data) == 0 || len(data)%size != 0 {
		return nil, errors.New("invalid padding size")
	}
	pad := int(data[len(data)-1])
	if pad == 0 || pad > size || pad > len(data) {
		return nil, errors.New("invalid padding")
	}
	for i := 0; i < pad; i++ {
		if data[len(data)-1-i] != byte(pad) {
			return nil, errors.New("invalid padding")
		}
	}
	return data[:len(data)-pad], nil
}
