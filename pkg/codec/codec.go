// Package codec turns JSON-representable values into opaque encrypted text
// and back.
//
// The cipher is AES-256-CBC with PKCS#7 padding. The key is the SHA-256
// digest of the first secret and the IV the first 16 bytes of the SHA-256
// digest of the second; both are fixed for the lifetime of a Codec, so equal
// inputs encrypt to equal outputs. Every ciphertext carries an HMAC-SHA256
// tag, which makes any modification of the text fail loudly instead of
// decoding into a different value.
//
// BulkStream (stream.go) is a separate, weaker mode for large payloads.
package codec

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/aretw0/shelter/pkg/core"
)

const (
	// KeySize is the AES-256 key length.
	KeySize = 32
	// IVSize is the CBC initialization vector length (one AES block).
	IVSize = aes.BlockSize
	// TagSize is the length of the HMAC-SHA256 tag appended to ciphertexts.
	TagSize = sha256.Size

	macInfo = "shelter-codec-mac-v1"
)

// encoding is strict so that non-canonical padding bits are rejected: every
// distinct text maps to distinct bytes.
var encoding = base64.StdEncoding.Strict()

// Codec encrypts and decrypts values with fixed key material.
type Codec struct {
	iv     []byte
	macKey []byte
	block  cipher.Block
}

// New derives the key material from two secrets.
func New(secretKey, secretIV string) (*Codec, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("%w: secret key cannot be empty", core.ErrValidation)
	}
	if secretIV == "" {
		return nil, fmt.Errorf("%w: secret iv cannot be empty", core.ErrValidation)
	}

	keySum := sha256.Sum256([]byte(secretKey))
	ivSum := sha256.Sum256([]byte(secretIV))

	block, err := aes.NewCipher(keySum[:])
	if err != nil {
		return nil, fmt.Errorf("construct aes cipher: %w", err)
	}

	macKey := make([]byte, TagSize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, keySum[:], ivSum[:IVSize], []byte(macInfo)), macKey); err != nil {
		return nil, fmt.Errorf("derive mac key: %w", err)
	}

	return &Codec{
		iv:     append([]byte(nil), ivSum[:IVSize]...),
		macKey: macKey,
		block:  block,
	}, nil
}

// IV returns a copy of the fixed initialization vector.
func (c *Codec) IV() []byte {
	return append([]byte(nil), c.iv...)
}

// Encrypt serializes v to JSON and returns base64(ciphertext || tag).
// Values JSON cannot represent (NaN, cycles, channels...) fail with
// core.ErrSerialization before any encryption happens.
func (c *Codec) Encrypt(v any) (string, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrSerialization, err)
	}
	return c.seal(plaintext), nil
}

// Decrypt reverses Encrypt. Objects decode as core.Record and numbers as
// json.Number.
func (c *Codec) Decrypt(text string) (any, error) {
	plaintext, err := c.open(text)
	if err != nil {
		return nil, err
	}
	v, err := core.DecodeValue(bytes.NewReader(plaintext))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSerialization, err)
	}
	return v, nil
}

// DecryptRecords decrypts text that must hold a JSON array of objects.
func (c *Codec) DecryptRecords(text string) ([]core.Record, error) {
	v, err := c.Decrypt(text)
	if err != nil {
		return nil, err
	}
	recs, err := core.AsRecords(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSerialization, err)
	}
	return recs, nil
}

func (c *Codec) seal(plaintext []byte) string {
	padded := pad(plaintext, aes.BlockSize)
	out := make([]byte, len(padded), len(padded)+TagSize)
	cipher.NewCBCEncrypter(c.block, c.iv).CryptBlocks(out, padded)
	out = append(out, c.tag(out)...)
	return encoding.EncodeToString(out)
}

func (c *Codec) open(text string) ([]byte, error) {
	raw, err := encoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidEncoding, err)
	}
	if len(raw) < aes.BlockSize+TagSize {
		return nil, fmt.Errorf("%w: ciphertext too short", core.ErrDecryption)
	}

	body, tag := raw[:len(raw)-TagSize], raw[len(raw)-TagSize:]
	if !hmac.Equal(tag, c.tag(body)) {
		return nil, fmt.Errorf("%w: authentication failed", core.ErrDecryption)
	}
	if len(body)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext is not a multiple of the block size", core.ErrDecryption)
	}

	plaintext := make([]byte, len(body))
	cipher.NewCBCDecrypter(c.block, c.iv).CryptBlocks(plaintext, body)
	plaintext, err = unpad(plaintext, aes.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrDecryption, err)
	}
	return plaintext, nil
}

func (c *Codec) tag(body []byte) []byte {
	mac := hmac.New(sha256.New, c.macKey)
	mac.Write(c.iv)
	mac.Write(body)
	return mac.Sum(nil)
}
