// Package cipher encrypts note fields at the storage boundary.
//
// Every value is sealed with XChaCha20-Poly1305 under a single key derived
// from the configured secret. The encoded form is
//
//	base64( [Version: 1 byte] [Nonce: 24 bytes, random] [Ciphertext+Tag] )
//
// The version byte is passed as additional authenticated data, so altering
// it fails authentication just like altering the ciphertext.
package cipher

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// KeySize is the length of the derived symmetric key.
const KeySize = chacha20poly1305.KeySize

// BlobVersion prefixes every sealed value.
const BlobVersion byte = 0x01

// blobOverhead is version + nonce + Poly1305 tag.
const blobOverhead = 1 + chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead

// Changing this string invalidates every stored ciphertext.
var hkdfInfo = []byte("noteguard.note.field.v1")

var (
	// ErrEmptySecret is returned by New when no secret is configured.
	ErrEmptySecret = errors.New("cipher: encryption secret is not configured")

	// ErrDecryption covers every reason a value cannot be opened: bad
	// encoding, truncated blob, unknown version, wrong key or tampering.
	ErrDecryption = errors.New("cipher: unable to decrypt value")
)

// Cipher is the contract the note services depend on.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

type Service struct {
	key [KeySize]byte
}

// New derives the field key from secret. Secrets of any length are
// accepted; HKDF normalizes them to KeySize bytes.
func New(secret string) (*Service, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	s := &Service{}
	reader := hkdf.New(sha256.New, []byte(secret), nil, hkdfInfo)
	if _, err := io.ReadFull(reader, s.key[:]); err != nil {
		return nil, fmt.Errorf("cipher: deriving key: %w", err)
	}
	return s, nil
}

func (s *Service) Encrypt(plaintext string) (string, error) {
	aead, err := chacha20poly1305.NewX(s.key[:])
	if err != nil {
		return "", fmt.Errorf("cipher: creating XChaCha20-Poly1305: %w", err)
	}

	var nonce [chacha20poly1305.NonceSizeX]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("cipher: generating nonce: %w", err)
	}

	out := make([]byte, 1+len(nonce), blobOverhead+len(plaintext))
	out[0] = BlobVersion
	copy(out[1:], nonce[:])
	out = aead.Seal(out, nonce[:], []byte(plaintext), []byte{BlobVersion})

	return base64.StdEncoding.EncodeToString(out), nil
}

func (s *Service) Decrypt(ciphertext string) (string, error) {
	blob, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: invalid encoding", ErrDecryption)
	}
	if len(blob) < blobOverhead {
		return "", fmt.Errorf("%w: value is %d bytes, minimum is %d", ErrDecryption, len(blob), blobOverhead)
	}
	if blob[0] != BlobVersion {
		return "", fmt.Errorf("%w: unsupported version %d", ErrDecryption, blob[0])
	}

	aead, err := chacha20poly1305.NewX(s.key[:])
	if err != nil {
		return "", fmt.Errorf("cipher: creating XChaCha20-Poly1305: %w", err)
	}

	nonce := blob[1 : 1+chacha20poly1305.NonceSizeX]
	plaintext, err := aead.Open(nil, nonce, blob[1+chacha20poly1305.NonceSizeX:], blob[:1])
	if err != nil {
		return "", fmt.Errorf("%w: authentication failed", ErrDecryption)
	}
	return string(plaintext), nil
}
