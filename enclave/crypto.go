package main

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"hash"

	"github.com/cloudx-io/doubleauction/auctionapi"
	"github.com/cloudx-io/doubleauction/core"
)

// HashAlgorithm specifies which hash function to use in RSA-OAEP decryption
type HashAlgorithm string

const (
	// HashAlgorithmSHA256 uses SHA-256 (recommended, default)
	HashAlgorithmSHA256 HashAlgorithm = "SHA-256"
	// HashAlgorithmSHA1 uses SHA-1 (legacy client compatibility)
	HashAlgorithmSHA1 HashAlgorithm = "SHA-1"
)

const aesKeySize = 32

// GenerateRSAKeyPair generates a new RSA-2048 key pair. Inside an enclave
// crypto/rand draws on NSM-enhanced entropy.
func GenerateRSAKeyPair() (*rsa.PrivateKey, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA key pair: %w", err)
	}
	return privateKey, nil
}

func newHash(hashAlg HashAlgorithm) (hash.Hash, error) {
	switch hashAlg {
	case HashAlgorithmSHA256:
		return sha256.New(), nil
	case HashAlgorithmSHA1:
		return sha1.New(), nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm: %s", hashAlg)
	}
}

// hybridCiphertext is the decoded form of the three base64 fields a sealed
// order carries.
type hybridCiphertext struct {
	wrappedKey []byte
	payload    []byte
	nonce      []byte
}

func decodeHybrid(encryptedAESKey, encryptedPayload, nonceB64 string) (hybridCiphertext, error) {
	var c hybridCiphertext
	var err error
	if c.wrappedKey, err = base64.StdEncoding.DecodeString(encryptedAESKey); err != nil {
		return c, fmt.Errorf("failed to decode encrypted AES key: %w", err)
	}
	if c.payload, err = base64.StdEncoding.DecodeString(encryptedPayload); err != nil {
		return c, fmt.Errorf("failed to decode encrypted payload: %w", err)
	}
	if c.nonce, err = base64.StdEncoding.DecodeString(nonceB64); err != nil {
		return c, fmt.Errorf("failed to decode nonce: %w", err)
	}
	return c, nil
}

// DecryptHybrid decrypts data sealed with RSA-OAEP + AES-256-GCM: the AES key
// is unwrapped with privateKey, then the payload is opened with it. All three
// inputs are base64.
func DecryptHybrid(encryptedAESKey, encryptedPayload, nonceB64 string, privateKey *rsa.PrivateKey, hashAlg HashAlgorithm) ([]byte, error) {
	c, err := decodeHybrid(encryptedAESKey, encryptedPayload, nonceB64)
	if err != nil {
		return nil, err
	}

	hasher, err := newHash(hashAlg)
	if err != nil {
		return nil, err
	}
	aesKey, err := rsa.DecryptOAEP(hasher, rand.Reader, privateKey, c.wrappedKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt AES key: %w", err)
	}
	if len(aesKey) != aesKeySize {
		return nil, fmt.Errorf("invalid AES key length: expected %d bytes, got %d", aesKeySize, len(aesKey))
	}

	block, err := aes.NewCipher(aesKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	if len(c.nonce) != aesgcm.NonceSize() {
		return nil, fmt.Errorf("invalid nonce length: expected %d bytes, got %d", aesgcm.NonceSize(), len(c.nonce))
	}

	plaintext, err := aesgcm.Open(nil, c.nonce, c.payload, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt payload: %w", err)
	}
	return plaintext, nil
}

// OpenSealedOrder decrypts a sealed order into a raw order. The hash
// algorithm defaults to SHA-256.
func OpenSealedOrder(so auctionapi.SealedOrder, privateKey *rsa.PrivateKey) (core.RawOrder, error) {
	hashAlg := HashAlgorithm(so.HashAlgorithm)
	if hashAlg == "" {
		hashAlg = HashAlgorithmSHA256
	}

	plaintext, err := DecryptHybrid(so.AESKeyEncrypted, so.EncryptedPayload, so.Nonce, privateKey, hashAlg)
	if err != nil {
		return core.RawOrder{}, fmt.Errorf("order %d: %w", so.ID, err)
	}

	var payload auctionapi.SealedPayload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return core.RawOrder{}, fmt.Errorf("order %d: decode payload: %w", so.ID, err)
	}
	return core.RawOrder{ID: so.ID, QuantityPerTier: payload.QuantityPerTier}, nil
}
