package main

import (
	"crypto/rsa"
	"fmt"

	"github.com/cloudx-io/doubleauction/auctionapi"
	"github.com/cloudx-io/doubleauction/core"
)

// KeyManager holds the node's RSA key pair for sealed orders. The private key
// never leaves the enclave.
type KeyManager struct {
	privateKey *rsa.PrivateKey
	PublicKey  *rsa.PublicKey
}

// NewKeyManager generates a fresh key pair. Keys do not survive a restart, so
// participants fetch the key again after one.
func NewKeyManager() (*KeyManager, error) {
	privateKey, err := GenerateRSAKeyPair()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key pair: %w", err)
	}
	return &KeyManager{privateKey: privateKey, PublicKey: &privateKey.PublicKey}, nil
}

// PublicKeyPEM returns the public key in PEM format
func (km *KeyManager) PublicKeyPEM() (string, error) {
	return publicKeyToPEM(km.PublicKey)
}

// Open decrypts a sealed order with the node's private key.
func (km *KeyManager) Open(so auctionapi.SealedOrder) (core.RawOrder, error) {
	return OpenSealedOrder(so, km.privateKey)
}

// HandleKeyRequest returns the public key together with an attestation
// binding it to this enclave and auction.
func HandleKeyRequest(attester EnclaveAttester, keyManager *KeyManager, auctionID string) (*auctionapi.KeyResponse, error) {
	publicKeyPEM, err := keyManager.PublicKeyPEM()
	if err != nil {
		return nil, fmt.Errorf("failed to export public key: %w", err)
	}

	cose, err := GenerateKeyAttestation(attester, keyManager.PublicKey, auctionID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key attestation: %w", err)
	}

	return &auctionapi.KeyResponse{
		Type:                  auctionapi.TypeKeyResponse,
		PublicKey:             publicKeyPEM,
		AttestationCOSEBase64: cose.EncodeBase64(),
	}, nil
}
