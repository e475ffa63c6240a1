package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"time"

	enclave "github.com/edgebitio/nitro-enclaves-sdk-go"

	"github.com/cloudx-io/doubleauction/auction"
	"github.com/cloudx-io/doubleauction/auctionapi"
	"github.com/cloudx-io/doubleauction/core"
)

// EnclaveAttester interface for dependency injection and testing
type EnclaveAttester interface {
	Attest(options enclave.AttestationOptions) ([]byte, error)
}

// orderEntry is an accepted order reduced to its side and its commitment
// under the round's order nonce. Sealed orders are hashed over their
// ciphertext.
type orderEntry struct {
	side core.Side
	hash string
}

func newOrderEntry(side core.Side, o core.RawOrder, sealed, nonce string) orderEntry {
	if sealed != "" {
		return orderEntry{side: side, hash: core.ComputeSealedOrderHash(o.ID, sealed, nonce)}
	}
	return orderEntry{side: side, hash: core.ComputeOrderHash(side, o, nonce)}
}

// generateNonce returns 32 bytes of crypto/rand entropy, hex encoded.
func generateNonce() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate secure nonce - entropy generation failed: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// roundInfo identifies the round being attested.
type roundInfo struct {
	AuctionID string
	RoundID   string
	Mode      auction.Mode
	Prices    core.Curve
}

// BuildClearingUserData commits to the round's orders, hashed at submission
// under orderNonce, and to its trades under a fresh nonce. Order hashes keep
// submission order within each side.
func BuildClearingUserData(info roundInfo, orderNonce string, orders []orderEntry, outcome *auction.Outcome, now time.Time) (*auctionapi.ClearingAttestationUserData, error) {
	tradesNonce, err := generateNonce()
	if err != nil {
		return nil, fmt.Errorf("failed to generate trades nonce: %w", err)
	}

	userData := &auctionapi.ClearingAttestationUserData{
		AuctionID:      info.AuctionID,
		RoundID:        info.RoundID,
		Round:          outcome.Round,
		Mode:           string(info.Mode),
		SellHashes:     make([]string, 0),
		BuyHashes:      make([]string, 0),
		OrderHashNonce: orderNonce,
		Prices:         info.Prices,
		Tier:           outcome.Tier,
		TradesHash:     core.ComputeTradesHash(outcome.Trades, tradesNonce),
		TradesNonce:    tradesNonce,
		Timestamp:      now.UTC(),
	}
	for _, e := range orders {
		if e.side == core.Sell {
			userData.SellHashes = append(userData.SellHashes, e.hash)
		} else {
			userData.BuyHashes = append(userData.BuyHashes, e.hash)
		}
	}
	return userData, nil
}

// GenerateClearingAttestation has the NSM sign the clearing commitment.
func GenerateClearingAttestation(attester EnclaveAttester, userData *auctionapi.ClearingAttestationUserData) (auctionapi.AttestationCOSE, error) {
	return attest(attester, userData)
}

// GenerateKeyAttestation binds publicKey to this enclave image and auction.
func GenerateKeyAttestation(attester EnclaveAttester, publicKey *rsa.PublicKey, auctionID string) (auctionapi.AttestationCOSE, error) {
	publicKeyPEM, err := publicKeyToPEM(publicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to convert public key to PEM: %w", err)
	}
	return attest(attester, &auctionapi.KeyAttestationUserData{
		KeyAlgorithm: "RSA-2048",
		PublicKey:    publicKeyPEM,
		AuctionID:    auctionID,
	})
}

func attest(attester EnclaveAttester, userData any) (auctionapi.AttestationCOSE, error) {
	if attester == nil {
		return nil, fmt.Errorf("enclave attester is nil")
	}

	userDataBytes, err := json.Marshal(userData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal user data: %w", err)
	}
	nonce, err := generateNonce()
	if err != nil {
		return nil, fmt.Errorf("failed to generate attestation nonce: %w", err)
	}

	cose, err := attester.Attest(enclave.AttestationOptions{
		UserData: userDataBytes,
		Nonce:    []byte(nonce),
	})
	if err != nil {
		return nil, fmt.Errorf("NSM attestation failed: %w", err)
	}
	return auctionapi.AttestationCOSE(cose), nil
}

func publicKeyToPEM(publicKey *rsa.PublicKey) (string, error) {
	derBytes, err := x509.MarshalPKIXPublicKey(publicKey)
	if err != nil {
		return "", fmt.Errorf("failed to marshal public key: %w", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: derBytes})), nil
}
