package validation

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/veraison/go-cose"

	"github.com/cloudx-io/doubleauction/auctionapi"
	"github.com/cloudx-io/doubleauction/auctionapi/parsing"
)

// VerifyCOSESignature verifies the ES384 signature of an untagged Nitro
// COSE_Sign1 against the leaf certificate it carries.
func VerifyCOSESignature(coseB64 auctionapi.AttestationCOSEBase64, certB64 string) error {
	coseBytes, err := coseB64.Decode()
	if err != nil {
		return fmt.Errorf("decode COSE bytes: %w", err)
	}

	cert, err := parseCertificateBase64(certB64)
	if err != nil {
		return fmt.Errorf("signing certificate: %w", err)
	}
	ecdsaKey, ok := cert.PublicKey.(*ecdsa.PublicKey)
	if !ok {
		return fmt.Errorf("certificate public key is not ECDSA")
	}

	sign1, err := parsing.SplitCOSESign1(coseBytes)
	if err != nil {
		return err
	}
	sigStructure, err := sign1.SigStructure()
	if err != nil {
		return err
	}

	verifier, err := cose.NewVerifier(cose.AlgorithmES384, ecdsaKey)
	if err != nil {
		return fmt.Errorf("create verifier: %w", err)
	}
	if err := verifier.Verify(sigStructure, sign1.Signature); err != nil {
		return fmt.Errorf("COSE signature verification failed: %w", err)
	}
	return nil
}
