package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudx-io/doubleauction/auctionapi"
)

// ValidateKeyAttestation checks a KeyResponse attestation against the shipped
// PCR sets and confirms that it binds expectedPublicKey (PEM).
//
// An error means the attestation could not be evaluated at all; otherwise the
// outcome is in the result (see IsValid).
func ValidateKeyAttestation(attestationCOSEBase64 auctionapi.AttestationCOSEBase64, expectedPublicKey string) (*KeyValidationResult, error) {
	knownPCRs, err := loadDefaultPCRs()
	if err != nil {
		return nil, err
	}
	return validateKeyAttestation(attestationCOSEBase64, expectedPublicKey, knownPCRs)
}

func validateKeyAttestation(attestationCOSEBase64 auctionapi.AttestationCOSEBase64, expectedPublicKey string, knownPCRs []PCRSet) (*KeyValidationResult, error) {
	baseResult, parsed, err := validateCommonAttestation(attestationCOSEBase64, knownPCRs)
	if err != nil {
		return nil, err
	}

	var userData auctionapi.KeyAttestationUserData
	if len(parsed.userData) > 0 {
		if err := json.Unmarshal(parsed.userData, &userData); err != nil {
			return nil, fmt.Errorf("parse user data: %w", err)
		}
	}

	result := &KeyValidationResult{BaseValidationResult: *baseResult}

	// PEM encoding may leave a trailing newline on either side.
	switch attested := strings.TrimSpace(userData.PublicKey); {
	case attested == "":
		result.note("Public key missing from attestation")
	case attested == strings.TrimSpace(expectedPublicKey):
		result.PublicKeyMatch = true
		result.note("Public key matches attestation")
	default:
		result.note("Public key mismatch: provided key does not match attested key")
	}

	return result, nil
}
