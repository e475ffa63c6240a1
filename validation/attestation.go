package validation

import (
	"fmt"

	"github.com/cloudx-io/doubleauction/auctionapi"
)

// parsedAttestation is a decoded attestation with its raw user data.
type parsedAttestation struct {
	doc      auctionapi.AttestationDoc
	userData []byte
}

func parseAttestation(attestationCOSEBase64 auctionapi.AttestationCOSEBase64) (*parsedAttestation, error) {
	coseBytes, err := attestationCOSEBase64.Decode()
	if err != nil {
		return nil, fmt.Errorf("decode COSE bytes: %w", err)
	}
	doc, userData, err := coseBytes.ParseAttestationDoc()
	if err != nil {
		return nil, fmt.Errorf("parse attestation document: %w", err)
	}
	return &parsedAttestation{doc: doc, userData: userData}, nil
}

// validateCommonAttestation checks what every attestation must satisfy: PCRs
// against knownPCRs, the certificate chain at the attestation timestamp and
// the COSE signature.
func validateCommonAttestation(attestationCOSEBase64 auctionapi.AttestationCOSEBase64, knownPCRs []PCRSet) (*BaseValidationResult, *parsedAttestation, error) {
	parsed, err := parseAttestation(attestationCOSEBase64)
	if err != nil {
		return nil, nil, err
	}
	doc := parsed.doc

	result := &BaseValidationResult{ValidationDetails: []string{}}

	matched := MatchPCRs(doc.PCRs, knownPCRs)
	result.PCRsValid = matched >= 0
	if !result.PCRsValid {
		result.note("PCR0: %s (no match)", doc.PCRs.ImageFileHash)
		result.note("PCR1: %s (no match)", doc.PCRs.KernelHash)
		result.note("PCR2: %s (no match)", doc.PCRs.ApplicationHash)
	} else {
		result.note("PCR measurements valid")
		result.note("Matched PCR set: #%d (commit: %s)", matched, knownPCRs[matched].CommitHash)
	}

	switch {
	case doc.Certificate == "":
		result.note("Missing certificate")
	case len(doc.CABundle) == 0:
		result.note("Missing CA bundle")
	default:
		if err := ValidateCertificateChain(doc.Certificate, doc.CABundle, doc.Timestamp); err != nil {
			result.note("Certificate chain validation failed: %v", err)
		} else {
			result.CertificateValid = true
			result.note("Certificate chain verified")
		}
	}

	if err := VerifyCOSESignature(attestationCOSEBase64, doc.Certificate); err != nil {
		result.note("COSE signature verification failed: %v", err)
	} else {
		result.SignatureValid = true
		result.note("COSE signature verified")
	}

	return result, parsed, nil
}

func loadDefaultPCRs() ([]PCRSet, error) {
	knownPCRs, err := DefaultPCRs()
	if err != nil {
		return nil, fmt.Errorf("load PCR configuration: %w", err)
	}
	return knownPCRs, nil
}
