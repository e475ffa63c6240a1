package validation

import "fmt"

// BaseValidationResult contains common validation results for all attestation types
type BaseValidationResult struct {
	PCRsValid         bool
	CertificateValid  bool
	SignatureValid    bool
	ValidationDetails []string
}

func (r *BaseValidationResult) note(format string, args ...any) {
	r.ValidationDetails = append(r.ValidationDetails, fmt.Sprintf(format, args...))
}

// KeyValidationResult contains validation results specific to key attestations
type KeyValidationResult struct {
	BaseValidationResult
	PublicKeyMatch bool
}

// IsValid returns true if all key validation checks passed
func (r *KeyValidationResult) IsValid() bool {
	return r.PCRsValid && r.CertificateValid && r.SignatureValid && r.PublicKeyMatch
}

// ClearingValidationResult is what a participant learns about one clearing
// round from its attestation.
type ClearingValidationResult struct {
	BaseValidationResult
	// OrderHashValid: the participant's order is among the attested hashes.
	OrderHashValid bool
	// TierValid: the published tier is the attested one.
	TierValid bool
	// TradesHashValid: the published trade list is the attested one.
	TradesHashValid bool
	// AllocationValid: the participant traded no more than their curve
	// offers at the clearing tier.
	AllocationValid bool
}

// IsValid returns true if all clearing validation checks passed
func (r *ClearingValidationResult) IsValid() bool {
	return r.PCRsValid && r.CertificateValid && r.SignatureValid &&
		r.OrderHashValid && r.TierValid && r.TradesHashValid && r.AllocationValid
}
