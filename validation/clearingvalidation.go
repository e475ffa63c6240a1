package validation

import (
	"encoding/json"
	"fmt"

	"github.com/cloudx-io/doubleauction/auctionapi"
	"github.com/cloudx-io/doubleauction/core"
)

// ClearingValidationInput is what a participant holds after a round: the
// order they submitted and the clear response they received.
type ClearingValidationInput struct {
	AttestationCOSEBase64 auctionapi.AttestationCOSEBase64
	Side                  core.Side
	Order                 core.RawOrder
	// SealedPayload is the encrypted payload submitted for a sealed order.
	// Empty for orders submitted in the clear.
	SealedPayload string
	Tier          core.Tier
	Trades        []core.Trade
}

// ValidateClearingAttestation validates a clearing attestation and verifies:
// - the participant's order was included in the round
// - the published tier and trade list are the attested ones
// - the participant was not allocated more than their order offered
//
// Returns:
//   - ClearingValidationResult with detailed results (call result.IsValid() to check overall status)
//   - error if validation cannot be performed (e.g., malformed input, missing config)
func ValidateClearingAttestation(input *ClearingValidationInput) (*ClearingValidationResult, error) {
	knownPCRs, err := loadDefaultPCRs()
	if err != nil {
		return nil, err
	}
	return validateClearingAttestation(input, knownPCRs)
}

func validateClearingAttestation(input *ClearingValidationInput, knownPCRs []PCRSet) (*ClearingValidationResult, error) {
	baseResult, parsed, err := validateCommonAttestation(input.AttestationCOSEBase64, knownPCRs)
	if err != nil {
		return nil, err
	}

	result := &ClearingValidationResult{BaseValidationResult: *baseResult}
	if len(parsed.userData) == 0 {
		result.note("Attestation user data missing")
		return result, nil
	}

	var userData auctionapi.ClearingAttestationUserData
	if err := json.Unmarshal(parsed.userData, &userData); err != nil {
		return nil, fmt.Errorf("parse user data: %w", err)
	}

	result.OrderHashValid = validateOrderHash(input, &userData, result)
	result.TierValid = validateTier(input, &userData, result)
	result.TradesHashValid = validateTradesHash(input, &userData, result)
	result.AllocationValid = validateAllocation(input, result)
	return result, nil
}

func validateOrderHash(input *ClearingValidationInput, userData *auctionapi.ClearingAttestationUserData, result *ClearingValidationResult) bool {
	if userData.OrderHashNonce == "" {
		result.note("Order hash nonce missing from attestation")
		return false
	}

	var computed string
	if input.SealedPayload != "" {
		computed = core.ComputeSealedOrderHash(input.Order.ID, input.SealedPayload, userData.OrderHashNonce)
	} else {
		computed = core.ComputeOrderHash(input.Side, input.Order, userData.OrderHashNonce)
	}

	hashes := userData.BuyHashes
	if input.Side == core.Sell {
		hashes = userData.SellHashes
	}
	for _, h := range hashes {
		if h == computed {
			result.note("Order hash found in attestation: %s", computed)
			return true
		}
	}

	result.note("Order hash NOT found in attestation. Computed: %s", computed)
	result.note("Total %s hashes in attestation: %d", input.Side, len(hashes))
	return false
}

func validateTier(input *ClearingValidationInput, userData *auctionapi.ClearingAttestationUserData, result *ClearingValidationResult) bool {
	if !userData.Tier.Valid() {
		result.note("Attested tier %d out of range", userData.Tier)
		return false
	}
	if input.Tier != userData.Tier {
		result.note("Tier mismatch: published %d, attested %d", input.Tier, userData.Tier)
		return false
	}
	result.note("Tier matches: %d (price %d)", userData.Tier, userData.Prices[userData.Tier])
	return true
}

func validateTradesHash(input *ClearingValidationInput, userData *auctionapi.ClearingAttestationUserData, result *ClearingValidationResult) bool {
	if userData.TradesNonce == "" {
		result.note("Trades nonce missing from attestation")
		return false
	}
	computed := core.ComputeTradesHash(input.Trades, userData.TradesNonce)
	if computed != userData.TradesHash {
		result.note("Trades hash mismatch: computed %s, attested %s", computed, userData.TradesHash)
		return false
	}
	result.note("Trades hash matches (%d trades)", len(input.Trades))
	return true
}

// validateAllocation compares the participant's traded volume with their
// cumulative quantity at the clearing tier, which bounds their fill. The node
// rejects a second order with the same id on one side of a round, so trades
// carrying the participant's id on their side are theirs alone.
func validateAllocation(input *ClearingValidationInput, result *ClearingValidationResult) bool {
	if !input.Tier.Valid() {
		result.note("Tier %d out of range", input.Tier)
		return false
	}

	fill := core.BuildCurve(input.Order, input.Side).Cumulative[input.Tier]
	var traded int64
	for _, tr := range input.Trades {
		if (input.Side == core.Sell && tr.SellerID == input.Order.ID) ||
			(input.Side == core.Buy && tr.BuyerID == input.Order.ID) {
			traded += tr.Quantity
		}
	}

	if traded > fill {
		result.note("Order %d traded %d, more than its fill %d at tier %d", input.Order.ID, traded, fill, input.Tier)
		return false
	}
	result.note("Order %d traded %d of fill %d at tier %d", input.Order.ID, traded, fill, input.Tier)
	return true
}
