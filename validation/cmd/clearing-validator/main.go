package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/cloudx-io/doubleauction/auctionapi"
	"github.com/cloudx-io/doubleauction/core"
	"github.com/cloudx-io/doubleauction/validation"
)

// participantOrder is what a participant keeps of their own submission.
type participantOrder struct {
	Side  string        `json:"side"`
	Order core.RawOrder `json:"order"`
	// EncryptedPayload is set when the order was submitted sealed.
	EncryptedPayload string `json:"encrypted_payload,omitempty"`
}

func main() {
	var (
		orderInput   = flag.String("order", "", "Participant order JSON (file path or inline JSON)")
		clearInput   = flag.String("clear-response", "", "Clear response JSON (file path or inline JSON)")
		outputFormat = flag.String("format", "text", "Output format: text or json")
		help         = flag.Bool("help", false, "Show usage information")
	)
	flag.Parse()

	if *help {
		showUsage()
		os.Exit(0)
	}
	if *orderInput == "" || *clearInput == "" {
		showUsage()
		fmt.Fprintf(os.Stderr, "\nError: both inputs are required (--order, --clear-response)\n")
		os.Exit(1)
	}

	var order participantOrder
	if err := readJSONInput(*orderInput, &order); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading order: %v\n", err)
		os.Exit(2)
	}
	var cleared auctionapi.ClearResponse
	if err := readJSONInput(*clearInput, &cleared); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading clear response: %v\n", err)
		os.Exit(2)
	}

	input, err := buildInput(order, cleared)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error extracting validation data: %v\n", err)
		os.Exit(2)
	}

	result, err := validation.ValidateClearingAttestation(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation error: %v\n", err)
		os.Exit(2)
	}

	if *outputFormat == "json" {
		outputJSON(result)
	} else {
		outputText(result)
	}

	if !result.IsValid() {
		os.Exit(1)
	}
	os.Exit(0)
}

func showUsage() {
	fmt.Println("Clearing Attestation Validator")
	fmt.Println()
	fmt.Println("Checks a clearing round against its enclave attestation from one participant's view.")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  clearing-validator --order <json> --clear-response <json> [options]")
	fmt.Println()
	fmt.Println("Required Flags:")
	fmt.Println("  --order <json>                    The order you submitted")
	fmt.Println("  --clear-response <json>           The clear_response the node returned")
	fmt.Println()
	fmt.Println("Optional Flags:")
	fmt.Println("  --format <text|json>              Output format (default: text)")
	fmt.Println("  --help                            Show this help message")
	fmt.Println()
	fmt.Println("Order:")
	fmt.Println("  {")
	fmt.Println("    \"side\": \"sell\",")
	fmt.Println("    \"order\": {\"id\": 1, \"quantity_per_tier\": [0, 0, 10, 0, 0, 0]},")
	fmt.Println("    \"encrypted_payload\": \"...\"                     // only for sealed orders")
	fmt.Println("  }")
	fmt.Println()
	fmt.Println("Exit Codes:")
	fmt.Println("  0 - Validation passed")
	fmt.Println("  1 - Validation failed")
	fmt.Println("  2 - Invalid input or runtime error")
}

// readJSONInput accepts a file path or inline JSON.
func readJSONInput(input string, v any) error {
	data, err := os.ReadFile(input)
	if err != nil {
		data = []byte(input)
	}
	return json.Unmarshal(data, v)
}

func buildInput(order participantOrder, cleared auctionapi.ClearResponse) (*validation.ClearingValidationInput, error) {
	side, err := core.ParseSide(order.Side)
	if err != nil {
		return nil, err
	}
	if cleared.AttestationCOSEBase64 == "" {
		return nil, fmt.Errorf("missing attestation_cose_base64 in clear response")
	}
	return &validation.ClearingValidationInput{
		AttestationCOSEBase64: cleared.AttestationCOSEBase64,
		Side:                  side,
		Order:                 order.Order,
		SealedPayload:         order.EncryptedPayload,
		Tier:                  cleared.Tier,
		Trades:                cleared.Trades,
	}, nil
}

func outputText(result *validation.ClearingValidationResult) {
	fmt.Println("Clearing Attestation Validator")
	fmt.Println("==============================")
	fmt.Println()
	fmt.Println("Summary:")
	fmt.Printf("  PCRs Valid:         %v\n", result.PCRsValid)
	fmt.Printf("  Certificate Valid:  %v\n", result.CertificateValid)
	fmt.Printf("  Signature Valid:    %v\n", result.SignatureValid)
	fmt.Printf("  Order Hash Valid:   %v\n", result.OrderHashValid)
	fmt.Printf("  Tier Valid:         %v\n", result.TierValid)
	fmt.Printf("  Trades Hash Valid:  %v\n", result.TradesHashValid)
	fmt.Printf("  Allocation Valid:   %v\n", result.AllocationValid)

	fmt.Println()
	fmt.Println("Details:")
	for _, detail := range result.ValidationDetails {
		fmt.Printf("  - %s\n", detail)
	}

	fmt.Println()
	fmt.Println("==============================")
	if result.IsValid() {
		fmt.Println("VALIDATION: ✓ PASSED")
	} else {
		fmt.Println("VALIDATION: ✗ FAILED")
	}
}

func outputJSON(result *validation.ClearingValidationResult) {
	output := map[string]any{
		"valid":             result.IsValid(),
		"pcrs_valid":        result.PCRsValid,
		"certificate_valid": result.CertificateValid,
		"signature_valid":   result.SignatureValid,
		"order_hash_valid":  result.OrderHashValid,
		"tier_valid":        result.TierValid,
		"trades_hash_valid": result.TradesHashValid,
		"allocation_valid":  result.AllocationValid,
		"details":           result.ValidationDetails,
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		os.Exit(2)
	}
	fmt.Println(string(data))
}
