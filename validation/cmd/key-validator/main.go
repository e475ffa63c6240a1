package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/cloudx-io/doubleauction/auctionapi"
	"github.com/cloudx-io/doubleauction/validation"
)

func main() {
	var (
		responseInput = flag.String("key-response", "", "Key response JSON (file path or inline JSON)")
		publicKeyPath = flag.String("public-key", "", "PEM file of the key you intend to seal orders with (default: the key in the response)")
		outputFormat  = flag.String("format", "text", "Output format: text or json")
		help          = flag.Bool("help", false, "Show usage information")
	)
	flag.Parse()

	if *help {
		showUsage()
		os.Exit(0)
	}
	if *responseInput == "" {
		showUsage()
		fmt.Fprintf(os.Stderr, "\nError: --key-response is required\n")
		os.Exit(1)
	}

	var resp auctionapi.KeyResponse
	if err := readJSONInput(*responseInput, &resp); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading key response: %v\n", err)
		os.Exit(2)
	}

	publicKey, err := expectedKey(resp, *publicKeyPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading public key: %v\n", err)
		os.Exit(2)
	}

	result, err := validation.ValidateKeyAttestation(resp.AttestationCOSEBase64, publicKey)
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
	fmt.Println("Key Attestation Validator")
	fmt.Println()
	fmt.Println("Checks that the node's order-sealing key was generated inside an attested enclave.")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  key-validator --key-response <json> [options]")
	fmt.Println()
	fmt.Println("Required Flags:")
	fmt.Println("  --key-response <json>             The key_response the node returned")
	fmt.Println()
	fmt.Println("Optional Flags:")
	fmt.Println("  --public-key <path>               PEM key to compare against (default: public_key of the response)")
	fmt.Println("  --format <text|json>              Output format (default: text)")
	fmt.Println("  --help                            Show this help message")
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

func expectedKey(resp auctionapi.KeyResponse, path string) (string, error) {
	if resp.AttestationCOSEBase64 == "" {
		return "", fmt.Errorf("missing attestation_cose_base64 in key response")
	}
	if path == "" {
		if resp.PublicKey == "" {
			return "", fmt.Errorf("missing public_key in key response")
		}
		return resp.PublicKey, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func outputText(result *validation.KeyValidationResult) {
	fmt.Println("Key Attestation Validator")
	fmt.Println("=========================")
	fmt.Println()
	fmt.Println("Summary:")
	fmt.Printf("  PCRs Valid:         %v\n", result.PCRsValid)
	fmt.Printf("  Certificate Valid:  %v\n", result.CertificateValid)
	fmt.Printf("  Signature Valid:    %v\n", result.SignatureValid)
	fmt.Printf("  Public Key Match:   %v\n", result.PublicKeyMatch)

	fmt.Println()
	fmt.Println("Details:")
	for _, detail := range result.ValidationDetails {
		fmt.Printf("  - %s\n", detail)
	}

	fmt.Println()
	fmt.Println("=========================")
	if result.IsValid() {
		fmt.Println("VALIDATION: ✓ PASSED")
	} else {
		fmt.Println("VALIDATION: ✗ FAILED")
	}
}

func outputJSON(result *validation.KeyValidationResult) {
	output := map[string]any{
		"valid":             result.IsValid(),
		"pcrs_valid":        result.PCRsValid,
		"certificate_valid": result.CertificateValid,
		"signature_valid":   result.SignatureValid,
		"public_key_match":  result.PublicKeyMatch,
		"details":           result.ValidationDetails,
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		os.Exit(2)
	}
	fmt.Println(string(data))
}
