package parsing

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// COSESign1 holds the parts of an untagged COSE_Sign1 array:
// [protected, unprotected, payload, signature].
type COSESign1 struct {
	Protected []byte
	Payload   []byte
	Signature []byte
}

// SplitCOSESign1 decodes the 4-element COSE_Sign1 array AWS Nitro returns.
func SplitCOSESign1(coseBytes []byte) (*COSESign1, error) {
	var coseArray []any
	if err := cbor.Unmarshal(coseBytes, &coseArray); err != nil {
		return nil, fmt.Errorf("parse COSE array: %w", err)
	}

	if len(coseArray) != 4 {
		return nil, fmt.Errorf("invalid COSE_Sign1 structure: expected 4 elements, got %d", len(coseArray))
	}

	protected, ok := coseArray[0].([]byte)
	if !ok {
		return nil, fmt.Errorf("invalid protected headers")
	}
	payload, ok := coseArray[2].([]byte)
	if !ok {
		return nil, fmt.Errorf("invalid payload in COSE structure")
	}
	signature, ok := coseArray[3].([]byte)
	if !ok {
		return nil, fmt.Errorf("invalid signature")
	}

	return &COSESign1{Protected: protected, Payload: payload, Signature: signature}, nil
}

// ExtractCOSEPayload returns element 2 of a COSE_Sign1 array.
func ExtractCOSEPayload(coseBytes []byte) ([]byte, error) {
	s, err := SplitCOSESign1(coseBytes)
	if err != nil {
		return nil, err
	}
	return s.Payload, nil
}

// SigStructure builds the COSE Sig_structure that the signature covers:
// ["Signature1", protected, external_aad, payload] with an empty external_aad.
func (s *COSESign1) SigStructure() ([]byte, error) {
	b, err := cbor.Marshal([]any{"Signature1", s.Protected, []byte{}, s.Payload})
	if err != nil {
		return nil, fmt.Errorf("marshal Sig_structure: %w", err)
	}
	return b, nil
}
