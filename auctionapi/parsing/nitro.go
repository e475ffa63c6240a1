package parsing

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// NitroDocument is the CBOR map an NSM signs. Timestamp is in milliseconds
// since the Unix epoch.
type NitroDocument struct {
	ModuleID    string            `cbor:"module_id"`
	Digest      string            `cbor:"digest"`
	Timestamp   uint64            `cbor:"timestamp"`
	PCRs        map[uint64][]byte `cbor:"pcrs"`
	Certificate []byte            `cbor:"certificate"`
	CABundle    [][]byte          `cbor:"cabundle"`
	PublicKey   []byte            `cbor:"public_key"`
	UserData    []byte            `cbor:"user_data"`
	Nonce       []byte            `cbor:"nonce"`
}

// DecodeNitroDocument parses the payload of a Nitro COSE_Sign1.
func DecodeNitroDocument(payload []byte) (*NitroDocument, error) {
	doc := new(NitroDocument)
	if err := cbor.Unmarshal(payload, doc); err != nil {
		return nil, fmt.Errorf("parse attestation document: %w", err)
	}
	if doc.ModuleID == "" {
		return nil, fmt.Errorf("parse attestation document: missing module_id")
	}
	return doc, nil
}

// PCRHex returns register idx in lowercase hex, or "" when it is absent.
func (d *NitroDocument) PCRHex(idx uint64) string {
	return hex.EncodeToString(d.PCRs[idx])
}

// CertificateBase64 returns the leaf certificate in standard base64.
func (d *NitroDocument) CertificateBase64() string {
	return base64.StdEncoding.EncodeToString(d.Certificate)
}

// CABundleBase64 returns the intermediate chain in standard base64, root first.
func (d *NitroDocument) CABundleBase64() []string {
	out := make([]string, len(d.CABundle))
	for i, der := range d.CABundle {
		out[i] = base64.StdEncoding.EncodeToString(der)
	}
	return out
}
