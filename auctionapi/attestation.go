package auctionapi

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cloudx-io/doubleauction/auctionapi/parsing"
)

// AttestationCOSE is a raw COSE_Sign1 attestation as returned by the Nitro
// Secure Module.
type AttestationCOSE []byte

// AttestationCOSEBase64 is an AttestationCOSE in standard base64, the form it
// takes inside JSON responses.
type AttestationCOSEBase64 string

// AttestationCOSEURLBase64 is an AttestationCOSE in unpadded URL-safe base64.
type AttestationCOSEURLBase64 string

// AttestationCOSEGzip is a gzip-compressed AttestationCOSE in unpadded
// URL-safe base64, small enough to travel in a query string.
type AttestationCOSEGzip string

func (a AttestationCOSE) EncodeBase64() AttestationCOSEBase64 {
	return AttestationCOSEBase64(base64.StdEncoding.EncodeToString(a))
}

func (a AttestationCOSE) EncodeURLSafe() AttestationCOSEURLBase64 {
	return AttestationCOSEURLBase64(base64.RawURLEncoding.EncodeToString(a))
}

func (a AttestationCOSE) CompressGzip() (AttestationCOSEGzip, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(a); err != nil {
		return "", fmt.Errorf("gzip attestation: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gzip attestation: %w", err)
	}
	return AttestationCOSEGzip(base64.RawURLEncoding.EncodeToString(buf.Bytes())), nil
}

// ParseAttestationDoc decodes the Nitro document carried in the COSE payload.
// The user data is returned raw so callers can unmarshal it into the
// attestation kind they expect.
func (a AttestationCOSE) ParseAttestationDoc() (AttestationDoc, []byte, error) {
	payload, err := parsing.ExtractCOSEPayload(a)
	if err != nil {
		return AttestationDoc{}, nil, err
	}
	raw, err := parsing.DecodeNitroDocument(payload)
	if err != nil {
		return AttestationDoc{}, nil, err
	}

	doc := AttestationDoc{
		ModuleID:        raw.ModuleID,
		Timestamp:       time.UnixMilli(int64(raw.Timestamp)).UTC(),
		DigestAlgorithm: raw.Digest,
		PCRs: PCRs{
			ImageFileHash:   raw.PCRHex(0),
			KernelHash:      raw.PCRHex(1),
			ApplicationHash: raw.PCRHex(2),
			IAMRoleHash:     raw.PCRHex(3),
			InstanceIDHash:  raw.PCRHex(4),
			SigningCertHash: raw.PCRHex(8),
		},
		Certificate: raw.CertificateBase64(),
		CABundle:    raw.CABundleBase64(),
		PublicKey:   base64.StdEncoding.EncodeToString(raw.PublicKey),
		Nonce:       base64.StdEncoding.EncodeToString(raw.Nonce),
	}
	return doc, raw.UserData, nil
}

func (a AttestationCOSEBase64) Decode() (AttestationCOSE, error) {
	b, err := base64.StdEncoding.DecodeString(string(a))
	if err != nil {
		return nil, fmt.Errorf("decode COSE base64: %w", err)
	}
	return AttestationCOSE(b), nil
}

func (a AttestationCOSEBase64) CompressGzip() (AttestationCOSEGzip, error) {
	cose, err := a.Decode()
	if err != nil {
		return "", err
	}
	return cose.CompressGzip()
}

func (a AttestationCOSEBase64) String() string { return string(a) }

// Decode accepts both padded and unpadded input.
func (a AttestationCOSEURLBase64) Decode() (AttestationCOSE, error) {
	s := string(a)
	if rem := len(s) % 4; rem != 0 {
		s += strings.Repeat("=", 4-rem)
	}
	b, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode COSE base64url: %w", err)
	}
	return AttestationCOSE(b), nil
}

func (a AttestationCOSEURLBase64) String() string { return string(a) }

func (a AttestationCOSEGzip) Decompress() (AttestationCOSE, error) {
	compressed, err := base64.RawURLEncoding.DecodeString(string(a))
	if err != nil {
		return nil, fmt.Errorf("decode base64url: %w", err)
	}
	r, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("open gzip reader: %w", err)
	}
	defer r.Close()

	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read gzip stream: %w", err)
	}
	return AttestationCOSE(b), nil
}

func (a AttestationCOSEGzip) String() string { return string(a) }
