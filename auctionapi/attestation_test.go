package auctionapi

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/cloudx-io/doubleauction/auctionapi/parsing"
	"github.com/cloudx-io/doubleauction/core"
)

var sampleCOSE = AttestationCOSE("clearing attestation for round 7 of auction-1, tier 2")

func urlSafe(s string) bool {
	return !strings.ContainsAny(s, "+/=")
}

func TestAttestationCOSE_Encodings(t *testing.T) {
	t.Run("base64", func(t *testing.T) {
		got, err := sampleCOSE.EncodeBase64().Decode()
		assert.NoError(t, err)
		check.Equal(t, sampleCOSE, got)
	})

	t.Run("url safe", func(t *testing.T) {
		enc := sampleCOSE.EncodeURLSafe()
		check.True(t, urlSafe(enc.String()))
		got, err := enc.Decode()
		assert.NoError(t, err)
		check.Equal(t, sampleCOSE, got)
	})

	t.Run("gzip", func(t *testing.T) {
		gz, err := sampleCOSE.CompressGzip()
		assert.NoError(t, err)
		check.True(t, urlSafe(gz.String()))

		again, err := sampleCOSE.CompressGzip()
		assert.NoError(t, err)
		check.Equal(t, gz, again)

		got, err := gz.Decompress()
		assert.NoError(t, err)
		check.Equal(t, sampleCOSE, got)
	})

	t.Run("base64 to gzip", func(t *testing.T) {
		b64 := sampleCOSE.EncodeBase64()
		gz, err := b64.CompressGzip()
		assert.NoError(t, err)
		got, err := gz.Decompress()
		assert.NoError(t, err)
		check.Equal(t, b64, got.EncodeBase64())
	})
}

func TestAttestationCOSEBase64_DecodeErrors(t *testing.T) {
	for _, in := range []AttestationCOSEBase64{"%%%", "abc", "AB=C"} {
		got, err := in.Decode()
		check.Error(t, err)
		check.Nil(t, got)
		check.True(t, strings.Contains(err.Error(), "decode COSE base64"))
	}

	_, err := AttestationCOSEBase64("%%%").CompressGzip()
	check.Error(t, err)
}

func TestAttestationCOSEURLBase64_DecodePadding(t *testing.T) {
	cases := map[AttestationCOSEURLBase64]string{
		"dGllcjI":      "tier2",
		"cm91bmQ":      "round",
		"YXVjdGlvbg":   "auction",
		"YXVjdGlvbg==": "auction",
	}
	for in, want := range cases {
		got, err := in.Decode()
		assert.NoError(t, err)
		check.Equal(t, AttestationCOSE(want), got)
	}
}

func TestAttestationCOSEGzip_DecompressErrors(t *testing.T) {
	tests := []struct {
		in   AttestationCOSEGzip
		want string
	}{
		{in: "***", want: "decode base64url"},
		{in: "dGllcjI", want: "gzip"},
	}
	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			got, err := tt.in.Decompress()
			check.Error(t, err)
			check.Nil(t, got)
			check.True(t, strings.Contains(err.Error(), tt.want))
		})
	}
}

func mockCOSE(t *testing.T, userData []byte) AttestationCOSE {
	t.Helper()
	payload, err := cbor.Marshal(parsing.NitroDocument{
		ModuleID:    "i-0abc-enc0123",
		Digest:      "SHA384",
		Timestamp:   uint64(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).UnixMilli()),
		PCRs:        map[uint64][]byte{0: {0xaa}, 1: {0xbb}, 2: {0xcc}},
		Certificate: []byte("cert"),
		CABundle:    [][]byte{[]byte("root")},
		UserData:    userData,
		Nonce:       []byte("nonce"),
	})
	assert.NoError(t, err)

	raw, err := cbor.Marshal([]any{[]byte{0xa0}, map[string]any{}, payload, []byte("sig")})
	assert.NoError(t, err)
	return AttestationCOSE(raw)
}

func TestAttestationCOSE_ParseAttestationDoc(t *testing.T) {
	userData, err := json.Marshal(ClearingAttestationUserData{
		AuctionID: "auction-1",
		Round:     3,
		Tier:      2,
		Prices:    core.Curve{10, 12, 14, 16, 18, 20},
	})
	assert.NoError(t, err)

	doc, raw, err := mockCOSE(t, userData).ParseAttestationDoc()
	assert.NoError(t, err)

	check.Equal(t, "i-0abc-enc0123", doc.ModuleID)
	check.Equal(t, "SHA384", doc.DigestAlgorithm)
	check.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), doc.Timestamp)
	check.Equal(t, "aa", doc.PCRs.ImageFileHash)
	check.Equal(t, "cc", doc.PCRs.ApplicationHash)
	check.Equal(t, "", doc.PCRs.SigningCertHash)
	check.Equal(t, []string{"cm9vdA=="}, doc.CABundle)

	var decoded ClearingAttestationUserData
	assert.NoError(t, json.Unmarshal(raw, &decoded))
	check.Equal(t, "auction-1", decoded.AuctionID)
	check.Equal(t, 3, decoded.Round)
	check.Equal(t, core.Tier(2), decoded.Tier)
}

func TestAttestationCOSE_ParseAttestationDoc_Invalid(t *testing.T) {
	_, _, err := AttestationCOSE([]byte("not cbor")).ParseAttestationDoc()
	check.Error(t, err)
}

func TestClearingAttestationDoc_URLEncode(t *testing.T) {
	doc := &ClearingAttestationDoc{
		AttestationDoc: AttestationDoc{ModuleID: "m"},
		UserData:       &ClearingAttestationUserData{AuctionID: "a"},
	}
	encoded := doc.URLEncode()
	check.NotEqual(t, "", encoded)
	check.False(t, strings.Contains(encoded, "+"))
}
