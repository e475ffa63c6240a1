package auctionapi

import (
	"encoding/base64"
	"encoding/json"
	"net/url"
	"time"

	"github.com/cloudx-io/doubleauction/core"
)

// Request types understood by the auction node.
const (
	TypePing              = "ping"
	TypeKeyRequest        = "key_request"
	TypeUpdatePrices      = "update_prices"
	TypeSubmitOrder       = "submit_order"
	TypeSubmitSealedOrder = "submit_sealed_order"
	TypeClear             = "clear"
	TypeReset             = "reset"
	TypeState             = "state"
)

// Response types.
const (
	TypePong          = "pong"
	TypeKeyResponse   = "key_response"
	TypeAck           = "ack"
	TypeOrderResponse = "order_response"
	TypeClearResponse = "clear_response"
	TypeStateResponse = "state_response"
	TypeError         = "error"
)

// Envelope is decoded first to route a request by its type.
type Envelope struct {
	Type string `json:"type"`
}

// SealedOrder carries an order's quantities encrypted with RSA-OAEP/AES-256-GCM
// under the node's public key, so they are only ever decrypted inside the TEE.
type SealedOrder struct {
	ID               int64  `json:"id"`
	AESKeyEncrypted  string `json:"aes_key_encrypted"`        // base64-encoded RSA-OAEP encrypted AES key
	EncryptedPayload string `json:"encrypted_payload"`        // base64-encoded AES-GCM encrypted SealedPayload
	Nonce            string `json:"nonce"`                    // base64-encoded GCM nonce (12 bytes)
	HashAlgorithm    string `json:"hash_algorithm,omitempty"` // Optional: "SHA-256" (default) or "SHA-1" for RSA-OAEP
}

// SealedPayload is the plaintext inside SealedOrder.EncryptedPayload.
type SealedPayload struct {
	QuantityPerTier core.Curve `json:"quantity_per_tier"`
}

type UpdatePricesRequest struct {
	Type     string `json:"type"`
	Caller   string `json:"caller"`
	MinPrice int64  `json:"min_price"`
	MaxPrice int64  `json:"max_price"`
}

type SubmitOrderRequest struct {
	Type  string        `json:"type"`
	Side  string        `json:"side"`
	Order core.RawOrder `json:"order"`
}

type SubmitSealedOrderRequest struct {
	Type  string      `json:"type"`
	Side  string      `json:"side"`
	Order SealedOrder `json:"order"`
}

// ClearRequest and ResetRequest are restricted to the auction owner.
type ClearRequest struct {
	Type   string `json:"type"`
	Caller string `json:"caller"`
}

type ResetRequest struct {
	Type   string `json:"type"`
	Caller string `json:"caller"`
}

// AckResponse answers update_prices and reset.
type AckResponse struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// OrderResponse acknowledges an accepted order. The hash is computed with the
// nonce that the next clearing attestation publishes, so it is only returned
// once the round clears.
type OrderResponse struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	OrderID int64  `json:"order_id"`
	Side    string `json:"side"`
}

// ClearResponse is the result of one clearing round. Attested and Archived
// are false when the attestation or the archive write failed for the round.
type ClearResponse struct {
	Type                  string                `json:"type"`
	Success               bool                  `json:"success"`
	AuctionID             string                `json:"auction_id"`
	RoundID               string                `json:"round_id"`
	Round                 int                   `json:"round"`
	Mode                  string                `json:"mode"`
	Tier                  core.Tier             `json:"tier"`
	Price                 string                `json:"price"`
	SellFills             []core.FillOrder      `json:"sell_fills"`
	BuyFills              []core.FillOrder      `json:"buy_fills"`
	Trades                []core.Trade          `json:"trades"`
	AttestationCOSEBase64 AttestationCOSEBase64 `json:"attestation_cose_base64,omitempty"`
	Attested              bool                  `json:"attested"`
	Archived              bool                  `json:"archived"`
	ProcessingTime        int64                 `json:"processing_time_ms"`
}

// StateResponse mirrors the auction's public view.
type StateResponse struct {
	Type      string           `json:"type"`
	Mode      string           `json:"mode"`
	Owner     string           `json:"owner"`
	MinPrice  int64            `json:"min_price"`
	MaxPrice  int64            `json:"max_price"`
	Prices    core.Curve       `json:"prices"`
	Cleared   bool             `json:"cleared"`
	Tier      core.Tier        `json:"tier"`
	Round     int              `json:"round"`
	Sells     int              `json:"sells"`
	Buys      int              `json:"buys"`
	SellFills []core.FillOrder `json:"sell_fills"`
	BuyFills  []core.FillOrder `json:"buy_fills"`
	Trades    []core.Trade     `json:"trades"`
}

type ErrorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// PCRs represents the Platform Configuration Registers from AWS Nitro Enclaves
type PCRs struct {
	// PCR0: Hash of the Enclave Image File (EIF)
	ImageFileHash string `json:"0"`

	// PCR1: Hash of the Linux kernel and initial RAM data (initramfs)
	KernelHash string `json:"1"`

	// PCR2: Hash of user applications, excluding the boot ramfs
	ApplicationHash string `json:"2"`

	// PCR3: Hash of the IAM role assigned to the parent instance
	IAMRoleHash string `json:"3"`

	// PCR4: Hash of the parent instance's ID
	InstanceIDHash string `json:"4"`

	// PCR8: Hash of the enclave image file's signing certificate
	SigningCertHash string `json:"8,omitempty"`
}

// AttestationDoc holds the fields shared by every Nitro attestation.
type AttestationDoc struct {
	ModuleID        string    `json:"module_id"`
	Timestamp       time.Time `json:"timestamp"`
	DigestAlgorithm string    `json:"digest"`
	PCRs            PCRs      `json:"pcrs"`
	Certificate     string    `json:"certificate"`
	CABundle        []string  `json:"cabundle"`
	PublicKey       string    `json:"public_key"`
	Nonce           string    `json:"nonce"`
}

// ClearingAttestationDoc is an attestation over one clearing round.
type ClearingAttestationDoc struct {
	AttestationDoc
	UserData *ClearingAttestationUserData `json:"user_data"`
}

// KeyAttestationDoc is an attestation over the node's order encryption key.
type KeyAttestationDoc struct {
	AttestationDoc
	UserData *KeyAttestationUserData `json:"user_data"`
}

// ClearingAttestationUserData is what the node commits to when it clears.
// Orders appear only as salted hashes: a participant recomputes the hash of
// their own order to check that it was included.
type ClearingAttestationUserData struct {
	AuctionID      string     `json:"auction_id"`
	RoundID        string     `json:"round_id"`
	Round          int        `json:"round"`
	Mode           string     `json:"mode"`
	SellHashes     []string   `json:"sell_hashes"`
	BuyHashes      []string   `json:"buy_hashes"`
	OrderHashNonce string     `json:"order_hash_nonce"`
	Prices         core.Curve `json:"prices"`
	Tier           core.Tier  `json:"tier"`
	TradesHash     string     `json:"trades_hash"`
	TradesNonce    string     `json:"trades_nonce"`
	Timestamp      time.Time  `json:"timestamp"`
}

// URLEncode encodes clearing attestation for URLs
func (a *ClearingAttestationDoc) URLEncode() string {
	data, _ := json.Marshal(a)
	return url.QueryEscape(base64.StdEncoding.EncodeToString(data))
}

// KeyResponse represents the response from a key request to the auction node
type KeyResponse struct {
	Type                  string                `json:"type"`
	PublicKey             string                `json:"public_key"` // PEM format
	AttestationCOSEBase64 AttestationCOSEBase64 `json:"attestation_cose_base64"`
}

// KeyAttestationUserData represents the key-specific data embedded in key attestation
type KeyAttestationUserData struct {
	KeyAlgorithm string `json:"key_algorithm"` // e.g., "RSA-2048"
	PublicKey    string `json:"public_key"`    // PEM-encoded public key
	AuctionID    string `json:"auction_id"`
}
