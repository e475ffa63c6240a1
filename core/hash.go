package core

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// ComputeOrderHash computes the order hash committed to by a clearing attestation.
// This is used by both the node (to generate hashes) and validation (to verify hashes).
//
// Formula: SHA256(side + "|" + order_id + "|" + q0,q1,...,q5 + "|" + nonce)
func ComputeOrderHash(side Side, o RawOrder, nonce string) string {
	qs := make([]string, NumTiers)
	for i, q := range o.QuantityPerTier {
		qs[i] = fmt.Sprintf("%d", q)
	}
	data := fmt.Sprintf("%s|%d|%s|%s", side, o.ID, strings.Join(qs, ","), nonce)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// ComputeSealedOrderHash computes the hash of an order that arrived encrypted,
// over its ciphertext so the hash can be checked without the order key.
//
// Formula: SHA256(order_id + "|" + encrypted_payload + "|" + nonce)
func ComputeSealedOrderHash(orderID int64, encryptedPayload string, nonce string) string {
	data := fmt.Sprintf("%d|%s|%s", orderID, encryptedPayload, nonce)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// ComputeTradesHash commits to the full trade list of a round, in order.
//
// Formula: SHA256(nonce + "|" + seller:buyer:qty + "|" + ...)
func ComputeTradesHash(trades []Trade, nonce string) string {
	var b strings.Builder
	b.WriteString(nonce)
	for _, t := range trades {
		fmt.Fprintf(&b, "|%d:%d:%d", t.SellerID, t.BuyerID, t.Quantity)
	}
	hash := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%x", hash)
}
