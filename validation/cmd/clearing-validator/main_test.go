package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/cloudx-io/doubleauction/auctionapi"
	"github.com/cloudx-io/doubleauction/core"
)

func TestReadJSONInput(t *testing.T) {
	var inline participantOrder
	assert.NoError(t, readJSONInput(`{"side":"buy","order":{"id":4,"quantity_per_tier":[1,2,3,4,5,6]}}`, &inline))
	check.Equal(t, "buy", inline.Side)
	check.Equal(t, core.Curve{1, 2, 3, 4, 5, 6}, inline.Order.QuantityPerTier)

	path := filepath.Join(t.TempDir(), "order.json")
	assert.NoError(t, os.WriteFile(path, []byte(`{"side":"sell","order":{"id":9}}`), 0o600))
	var fromFile participantOrder
	assert.NoError(t, readJSONInput(path, &fromFile))
	check.Equal(t, int64(9), fromFile.Order.ID)

	check.Error(t, readJSONInput("{", &fromFile))
}

func TestBuildInput(t *testing.T) {
	cleared := auctionapi.ClearResponse{
		Tier:                  2,
		Trades:                []core.Trade{{BuyerID: 2, SellerID: 1, Quantity: 3}},
		AttestationCOSEBase64: "bW9jaw==",
	}

	input, err := buildInput(participantOrder{Side: "sell", Order: core.RawOrder{ID: 1}, EncryptedPayload: "c2Vj"}, cleared)
	assert.NoError(t, err)
	check.Equal(t, core.Sell, input.Side)
	check.Equal(t, core.Tier(2), input.Tier)
	check.Equal(t, "c2Vj", input.SealedPayload)
	check.Equal(t, cleared.Trades, input.Trades)

	_, err = buildInput(participantOrder{Side: "lend"}, cleared)
	check.Error(t, err)

	cleared.AttestationCOSEBase64 = ""
	_, err = buildInput(participantOrder{Side: "buy"}, cleared)
	check.Error(t, err)
}
