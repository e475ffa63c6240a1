package main

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cloudx-io/doubleauction/auction"
	"github.com/cloudx-io/doubleauction/auctionapi"
	"github.com/cloudx-io/doubleauction/core"
	"github.com/cloudx-io/doubleauction/logging"
	"github.com/cloudx-io/doubleauction/mpc"
	"github.com/cloudx-io/doubleauction/store"
)

const owner = "operator"

func newTestNode(t *testing.T, mode auction.Mode, opts ...NodeOption) *Node {
	t.Helper()

	var a auction.Auction
	if mode == auction.Oblivious {
		engine, err := mpc.NewEngine(3)
		assert.NoError(t, err)
		a = auction.NewOblivious(owner, engine, 8, nil)
	} else {
		a = auction.NewPlain(owner, nil)
	}

	keys, err := NewKeyManager()
	assert.NoError(t, err)
	opts = append([]NodeOption{WithPriceExponent(-2)}, opts...)
	return NewNode("auction-1", a, keys, nil, opts...)
}

// submitExampleBook is one seller and one buyer whose curves meet at tier 2.
func submitExampleBook(t *testing.T, n *Node) {
	t.Helper()
	_, err := n.UpdatePrices(auctionapi.UpdatePricesRequest{Caller: owner, MinPrice: 1000, MaxPrice: 2000})
	assert.NoError(t, err)
	_, err = n.SubmitOrder(auctionapi.SubmitOrderRequest{
		Side:  "sell",
		Order: core.RawOrder{ID: 1, QuantityPerTier: core.Curve{0, 0, 10, 0, 0, 0}},
	})
	assert.NoError(t, err)
	_, err = n.SubmitOrder(auctionapi.SubmitOrderRequest{
		Side:  "buy",
		Order: core.RawOrder{ID: 2, QuantityPerTier: core.Curve{0, 0, 10, 0, 0, 0}},
	})
	assert.NoError(t, err)
}

func TestNode_ClearAttestsAndArchives(t *testing.T) {
	for _, mode := range []auction.Mode{auction.Plaintext, auction.Oblivious} {
		t.Run(string(mode), func(t *testing.T) {
			archive, err := store.Open(filepath.Join(t.TempDir(), "rounds.db"))
			assert.NoError(t, err)
			defer archive.Close()

			n := newTestNode(t, mode, WithAttester(CreateMockEnclave(t)), WithArchive(archive))
			submitExampleBook(t, n)

			resp, err := n.Clear(context.Background(), auctionapi.ClearRequest{Caller: owner})
			assert.NoError(t, err)

			check.Equal(t, auctionapi.TypeClearResponse, resp.Type)
			check.Equal(t, 1, resp.Round)
			check.True(t, resp.Attested)
			check.True(t, resp.Archived)
			check.Equal(t, core.Tier(2), resp.Tier)
			check.Equal(t, "14", resp.Price)
			check.Equal(t, string(mode), resp.Mode)
			check.Equal(t, []core.Trade{{BuyerID: 2, SellerID: 1, Quantity: 10}}, resp.Trades)

			cose, err := resp.AttestationCOSEBase64.Decode()
			assert.NoError(t, err)
			doc := parseClearingAttestation(t, cose)
			check.Equal(t, resp.RoundID, doc.UserData.RoundID)
			check.Equal(t, core.Curve{1000, 1200, 1400, 1600, 1800, 2000}, doc.UserData.Prices)
			check.Equal(t, core.ComputeTradesHash(resp.Trades, doc.UserData.TradesNonce), doc.UserData.TradesHash)
			sell := core.RawOrder{ID: 1, QuantityPerTier: core.Curve{0, 0, 10, 0, 0, 0}}
			check.Equal(t, []string{core.ComputeOrderHash(core.Sell, sell, doc.UserData.OrderHashNonce)}, doc.UserData.SellHashes)
			check.Equal(t, 1, len(doc.UserData.BuyHashes))

			rounds, err := archive.ListRounds(context.Background(), "auction-1", 10)
			assert.NoError(t, err)
			assert.Equal(t, 1, len(rounds))
			check.Equal(t, resp.RoundID, rounds[0].RoundID)
			check.Equal(t, int64(10), rounds[0].Volume)
			check.Equal(t, "14", rounds[0].Price.String())
		})
	}
}

func TestNode_ClearWithoutAttester(t *testing.T) {
	n := newTestNode(t, auction.Plaintext)
	submitExampleBook(t, n)

	resp, err := n.Clear(context.Background(), auctionapi.ClearRequest{Caller: owner})
	assert.NoError(t, err)
	check.Equal(t, auctionapi.AttestationCOSEBase64(""), resp.AttestationCOSEBase64)

	_, err = n.KeyRequest()
	check.True(t, errors.Is(err, ErrNoAttester))
}

func TestNode_ClearAttesterFails(t *testing.T) {
	n := newTestNode(t, auction.Plaintext, WithAttester(&MockEnclaveHandle{}))
	submitExampleBook(t, n)

	resp, err := n.Clear(context.Background(), auctionapi.ClearRequest{Caller: owner})
	assert.NoError(t, err)
	check.False(t, resp.Attested)
	check.Equal(t, auctionapi.AttestationCOSEBase64(""), resp.AttestationCOSEBase64)
	check.Equal(t, []core.Trade{{BuyerID: 2, SellerID: 1, Quantity: 10}}, resp.Trades)

	// the response matches the committed state
	state := n.State()
	check.True(t, state.Cleared)
	check.Equal(t, resp.Round, state.Round)
	check.Equal(t, resp.Trades, state.Trades)
}

func TestNode_ClearArchiveFails(t *testing.T) {
	archive, err := store.Open(filepath.Join(t.TempDir(), "rounds.db"))
	assert.NoError(t, err)
	assert.NoError(t, archive.Close())

	n := newTestNode(t, auction.Plaintext, WithAttester(CreateMockEnclave(t)), WithArchive(archive))
	submitExampleBook(t, n)

	resp, err := n.Clear(context.Background(), auctionapi.ClearRequest{Caller: owner})
	assert.NoError(t, err)
	check.True(t, resp.Attested)
	check.False(t, resp.Archived)
	check.Equal(t, 1, n.State().Round)
}

func TestNode_ObliviousKeepsOnlyCommitments(t *testing.T) {
	obs, logs := observer.New(zapcore.DebugLevel)
	log := logging.New(obs, zap.NewAtomicLevelAt(zapcore.DebugLevel))

	engine, err := mpc.NewEngine(3)
	assert.NoError(t, err)
	keys, err := NewKeyManager()
	assert.NoError(t, err)
	n := NewNode("auction-1", auction.NewOblivious(owner, engine, 8, nil), keys, log, WithAttester(CreateMockEnclave(t)))

	submitExampleBook(t, n)
	nonce := n.orderNonce
	check.True(t, hexPattern.MatchString(nonce))

	sell := core.RawOrder{ID: 1, QuantityPerTier: core.Curve{0, 0, 10, 0, 0, 0}}
	buy := core.RawOrder{ID: 2, QuantityPerTier: core.Curve{0, 0, 10, 0, 0, 0}}
	check.Equal(t, []orderEntry{
		{side: core.Sell, hash: core.ComputeOrderHash(core.Sell, sell, nonce)},
		{side: core.Buy, hash: core.ComputeOrderHash(core.Buy, buy, nonce)},
	}, n.orders, cmp.AllowUnexported(orderEntry{}))

	accepted := logs.FilterMessage("order accepted").All()
	assert.Equal(t, 2, len(accepted))
	for _, e := range accepted {
		_, hasID := e.ContextMap()["order_id"]
		check.False(t, hasID)
		_, hasSide := e.ContextMap()["side"]
		check.False(t, hasSide)
	}

	resp, err := n.Clear(context.Background(), auctionapi.ClearRequest{Caller: owner})
	assert.NoError(t, err)
	cose, err := resp.AttestationCOSEBase64.Decode()
	assert.NoError(t, err)
	doc := parseClearingAttestation(t, cose)
	check.Equal(t, nonce, doc.UserData.OrderHashNonce)
	check.Equal(t, []string{n.orders[0].hash}, doc.UserData.SellHashes)
	check.Equal(t, []string{n.orders[1].hash}, doc.UserData.BuyHashes)

	_, err = n.Reset(auctionapi.ResetRequest{Caller: owner})
	assert.NoError(t, err)
	check.Equal(t, "", n.orderNonce)
}

func TestNode_PlaintextLogsOrderIdentity(t *testing.T) {
	obs, logs := observer.New(zapcore.DebugLevel)
	log := logging.New(obs, zap.NewAtomicLevelAt(zapcore.DebugLevel))
	keys, err := NewKeyManager()
	assert.NoError(t, err)
	n := NewNode("auction-1", auction.NewPlain(owner, nil), keys, log)

	submitExampleBook(t, n)
	accepted := logs.FilterMessage("order accepted").All()
	assert.Equal(t, 2, len(accepted))
	check.Equal[any](t, int64(1), accepted[0].ContextMap()["order_id"])
	check.Equal[any](t, "sell", accepted[0].ContextMap()["side"])
}

func TestNode_DuplicateOrderID(t *testing.T) {
	n := newTestNode(t, auction.Oblivious)
	submitExampleBook(t, n)

	_, err := n.SubmitOrder(auctionapi.SubmitOrderRequest{Side: "sell", Order: core.RawOrder{ID: 1}})
	check.True(t, errors.Is(err, auction.ErrDuplicateOrder))
	check.Equal(t, 2, len(n.orders))
}

func TestNode_SealedOrder(t *testing.T) {
	n := newTestNode(t, auction.Oblivious, WithAttester(CreateMockEnclave(t)))
	_, err := n.UpdatePrices(auctionapi.UpdatePricesRequest{Caller: owner, MinPrice: 0, MaxPrice: 50})
	assert.NoError(t, err)

	sell := sealOrder(t, core.RawOrder{ID: 5, QuantityPerTier: core.Curve{4, 0, 0, 0, 0, 0}}, n.keys.PublicKey, HashAlgorithmSHA1)
	_, err = n.SubmitSealedOrder(auctionapi.SubmitSealedOrderRequest{Side: "sell", Order: sell})
	assert.NoError(t, err)
	_, err = n.SubmitOrder(auctionapi.SubmitOrderRequest{
		Side:  "buy",
		Order: core.RawOrder{ID: 6, QuantityPerTier: core.Curve{0, 0, 0, 0, 0, 4}},
	})
	assert.NoError(t, err)

	resp, err := n.Clear(context.Background(), auctionapi.ClearRequest{Caller: owner})
	assert.NoError(t, err)
	check.Equal(t, []core.Trade{{BuyerID: 6, SellerID: 5, Quantity: 4}}, resp.Trades)

	cose, err := resp.AttestationCOSEBase64.Decode()
	assert.NoError(t, err)
	doc := parseClearingAttestation(t, cose)
	check.Equal(t, []string{core.ComputeSealedOrderHash(5, sell.EncryptedPayload, doc.UserData.OrderHashNonce)}, doc.UserData.SellHashes)
}

func TestNode_SealedOrderRejected(t *testing.T) {
	n := newTestNode(t, auction.Plaintext)
	other, err := NewKeyManager()
	assert.NoError(t, err)

	so := sealOrder(t, core.RawOrder{ID: 1}, other.PublicKey, HashAlgorithmSHA256)
	_, err = n.SubmitSealedOrder(auctionapi.SubmitSealedOrderRequest{Side: "buy", Order: so})
	check.Error(t, err)
	check.Equal(t, 0, n.State().Buys)
}

func TestNode_SubmitErrors(t *testing.T) {
	n := newTestNode(t, auction.Plaintext)

	_, err := n.SubmitOrder(auctionapi.SubmitOrderRequest{Side: "hold", Order: core.RawOrder{ID: 1}})
	check.Error(t, err)

	_, err = n.SubmitOrder(auctionapi.SubmitOrderRequest{
		Side:  "sell",
		Order: core.RawOrder{ID: 1, QuantityPerTier: core.Curve{-1, 0, 0, 0, 0, 0}},
	})
	check.True(t, errors.Is(err, core.ErrNegativeQuantity))
	check.Equal(t, 0, len(n.orders))
}

func TestNode_ResetForgetsOrders(t *testing.T) {
	n := newTestNode(t, auction.Plaintext)
	submitExampleBook(t, n)

	_, err := n.Reset(auctionapi.ResetRequest{Caller: owner})
	check.True(t, errors.Is(err, auction.ErrNotCleared))

	_, err = n.Clear(context.Background(), auctionapi.ClearRequest{Caller: owner})
	assert.NoError(t, err)

	_, err = n.Reset(auctionapi.ResetRequest{Caller: "intruder"})
	check.True(t, errors.Is(err, auction.ErrUnauthorized))

	_, err = n.Reset(auctionapi.ResetRequest{Caller: owner})
	assert.NoError(t, err)
	check.Equal(t, 0, len(n.orders))

	state := n.State()
	check.False(t, state.Cleared)
	check.Equal(t, 0, state.Sells)
	check.Equal(t, 1, state.Round)
	check.Equal(t, core.Curve{}, state.Prices)
}
