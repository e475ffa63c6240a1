package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cloudx-io/doubleauction/auction"
	"github.com/cloudx-io/doubleauction/auctionapi"
	"github.com/cloudx-io/doubleauction/core"
	"github.com/cloudx-io/doubleauction/logging"
	"github.com/cloudx-io/doubleauction/store"
)

// ErrNoAttester is returned for requests that need an NSM when none is
// available.
var ErrNoAttester = errors.New("enclave attester not available")

// Node owns one auction and serializes every request against it.
type Node struct {
	mu sync.Mutex

	auctionID     string
	priceExponent int32
	auction       auction.Auction
	keys          *KeyManager
	// attester is nil outside an enclave. Clearing then proceeds without an
	// attestation.
	attester EnclaveAttester
	// archive is optional.
	archive *store.Store
	// orderNonce salts the order commitments of the current round. It is
	// drawn at the first submission after a reset.
	orderNonce string
	orders     []orderEntry
	now        func() time.Time
	log        *logging.Logger
}

// NodeOption customizes a Node.
type NodeOption func(*Node)

func WithAttester(a EnclaveAttester) NodeOption {
	return func(n *Node) { n.attester = a }
}

func WithArchive(s *store.Store) NodeOption {
	return func(n *Node) { n.archive = s }
}

func WithPriceExponent(exp int32) NodeOption {
	return func(n *Node) { n.priceExponent = exp }
}

func NewNode(auctionID string, a auction.Auction, keys *KeyManager, log *logging.Logger, opts ...NodeOption) *Node {
	if log == nil {
		log = logging.NewNop()
	}
	n := &Node{
		auctionID: auctionID,
		auction:   a,
		keys:      keys,
		now:       time.Now,
		log:       log.Named("node").With(zap.String("auction_id", auctionID), zap.String("mode", string(a.Mode()))),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Node) KeyRequest() (*auctionapi.KeyResponse, error) {
	if n.attester == nil {
		return nil, ErrNoAttester
	}
	return HandleKeyRequest(n.attester, n.keys, n.auctionID)
}

func (n *Node) UpdatePrices(req auctionapi.UpdatePricesRequest) (*auctionapi.AckResponse, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.auction.UpdatePrices(req.Caller, req.MinPrice, req.MaxPrice); err != nil {
		return nil, err
	}
	n.log.Info("prices updated", zap.Int64("min", req.MinPrice), zap.Int64("max", req.MaxPrice))
	return &auctionapi.AckResponse{Type: auctionapi.TypeAck, Success: true}, nil
}

func (n *Node) SubmitOrder(req auctionapi.SubmitOrderRequest) (*auctionapi.OrderResponse, error) {
	side, err := core.ParseSide(req.Side)
	if err != nil {
		return nil, err
	}
	return n.submit(side, req.Order, "")
}

// SubmitSealedOrder decrypts the order inside the enclave and submits it. The
// order is committed to by its ciphertext.
func (n *Node) SubmitSealedOrder(req auctionapi.SubmitSealedOrderRequest) (*auctionapi.OrderResponse, error) {
	side, err := core.ParseSide(req.Side)
	if err != nil {
		return nil, err
	}
	o, err := n.keys.Open(req.Order)
	if err != nil {
		n.log.Warn("sealed order rejected", zap.Error(err))
		return nil, err
	}
	return n.submit(side, o, req.Order.EncryptedPayload)
}

// roundNonce returns the order nonce of the current round, drawing it on
// first use.
func (n *Node) roundNonce() (string, error) {
	if n.orderNonce == "" {
		nonce, err := generateNonce()
		if err != nil {
			return "", fmt.Errorf("failed to generate order hash nonce: %w", err)
		}
		n.orderNonce = nonce
	}
	return n.orderNonce, nil
}

// submit hands the order to the auction and keeps only its side and
// commitment. The plaintext order is not retained by the node.
func (n *Node) submit(side core.Side, o core.RawOrder, sealed string) (*auctionapi.OrderResponse, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	nonce, err := n.roundNonce()
	if err != nil {
		return nil, err
	}
	if side == core.Sell {
		err = n.auction.SubmitSell(o)
	} else {
		err = n.auction.SubmitBuy(o)
	}
	if err != nil {
		return nil, err
	}
	n.orders = append(n.orders, newOrderEntry(side, o, sealed, nonce))

	fields := []zap.Field{zap.Bool("sealed", sealed != "")}
	if n.auction.Mode() == auction.Plaintext {
		fields = append(fields, zap.Stringer("side", side), zap.Int64("order_id", o.ID))
	}
	n.log.Debug("order accepted", fields...)
	return &auctionapi.OrderResponse{
		Type:    auctionapi.TypeOrderResponse,
		Success: true,
		OrderID: o.ID,
		Side:    side.String(),
	}, nil
}

// Clear clears the book, attests the result when an attester is present and
// archives the round when an archive is configured. Once the auction has
// committed the round the outcome is always returned: attestation and archive
// failures are logged and reported through the Attested and Archived flags.
func (n *Node) Clear(ctx context.Context, req auctionapi.ClearRequest) (*auctionapi.ClearResponse, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	nonce, err := n.roundNonce()
	if err != nil {
		return nil, err
	}

	start := n.now()
	out, err := n.auction.Clear(ctx, req.Caller)
	if err != nil {
		return nil, err
	}
	snap := n.auction.Snapshot()
	price := core.NewPriceLadder(snap.MinPrice, snap.MaxPrice).Quote(out.Tier, n.priceExponent)
	record := store.NewRoundRecord(n.auctionID, string(snap.Mode), out.Round, out.Tier, price, out.Trades, start)
	log := n.log.With(zap.Int("round", out.Round), zap.String("round_id", record.RoundID))

	resp := &auctionapi.ClearResponse{
		Type:      auctionapi.TypeClearResponse,
		Success:   true,
		AuctionID: n.auctionID,
		RoundID:   record.RoundID,
		Round:     out.Round,
		Mode:      string(snap.Mode),
		Tier:      out.Tier,
		Price:     price.String(),
		SellFills: out.SellFills,
		BuyFills:  out.BuyFills,
		Trades:    out.Trades,
	}

	if n.attester != nil {
		info := roundInfo{AuctionID: n.auctionID, RoundID: record.RoundID, Mode: snap.Mode, Prices: snap.Prices}
		cose, err := n.attestClearing(info, nonce, out, start)
		if err != nil {
			log.Error("clearing attestation failed", zap.Error(err))
		} else {
			resp.AttestationCOSEBase64 = cose.EncodeBase64()
			resp.Attested = true
		}
	}

	if n.archive != nil {
		if err := n.archive.SaveRound(ctx, record); err != nil {
			log.Error("archiving round failed", zap.Error(err))
		} else {
			resp.Archived = true
		}
	}

	resp.ProcessingTime = n.now().Sub(start).Milliseconds()
	log.Info("round cleared",
		zap.Int("tier", int(out.Tier)),
		zap.String("price", resp.Price),
		zap.Int64("volume", record.Volume),
		zap.Bool("attested", resp.Attested),
		zap.Bool("archived", resp.Archived))
	return resp, nil
}

func (n *Node) attestClearing(info roundInfo, nonce string, out *auction.Outcome, at time.Time) (auctionapi.AttestationCOSE, error) {
	userData, err := BuildClearingUserData(info, nonce, n.orders, out, at)
	if err != nil {
		return nil, err
	}
	return GenerateClearingAttestation(n.attester, userData)
}

func (n *Node) Reset(req auctionapi.ResetRequest) (*auctionapi.AckResponse, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.auction.Reset(req.Caller); err != nil {
		return nil, err
	}
	n.orders = nil
	n.orderNonce = ""
	n.log.Info("auction reset")
	return &auctionapi.AckResponse{Type: auctionapi.TypeAck, Success: true}, nil
}

func (n *Node) State() *auctionapi.StateResponse {
	n.mu.Lock()
	defer n.mu.Unlock()

	snap := n.auction.Snapshot()
	return &auctionapi.StateResponse{
		Type:      auctionapi.TypeStateResponse,
		Mode:      string(snap.Mode),
		Owner:     snap.Owner,
		MinPrice:  snap.MinPrice,
		MaxPrice:  snap.MaxPrice,
		Prices:    snap.Prices,
		Cleared:   snap.Cleared,
		Tier:      snap.Tier,
		Round:     snap.Round,
		Sells:     snap.Sells,
		Buys:      snap.Buys,
		SellFills: snap.SellFills,
		BuyFills:  snap.BuyFills,
		Trades:    snap.Trades,
	}
}
