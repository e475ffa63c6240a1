package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cloudx-io/doubleauction/core"
)

// ErrRoundNotFound is returned when a round id is not in the archive.
var ErrRoundNotFound = errors.New("round not found")

// RoundRecord is one archived clearing. Price is in major units.
type RoundRecord struct {
	ID        uint   `gorm:"primaryKey"`
	RoundID   string `gorm:"uniqueIndex;size:36"`
	AuctionID string `gorm:"index"`
	Mode      string
	Round     int
	Tier      int
	Price     decimal.Decimal `gorm:"type:text"`
	Volume    int64
	ClearedAt time.Time
	Trades    []TradeRecord `gorm:"foreignKey:RoundRecordID;constraint:OnDelete:CASCADE"`
}

// TradeRecord is one trade of an archived round. Seq keeps crossing order.
type TradeRecord struct {
	ID            uint `gorm:"primaryKey"`
	RoundRecordID uint `gorm:"index"`
	Seq           int
	BuyerID       int64
	SellerID      int64
	Quantity      int64
}

// NewRoundRecord builds the archive entry for a clearing.
func NewRoundRecord(auctionID, mode string, round int, tier core.Tier, price decimal.Decimal, trades []core.Trade, at time.Time) *RoundRecord {
	r := &RoundRecord{
		RoundID:   uuid.NewString(),
		AuctionID: auctionID,
		Mode:      mode,
		Round:     round,
		Tier:      int(tier),
		Price:     price,
		ClearedAt: at.UTC(),
		Trades:    make([]TradeRecord, 0, len(trades)),
	}
	for i, t := range trades {
		r.Volume += t.Quantity
		r.Trades = append(r.Trades, TradeRecord{
			Seq:      i,
			BuyerID:  t.BuyerID,
			SellerID: t.SellerID,
			Quantity: t.Quantity,
		})
	}
	return r
}

// CoreTrades converts the record's trades back to core trades.
func (r *RoundRecord) CoreTrades() []core.Trade {
	out := make([]core.Trade, len(r.Trades))
	for i, t := range r.Trades {
		out[i] = core.Trade{BuyerID: t.BuyerID, SellerID: t.SellerID, Quantity: t.Quantity}
	}
	return out
}

// Store archives cleared rounds in SQLite.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the archive at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create DB directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&RoundRecord{}, &TradeRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveRound writes a round and its trades in one transaction.
func (s *Store) SaveRound(ctx context.Context, r *RoundRecord) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(r).Error
	})
}

// ListRounds returns the most recent rounds of an auction, newest first,
// without their trades. limit <= 0 means no limit.
func (s *Store) ListRounds(ctx context.Context, auctionID string, limit int) ([]RoundRecord, error) {
	q := s.db.WithContext(ctx).
		Where("auction_id = ?", auctionID).
		Order("cleared_at DESC").
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rounds []RoundRecord
	err := q.Find(&rounds).Error
	return rounds, err
}

// RoundTrades returns the trades of a round in crossing order.
func (s *Store) RoundTrades(ctx context.Context, roundID string) ([]TradeRecord, error) {
	var r RoundRecord
	err := s.db.WithContext(ctx).
		Preload("Trades", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		First(&r, "round_id = ?", roundID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("round %s: %w", roundID, ErrRoundNotFound)
	}
	if err != nil {
		return nil, err
	}
	return r.Trades, nil
}
