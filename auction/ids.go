package auction

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/cloudx-io/doubleauction/core"
)

// orderIDs tracks the order ids taken on each side since the last reset.
// Ids are held as salted digests, so the book keeps no plaintext identity.
type orderIDs struct {
	salt [32]byte
	seen map[[sha256.Size]byte]struct{}
}

func newOrderIDs() orderIDs {
	ids := orderIDs{seen: make(map[[sha256.Size]byte]struct{})}
	rand.Read(ids.salt[:])
	return ids
}

func (ids *orderIDs) digest(side core.Side, id int64) [sha256.Size]byte {
	var buf [32 + 1 + 8]byte
	copy(buf[:32], ids.salt[:])
	buf[32] = byte(side)
	binary.BigEndian.PutUint64(buf[33:], uint64(id))
	return sha256.Sum256(buf[:])
}

// claim records id for side, failing when that side already has it.
func (ids *orderIDs) claim(side core.Side, id int64) error {
	if ids.seen == nil {
		*ids = newOrderIDs()
	}
	d := ids.digest(side, id)
	if _, ok := ids.seen[d]; ok {
		return fmt.Errorf("%s order %d: %w", side, id, ErrDuplicateOrder)
	}
	ids.seen[d] = struct{}{}
	return nil
}
