package checkout

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/nearbuy-labs/nearbuy-backend/pkg/db/models"
)

// cartHash fingerprints the cart contents for a buyer so a retried checkout
// with an unchanged cart maps to the same prepared payment. Lines are sorted
// by product so insertion order never changes the hash.
func cartHash(buyerID uuid.UUID, items []models.CartItem) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("%s:%d", item.ProductID, item.Quantity))
	}
	sort.Strings(lines)

	h := sha256.New()
	h.Write([]byte(buyerID.String()))
	for _, line := range lines {
		h.Write([]byte("|"))
		h.Write([]byte(line))
	}
	return hex.EncodeToString(h.Sum(nil))
}
