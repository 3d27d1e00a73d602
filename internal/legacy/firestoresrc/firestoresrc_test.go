package firestoresrc

import (
	"testing"
	"time"

	"couponly/internal/normalize"

	"github.com/stretchr/testify/assert"
)

func TestToRowAddsDocumentID(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	row := toRow("doc-1", map[string]any{
		"Coupon Title":     "Spring sale",
		"Coupon Deep Link": "shop.example.com/spring",
		"Discount":         int64(25),
		"Start Date":       created,
	})

	assert.Equal(t, "doc-1", row["id"])

	c := normalize.Coupon(row)
	assert.Equal(t, "doc-1", c.CouponID)
	assert.Equal(t, "Spring sale", c.Title)
	assert.Equal(t, 25.0, *c.DiscountValue)
	assert.Equal(t, created, *c.StartsAt)
}

func TestToRowKeepsOwnID(t *testing.T) {
	row := toRow("doc-1", map[string]any{"id": "ST-9"})
	assert.Equal(t, "ST-9", row["id"])
}
