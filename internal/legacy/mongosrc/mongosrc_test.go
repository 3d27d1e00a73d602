package mongosrc

import (
	"testing"
	"time"

	"couponly/internal/normalize"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestToRowConvertsBSON(t *testing.T) {
	oid := primitive.NewObjectID()
	expires := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	dec, err := primitive.ParseDecimal128("12.5")
	require.NoError(t, err)

	row := toRow(bson.M{
		"_id":         oid,
		"coupon_id":   "C-77",
		"store_ids":   primitive.A{"ST-1", "ST-2"},
		"discount":    dec,
		"expires_at":  primitive.NewDateTimeFromTime(expires),
		"meta":        bson.D{{Key: "source", Value: "mongo"}},
		"description": primitive.Null{},
	})

	assert.Equal(t, oid.Hex(), row["id"])
	assert.Equal(t, map[string]any{"source": "mongo"}, row["meta"])
	assert.Nil(t, row["description"])

	c := normalize.Coupon(row)
	assert.Equal(t, "C-77", c.CouponID)
	assert.Equal(t, []string{"ST-1", "ST-2"}, c.StoreIDs)
	require.NotNil(t, c.DiscountValue)
	assert.Equal(t, 12.5, *c.DiscountValue)
	require.NotNil(t, c.ExpiresAt)
	assert.Equal(t, expires, *c.ExpiresAt)
	assert.Nil(t, c.Description)
}
