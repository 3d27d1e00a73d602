// Package legacy names the collections the previous Firestore and MongoDB
// deployments kept, and the interface both readers satisfy.
package legacy

import (
	"context"

	"couponly/internal/normalize"
)

const (
	CollectionStores  = "stores"
	CollectionCoupons = "coupons"
)

// Source reads a whole collection as raw rows.
type Source interface {
	Rows(ctx context.Context, collection string) ([]normalize.Row, error)
	Close(ctx context.Context) error
}
