package aggregator

import (
	"context"
	"testing"

	"couponly/internal/domain/stores"
	"couponly/internal/normalize"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestImportStoresFromLegacyRows(t *testing.T) {
	sink := newMemSink()
	im := NewImporter(sink, zap.NewNop().Sugar())

	rows := []normalize.Row{
		{"Store  Id": "ST-1", "Store Name": "Acme", "Store Logo": "acme.com/l.png"},
		{"Store Name": "No id"},
		{"Store  Id": "ST-1", "Store Name": "Acme again"},
	}

	res, err := im.ImportStores(context.Background(), rows, stores.SourceImport)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, int64(1), res.Upserted)
	assert.Equal(t, "Acme", sink.stores["ST-1"].Name)
	assert.Equal(t, stores.SourceImport, sink.stores["ST-1"].Source)
}

func TestImportCouponsSkipsInvalid(t *testing.T) {
	sink := newMemSink()
	im := NewImporter(sink, zap.NewNop().Sugar())

	rows := []normalize.Row{
		{"Coupon Id": "C-1", "Store Id": "ST-1", "Discount": "15%", "Coupon Code": "X"},
		{"Coupon Id": "", "Discount": "5"},
		{"Coupon Id": "C-2", "Discount": "-5"},
	}

	res, err := im.ImportCoupons(context.Background(), rows, stores.SourceLegacy)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, int64(1), res.Upserted)
	assert.Equal(t, []string{"ST-1"}, sink.coupons["C-1"].StoreIDs)
}

func TestImportCarriesCuratedColumns(t *testing.T) {
	ctx := context.Background()

	t.Run("featured store", func(t *testing.T) {
		sink := newMemSink()
		im := NewImporter(sink, zap.NewNop().Sugar())

		_, err := im.ImportStores(ctx, []normalize.Row{
			{"Store Id": "ST-1", "Store Name": "Acme", "Featured": "yes"},
			{"Store Id": "ST-2", "Store Name": "Plain"},
		}, stores.SourceImport)
		require.NoError(t, err)

		assert.True(t, sink.stores["ST-1"].IsFeatured)
		assert.False(t, sink.stores["ST-2"].IsFeatured)
	})

	type want struct {
		popular, latest      bool
		layout, latestLayout *int
	}
	tests := []struct {
		name string
		rows []normalize.Row
		want map[string]want
	}{
		{
			name: "flags and slots",
			rows: []normalize.Row{
				{"couponId": "C-1", "code": "A", "isPopular": true, "layoutPosition": 2},
				{"couponId": "C-2", "code": "B", "isLatest": "yes", "latestLayoutPosition": 5},
				{"couponId": "C-3", "code": "C"},
			},
			want: map[string]want{
				"C-1": {popular: true, layout: intPtr(2)},
				"C-2": {latest: true, latestLayout: intPtr(5)},
				"C-3": {},
			},
		},
		{
			name: "slot without flag turns the flag on",
			rows: []normalize.Row{
				{"couponId": "C-1", "code": "A", "layoutPosition": 4, "latestLayoutPosition": 1},
			},
			want: map[string]want{
				"C-1": {popular: true, latest: true, layout: intPtr(4), latestLayout: intPtr(1)},
			},
		},
		{
			name: "last row claiming a slot keeps it",
			rows: []normalize.Row{
				{"couponId": "C-1", "code": "A", "layoutPosition": 1},
				{"couponId": "C-2", "code": "B", "layoutPosition": 1},
			},
			want: map[string]want{
				"C-1": {popular: true},
				"C-2": {popular: true, layout: intPtr(1)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := newMemSink()
			im := NewImporter(sink, zap.NewNop().Sugar())

			res, err := im.ImportCoupons(ctx, tt.rows, stores.SourceImport)
			require.NoError(t, err)
			assert.Zero(t, res.Skipped)

			for id, w := range tt.want {
				c, ok := sink.coupons[id]
				require.True(t, ok, id)
				assert.Equal(t, w.popular, c.IsPopular, id)
				assert.Equal(t, w.latest, c.IsLatest, id)
				assert.Equal(t, w.layout, c.LayoutPosition, id)
				assert.Equal(t, w.latestLayout, c.LatestLayoutPosition, id)
			}
		})
	}
}

func intPtr(n int) *int { return &n }
