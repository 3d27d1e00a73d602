package aggregator

import (
	"strconv"

	"couponly/internal/domain/coupons"
	"couponly/internal/domain/stores"
	"couponly/internal/normalize"
	"couponly/internal/takeads"

	"github.com/samber/lo"
)

func merchantKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

func merchantRow(m takeads.Merchant, storeID string) normalize.Row {
	return normalize.Row{
		"storeId":       storeID,
		"merchantId":    merchantKey(m.MerchantID),
		"name":          m.Name,
		"imageUri":      m.ImageURI,
		"defaultDomain": m.DefaultDomain,
		"trackingLink":  m.TrackingLink,
		"description":   m.Description,
		"categoryIds":   lo.Map(m.CategoryIDs, func(id int, _ int) string { return strconv.Itoa(id) }),
		"countryCodes":  m.CountryCodes,
		"isActive":      m.IsActive,
		"source":        stores.SourceTakeads,
	}
}

func couponRow(c takeads.Coupon) normalize.Row {
	row := normalize.Row{
		"couponId":     c.CouponID,
		"name":         c.Name,
		"code":         c.Code,
		"description":  c.Description,
		"imageUri":     c.ImageURI,
		"trackingLink": c.TrackingLink,
		"startDate":    c.StartDate,
		"endDate":      c.EndDate,
		"isActive":     c.IsActive,
		"source":       stores.SourceTakeads,
	}
	if c.Discount != "" {
		row["discount"] = c.Discount
	}
	return row
}

// storesFromMerchants maps merchants to stores. A merchant already linked
// to a local store (by merchant_id) updates that store.
func storesFromMerchants(merchants []takeads.Merchant, index map[string]string) []stores.Store {
	merchants = lo.UniqBy(merchants, func(m takeads.Merchant) int64 { return m.MerchantID })

	return lo.Map(merchants, func(m takeads.Merchant, _ int) stores.Store {
		key := merchantKey(m.MerchantID)
		storeID, ok := index[key]
		if !ok {
			storeID = key
		}
		return normalize.Store(merchantRow(m, storeID))
	})
}

// assignSlugs gives every store a slug no other store owns. A store that
// already has a slug keeps it; a colliding slug gets the store id appended.
// The unique index on stores.slug remains the final authority.
func assignSlugs(batch []stores.Store, owners map[string]string) {
	taken := make(map[string]string, len(owners))
	current := make(map[string]string, len(owners))
	for slug, storeID := range owners {
		taken[slug] = storeID
		current[storeID] = slug
	}

	for i := range batch {
		s := &batch[i]
		if slug, ok := current[s.StoreID]; ok {
			s.Slug = slug
			continue
		}

		slug := s.Slug
		if slug == "" {
			slug = normalize.Slugify("store-" + s.StoreID)
		}
		if owner, ok := taken[slug]; ok && owner != s.StoreID {
			slug = normalize.Slugify(slug + "-" + s.StoreID)
		}
		s.Slug = slug
		taken[slug] = s.StoreID
		current[s.StoreID] = slug
	}
}

// couponsFromUpstream maps coupons and resolves each merchant through the
// index. Unknown merchants leave the coupon without a store.
func couponsFromUpstream(upstream []takeads.Coupon, index map[string]string) (out []coupons.Coupon, unmatched, invalid int) {
	upstream = lo.UniqBy(upstream, func(c takeads.Coupon) string { return c.CouponID })

	out = make([]coupons.Coupon, 0, len(upstream))
	for _, u := range upstream {
		c := normalize.Coupon(couponRow(u))
		if storeID, ok := index[merchantKey(u.MerchantID)]; ok {
			c.StoreIDs = []string{storeID}
		} else {
			c.StoreIDs = []string{}
			unmatched++
		}
		if err := coupons.Validate(c); err != nil {
			invalid++
			continue
		}
		out = append(out, c)
	}
	return out, unmatched, invalid
}
