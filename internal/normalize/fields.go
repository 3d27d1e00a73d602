package normalize

import (
	"strings"

	"couponly/internal/domain/coupons"
	"couponly/internal/domain/stores"
)

// StoreFields lists, per canonical store field, the keys used by the API,
// Supabase rows, legacy spreadsheets/Firestore and Takeads merchants.
var StoreFields = []Field{
	{Name: "storeId", Keys: []string{"storeId", "store_id", "Store Id", "Store  Id", "Store ID", "StoreId", "merchantId", "merchant_id", "Merchant Id", "id"}, Coerce: String},
	{Name: "merchantId", Keys: []string{"merchantId", "merchant_id", "Merchant Id", "Merchant ID"}, Coerce: OptString},
	{Name: "name", Keys: []string{"name", "store_name", "Store Name", "storeName", "Name"}, Coerce: String},
	{Name: "slug", Keys: []string{"slug", "store_slug", "Store Slug", "Slug"}, Coerce: String},
	{Name: "logoUrl", Keys: []string{"logoUrl", "logo_url", "Store Logo", "logo", "imageUri", "image_url"}, Coerce: URL},
	{Name: "description", Keys: []string{"description", "store_description", "Store Description", "Description"}, Coerce: OptString},
	{Name: "websiteUrl", Keys: []string{"websiteUrl", "website_url", "Store Website", "Website", "Store URL", "defaultDomain", "domain"}, Coerce: URL},
	{Name: "trackingUrl", Keys: []string{"trackingUrl", "tracking_url", "Store Tracking Link", "Tracking Link", "Affiliate Link", "trackingLink", "deeplink"}, Coerce: URL},
	{Name: "categories", Keys: []string{"categories", "Store Categories", "Categories", "category", "Category", "categoryIds"}, Coerce: StringList},
	{Name: "countryCodes", Keys: []string{"countryCodes", "country_codes", "Country Codes", "Countries", "countries"}, Coerce: StringList},
	{Name: "isActive", Keys: []string{"isActive", "is_active", "Active", "active", "Status"}, Coerce: Bool, Default: true},
	{Name: "isFeatured", Keys: []string{"isFeatured", "is_featured", "Featured", "featured"}, Coerce: Bool},
	{Name: "source", Keys: []string{"source"}, Coerce: String},
}

// CouponFields is the coupon counterpart of StoreFields.
var CouponFields = []Field{
	{Name: "couponId", Keys: []string{"couponId", "coupon_id", "Coupon Id", "Coupon  Id", "Coupon ID", "CouponId", "id"}, Coerce: String},
	{Name: "storeIds", Keys: []string{"storeIds", "store_ids", "Store Ids", "storeId", "store_id", "Store Id", "Store  Id"}, Coerce: StringList},
	{Name: "title", Keys: []string{"title", "Coupon Title", "Title", "Coupon Name", "name"}, Coerce: String},
	{Name: "description", Keys: []string{"description", "Coupon Description", "Description"}, Coerce: OptString},
	{Name: "code", Keys: []string{"code", "coupon_code", "Coupon Code", "couponCode", "Code"}, Coerce: OptString},
	{Name: "couponType", Keys: []string{"couponType", "coupon_type", "Coupon Type", "type", "Type"}, Coerce: CouponType},
	{Name: "deepLink", Keys: []string{"deepLink", "deep_link", "Coupon Deep Link", "Deep Link", "trackingLink", "link", "url"}, Coerce: URL},
	{Name: "imageUrl", Keys: []string{"imageUrl", "image_url", "Coupon Image", "imageUri", "image"}, Coerce: URL},
	{Name: "discountValue", Keys: discountKeys, Coerce: Number},
	{Name: "discountType", Keys: []string{"discountType", "discount_type", "Discount Type"}, Coerce: DiscountType},
	{Name: "startsAt", Keys: []string{"startsAt", "starts_at", "Start Date", "startDate"}, Coerce: Time},
	{Name: "expiresAt", Keys: []string{"expiresAt", "expires_at", "Expiry Date", "End Date", "endDate", "expiryDate"}, Coerce: Time},
	{Name: "isActive", Keys: []string{"isActive", "is_active", "Active", "active", "Status"}, Coerce: Bool, Default: true},
	{Name: "isPopular", Keys: []string{"isPopular", "is_popular", "Popular"}, Coerce: Bool},
	{Name: "isLatest", Keys: []string{"isLatest", "is_latest", "Latest"}, Coerce: Bool},
	{Name: "layoutPosition", Keys: []string{"layoutPosition", "layout_position", "Layout Position"}, Coerce: Position},
	{Name: "latestLayoutPosition", Keys: []string{"latestLayoutPosition", "latest_layout_position", "Latest Layout Position"}, Coerce: Position},
	{Name: "source", Keys: []string{"source"}, Coerce: String},
}

var discountKeys = []string{"discountValue", "discount_value", "Discount", "discount", "Discount Value"}

// Store returns the typed canonical store. An empty slug is derived from
// the name.
func Store(row Row) stores.Store {
	c := Apply(StoreFields, row)

	s := stores.Store{
		StoreID:      c.str("storeId"),
		MerchantID:   c.optStr("merchantId"),
		Name:         c.str("name"),
		Slug:         c.str("slug"),
		LogoURL:      c.optStr("logoUrl"),
		Description:  c.optStr("description"),
		WebsiteURL:   c.optStr("websiteUrl"),
		TrackingURL:  c.optStr("trackingUrl"),
		Categories:   c.list("categories"),
		CountryCodes: c.list("countryCodes"),
		IsActive:     c.flag("isActive"),
		IsFeatured:   c.flag("isFeatured"),
		Source:       c.str("source"),
	}
	if s.Slug == "" {
		s.Slug = s.Name
	}
	s.Slug = Slugify(s.Slug)
	return s
}

// Coupon returns the typed canonical coupon. A missing discount type is
// inferred from the raw discount ("20%" is a percentage), and a missing
// coupon type from the presence of a code.
func Coupon(row Row) coupons.Coupon {
	c := Apply(CouponFields, row)

	out := coupons.Coupon{
		CouponID:             c.str("couponId"),
		StoreIDs:             c.list("storeIds"),
		Title:                c.str("title"),
		Description:          c.optStr("description"),
		Code:                 c.optStr("code"),
		CouponType:           c.str("couponType"),
		DeepLink:             c.optStr("deepLink"),
		ImageURL:             c.optStr("imageUrl"),
		DiscountValue:        c.num("discountValue"),
		DiscountType:         c.str("discountType"),
		StartsAt:             c.when("startsAt"),
		ExpiresAt:            c.when("expiresAt"),
		IsActive:             c.flag("isActive"),
		IsPopular:            c.flag("isPopular"),
		IsLatest:             c.flag("isLatest"),
		LayoutPosition:       c.whole("layoutPosition"),
		LatestLayoutPosition: c.whole("latestLayoutPosition"),
		Source:               c.str("source"),
	}

	if out.DiscountValue != nil && out.DiscountType == "" {
		out.DiscountType = coupons.DiscountFixed
		if raw, ok := lookup(row, discountKeys); ok {
			if s, isStr := raw.(string); isStr && strings.Contains(s, "%") {
				out.DiscountType = coupons.DiscountPercentage
			}
		}
	}
	if out.CouponType == "" {
		out.CouponType = coupons.TypeDeal
		if out.Code != nil {
			out.CouponType = coupons.TypeCode
		}
	}
	return out
}

// StoreRow renders s with canonical keys only.
func StoreRow(s stores.Store) Row {
	return Row{
		"storeId":      s.StoreID,
		"merchantId":   deref(s.MerchantID),
		"name":         s.Name,
		"slug":         s.Slug,
		"logoUrl":      deref(s.LogoURL),
		"description":  deref(s.Description),
		"websiteUrl":   deref(s.WebsiteURL),
		"trackingUrl":  deref(s.TrackingURL),
		"categories":   s.Categories,
		"countryCodes": s.CountryCodes,
		"isActive":     s.IsActive,
		"isFeatured":   s.IsFeatured,
		"source":       s.Source,
	}
}

// CouponRow renders c with canonical keys only.
func CouponRow(c coupons.Coupon) Row {
	row := Row{
		"couponId":     c.CouponID,
		"storeIds":     c.StoreIDs,
		"title":        c.Title,
		"description":  deref(c.Description),
		"code":         deref(c.Code),
		"couponType":   c.CouponType,
		"deepLink":     deref(c.DeepLink),
		"imageUrl":     deref(c.ImageURL),
		"discountType": c.DiscountType,
		"isActive":     c.IsActive,
		"isPopular":    c.IsPopular,
		"isLatest":     c.IsLatest,
		"source":       c.Source,
	}
	if c.DiscountValue != nil {
		row["discountValue"] = *c.DiscountValue
	}
	if c.StartsAt != nil {
		row["startsAt"] = *c.StartsAt
	}
	if c.ExpiresAt != nil {
		row["expiresAt"] = *c.ExpiresAt
	}
	if c.LayoutPosition != nil {
		row["layoutPosition"] = *c.LayoutPosition
	}
	if c.LatestLayoutPosition != nil {
		row["latestLayoutPosition"] = *c.LatestLayoutPosition
	}
	return row
}

func deref(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
