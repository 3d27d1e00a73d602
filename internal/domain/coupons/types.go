package coupons

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"

	TypeCode = "code"
	TypeDeal = "deal"

	MinLayoutPosition = 1
	MaxLayoutPosition = 8
)

var (
	ErrInvalidDiscount       = errors.New("discount value must be a finite, non-negative number")
	ErrInvalidDiscountType   = errors.New("discount type must be percentage or fixed")
	ErrInvalidCouponType     = errors.New("coupon type must be code or deal")
	ErrInvalidLayoutPosition = fmt.Errorf("layout position must be between %d and %d", MinLayoutPosition, MaxLayoutPosition)
	ErrMissingCouponID       = errors.New("coupon id is required")
)

// Grid names one of the positional promotional layouts.
type Grid string

const (
	GridPopular Grid = "popular"
	GridLatest  Grid = "latest"
)

// Coupon is the canonical coupon/deal record keyed by CouponID.
type Coupon struct {
	ID                   int64      `json:"id"`
	CouponID             string     `json:"couponId"`
	StoreIDs             []string   `json:"storeIds"`
	Title                string     `json:"title"`
	Description          *string    `json:"description"`
	Code                 *string    `json:"code"`
	CouponType           string     `json:"couponType"`
	DeepLink             *string    `json:"deepLink"`
	ImageURL             *string    `json:"imageUrl"`
	DiscountValue        *float64   `json:"discountValue"`
	DiscountType         string     `json:"discountType"`
	StartsAt             *time.Time `json:"startsAt"`
	ExpiresAt            *time.Time `json:"expiresAt"`
	IsActive             bool       `json:"isActive"`
	IsPopular            bool       `json:"isPopular"`
	IsLatest             bool       `json:"isLatest"`
	LayoutPosition       *int       `json:"layoutPosition"`
	LatestLayoutPosition *int       `json:"latestLayoutPosition"`
	Source               string     `json:"source"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`

	// OutCode is the short out-link code; filled in by the API layer.
	OutCode string `json:"outCode,omitempty"`
}

type Filters struct {
	StoreID *string
	Search  *string
	Type    *string
	Active  *bool
	Popular *bool
	Latest  *bool
}

// UpdateRequest carries a partial update. ClearLayoutPosition and
// ClearLatestLayoutPosition empty a slot, since a nil pointer means
// "unchanged".
type UpdateRequest struct {
	StoreIDs                  []string
	Title                     *string
	Description               *string
	Code                      *string
	CouponType                *string
	DeepLink                  *string
	ImageURL                  *string
	DiscountValue             *float64
	DiscountType              *string
	StartsAt                  *time.Time
	ExpiresAt                 *time.Time
	IsActive                  *bool
	IsPopular                 *bool
	IsLatest                  *bool
	LayoutPosition            *int
	LatestLayoutPosition      *int
	ClearLayoutPosition       bool
	ClearLatestLayoutPosition bool
}

// Validate is the write boundary: non-finite discounts never reach storage.
func Validate(c Coupon) error {
	if c.CouponID == "" {
		return ErrMissingCouponID
	}
	if err := validateDiscount(c.DiscountValue); err != nil {
		return err
	}
	if err := validateDiscountType(c.DiscountType); err != nil {
		return err
	}
	if c.CouponType != TypeCode && c.CouponType != TypeDeal {
		return ErrInvalidCouponType
	}
	if err := validatePosition(c.LayoutPosition); err != nil {
		return err
	}
	return validatePosition(c.LatestLayoutPosition)
}

func validateDiscount(v *float64) error {
	if v == nil {
		return nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 {
		return ErrInvalidDiscount
	}
	return nil
}

func validateDiscountType(t string) error {
	switch t {
	case "", DiscountPercentage, DiscountFixed:
		return nil
	}
	return ErrInvalidDiscountType
}

func validatePosition(p *int) error {
	if p == nil {
		return nil
	}
	if *p < MinLayoutPosition || *p > MaxLayoutPosition {
		return ErrInvalidLayoutPosition
	}
	return nil
}

func (req UpdateRequest) validate() error {
	if err := validateDiscount(req.DiscountValue); err != nil {
		return err
	}
	if req.DiscountType != nil {
		if err := validateDiscountType(*req.DiscountType); err != nil {
			return err
		}
	}
	if req.CouponType != nil && *req.CouponType != TypeCode && *req.CouponType != TypeDeal {
		return ErrInvalidCouponType
	}
	if err := validatePosition(req.LayoutPosition); err != nil {
		return err
	}
	return validatePosition(req.LatestLayoutPosition)
}
