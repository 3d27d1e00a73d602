package takeads

import "context"

// PageReport describes how a FetchAll loop ended. Next is non-nil only
// when the page ceiling stopped the loop before the upstream ran out.
type PageReport struct {
	Pages     int
	Truncated bool
	Next      *string
}

type PageFunc[T any] func(ctx context.Context, p ListParams) (*Page[T], error)

// FetchAll follows meta.next sequentially until it is null or maxPages
// pages have been read. Any error discards everything fetched so far.
func FetchAll[T any](ctx context.Context, fetch PageFunc[T], p ListParams, maxPages int) ([]T, PageReport, error) {
	items := []T{}
	var report PageReport
	if maxPages <= 0 {
		maxPages = 1
	}

	for report.Pages < maxPages {
		if err := ctx.Err(); err != nil {
			return nil, PageReport{}, err
		}

		page, err := fetch(ctx, p)
		if err != nil {
			return nil, PageReport{}, err
		}
		report.Pages++
		items = append(items, page.Data...)

		next := page.Meta.Next
		if next == nil || *next == "" {
			return items, report, nil
		}
		p.Next = next
	}

	report.Truncated = true
	report.Next = p.Next
	return items, report, nil
}

func (c *Client) FetchAllMerchants(ctx context.Context, p ListParams, maxPages int) ([]Merchant, PageReport, error) {
	return FetchAll(ctx, c.ListMerchants, p, maxPages)
}

func (c *Client) FetchAllCoupons(ctx context.Context, p ListParams, maxPages int) ([]Coupon, PageReport, error) {
	return FetchAll(ctx, c.ListCoupons, p, maxPages)
}
