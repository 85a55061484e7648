package pricing

import "fmt"

// Money represents a monetary value stored in minor units of a single currency.
type Money = int64

// DefaultDepositRateBps is the refundable deposit charged on rental value,
// expressed in basis points. Integer bps math floors the deposit, which is the
// shopper-favouring rounding the storefront guarantees.
const DefaultDepositRateBps = 3000

// Mode distinguishes rental line items from purchases.
type Mode string

const (
	ModeRent Mode = "rent"
	ModeBuy  Mode = "buy"
)

// Filter scopes total computation to a subset of a cart.
type Filter string

const (
	FilterAll  Filter = "all"
	FilterRent Filter = "rent"
	FilterBuy  Filter = "buy"
)

// Line describes a priced cart entry. UnitPrice is the per-day rate for
// rentals and the purchase price for buys, snapshotted when the entry was
// created. DurationDays is at least 1 for rentals and ignored for buys.
type Line struct {
	Mode         Mode
	UnitPrice    Money
	Qty          int
	DurationDays int
}

// LinePrice carries the computed price components of a single line.
type LinePrice struct {
	Total   Money
	Deposit Money
}

// Totals aggregates a set of lines under a filter.
type Totals struct {
	Subtotal   Money `json:"subtotal"`
	Deposit    Money `json:"deposit"`
	GrandTotal Money `json:"grandTotal"`
}

// PriceLine computes the line total and refundable deposit for one entry.
// Inputs are assumed validated at line creation: qty >= 1, unit price >= 0,
// and duration >= 1 for rentals.
func PriceLine(l Line) LinePrice {
	return priceLine(l, DefaultDepositRateBps)
}

// PriceLineWithRate behaves like PriceLine with an explicit deposit rate.
func PriceLineWithRate(l Line, depositBps int) LinePrice {
	return priceLine(l, depositBps)
}

func priceLine(l Line, depositBps int) LinePrice {
	if l.Mode == ModeBuy {
		return LinePrice{Total: l.UnitPrice * Money(l.Qty)}
	}
	days := l.DurationDays
	if days < 1 {
		days = 1
	}
	perUnit := l.UnitPrice * Money(days)
	deposit := perUnit * Money(depositBps) / 10000
	return LinePrice{
		Total:   perUnit * Money(l.Qty),
		Deposit: deposit * Money(l.Qty),
	}
}

// ParseFilter converts a query-string value into a Filter. An empty value
// means all.
func ParseFilter(s string) (Filter, error) {
	switch Filter(s) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterRent:
		return FilterRent, nil
	case FilterBuy:
		return FilterBuy, nil
	default:
		return FilterAll, fmt.Errorf("unknown filter %q", s)
	}
}

// Matches reports whether the line falls inside the filter scope.
func (f Filter) Matches(m Mode) bool {
	switch f {
	case FilterRent:
		return m == ModeRent
	case FilterBuy:
		return m == ModeBuy
	default:
		return true
	}
}

// ComputeTotals sums line totals and deposits for all lines matching the
// filter. The aggregate deposit is the sum of per-line deposits; it is never
// recomputed from the subtotal, so multi-line rental carts stay consistent
// with what each line displays.
func ComputeTotals(lines []Line, f Filter, depositBps int) Totals {
	if depositBps <= 0 {
		depositBps = DefaultDepositRateBps
	}
	var t Totals
	for _, l := range lines {
		if l.Qty <= 0 || !f.Matches(l.Mode) {
			continue
		}
		p := priceLine(l, depositBps)
		t.Subtotal += p.Total
		t.Deposit += p.Deposit
	}
	t.GrandTotal = t.Subtotal + t.Deposit
	return t
}
