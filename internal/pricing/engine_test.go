package pricing

import "testing"

func TestPriceLineBuy(t *testing.T) {
	p := PriceLine(Line{Mode: ModeBuy, UnitPrice: 1899, Qty: 1})
	if p.Total != 1899 {
		t.Fatalf("expected total 1899, got %d", p.Total)
	}
	if p.Deposit != 0 {
		t.Fatalf("purchases carry no deposit, got %d", p.Deposit)
	}
}

func TestPriceLineRentFloorsDeposit(t *testing.T) {
	// 299/day for 3 days = 897; deposit floor(897 * 0.30) = floor(269.1) = 269.
	p := PriceLine(Line{Mode: ModeRent, UnitPrice: 299, Qty: 1, DurationDays: 3})
	if p.Total != 897 {
		t.Fatalf("expected rental total 897, got %d", p.Total)
	}
	if p.Deposit != 269 {
		t.Fatalf("expected deposit 269, got %d", p.Deposit)
	}
}

func TestPriceLineRentScalesDepositByQty(t *testing.T) {
	single := PriceLine(Line{Mode: ModeRent, UnitPrice: 450, Qty: 1, DurationDays: 2})
	double := PriceLine(Line{Mode: ModeRent, UnitPrice: 450, Qty: 2, DurationDays: 2})
	if double.Total != 2*single.Total {
		t.Fatalf("expected total to double, got %d vs %d", double.Total, single.Total)
	}
	if double.Deposit != 2*single.Deposit {
		t.Fatalf("expected deposit to double, got %d vs %d", double.Deposit, single.Deposit)
	}
}

func TestDepositMonotonicity(t *testing.T) {
	prev := Money(-1)
	for days := 1; days <= 30; days++ {
		p := PriceLine(Line{Mode: ModeRent, UnitPrice: 299, Qty: 1, DurationDays: days})
		if p.Deposit < prev {
			t.Fatalf("deposit decreased at %d days: %d < %d", days, p.Deposit, prev)
		}
		prev = p.Deposit
	}
	prev = -1
	for price := Money(100); price <= 1000; price += 50 {
		p := PriceLine(Line{Mode: ModeRent, UnitPrice: price, Qty: 1, DurationDays: 5})
		if p.Deposit < prev {
			t.Fatalf("deposit decreased at price %d: %d < %d", price, p.Deposit, prev)
		}
		prev = p.Deposit
	}
}

func mixedLines() []Line {
	return []Line{
		{Mode: ModeBuy, UnitPrice: 1899, Qty: 1},
		{Mode: ModeRent, UnitPrice: 299, Qty: 1, DurationDays: 3},
	}
}

func TestComputeTotalsMixedCart(t *testing.T) {
	lines := mixedLines()

	rent := ComputeTotals(lines, FilterRent, 0)
	if rent.Subtotal != 897 || rent.Deposit != 269 || rent.GrandTotal != 1166 {
		t.Fatalf("unexpected rent totals: %+v", rent)
	}

	buy := ComputeTotals(lines, FilterBuy, 0)
	if buy.Subtotal != 1899 || buy.Deposit != 0 || buy.GrandTotal != 1899 {
		t.Fatalf("unexpected buy totals: %+v", buy)
	}

	all := ComputeTotals(lines, FilterAll, 0)
	if all.Subtotal != 2796 || all.Deposit != 269 || all.GrandTotal != 3065 {
		t.Fatalf("unexpected combined totals: %+v", all)
	}
}

func TestTotalsPartitionConsistency(t *testing.T) {
	carts := [][]Line{
		nil,
		mixedLines(),
		{
			{Mode: ModeRent, UnitPrice: 120, Qty: 2, DurationDays: 4},
			{Mode: ModeRent, UnitPrice: 999, Qty: 1, DurationDays: 1},
			{Mode: ModeBuy, UnitPrice: 250, Qty: 3},
		},
	}
	for i, lines := range carts {
		all := ComputeTotals(lines, FilterAll, 0)
		rent := ComputeTotals(lines, FilterRent, 0)
		buy := ComputeTotals(lines, FilterBuy, 0)
		if all.GrandTotal != rent.GrandTotal+buy.GrandTotal {
			t.Fatalf("cart %d: grand totals do not partition: %d != %d + %d", i, all.GrandTotal, rent.GrandTotal, buy.GrandTotal)
		}
	}
}

func TestComputeTotalsSkipsZeroQty(t *testing.T) {
	lines := []Line{{Mode: ModeBuy, UnitPrice: 500, Qty: 0}}
	if got := ComputeTotals(lines, FilterAll, 0); got.GrandTotal != 0 {
		t.Fatalf("expected zero-qty lines ignored, got %+v", got)
	}
}
