package pricing

// DeliveryMethod selects how a checkout selection is fulfilled.
type DeliveryMethod string

const (
	DeliveryHome   DeliveryMethod = "home"
	DeliveryPickup DeliveryMethod = "pickup"
)

// CheckoutInput gathers everything the totalizer needs for one checkout pass.
type CheckoutInput struct {
	Lines            []Line
	Delivery         DeliveryMethod
	DamageProtection bool
	DepositRateBps   int
	HomeDeliveryFee  Money
	ProtectionFee    Money
}

// CheckoutSummary is the final payable breakdown across the checkout flow.
// Delivery echoes the effective method after policy enforcement.
type CheckoutSummary struct {
	RentalSubtotal   Money          `json:"rentalSubtotal"`
	PurchaseSubtotal Money          `json:"purchaseSubtotal"`
	Deposit          Money          `json:"deposit"`
	DeliveryCharge   Money          `json:"deliveryCharge"`
	ProtectionCharge Money          `json:"protectionCharge"`
	Total            Money          `json:"totalToPay"`
	Delivery         DeliveryMethod `json:"deliveryMethod"`
}

// ComputeCheckout extends cart totals with delivery and damage protection.
// Rental-only selections cannot take home delivery: the method is forced to
// pickup and no delivery charge applies. Damage protection is billable only
// when the selection contains rental value.
func ComputeCheckout(in CheckoutInput) CheckoutSummary {
	rent := ComputeTotals(in.Lines, FilterRent, in.DepositRateBps)
	buy := ComputeTotals(in.Lines, FilterBuy, in.DepositRateBps)

	delivery := in.Delivery
	if delivery == "" {
		delivery = DeliveryPickup
	}
	if buy.Subtotal == 0 {
		delivery = DeliveryPickup
	}

	var deliveryCharge Money
	if delivery == DeliveryHome && buy.Subtotal > 0 {
		deliveryCharge = in.HomeDeliveryFee
	}

	var protectionCharge Money
	if in.DamageProtection && rent.Subtotal > 0 {
		protectionCharge = in.ProtectionFee
	}

	return CheckoutSummary{
		RentalSubtotal:   rent.Subtotal,
		PurchaseSubtotal: buy.Subtotal,
		Deposit:          rent.Deposit,
		DeliveryCharge:   deliveryCharge,
		ProtectionCharge: protectionCharge,
		Total:            rent.Subtotal + buy.Subtotal + rent.Deposit + deliveryCharge + protectionCharge,
		Delivery:         delivery,
	}
}
