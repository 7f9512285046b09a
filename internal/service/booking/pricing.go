package booking

import (
	"strings"

	"github.com/darshanhv296/Flight-Management-System/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	taxRate         = decimal.RequireFromString("0.18")
	cancellationFee = decimal.NewFromInt(250)

	multiplierBusiness = decimal.RequireFromString("1.5")
	multiplierFirst    = decimal.NewFromInt(2)
)

// ParseFareClass normalizes the case of known classes and keeps anything else verbatim.
func ParseFareClass(raw string) domain.FareClass {
	raw = strings.TrimSpace(raw)
	for _, c := range []domain.FareClass{domain.FareClassEconomy, domain.FareClassBusiness, domain.FareClassFirst} {
		if strings.EqualFold(raw, string(c)) {
			return c
		}
	}
	if raw == "" {
		return domain.FareClassEconomy
	}
	return domain.FareClass(raw)
}

// ClassMultiplier is 1 for Economy and unknown classes.
func ClassMultiplier(class domain.FareClass) decimal.Decimal {
	switch class {
	case domain.FareClassBusiness:
		return multiplierBusiness
	case domain.FareClassFirst:
		return multiplierFirst
	default:
		return decimal.NewFromInt(1)
	}
}

// Refund is price × class multiplier × (1 + tax) + fee, rounded to cents.
func Refund(price decimal.Decimal, class domain.FareClass) decimal.Decimal {
	return price.
		Mul(ClassMultiplier(class)).
		Mul(decimal.NewFromInt(1).Add(taxRate)).
		Add(cancellationFee).
		Round(2)
}

// Settlement is the outcome of moving money on a cancellation.
type Settlement struct {
	// Price is the booking price after settlement.
	Price decimal.Decimal
	// Entry is the ledger amount to append. Zero means no row.
	Entry decimal.Decimal
}

// Settle applies the role-dependent settlement rule.
//
// An admin never changes the stored price; a positive amount becomes a charge
// and anything else is dropped. A user is refunded |amount|: the ledger gets
// the negative entry and the price is reduced by at most its current value.
func Settle(role domain.Role, price, amount decimal.Decimal) Settlement {
	if role == domain.RoleAdmin {
		return Settlement{Price: price, Entry: nonNegative(amount)}
	}
	refund := amount.Abs()
	deduction := decimal.Max(decimal.Min(refund, price), decimal.Zero)
	return Settlement{Price: price.Sub(deduction), Entry: refund.Neg()}
}

// ParseAmount reads a caller-supplied amount. Anything non-numeric is zero.
func ParseAmount(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
