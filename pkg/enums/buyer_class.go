package enums

import "fmt"

// BuyerClass is the pricing audience a tier applies to. Customers buy retail,
// retailers buy wholesale.
type BuyerClass string

const (
	BuyerClassCustomer BuyerClass = "customer"
	BuyerClassRetailer BuyerClass = "retailer"
)

// String implements fmt.Stringer.
func (b BuyerClass) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BuyerClass.
func (b BuyerClass) IsValid() bool {
	return b == BuyerClassCustomer || b == BuyerClassRetailer
}

// ParseBuyerClass converts raw input into a BuyerClass.
func ParseBuyerClass(value string) (BuyerClass, error) {
	switch BuyerClass(value) {
	case BuyerClassCustomer:
		return BuyerClassCustomer, nil
	case BuyerClassRetailer:
		return BuyerClassRetailer, nil
	default:
		return "", fmt.Errorf("invalid buyer class %q", value)
	}
}

// SellerClass tells which audience a seller serves.
type SellerClass string

const (
	SellerClassRetailer   SellerClass = "retailer"
	SellerClassWholesaler SellerClass = "wholesaler"
)

// IsValid reports whether the value is a known SellerClass.
func (s SellerClass) IsValid() bool {
	return s == SellerClassRetailer || s == SellerClassWholesaler
}

// BuyerClassFor maps a seller class to the buyer class allowed to purchase
// from it: customers buy from retailers, retailers buy from wholesalers.
func (s SellerClass) BuyerClassFor() BuyerClass {
	if s == SellerClassWholesaler {
		return BuyerClassRetailer
	}
	return BuyerClassCustomer
}
