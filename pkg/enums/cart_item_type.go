package enums

import "fmt"

// CartItemType distinguishes physical products from gift vouchers.
type CartItemType string

const (
	CartItemTypeProduct CartItemType = "product"
	CartItemTypeVoucher CartItemType = "voucher"
)

var validCartItemTypes = []CartItemType{
	CartItemTypeProduct,
	CartItemTypeVoucher,
}

// String implements fmt.Stringer.
func (c CartItemType) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CartItemType.
func (c CartItemType) IsValid() bool {
	for _, candidate := range validCartItemTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCartItemType converts raw input into a CartItemType.
func ParseCartItemType(value string) (CartItemType, error) {
	for _, candidate := range validCartItemTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cart item type %q", value)
}
