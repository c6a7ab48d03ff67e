package enums

import "fmt"

// ShippingMethod identifies how an order reaches the customer.
type ShippingMethod string

const (
	ShippingMethodStandard ShippingMethod = "standard"
	ShippingMethodExpress  ShippingMethod = "express"
	ShippingMethodPickup   ShippingMethod = "pickup"
	ShippingMethodNone     ShippingMethod = "none"
)

var validShippingMethods = []ShippingMethod{
	ShippingMethodStandard,
	ShippingMethodExpress,
	ShippingMethodPickup,
	ShippingMethodNone,
}

var shippingPriceCents = map[ShippingMethod]int{
	ShippingMethodStandard: 790,
	ShippingMethodExpress:  1490,
	ShippingMethodPickup:   0,
	ShippingMethodNone:     0,
}

// String implements fmt.Stringer.
func (s ShippingMethod) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShippingMethod.
func (s ShippingMethod) IsValid() bool {
	for _, candidate := range validShippingMethods {
		if candidate == s {
			return true
		}
	}
	return false
}

// PriceCents returns the flat shipping price for the method. Unknown or empty
// methods ship free.
func (s ShippingMethod) PriceCents() int {
	return shippingPriceCents[s]
}

// IsFree reports whether the method never incurs a shipping charge.
func (s ShippingMethod) IsFree() bool {
	return s == ShippingMethodPickup || s == ShippingMethodNone
}

// RequiresAddress reports whether the method needs a shipping address.
func (s ShippingMethod) RequiresAddress() bool {
	return s == ShippingMethodStandard || s == ShippingMethodExpress
}

// ParseShippingMethod converts raw input into a ShippingMethod.
func ParseShippingMethod(value string) (ShippingMethod, error) {
	for _, candidate := range validShippingMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipping method %q", value)
}
