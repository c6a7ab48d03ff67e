package types

import "strings"

// Address is the shipping/billing address snapshot stored on orders.
// Persisted as jsonb; Swiss-format by default.
type Address struct {
	Name       string `json:"name"`
	Street     string `json:"street"`
	Street2    string `json:"street2,omitempty"`
	PostalCode string `json:"postal_code"`
	City       string `json:"city"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// IsZero reports whether no address data is present.
func (a Address) IsZero() bool {
	return a == Address{}
}

// Complete reports whether the fields required for parcel delivery are set.
func (a Address) Complete() bool {
	return strings.TrimSpace(a.Name) != "" &&
		strings.TrimSpace(a.Street) != "" &&
		strings.TrimSpace(a.PostalCode) != "" &&
		strings.TrimSpace(a.City) != ""
}
