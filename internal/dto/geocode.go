package dto

// ReverseGeocodeResponse mirrors the reverse-geocode proxy contract: every
// field is nullable because the upstream may resolve only part of the address.
type ReverseGeocodeResponse struct {
	Street     *string `json:"street"`
	City       *string `json:"city"`
	PostalCode *string `json:"postalCode"`
	Country    *string `json:"country"`
}
