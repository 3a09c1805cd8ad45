package types

// Address captures billing or shipping details forwarded to the gateway
// when the store has the corresponding capture feature enabled.
type Address struct {
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phoneNumber,omitempty"`
	StreetName  string `json:"streetName,omitempty"`
	StreetNum   string `json:"streetNumber,omitempty"`
	Apartment   string `json:"apartment,omitempty"`
	City        string `json:"city,omitempty"`
	Province    string `json:"province,omitempty"`
	Country     string `json:"country,omitempty"`
	PostalCode  string `json:"postalCode,omitempty"`
	AddressLine string `json:"address,omitempty"`
}
