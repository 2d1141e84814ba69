package domain

// Address is a billing or shipping address.
type Address struct {
	Company       string `json:"company,omitempty"`
	Salutation    string `json:"salutation,omitempty"`
	Title         string `json:"title,omitempty"`
	FirstName     string `json:"firstName,omitempty"`
	LastName      string `json:"lastName,omitempty"`
	Street        string `json:"street,omitempty"`
	StreetDetails string `json:"streetDetails,omitempty"`
	ZipCode       string `json:"zipCode,omitempty"`
	City          string `json:"city,omitempty"`
	State         string `json:"state,omitempty"`
	Country       string `json:"country,omitempty"`
	VatID         string `json:"vatId,omitempty"`
	EmailAddress  string `json:"emailAddress,omitempty"`
	Phone         string `json:"phone,omitempty"`
	JobTitle      string `json:"jobTitle,omitempty"`
	Birthday      string `json:"birthday,omitempty"`
}

// Image is a product image in one size class.
type Image struct {
	Classifier string `json:"classifier"`
	URL        string `json:"url"`
}

// Link is a hypermedia reference returned with most resources.
type Link struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}
