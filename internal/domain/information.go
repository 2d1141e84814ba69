package domain

// Legal and information page names under the legal resource.
const (
	PageTermsAndConditions  = "terms-and-conditions"
	PagePrivacyPolicy       = "privacy-policy"
	PageRightsOfWithdrawal  = "rights-of-withdrawal"
	PageShippingInformation = "shipping-information"
	PageContactInformation  = "contact-information"
)

// InformationPages lists every page the legal resource serves.
var InformationPages = []string{
	PageTermsAndConditions,
	PagePrivacyPolicy,
	PageRightsOfWithdrawal,
	PageShippingInformation,
	PageContactInformation,
}

// Information is a localized legal or information page.
type Information struct {
	Name              string `json:"name"`
	Title             string `json:"title"`
	NavigationCaption string `json:"navigationCaption"`
	ShortDescription  string `json:"shortDescription"`
	Description       string `json:"description"`
}
