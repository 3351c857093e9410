package models

// ReviewPrompt is the merged payload handed to the review generator:
// request fields combined with the client's admin data, client values
// winning over type defaults.
type ReviewPrompt struct {
	ClientID     int64    `json:"client_id"`
	ShopName     string   `json:"shop_name"`
	Industry     *string  `json:"industry,omitempty"`
	Rating       int      `json:"rating"`
	Language     string   `json:"language"`
	Product      *string  `json:"product,omitempty"`
	Area         []string `json:"area"`
	Contexts     []string `json:"contexts"`
	TrustSignals []string `json:"trust_signals"`
	Services     []string `json:"services"`
	SeoKeywords  []string `json:"seo_keywords"`
	Tone         *string  `json:"tone,omitempty"`
	Verbosity    int      `json:"verbosity"`
}
