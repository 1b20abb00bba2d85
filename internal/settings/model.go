package settings

import "time"

// Settings is the single per-account row of default prices and agency
// branding.
type Settings struct {
	AdultPrice    float64   `json:"adult_price"`
	ChildPrice    float64   `json:"child_price"`
	InfantPrice   float64   `json:"infant_price"`
	Tax           float64   `json:"tax"`
	Surcharge     float64   `json:"surcharge"`
	AgencyName    string    `json:"agency_name"`
	AgencyTagline string    `json:"agency_tagline"`
	UpdatedAt     time.Time `json:"updated_at"`
	UpdatedBy     *string   `json:"updated_by,omitempty"`
}

// Defaults is the pricing and branding an account starts with before
// its settings row exists.
func Defaults() Settings {
	return Settings{
		AdultPrice:    130,
		ChildPrice:    90,
		InfantPrice:   20,
		Tax:           10,
		Surcharge:     10,
		AgencyName:    "AREYS",
		AgencyTagline: "Travel Agency",
	}
}
