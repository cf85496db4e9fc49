package constants

// Defaults applied to a freshly onboarded business profile.
const (
	DefaultServerURL    = "https://quote-acceptance.yourserver.com"
	DefaultCurrency     = "USD"
	DefaultValidityDays = 30
)

// Storage layout for the single active profile.
const (
	StorageNamespace    = "fieldquote_business_profile"
	KeyBusinessProfile  = "business_profile"
	KeySetupComplete    = "is_setup_complete"
	KeyActiveBusinessID = "active_business_id"
)
