package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/fieldquote-sync/constants"
)

// BusinessProfile is the single tenant identity and configuration record.
type BusinessProfile struct {
	BusinessID    string  `json:"businessId"`
	BusinessName  string  `json:"businessName"`
	OwnerName     string  `json:"ownerName"`
	Email         string  `json:"email"`
	Phone         string  `json:"phone"`
	Address       *string `json:"address,omitempty"`
	Website       *string `json:"website,omitempty"`
	LogoURL       *string `json:"logoUrl,omitempty"`
	TaxID         *string `json:"taxId,omitempty"`
	LicenseNumber *string `json:"licenseNumber,omitempty"`

	EnablePushNotifications  bool    `json:"enablePushNotifications"`
	EnableEmailNotifications bool    `json:"enableEmailNotifications"`
	EnableSmsNotifications   bool    `json:"enableSmsNotifications"`
	NotificationEmail        *string `json:"notificationEmail,omitempty"`
	NotificationPhone        *string `json:"notificationPhone,omitempty"`

	DeliveryToken *string `json:"fcmToken,omitempty"`

	ServerURL string  `json:"serverUrl"`
	APIKey    *string `json:"apiKey,omitempty"`

	DefaultTaxRate     float64 `json:"defaultTaxRate"`
	Currency           string  `json:"currency"`
	QuoteValidityDays  int     `json:"quoteValidityDays"`
	TermsAndConditions *string `json:"termsAndConditions,omitempty"`

	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	LastSyncedAt *time.Time `json:"lastSyncedAt,omitempty"`
}

// NewBusinessProfile returns a profile with a fresh identifier and the
// onboarding defaults. Timestamps are assigned by the store.
func NewBusinessProfile(businessName, ownerName, email, phone string) BusinessProfile {
	return BusinessProfile{
		BusinessID:               uuid.NewString(),
		BusinessName:             businessName,
		OwnerName:                ownerName,
		Email:                    email,
		Phone:                    phone,
		EnablePushNotifications:  true,
		EnableEmailNotifications: true,
		EnableSmsNotifications:   true,
		ServerURL:                constants.DefaultServerURL,
		Currency:                 constants.DefaultCurrency,
		QuoteValidityDays:        constants.DefaultValidityDays,
		CreatedAt:                time.Now().UTC().Truncate(time.Millisecond),
	}
}

// IsComplete reports whether all required contact fields are non-blank.
func (p BusinessProfile) IsComplete() bool {
	return strings.TrimSpace(p.BusinessName) != "" &&
		strings.TrimSpace(p.OwnerName) != "" &&
		strings.TrimSpace(p.Email) != "" &&
		strings.TrimSpace(p.Phone) != ""
}

// DisplayName is the business name, or the owner name when it is blank.
func (p BusinessProfile) DisplayName() string {
	if strings.TrimSpace(p.BusinessName) != "" {
		return p.BusinessName
	}
	return p.OwnerName
}

// NotificationEmailAddress resolves the override email, falling back to the primary one.
func (p BusinessProfile) NotificationEmailAddress() string {
	return orDefault(p.NotificationEmail, p.Email)
}

// NotificationPhoneNumber resolves the override phone, falling back to the primary one.
func (p BusinessProfile) NotificationPhoneNumber() string {
	return orDefault(p.NotificationPhone, p.Phone)
}

// Token returns the delivery token or "".
func (p BusinessProfile) Token() string {
	return StrOrEmpty(p.DeliveryToken)
}

// Clone returns a deep copy so callers can mutate the result without
// touching a snapshot held elsewhere.
func (p BusinessProfile) Clone() BusinessProfile {
	c := p
	c.Address = clonePtr(p.Address)
	c.Website = clonePtr(p.Website)
	c.LogoURL = clonePtr(p.LogoURL)
	c.TaxID = clonePtr(p.TaxID)
	c.LicenseNumber = clonePtr(p.LicenseNumber)
	c.NotificationEmail = clonePtr(p.NotificationEmail)
	c.NotificationPhone = clonePtr(p.NotificationPhone)
	c.DeliveryToken = clonePtr(p.DeliveryToken)
	c.APIKey = clonePtr(p.APIKey)
	c.TermsAndConditions = clonePtr(p.TermsAndConditions)
	c.LastSyncedAt = clonePtr(p.LastSyncedAt)
	return c
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// StrOrEmpty dereferences p, returning "" for nil.
func StrOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func orDefault(p *string, def string) string {
	if p == nil || strings.TrimSpace(*p) == "" {
		return def
	}
	return *p
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
