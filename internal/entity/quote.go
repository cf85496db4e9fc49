package entity

import (
	"math"
	"time"
)

// Quote is the document authored by the UI collaborator.
type Quote struct {
	ClientName  string   `json:"clientName"`
	ClientPhone *string  `json:"clientPhone,omitempty"`
	ClientEmail *string  `json:"clientEmail,omitempty"`
	JobAddress  *string  `json:"jobAddress,omitempty"`
	Notes       *string  `json:"notes,omitempty"`
	TaxRate     *float64 `json:"taxRate,omitempty"` // percent; nil uses the profile default
	Tiers       []Tier   `json:"tiers"`
}

// Tier is one pricing option of a quote (e.g. good / better / best).
type Tier struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Items       []Item  `json:"items"`
}

// Item is a single priced line.
type Item struct {
	ServiceType string  `json:"serviceType"`
	Quantity    float64 `json:"quantity"`
	Rate        float64 `json:"rate"`
	Unit        string  `json:"unit"`
	Description *string `json:"description,omitempty"`
}

// Subtotal is quantity times rate, rounded to cents.
func (i Item) Subtotal() float64 {
	return RoundCents(i.Quantity * i.Rate)
}

// Total sums the tier's item subtotals.
func (t Tier) Total() float64 {
	var sum float64
	for _, it := range t.Items {
		sum += it.Subtotal()
	}
	return RoundCents(sum)
}

// Totals are the computed financial figures of a quote.
type Totals struct {
	Subtotal   float64 `json:"subtotal"`
	TaxRate    float64 `json:"taxRate"`
	TaxAmount  float64 `json:"taxAmount"`
	GrandTotal float64 `json:"grandTotal"`
}

// ComputeTotals sums all tiers and applies the quote's tax rate, or
// defaultTaxRate when the quote does not carry one.
func (q Quote) ComputeTotals(defaultTaxRate float64) Totals {
	rate := defaultTaxRate
	if q.TaxRate != nil {
		rate = *q.TaxRate
	}
	var sub float64
	for _, t := range q.Tiers {
		sub += t.Total()
	}
	sub = RoundCents(sub)
	tax := RoundCents(sub * rate / 100)
	return Totals{
		Subtotal:   sub,
		TaxRate:    rate,
		TaxAmount:  tax,
		GrandTotal: RoundCents(sub + tax),
	}
}

// Clone deep-copies the tiers and items.
func (q Quote) Clone() Quote {
	c := q
	c.Tiers = make([]Tier, len(q.Tiers))
	for i, t := range q.Tiers {
		t.Items = append([]Item(nil), t.Items...)
		c.Tiers[i] = t
	}
	return c
}

// RoundCents rounds half away from zero to two decimals.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// ProfileSnapshot holds the public profile fields stamped on an uploaded quote.
type ProfileSnapshot struct {
	BusinessID         string  `json:"businessId"`
	BusinessName       string  `json:"businessName"`
	OwnerName          string  `json:"ownerName"`
	Email              string  `json:"email"`
	Phone              string  `json:"phone"`
	Address            string  `json:"address"`
	Website            string  `json:"website"`
	TaxID              string  `json:"taxId"`
	LicenseNumber      string  `json:"licenseNumber"`
	Currency           string  `json:"currency"`
	QuoteValidityDays  int     `json:"validityDays"`
	TermsAndConditions string  `json:"termsAndConditions"`
	DefaultTaxRate     float64 `json:"defaultTaxRate"`

	EnablePush        bool   `json:"enablePush"`
	EnableEmail       bool   `json:"enableEmail"`
	EnableSms         bool   `json:"enableSms"`
	NotificationEmail string `json:"notificationEmail"`
	NotificationPhone string `json:"notificationPhone"`
	DeliveryToken     string `json:"fcmToken"`
}

// Snapshot copies the public fields of p with notification overrides resolved.
func (p BusinessProfile) Snapshot() ProfileSnapshot {
	return ProfileSnapshot{
		BusinessID:         p.BusinessID,
		BusinessName:       p.BusinessName,
		OwnerName:          p.OwnerName,
		Email:              p.Email,
		Phone:              p.Phone,
		Address:            StrOrEmpty(p.Address),
		Website:            StrOrEmpty(p.Website),
		TaxID:              StrOrEmpty(p.TaxID),
		LicenseNumber:      StrOrEmpty(p.LicenseNumber),
		Currency:           p.Currency,
		QuoteValidityDays:  p.QuoteValidityDays,
		TermsAndConditions: StrOrEmpty(p.TermsAndConditions),
		DefaultTaxRate:     p.DefaultTaxRate,
		EnablePush:         p.EnablePushNotifications,
		EnableEmail:        p.EnableEmailNotifications,
		EnableSms:          p.EnableSmsNotifications,
		NotificationEmail:  p.NotificationEmailAddress(),
		NotificationPhone:  p.NotificationPhoneNumber(),
		DeliveryToken:      p.Token(),
	}
}

// QuoteTransferRecord is the immutable per-upload view of a quote.
type QuoteTransferRecord struct {
	TransferID string
	Business   ProfileSnapshot
	Quote      Quote
	Totals     Totals
	QuoteDate  time.Time
	ValidUntil time.Time
}

// NewTransferRecord snapshots profile and quote at time now. The validity
// deadline is fixed here and never recomputed.
func NewTransferRecord(transferID string, profile BusinessProfile, quote Quote, now time.Time) QuoteTransferRecord {
	return QuoteTransferRecord{
		TransferID: transferID,
		Business:   profile.Snapshot(),
		Quote:      quote.Clone(),
		Totals:     quote.ComputeTotals(profile.DefaultTaxRate),
		QuoteDate:  now,
		ValidUntil: now.Add(time.Duration(profile.QuoteValidityDays) * 24 * time.Hour),
	}
}

// QuoteStatus is the acceptance state reported by the server.
type QuoteStatus struct {
	Accepted    bool     `json:"accepted"`
	ViewedAt    *string  `json:"viewedAt,omitempty"`
	AcceptedAt  *string  `json:"acceptedAt,omitempty"`
	ClientName  *string  `json:"clientName,omitempty"`
	ClientEmail *string  `json:"clientEmail,omitempty"`
	TotalAmount *float64 `json:"totalAmount,omitempty"`
}
