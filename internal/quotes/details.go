package quotes

import (
	"encoding/json"

	"github.com/joseph-ayodele/fieldquote-sync/internal/entity"
)

type businessInfo struct {
	Name          string `json:"name"`
	Owner         string `json:"owner"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Website       string `json:"website"`
	LicenseNumber string `json:"licenseNumber"`
	TaxID         string `json:"taxId"`
}

type itemDetail struct {
	ServiceType string  `json:"serviceType"`
	Quantity    float64 `json:"quantity"`
	Rate        float64 `json:"rate"`
	Unit        string  `json:"unit"`
	Description string  `json:"description"`
	Subtotal    float64 `json:"subtotal"`
}

type tierDetail struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Total       float64      `json:"total"`
	Items       []itemDetail `json:"items"`
}

type quoteDetails struct {
	BusinessInfo       businessInfo `json:"businessInfo"`
	Tiers              []tierDetail `json:"tiers"`
	Subtotal           float64      `json:"subtotal"`
	TaxRate            float64      `json:"taxRate"`
	TaxAmount          float64      `json:"taxAmount"`
	GrandTotal         float64      `json:"grandTotal"`
	Currency           string       `json:"currency"`
	Notes              string       `json:"notes"`
	TermsAndConditions string       `json:"termsAndConditions"`
	ValidityDays       int          `json:"validityDays"`
}

type notificationPreferences struct {
	EnablePush        bool   `json:"enablePush"`
	EnableEmail       bool   `json:"enableEmail"`
	EnableSms         bool   `json:"enableSms"`
	NotificationEmail string `json:"notificationEmail"`
	NotificationPhone string `json:"notificationPhone"`
	FCMToken          string `json:"fcmToken"`
}

// detailsJSON encodes the structured quote sent alongside the document.
func detailsJSON(rec entity.QuoteTransferRecord) ([]byte, error) {
	b := rec.Business
	d := quoteDetails{
		BusinessInfo: businessInfo{
			Name:          b.BusinessName,
			Owner:         b.OwnerName,
			Email:         b.Email,
			Phone:         b.Phone,
			Website:       b.Website,
			LicenseNumber: b.LicenseNumber,
			TaxID:         b.TaxID,
		},
		Tiers:              make([]tierDetail, 0, len(rec.Quote.Tiers)),
		Subtotal:           rec.Totals.Subtotal,
		TaxRate:            rec.Totals.TaxRate,
		TaxAmount:          rec.Totals.TaxAmount,
		GrandTotal:         rec.Totals.GrandTotal,
		Currency:           b.Currency,
		Notes:              entity.StrOrEmpty(rec.Quote.Notes),
		TermsAndConditions: b.TermsAndConditions,
		ValidityDays:       b.QuoteValidityDays,
	}
	for _, t := range rec.Quote.Tiers {
		td := tierDetail{
			Title:       t.Title,
			Description: entity.StrOrEmpty(t.Description),
			Total:       t.Total(),
			Items:       make([]itemDetail, 0, len(t.Items)),
		}
		for _, it := range t.Items {
			td.Items = append(td.Items, itemDetail{
				ServiceType: it.ServiceType,
				Quantity:    it.Quantity,
				Rate:        it.Rate,
				Unit:        it.Unit,
				Description: entity.StrOrEmpty(it.Description),
				Subtotal:    it.Subtotal(),
			})
		}
		d.Tiers = append(d.Tiers, td)
	}
	return json.Marshal(d)
}

func preferencesJSON(b entity.ProfileSnapshot) ([]byte, error) {
	return json.Marshal(notificationPreferences{
		EnablePush:        b.EnablePush,
		EnableEmail:       b.EnableEmail,
		EnableSms:         b.EnableSms,
		NotificationEmail: b.NotificationEmail,
		NotificationPhone: b.NotificationPhone,
		FCMToken:          b.DeliveryToken,
	})
}
