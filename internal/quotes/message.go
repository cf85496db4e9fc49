package quotes

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/joseph-ayodele/fieldquote-sync/internal/entity"
)

// BuildAcceptanceLink returns the client-facing URL for an uploaded quote.
// It performs no I/O.
func BuildAcceptanceLink(transferID string, p entity.BusinessProfile) string {
	return strings.TrimRight(p.ServerURL, "/") + "/quote/" + url.PathEscape(transferID)
}

// BuildShareMessage renders the branded text sent to the client with the
// acceptance link.
func BuildShareMessage(p entity.BusinessProfile, q entity.Quote, grandTotal float64, link string) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("Quote from %s", p.DisplayName())
	line("")
	line("Dear %s,", q.ClientName)
	line("")
	line("Your personalized quote is ready for review:")
	line("Total: $%.2f", grandTotal)
	if addr := strings.TrimSpace(entity.StrOrEmpty(q.JobAddress)); addr != "" {
		line("Location: %s", addr)
	}
	line("")
	line("View & Accept Quote:")
	line("%s", link)
	line("")
	line("Click the link to:")
	line("- View detailed pricing")
	line("- See all service options")
	line("- Accept with one click")
	line("")
	if p.QuoteValidityDays > 0 {
		line("This quote is valid for %d days.", p.QuoteValidityDays)
	}
	line("")
	line("Questions? Contact us:")
	if strings.TrimSpace(p.Phone) != "" {
		line("Phone: %s", p.Phone)
	}
	if strings.TrimSpace(p.Email) != "" {
		line("Email: %s", p.Email)
	}
	if w := strings.TrimSpace(entity.StrOrEmpty(p.Website)); w != "" {
		line("Web: %s", w)
	}
	line("")
	line("Thank you for your business!")
	line("- %s", p.OwnerName)
	b.WriteString(p.DisplayName())
	return b.String()
}
