package messaging

import (
	"fmt"
	"strings"

	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/domain"
)

// SMS reply keywords providers use to update a lead out-of-band. Parsing
// the replies happens elsewhere; the vocabulary is advertised here.
const smsReplyHint = "Reply CLAIMED, BOOKED, COMPLETED or DECLINED to update this lead."

func leadLocation(lead *domain.Lead) string {
	return fmt.Sprintf("%s, %s %s", lead.City, lead.State, lead.Zip)
}

func leadContactLines(lead *domain.Lead) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Patient: %s\n", lead.Name)
	fmt.Fprintf(&b, "Phone: %s\n", lead.Phone)
	if lead.Email != nil && strings.TrimSpace(*lead.Email) != "" {
		fmt.Fprintf(&b, "Email: %s\n", *lead.Email)
	}
	fmt.Fprintf(&b, "Location: %s\n", leadLocation(lead))
	if lead.Street != nil && strings.TrimSpace(*lead.Street) != "" {
		fmt.Fprintf(&b, "Street: %s\n", *lead.Street)
	}
	fmt.Fprintf(&b, "Urgency: %s\n", lead.Urgency)
	if strings.TrimSpace(lead.Notes) != "" {
		fmt.Fprintf(&b, "Notes: %s\n", lead.Notes)
	}
	return b.String()
}

// ComposeLeadOffer builds the email sent to the provider that was
// successfully charged for a lead.
func ComposeLeadOffer(lead *domain.Lead) EmailMessage {
	subject := fmt.Sprintf("New %s lead in %s", lead.Urgency, lead.Zip)
	text := fmt.Sprintf(
		"You received a new mobile blood-draw lead.\n\n%s\nThis lead was charged to your card on file at $%.2f.\n",
		leadContactLines(lead), float64(lead.PriceCents)/100,
	)
	html := fmt.Sprintf(
		"<h2>New %s lead in %s</h2><pre>%s</pre><p>This lead was charged to your card on file at $%.2f.</p>",
		lead.Urgency, leadLocation(lead), leadContactLines(lead), float64(lead.PriceCents)/100,
	)
	return EmailMessage{Subject: subject, TextBody: text, HTMLBody: html}
}

// ComposePaymentDeclined builds the notice sent to a provider whose
// stored card was declined, costing them the lead.
func ComposePaymentDeclined(lead *domain.Lead) EmailMessage {
	subject := fmt.Sprintf("Payment declined: you missed a %s lead in %s", lead.Urgency, lead.Zip)
	text := fmt.Sprintf(
		"A new lead in %s matched your coverage, but the charge to your card on file was declined, so the lead was routed elsewhere.\n\nPlease update your payment method to keep receiving leads.\n",
		leadLocation(lead),
	)
	html := fmt.Sprintf(
		"<p>A new lead in <strong>%s</strong> matched your coverage, but the charge to your card on file was declined, so the lead was routed elsewhere.</p><p>Please update your payment method to keep receiving leads.</p>",
		leadLocation(lead),
	)
	return EmailMessage{Subject: subject, TextBody: text, HTMLBody: html}
}

// ComposeFeaturedLead builds the free notification sent to featured
// providers matching a lead's area.
func ComposeFeaturedLead(lead *domain.Lead) EmailMessage {
	subject := fmt.Sprintf("Featured provider alert: %s lead in %s", lead.Urgency, lead.Zip)
	text := fmt.Sprintf(
		"A new lead was submitted in your coverage area.\n\n%s\nAs a featured provider you receive this notification at no charge.\n",
		leadContactLines(lead),
	)
	html := fmt.Sprintf(
		"<h2>Featured provider alert</h2><pre>%s</pre><p>As a featured provider you receive this notification at no charge.</p>",
		leadContactLines(lead),
	)
	return EmailMessage{Subject: subject, TextBody: text, HTMLBody: html}
}

// ComposeAdminUnservedAlert builds the operator alert raised when a lead
// exhausts every candidate.
func ComposeAdminUnservedAlert(lead *domain.Lead) EmailMessage {
	subject := fmt.Sprintf("UNSERVED lead: %s in %s", lead.Urgency, lead.Zip)
	text := fmt.Sprintf(
		"No provider could be charged for this lead.\n\nZIP: %s\nCity: %s\nState: %s\nUrgency: %s\n\nRecruit coverage for this area.\n",
		lead.Zip, lead.City, lead.State, lead.Urgency,
	)
	return EmailMessage{Subject: subject, TextBody: text}
}

// ComposeLeadSMS builds the text blast sent to SMS-eligible providers.
func ComposeLeadSMS(lead *domain.Lead) SMSMessage {
	body := fmt.Sprintf(
		"New %s blood-draw lead in %s. Patient %s, %s. %s",
		lead.Urgency, leadLocation(lead), lead.Name, lead.Phone, smsReplyHint,
	)
	return SMSMessage{Body: body}
}
