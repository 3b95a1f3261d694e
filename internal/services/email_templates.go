package services

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/poofware/society-service/internal/models"
	internal_utils "github.com/poofware/society-service/internal/utils"
)

type TemplateKey string

const (
	TemplateAcknowledgement     TemplateKey = "acknowledgement"
	TemplateStatusUpdate        TemplateKey = "status-update"
	TemplateBuyerApproval       TemplateKey = "buyer-approval"
	TemplatePaymentConfirmation TemplateKey = "payment-confirmation"
	TemplateDailyDigest         TemplateKey = "daily-digest"
)

// Tone drives the colour and wording of status emails.
type Tone string

const (
	ToneNeutral  Tone = "neutral"
	TonePositive Tone = "positive"
	ToneNegative Tone = "negative"
	ToneWarning  Tone = "neutral-warning"
)

func ToneFor(status models.SubmissionStatus) Tone {
	switch status {
	case models.StatusApproved:
		return TonePositive
	case models.StatusRejected:
		return ToneNegative
	case models.StatusUnderReview, models.StatusDocumentRequired:
		return ToneWarning
	}
	return ToneNeutral
}

func toneColor(t Tone) string {
	switch t {
	case TonePositive:
		return "#1e7e34"
	case ToneNegative:
		return "#c82333"
	case ToneWarning:
		return "#d39e00"
	}
	return "#5b3a9d"
}

// HeadlineFor is the one-line summary shown at the top of a status email.
func HeadlineFor(status models.SubmissionStatus, what string) string {
	switch status {
	case models.StatusApproved:
		return fmt.Sprintf("Congratulations, your %s has been approved", what)
	case models.StatusRejected:
		return fmt.Sprintf("We regret to inform you that your %s has been rejected", what)
	case models.StatusUnderReview:
		return fmt.Sprintf("Your %s is now under review", what)
	case models.StatusDocumentRequired:
		return fmt.Sprintf("Additional documents are required for your %s", what)
	}
	return fmt.Sprintf("Your %s has been received and is pending review", what)
}

// NotificationData carries the interpolation values for every template.
type NotificationData struct {
	RecipientName         string
	AcknowledgementNumber string
	KindLabel             string
	FlatLabel             string
	Status                models.SubmissionStatus
	Remarks               string
	NOCTypeLabel          string
	CounterpartyName      string
	Fees                  *FeeDetails
	TransactionID         string
	Amount                int64
	Digest                []*Statistics
	DigestDate            string
}

const baseEmailHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>%s</title>
<style>
  body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Arial, sans-serif; line-height: 1.6; color: #333; background-color: #f8f9fa; margin: 0; padding: 20px; }
  .container { max-width: 560px; margin: auto; background: #ffffff; border: 1px solid #e9ecef; border-radius: 8px; overflow: hidden; }
  .header { background-color: %s; color: white; padding: 20px; text-align: center; }
  .header h1 { margin: 0; font-size: 20px; }
  .content { padding: 28px; text-align: left; }
  .ack { font-family: monospace; font-size: 18px; font-weight: bold; letter-spacing: 1px; }
  table { border-collapse: collapse; width: 100%%; }
  td { padding: 6px 4px; border-bottom: 1px solid #f1f3f5; }
  .footer { background-color: #f8f9fa; padding: 20px; text-align: center; font-size: 12px; color: #6c757d; }
</style>
</head>
<body>
  <div class="container">
    <div class="header"><h1>%s</h1></div>
    <div class="content">%s</div>
    <div class="footer">© %d %s. This is an automated message.</div>
  </div>
</body>
</html>`

func wrapHTML(orgName, title string, tone Tone, body string) string {
	return fmt.Sprintf(baseEmailHTML,
		html.EscapeString(title),
		toneColor(tone),
		html.EscapeString(title),
		body,
		time.Now().Year(),
		html.EscapeString(orgName),
	)
}

func row(label, value string) string {
	return "<tr><td><strong>" + html.EscapeString(label) + "</strong></td><td>" + html.EscapeString(value) + "</td></tr>"
}

func greeting(name string) string {
	if name == "" {
		return "Dear Member,"
	}
	return "Dear " + name + ","
}

// renderEmail builds the subject and bodies for a template.
func renderEmail(orgName string, key TemplateKey, d NotificationData) (internal_utils.Email, error) {
	var (
		subject string
		plain   strings.Builder
		body    strings.Builder
		tone    = ToneNeutral
		title   string
	)

	switch key {
	case TemplateAcknowledgement:
		title = fmt.Sprintf("%s received", d.KindLabel)
		subject = fmt.Sprintf("[%s] %s received – %s", orgName, d.KindLabel, d.AcknowledgementNumber)
		fmt.Fprintf(&plain, "%s\n\nWe have received your %s for flat %s.\nAcknowledgement number: %s\n",
			greeting(d.RecipientName), d.KindLabel, d.FlatLabel, d.AcknowledgementNumber)
		fmt.Fprintf(&body, "<p>%s</p><p>We have received your %s for flat %s. Please quote the acknowledgement number below in all correspondence.</p><p class=\"ack\">%s</p><table>",
			html.EscapeString(greeting(d.RecipientName)), html.EscapeString(d.KindLabel), html.EscapeString(d.FlatLabel), html.EscapeString(d.AcknowledgementNumber))
		if d.NOCTypeLabel != "" {
			body.WriteString(row("NOC type", d.NOCTypeLabel))
			fmt.Fprintf(&plain, "NOC type: %s\n", d.NOCTypeLabel)
		}
		if d.Fees != nil && d.Fees.TotalAmount > 0 {
			body.WriteString(row("NOC fees", formatRupees(d.Fees.NOCFees)))
			body.WriteString(row("Transfer fees", formatRupees(d.Fees.TransferFees)))
			body.WriteString(row("Total payable", formatRupees(d.Fees.TotalAmount)))
			fmt.Fprintf(&plain, "Total payable: %s\n", formatRupees(d.Fees.TotalAmount))
		}
		body.WriteString(row("Status", string(models.StatusPending)))
		body.WriteString("</table>")

	case TemplateStatusUpdate:
		tone = ToneFor(d.Status)
		title = HeadlineFor(d.Status, strings.ToLower(d.KindLabel))
		subject = fmt.Sprintf("[%s] %s %s – %s", orgName, d.KindLabel, d.Status, d.AcknowledgementNumber)
		fmt.Fprintf(&plain, "%s\n\n%s.\nAcknowledgement number: %s\nStatus: %s\n",
			greeting(d.RecipientName), title, d.AcknowledgementNumber, d.Status)
		fmt.Fprintf(&body, "<p>%s</p><p>%s.</p><table>", html.EscapeString(greeting(d.RecipientName)), html.EscapeString(title))
		body.WriteString(row("Acknowledgement number", d.AcknowledgementNumber))
		body.WriteString(row("Status", string(d.Status)))
		if d.Remarks != "" {
			body.WriteString(row("Remarks", d.Remarks))
			fmt.Fprintf(&plain, "Remarks: %s\n", d.Remarks)
		}
		body.WriteString("</table>")

	case TemplateBuyerApproval:
		tone = TonePositive
		title = "The NOC for your flat purchase has been approved"
		subject = fmt.Sprintf("[%s] Flat transfer NOC approved – %s", orgName, d.AcknowledgementNumber)
		fmt.Fprintf(&plain, "%s\n\nThe flat transfer NOC for flat %s (acknowledgement %s) has been approved. Please coordinate with the seller, %s, to complete the transfer formalities with the society office.\n",
			greeting(d.RecipientName), d.FlatLabel, d.AcknowledgementNumber, d.CounterpartyName)
		fmt.Fprintf(&body, "<p>%s</p><p>The flat transfer NOC for flat %s has been approved. Please coordinate with the seller, <strong>%s</strong>, to complete the transfer formalities with the society office.</p><table>",
			html.EscapeString(greeting(d.RecipientName)), html.EscapeString(d.FlatLabel), html.EscapeString(d.CounterpartyName))
		body.WriteString(row("Acknowledgement number", d.AcknowledgementNumber))
		body.WriteString("</table>")

	case TemplatePaymentConfirmation:
		tone = TonePositive
		title = "Payment received"
		subject = fmt.Sprintf("[%s] Payment received – %s", orgName, d.AcknowledgementNumber)
		fmt.Fprintf(&plain, "%s\n\nWe have received your payment of %s for %s.\nTransaction ID: %s\n",
			greeting(d.RecipientName), formatRupees(d.Amount), d.AcknowledgementNumber, d.TransactionID)
		fmt.Fprintf(&body, "<p>%s</p><p>We have received your payment. Thank you.</p><table>", html.EscapeString(greeting(d.RecipientName)))
		body.WriteString(row("Acknowledgement number", d.AcknowledgementNumber))
		body.WriteString(row("Amount", formatRupees(d.Amount)))
		body.WriteString(row("Transaction ID", d.TransactionID))
		body.WriteString("</table>")

	case TemplateDailyDigest:
		title = "Daily submissions digest"
		subject = fmt.Sprintf("[%s] Daily digest – %s", orgName, d.DigestDate)
		fmt.Fprintf(&plain, "Submission summary as of %s\n\n", d.DigestDate)
		body.WriteString("<p>Submission summary as of " + html.EscapeString(d.DigestDate) + "</p>")
		for _, st := range d.Digest {
			fmt.Fprintf(&plain, "%s: total %d, pending %d, under review %d, approved %d, rejected %d, documents required %d\n",
				st.Kind.DisplayName(), st.Total, st.Pending, st.UnderReview, st.Approved, st.Rejected, st.DocumentRequired)
			body.WriteString("<h3>" + html.EscapeString(st.Kind.DisplayName()) + "</h3><table>")
			body.WriteString(row("Total", fmt.Sprint(st.Total)))
			body.WriteString(row("Pending", fmt.Sprint(st.Pending)))
			body.WriteString(row("Under review", fmt.Sprint(st.UnderReview)))
			body.WriteString(row("Document required", fmt.Sprint(st.DocumentRequired)))
			body.WriteString(row("Approved", fmt.Sprint(st.Approved)))
			body.WriteString(row("Rejected", fmt.Sprint(st.Rejected)))
			if st.PaymentStatistics != nil {
				fmt.Fprintf(&plain, "  payments: pending %d, paid %d, failed %d, revenue %s\n",
					st.PaymentPending, st.PaymentPaid, st.PaymentFailed, formatRupees(st.TotalRevenue))
				body.WriteString(row("Payments pending", fmt.Sprint(st.PaymentPending)))
				body.WriteString(row("Payments received", fmt.Sprint(st.PaymentPaid)))
				body.WriteString(row("Revenue", formatRupees(st.TotalRevenue)))
			}
			body.WriteString("</table>")
		}

	default:
		return internal_utils.Email{}, fmt.Errorf("unknown template %q", key)
	}

	plain.WriteString("\n-- " + orgName)
	return internal_utils.Email{
		Subject:   subject,
		PlainText: plain.String(),
		HTML:      wrapHTML(orgName, title, tone, body.String()),
	}, nil
}

func formatRupees(amount int64) string {
	return fmt.Sprintf("Rs. %d", amount)
}
