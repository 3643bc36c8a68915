package notify

import (
	"fmt"
	"html"
	"strings"

	"github.com/chachabrian/hotelbook-backend/internal/models"
)

const companyName = "HotelBook"

const emailHeader = `
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; margin: 0; padding: 0;">
	<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
		<div style="text-align: center; margin-bottom: 30px; background-color: #f9f9f9; padding: 20px;">
			<h2 style="color: #1f6feb; margin: 0;">HotelBook</h2>
		</div>
`

const emailFooter = `
		<div style="text-align: center; margin-top: 20px; font-size: 12px; color: #666; border-top: 1px solid #eee; padding-top: 20px;">
			<p>This is an automated message, please do not reply to this email.</p>
		</div>
	</div>
</body>
</html>
`

const summaryRow = `<tr><td style="padding: 6px 12px; color: #666;">%s</td><td style="padding: 6px 12px;"><strong>%s</strong></td></tr>`

type summaryField struct {
	label string
	value string
}

func summaryFields(b *models.Booking) []summaryField {
	return []summaryField{
		{"Hotel", b.HotelName},
		{"Check-in", b.Checkin},
		{"Check-out", b.Checkout},
		{"Guests", fmt.Sprint(b.Guests)},
		{"Total", b.TotalAmount.StringFixed(2)},
		{"Status", string(b.Status)},
	}
}

// RenderEmail renders the booking summary sent to the payer.
func RenderEmail(b *models.Booking, to string) Message {
	var rows, text strings.Builder
	for _, f := range summaryFields(b) {
		fmt.Fprintf(&rows, summaryRow, f.label, html.EscapeString(f.value))
		fmt.Fprintf(&text, "%s: %s\n", f.label, f.value)
	}

	body := emailHeader + fmt.Sprintf(`
		<div style="background-color: #f9f9f9; padding: 20px; border-radius: 5px;">
			<h1 style="color: #2c3e50; text-align: center;">Booking Summary</h1>
			<p>Hello,</p>
			<p>Here are the details of your booking <strong>%s</strong>.</p>
			<table style="width: 100%%; border-collapse: collapse;">%s</table>
			<p>Best regards,<br>The %s Team</p>
		</div>`, html.EscapeString(b.ID), rows.String(), companyName) + emailFooter

	return Message{
		To:      to,
		Subject: fmt.Sprintf("Your booking at %s - %s", b.HotelName, companyName),
		HTML:    body,
		Text:    fmt.Sprintf("Booking %s\n%s", b.ID, text.String()),
	}
}

// RenderSMS renders the one-line summary used for text messages.
func RenderSMS(b *models.Booking, to string) Message {
	return Message{
		To: to,
		Text: fmt.Sprintf("%s booking %s: %s, %s to %s, %d guest(s), total %s.",
			companyName, b.Status, b.HotelName, b.Checkin, b.Checkout, b.Guests, b.TotalAmount.StringFixed(2)),
	}
}
