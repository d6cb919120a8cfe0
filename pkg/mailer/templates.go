package mailer

import (
	"fmt"
	"html"
	"strings"
	"time"
)

// displayName derives a greeting name from the address local part.
func displayName(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}

// PurchaseConfirmation renders the post-capture email carrying the download
// page link.
func PurchaseConfirmation(customerEmail, beatTitle, downloadPageURL string, expiresAt time.Time) Email {
	body := fmt.Sprintf(`<h2>Thanks for your purchase, %s!</h2>
<p>Your license for <strong>%s</strong> is ready.</p>
<p><a href="%s">Download your files</a></p>
<p>This link expires on %s.</p>`,
		html.EscapeString(displayName(customerEmail)),
		html.EscapeString(beatTitle),
		html.EscapeString(downloadPageURL),
		expiresAt.Format("January 2, 2006"),
	)
	return Email{
		Subject: fmt.Sprintf("Your beat purchase: %s", beatTitle),
		HTML:    body,
	}
}

// OTPVerification renders the admin login code email.
func OTPVerification(code string, ttl time.Duration) Email {
	body := fmt.Sprintf(`<h2>Admin login code</h2>
<p>Your one-time code is:</p>
<p style="font-size:24px;letter-spacing:4px;"><strong>%s</strong></p>
<p>It expires in %d minutes. If you did not request this, ignore this email.</p>`,
		html.EscapeString(code),
		int(ttl.Minutes()),
	)
	return Email{
		Subject: "Your admin login code",
		HTML:    body,
	}
}
