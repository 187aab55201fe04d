// AngelaMos | 2026
// templates.go

package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

type PasswordResetData struct {
	SiteName  string
	ResetLink string
	ExpiresIn string
}

var resetHTML = template.Must(template.New("reset").Parse(passwordResetHTMLTemplate))

func BuildPasswordResetEmail(to string, data PasswordResetData) (Email, error) {
	var html bytes.Buffer
	if err := resetHTML.Execute(&html, data); err != nil {
		return Email{}, fmt.Errorf("render reset email: %w", err)
	}

	return Email{
		To:       to,
		Subject:  fmt.Sprintf("Reset your %s password", data.SiteName),
		TextBody: buildPasswordResetText(data),
		HTMLBody: html.String(),
	}, nil
}

func buildPasswordResetText(data PasswordResetData) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "A password reset was requested for your %s account.\n\n", data.SiteName)
	buf.WriteString("Open this link to choose a new password:\n")
	buf.WriteString(data.ResetLink + "\n\n")
	fmt.Fprintf(&buf, "The link expires in %s.\n\n", data.ExpiresIn)
	buf.WriteString("If you did not request this, you can ignore this email.\n")
	return buf.String()
}

const passwordResetHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Password reset</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 22px; font-weight: 600; color: #111827;">{{.SiteName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">
                We received a request to reset your password. Click the button below to choose a new one.
              </p>
              <p style="text-align: center; margin: 0 0 24px;">
                <a href="{{.ResetLink}}" style="display: inline-block; padding: 12px 24px; background-color: #f3bc1b; color: #111827; text-decoration: none; border-radius: 6px; font-weight: 600;">Reset password</a>
              </p>
              <p style="margin: 0; font-size: 13px; color: #6b7280; text-align: center;">
                This link expires in {{.ExpiresIn}}. If you did not request a reset, ignore this email.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
