// AngelaMos | 2026
// templates_test.go

package mailer_test

import (
	"context"
	"strings"
	"testing"

	"github.com/carterperez-dev/citylistings/internal/config"
	"github.com/carterperez-dev/citylistings/internal/mailer"
)

func TestBuildPasswordResetEmail(t *testing.T) {
	link := "https://listings.example.com/reset-password?token=abc123"

	email, err := mailer.BuildPasswordResetEmail("owner@example.com", mailer.PasswordResetData{
		SiteName:  "City Listings",
		ResetLink: link,
		ExpiresIn: "1 hour",
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if email.To != "owner@example.com" || email.Subject != "Reset your City Listings password" {
		t.Fatalf("envelope = %q / %q", email.To, email.Subject)
	}
	for name, body := range map[string]string{"text": email.TextBody, "html": email.HTMLBody} {
		if !strings.Contains(body, link) {
			t.Fatalf("%s body missing reset link", name)
		}
		if !strings.Contains(body, "1 hour") {
			t.Fatalf("%s body missing expiry", name)
		}
	}
}

func TestBuildPasswordResetEmailEscapesHTML(t *testing.T) {
	email, err := mailer.BuildPasswordResetEmail("a@example.com", mailer.PasswordResetData{
		SiteName:  "<b>Acme</b>",
		ResetLink: "https://acme.example/reset?token=t",
		ExpiresIn: "30 minutes",
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if strings.Contains(email.HTMLBody, "<b>Acme</b>") {
		t.Fatal("site name rendered unescaped")
	}
	if !strings.Contains(email.HTMLBody, "&lt;b&gt;Acme&lt;/b&gt;") {
		t.Fatal("escaped site name missing from html body")
	}
	if !strings.Contains(email.TextBody, "<b>Acme</b>") {
		t.Fatal("text body should carry the raw site name")
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.MailConfig
		wantErr bool
	}{
		{name: "default log", cfg: config.MailConfig{}},
		{name: "log", cfg: config.MailConfig{Provider: "log"}},
		{name: "sendgrid", cfg: config.MailConfig{Provider: "sendgrid", From: "noreply@example.com"}},
		{name: "smtp without host", cfg: config.MailConfig{Provider: "smtp"}, wantErr: true},
		{name: "unknown", cfg: config.MailConfig{Provider: "pigeon"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender, err := mailer.New(tt.cfg, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && sender == nil {
				t.Fatal("nil sender")
			}
		})
	}
}

func TestLogSenderNeverFails(t *testing.T) {
	err := mailer.NewLogSender(nil).Send(context.Background(), mailer.Email{
		To:       "dev@example.com",
		Subject:  "hello",
		TextBody: "body",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
}
