package mail

import (
	"context"
	"fmt"
	"strings"

	"github.com/docket-app/docket/internal/db/models"
)

// Accounts sends the account related mails of a site.
type Accounts struct {
	mailer  Mailer
	baseURL string
	title   string
}

// NewAccounts returns an Accounts sending through m. baseURL prefixes the links.
func NewAccounts(m Mailer, baseURL, title string) *Accounts {
	return &Accounts{mailer: m, baseURL: strings.TrimRight(baseURL, "/"), title: title}
}

func greeting(u *models.User) string {
	if u.FirstName != "" {
		return "Hello " + u.FirstName + ","
	}

	return "Hello,"
}

// SendVerificationEmail sends the verify email link.
func (a *Accounts) SendVerificationEmail(ctx context.Context, u *models.User, token string) error {
	return a.mailer.Send(ctx, Message{
		To:      u.EmailAddress,
		Subject: fmt.Sprintf("[%s] Verify your email address", a.title),
		Text: fmt.Sprintf("%s\n\nTo verify your account email, simply click the link below.\n\n%s/verify-email/%s\n\nThanks.\n",
			greeting(u), a.baseURL, token),
	})
}

// SendWelcomeEmail greets a user whose address was verified.
func (a *Accounts) SendWelcomeEmail(ctx context.Context, u *models.User) error {
	return a.mailer.Send(ctx, Message{
		To:      u.EmailAddress,
		Subject: fmt.Sprintf("Welcome to %s!", a.title),
		Text: fmt.Sprintf("%s\n\nYour email address is verified. Start writing at %s/documents\n",
			greeting(u), a.baseURL),
	})
}

// SendPasswordReset sends the reset password link.
func (a *Accounts) SendPasswordReset(ctx context.Context, u *models.User, token string) error {
	return a.mailer.Send(ctx, Message{
		To:      u.EmailAddress,
		Subject: fmt.Sprintf("[%s] Reset your password", a.title),
		Text: fmt.Sprintf("%s\n\nTo reset your password, simply click the link below.\n\n%s/reset-password/%s\n\nIf you did not ask for this, ignore this mail.\n",
			greeting(u), a.baseURL, token),
	})
}
