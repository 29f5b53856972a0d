package mail

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docket-app/docket/internal/config"
	"github.com/docket-app/docket/internal/db/models"
)

type recorder struct {
	sent []Message
}

func (r *recorder) Send(_ context.Context, m Message) error {
	r.sent = append(r.sent, m)
	return nil
}

func TestAccounts(t *testing.T) {
	rec := &recorder{}
	a := NewAccounts(rec, "https://docket.example.com/", "Docket")
	u := &models.User{FirstName: "Ada", EmailAddress: "ada@example.com"}
	ctx := context.Background()

	require.NoError(t, a.SendVerificationEmail(ctx, u, "tok1"))
	require.NoError(t, a.SendWelcomeEmail(ctx, u))
	require.NoError(t, a.SendPasswordReset(ctx, &models.User{EmailAddress: "x@example.com"}, "tok2"))

	require.Len(t, rec.sent, 3)
	assert.Equal(t, "ada@example.com", rec.sent[0].To)
	assert.Contains(t, rec.sent[0].Text, "https://docket.example.com/verify-email/tok1")
	assert.Contains(t, rec.sent[0].Text, "Hello Ada,")
	assert.Equal(t, "Welcome to Docket!", rec.sent[1].Subject)
	assert.Contains(t, rec.sent[2].Text, "https://docket.example.com/reset-password/tok2")
	assert.Contains(t, rec.sent[2].Text, "Hello,")
}

func TestNewDisabledLogs(t *testing.T) {
	m, err := New(config.Mail{})
	require.NoError(t, err)
	assert.IsType(t, LogMailer{}, m)
	assert.NoError(t, m.Send(context.Background(), Message{To: "a@b.c"}))
}

func TestNewSMTP(t *testing.T) {
	m, err := New(config.Mail{Enabled: true, Host: "localhost", Port: 2525, From: "Docket <no-reply@docket.local>", TLS: true})
	require.NoError(t, err)
	assert.IsType(t, &SMTP{}, m)
}
