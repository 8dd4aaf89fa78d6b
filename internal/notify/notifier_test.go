package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"wcu-registry/internal/adapters/email/logmailer"
	"wcu-registry/internal/domain/registrations"
	"wcu-registry/internal/ports/email"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplatesRender(t *testing.T) {
	for name := range sources {
		_, _, err := Render(name, map[string]any{})
		require.NoError(t, err, name)
	}
}

func TestCertificateIssued(t *testing.T) {
	mail := logmailer.New(nil)
	n := New(mail, Site{Registry: "WCU Dog Registry", URL: "https://registry.example.com/"}, nil, nil)

	err := n.CertificateIssued(context.Background(), registrations.Registration{
		WCUNumber:      "WCU-00007",
		OwnerName:      "Ana",
		OwnerEmail:     "ana@example.com",
		DogName:        "Luna",
		CertificateURL: "https://cdn.example.com/certificates/WCU-00007/1.pdf",
	})
	require.NoError(t, err)

	sent := mail.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "ana@example.com", sent[0].To)
	assert.Equal(t, "Luna is officially registered (WCU-00007)", sent[0].Subject)
	assert.Contains(t, sent[0].Text, "https://cdn.example.com/certificates/WCU-00007/1.pdf")
	assert.Contains(t, sent[0].Text, "https://registry.example.com/dogs/WCU-00007")
	assert.Equal(t, TplCertificateIssued, sent[0].Template)
}

func TestRegistrationReceived(t *testing.T) {
	mail := logmailer.New(nil)
	n := New(mail, Site{Registry: "WCU Dog Registry"}, nil, nil)

	require.NoError(t, n.RegistrationReceived(context.Background(), registrations.Registration{
		WCUNumber:  "WCU-00003",
		OwnerName:  "Bo",
		OwnerEmail: "bo@example.com",
		DogName:    "Toby",
	}))

	sent := mail.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, TplRegistrationReceived, sent[0].Template)
	assert.Equal(t, "We received Toby's registration (WCU-00003)", sent[0].Subject)
	assert.Contains(t, sent[0].Text, "Registration number: WCU-00003")
	assert.Contains(t, sent[0].Text, "as soon as\nthe payment is confirmed.")
}

func TestUpdateReviewed_PicksTemplate(t *testing.T) {
	mail := logmailer.New(nil)
	n := New(mail, Site{SupportAddress: "support@example.com"}, nil, nil)

	require.NoError(t, n.UpdateReviewed(context.Background(), UpdateReview{To: "a@example.com", DogName: "Rex", WCU: "WCU-00001", Approved: true}))
	require.NoError(t, n.UpdateReviewed(context.Background(), UpdateReview{To: "a@example.com", DogName: "Rex", WCU: "WCU-00001", Notes: "Photo is not a dog"}))

	sent := mail.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, TplUpdateApproved, sent[0].Template)
	assert.Equal(t, TplUpdateRejected, sent[1].Template)
	assert.Contains(t, sent[1].Text, "Photo is not a dog")
	assert.Equal(t, "support@example.com", sent[1].ReplyTo)
}

func TestTicketOpened_SkipsWithoutAdminAddress(t *testing.T) {
	mail := logmailer.New(nil)
	n := New(mail, Site{}, nil, nil)

	require.NoError(t, n.TicketOpened(context.Background(), TicketMail{Reference: "T-AAAA1111", To: "x@example.com", Subject: "Hi", Body: "?"}))
	assert.Empty(t, mail.Sent())

	n = New(mail, Site{AdminAddress: "admin@example.com"}, nil, nil)
	require.NoError(t, n.TicketOpened(context.Background(), TicketMail{Reference: "T-AAAA1111", To: "x@example.com", ToName: "X", Subject: "Hi", Body: "?"}))
	sent := mail.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "admin@example.com", sent[0].To)
	assert.Equal(t, "x@example.com", sent[0].ReplyTo)
	assert.True(t, strings.HasPrefix(sent[0].Subject, "New support ticket T-AAAA1111"))
}

type failingSender struct{}

func (failingSender) Send(ctx context.Context, msg email.Message) error { return errors.New("boom") }

func TestSend_PropagatesErrors(t *testing.T) {
	n := New(failingSender{}, Site{}, nil, nil)
	err := n.TicketReply(context.Background(), TicketMail{To: "a@example.com", Subject: "[T-1] Re: x", Body: "hola"})
	assert.Error(t, err)

	err = n.TicketReply(context.Background(), TicketMail{Subject: "x"})
	assert.Error(t, err)
}
