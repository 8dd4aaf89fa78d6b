package sendgrid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"wcu-registry/internal/ports/email"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend_BuildsMailSendRequest(t *testing.T) {
	var got mailSendRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer SG.key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer ts.Close()

	s, err := New(Config{APIKey: "SG.key", BaseURL: ts.URL, FromEmail: "registry@example.com", FromName: "WCU"})
	require.NoError(t, err)

	err = s.Send(context.Background(), email.Message{
		To:       "ana@example.com",
		ToName:   "Ana",
		Subject:  "[T-ABCD1234] Re: Hola",
		Text:     "texto",
		HTML:     "<p>html</p>",
		ReplyTo:  "support@example.com",
		Template: "ticket_reply",
	})
	require.NoError(t, err)

	require.Len(t, got.Personalizations, 1)
	assert.Equal(t, "ana@example.com", got.Personalizations[0].To[0].Email)
	assert.Equal(t, "registry@example.com", got.From.Email)
	require.NotNil(t, got.ReplyTo)
	assert.Equal(t, "support@example.com", got.ReplyTo.Email)
	require.Len(t, got.Content, 2)
	assert.Equal(t, "text/plain", got.Content[0].Type)
	assert.Equal(t, []string{"ticket_reply"}, got.Categories)
}

func TestSend_Validation(t *testing.T) {
	s, err := New(Config{APIKey: "k", FromEmail: "from@example.com"})
	require.NoError(t, err)

	assert.Error(t, s.Send(context.Background(), email.Message{Subject: "x", Text: "y"}))
	assert.Error(t, s.Send(context.Background(), email.Message{To: "a@b.c", Text: "y"}))
	assert.Error(t, s.Send(context.Background(), email.Message{To: "a@b.c", Subject: "x"}))

	_, err = New(Config{FromEmail: "from@example.com"})
	assert.Error(t, err)
}

func TestSend_ReturnsHTTPErrorOn4xx(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":[{"message":"bad from"}]}`, http.StatusBadRequest)
	}))
	defer ts.Close()

	s, err := New(Config{APIKey: "k", BaseURL: ts.URL, FromEmail: "from@example.com"})
	require.NoError(t, err)

	err = s.Send(context.Background(), email.Message{To: "a@b.c", Subject: "x", Text: "y"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=400")
}
