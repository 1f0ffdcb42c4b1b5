package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavecard/guard/internal/domain/models"
	"github.com/wavecard/guard/pkg/logger"
)

func TestEmailSenderPostsAuthenticatedJSON(t *testing.T) {
	var got emailPayload
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sender := NewEmailSender(srv.URL, "key-123", "noreply@wavecard.io", logger.NewNoopLogger())
	err := sender.Send(context.Background(), &models.QueueEntry{
		Recipient: "ana@example.com",
		Subject:   "Your card is live",
		Body:      "<p>Hello Ana</p>",
	})

	require.NoError(t, err)
	assert.Equal(t, "Bearer key-123", gotAuth)
	assert.Equal(t, "ana@example.com", got.To)
	assert.Equal(t, "noreply@wavecard.io", got.From)
	assert.Equal(t, "Your card is live", got.Subject)
	assert.Equal(t, "<p>Hello Ana</p>", got.HTML)
}

func TestEmailSenderRejectsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	sender := NewEmailSender(srv.URL, "key", "noreply@wavecard.io", logger.NewNoopLogger())
	err := sender.Send(context.Background(), &models.QueueEntry{Recipient: "ana@example.com"})
	assert.Error(t, err)
}

func TestEmailSenderRequiresRecipient(t *testing.T) {
	sender := NewEmailSender("http://unused", "key", "noreply@wavecard.io", logger.NewNoopLogger())
	err := sender.Send(context.Background(), &models.QueueEntry{})
	assert.Error(t, err)
}

func TestSMSSenderPostsAuthenticatedForm(t *testing.T) {
	var gotUser, gotPass string
	var gotForm map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, _ = r.BasicAuth()
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"To":   r.PostFormValue("To"),
			"From": r.PostFormValue("From"),
			"Body": r.PostFormValue("Body"),
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	sender := NewSMSSender(srv.URL, "AC123", "token-456", "+15550009999", logger.NewNoopLogger())
	err := sender.Send(context.Background(), &models.QueueEntry{
		Recipient: "+15550001111",
		Body:      "Your card is live",
	})

	require.NoError(t, err)
	assert.Equal(t, "AC123", gotUser)
	assert.Equal(t, "token-456", gotPass)
	assert.Equal(t, "+15550001111", gotForm["To"])
	assert.Equal(t, "+15550009999", gotForm["From"])
	assert.Equal(t, "Your card is live", gotForm["Body"])
}

func TestSMSSenderRejectsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	sender := NewSMSSender(srv.URL, "AC123", "bad", "+15550009999", logger.NewNoopLogger())
	err := sender.Send(context.Background(), &models.QueueEntry{Recipient: "+15550001111"})
	assert.Error(t, err)
}
