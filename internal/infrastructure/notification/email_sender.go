// Package notification implements the per-channel delivery senders.
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/wavecard/guard/internal/domain/models"
	"github.com/wavecard/guard/internal/domain/service"
	"github.com/wavecard/guard/pkg/constants"
	"github.com/wavecard/guard/pkg/errors"
	"github.com/wavecard/guard/pkg/logger"
)

// EmailSender delivers queue entries through the transactional email API:
// a bearer-token authenticated JSON POST.
type EmailSender struct {
	endpoint    string
	apiKey      string
	fromAddress string
	client      *http.Client
	logger      logger.Logger
}

// NewEmailSender creates the email channel sender.
func NewEmailSender(endpoint, apiKey, fromAddress string, log logger.Logger) *EmailSender {
	return &EmailSender{
		endpoint:    endpoint,
		apiKey:      apiKey,
		fromAddress: fromAddress,
		client:      &http.Client{Timeout: constants.DefaultRequestTimeout},
		logger:      log.WithComponent("email_sender"),
	}
}

// Channel identifies the channel this sender serves.
func (s *EmailSender) Channel() constants.NotificationChannel {
	return constants.ChannelEmail
}

type emailPayload struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Send delivers the entry to the recipient address.
func (s *EmailSender) Send(ctx context.Context, entry *models.QueueEntry) error {
	if entry.Recipient == "" {
		return errors.ErrInvalidRequest("email entry has no recipient address")
	}

	body, err := json.Marshal(emailPayload{
		To:      entry.Recipient,
		From:    s.fromAddress,
		Subject: entry.Subject,
		HTML:    entry.Body,
	})
	if err != nil {
		return errors.ErrSendFailed(string(constants.ChannelEmail), err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.ErrSendFailed(string(constants.ChannelEmail), err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.ErrSendFailed(string(constants.ChannelEmail), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return errors.ErrSendFailed(string(constants.ChannelEmail),
			fmt.Errorf("provider returned status %d", resp.StatusCode))
	}

	s.logger.Debug(ctx, "Email delivered",
		logger.Int("entry_id", int(entry.ID)),
		logger.String("user_id", entry.UserID),
	)
	return nil
}

var _ service.Sender = (*EmailSender)(nil)
