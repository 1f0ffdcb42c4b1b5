package notification

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/wavecard/guard/internal/domain/models"
	"github.com/wavecard/guard/internal/domain/service"
	"github.com/wavecard/guard/pkg/constants"
	"github.com/wavecard/guard/pkg/errors"
	"github.com/wavecard/guard/pkg/logger"
)

// SMSSender delivers queue entries through the telephony API: a basic-auth
// form-encoded POST.
type SMSSender struct {
	endpoint   string
	accountSID string
	authToken  string
	fromNumber string
	client     *http.Client
	logger     logger.Logger
}

// NewSMSSender creates the SMS channel sender.
func NewSMSSender(endpoint, accountSID, authToken, fromNumber string, log logger.Logger) *SMSSender {
	return &SMSSender{
		endpoint:   endpoint,
		accountSID: accountSID,
		authToken:  authToken,
		fromNumber: fromNumber,
		client:     &http.Client{Timeout: constants.DefaultRequestTimeout},
		logger:     log.WithComponent("sms_sender"),
	}
}

// Channel identifies the channel this sender serves.
func (s *SMSSender) Channel() constants.NotificationChannel {
	return constants.ChannelSMS
}

// Send delivers the entry to the recipient phone number.
func (s *SMSSender) Send(ctx context.Context, entry *models.QueueEntry) error {
	if entry.Recipient == "" {
		return errors.ErrInvalidRequest("sms entry has no recipient number")
	}

	form := url.Values{}
	form.Set("To", entry.Recipient)
	form.Set("From", s.fromNumber)
	form.Set("Body", entry.Body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.ErrSendFailed(string(constants.ChannelSMS), err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.ErrSendFailed(string(constants.ChannelSMS), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return errors.ErrSendFailed(string(constants.ChannelSMS),
			fmt.Errorf("provider returned status %d", resp.StatusCode))
	}

	s.logger.Debug(ctx, "SMS delivered",
		logger.Int("entry_id", int(entry.ID)),
		logger.String("user_id", entry.UserID),
	)
	return nil
}

var _ service.Sender = (*SMSSender)(nil)
