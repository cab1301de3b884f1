// services/notifier.go
package services

import (
	"context"
	"os"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"quotebuilder-backend/models"
)

// Notifier is the opaque outbound transport. Send returns the provider's
// message id on success.
type Notifier interface {
	Send(ctx context.Context, to, body string) (string, error)
}

// TwilioWhatsAppNotifier delivers over the Twilio WhatsApp API.
type TwilioWhatsAppNotifier struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioWhatsAppNotifier() *TwilioWhatsAppNotifier {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")

	return &TwilioWhatsAppNotifier{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSid,
			Password: authToken,
		}),
		from: os.Getenv("TWILIO_WHATSAPP_NUMBER"),
	}
}

func (n *TwilioWhatsAppNotifier) Send(ctx context.Context, to, body string) (string, error) {
	if !strings.HasPrefix(to, "whatsapp:") {
		to = "whatsapp:" + to
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom("whatsapp:" + n.from)
	params.SetBody(body)

	resp, err := n.client.Api.CreateMessage(params)
	if err != nil {
		return "", &DeliveryError{Channel: models.ChannelWhatsApp, Err: err}
	}
	if resp.Sid == nil {
		return "", nil
	}
	return *resp.Sid, nil
}

// NotifierSet routes a reminder channel to its sender. "none" is handled by
// the dispatcher before routing; "email" has no configured transport and is
// rejected explicitly.
type NotifierSet struct {
	WhatsApp Notifier
}

func (s *NotifierSet) For(channel string) (Notifier, error) {
	switch channel {
	case models.ChannelWhatsApp:
		if s.WhatsApp == nil {
			return nil, NewValidationError("whatsapp notifier not configured")
		}
		return s.WhatsApp, nil
	case models.ChannelEmail:
		return nil, NewValidationError("email delivery is not configured")
	default:
		return nil, NewValidationError("unknown reminder channel: %s", channel)
	}
}
