package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-invoice/internal/common"
	"github.com/noah-isme/backend-invoice/internal/obs"
)

type emailAPI interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendConfig configures the Resend backed sender.
type ResendConfig struct {
	APIKey  string
	From    string
	ReplyTo string
}

// ResendSender delivers email through the Resend API.
type ResendSender struct {
	emails  emailAPI
	from    string
	replyTo string
}

var _ common.EmailSender = (*ResendSender)(nil)

// NewResendSender builds a sender. It returns an error when the API key is missing.
func NewResendSender(cfg ResendConfig) (*ResendSender, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("notify: resend api key is required")
	}
	client := resend.NewClient(cfg.APIKey)
	return &ResendSender{emails: client.Emails, from: cfg.From, replyTo: cfg.ReplyTo}, nil
}

// Send implements common.EmailSender.
func (s *ResendSender) Send(ctx context.Context, msg common.Email) error {
	if strings.TrimSpace(msg.To) == "" {
		return errors.New("notify: recipient is required")
	}
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		ReplyTo: s.replyTo,
	}
	if msg.ReplyTo != "" {
		params.ReplyTo = msg.ReplyTo
	}
	for _, a := range msg.Attachments {
		params.Attachments = append(params.Attachments, &resend.Attachment{
			Filename: a.Filename,
			Content:  a.Content,
		})
	}
	sent, err := s.emails.SendWithContext(ctx, params)
	if err != nil {
		obs.Inc(obs.EmailDeliveryTotal, "error")
		return fmt.Errorf("send email: %w", err)
	}
	obs.Inc(obs.EmailDeliveryTotal, "sent")
	zerolog.Ctx(ctx).Debug().Str("email_id", sent.Id).Str("subject", msg.Subject).Msg("email sent")
	return nil
}
