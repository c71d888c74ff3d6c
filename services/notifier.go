package services

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

// SMSSender delivers a text message to a phone number.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// TwilioSMS sends messages through the Twilio Messages API.
type TwilioSMS struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioSMS(accountSid, authToken, from string) *TwilioSMS {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})
	return &TwilioSMS{client: client, from: from}
}

func (t *TwilioSMS) SendSMS(ctx context.Context, to, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(t.from)
	params.SetBody(body)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio send to %s: %w", to, err)
	}
	if resp.Sid != nil {
		zap.L().Debug("sms queued", zap.String("sid", *resp.Sid), zap.String("to", to))
	}
	return nil
}

// LogSMS writes messages to the log instead of sending them.
type LogSMS struct{}

func (LogSMS) SendSMS(ctx context.Context, to, body string) error {
	zap.L().Info("sms (not sent)", zap.String("to", to), zap.String("body", body))
	return nil
}
