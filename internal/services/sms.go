package services

import (
	"fmt"
	"log"
	"os"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// SMSSender delivers a message out-of-band. The verification engine never
// observes delivery results beyond the returned error.
type SMSSender interface {
	SendSMS(to, body string) error
}

// TwilioSender sends SMS via Twilio
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioSender creates a Twilio-backed sender from environment credentials
func NewTwilioSender() (*TwilioSender, error) {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	from := os.Getenv("TWILIO_PHONE_NUMBER")

	if accountSid == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("missing Twilio credentials in environment variables")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})

	return &TwilioSender{client: client, from: from}, nil
}

// SendSMS sends a plain SMS message via Twilio
func (t *TwilioSender) SendSMS(to, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(to)
	params.SetBody(body)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		log.Printf("Failed to send SMS to %s: %v", to, err)
		return err
	}

	log.Printf("SMS sent, SID: %s", *resp.Sid)
	return nil
}

// LogSender logs messages instead of sending them; used for local
// development when Twilio credentials are absent.
type LogSender struct{}

// SendSMS logs the message body
func (LogSender) SendSMS(to, body string) error {
	log.Printf("[sms] to %s: %s", to, body)
	return nil
}
