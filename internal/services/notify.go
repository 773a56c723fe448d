package services

import (
	"fmt"
	"log"
	"os"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// NotifyService pushes order confirmations to the customer over WhatsApp.
// Best-effort: a failed send never fails the turn.
type NotifyService struct {
	client *twilio.RestClient
	from   string
}

// NewNotifyService creates a Twilio-backed notifier from environment variables
func NewNotifyService() (*NotifyService, error) {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	from := os.Getenv("TWILIO_WHATSAPP_FROM") // Format: "whatsapp:+14155238886"

	if accountSid == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("missing Twilio credentials in environment variables")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})

	return &NotifyService{
		client: client,
		from:   from,
	}, nil
}

// SendOrderConfirmation messages the customer their token and total
func (n *NotifyService) SendOrderConfirmation(phone, name, token string, total float64) error {
	body := fmt.Sprintf(
		"🧾 Veg Cafe: Thank you %s! Your order is confirmed.\nToken: %s\nTotal: Rs.%s\nWe will call your token when it's ready.",
		name, token, formatAmount(total))

	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(n.from)
	params.SetTo(fmt.Sprintf("whatsapp:%s", phone))
	params.SetBody(body)

	resp, err := n.client.Api.CreateMessage(params)
	if err != nil {
		log.Printf("❌ Failed to send order confirmation: %v", err)
		return err
	}

	log.Printf("✅ Order confirmation sent! SID: %s", *resp.Sid)
	return nil
}
