package billing

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"aneti-backend/applications"
	"aneti-backend/migrations"

	"github.com/stripe/stripe-go/v78/webhook"
)

// HandleWebhook verifies (when a secret is configured) and applies a Stripe
// event. Only the invoice payment results matter to the workflow; everything
// else is acknowledged and ignored.
func (s *Service) HandleWebhook(w http.ResponseWriter, r *http.Request) error {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	sig := r.Header.Get("Stripe-Signature")
	if s.webhookSecret != "" {
		if _, err := webhook.ConstructEvent(payload, sig, s.webhookSecret); err != nil {
			return fmt.Errorf("assinatura inválida: %w", err)
		}
	}

	var event struct {
		Type string `json:"type"`
		Data struct {
			Object struct {
				Subscription string `json:"subscription"`
				Status       string `json:"status"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return err
	}

	var paymentStatus string
	switch event.Type {
	case "invoice.payment_succeeded":
		paymentStatus = applications.PaymentPaid
	case "invoice.payment_failed":
		paymentStatus = applications.PaymentFailed
	default:
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ignored"))
		return nil
	}

	subID := event.Data.Object.Subscription
	if subID == "" {
		return fmt.Errorf("evento %s sem subscription", event.Type)
	}
	appID, err := s.apps.SetPaymentStatusBySubscription(subID, paymentStatus)
	if err != nil {
		return err
	}
	if appID == 0 {
		// No matching application: log and drop, per the workflow contract.
		log.Printf("[STRIPE][webhook] no application for subscription=%s type=%s, dropping", subID, event.Type)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("unmatched"))
		return nil
	}

	// Mirror the billing state onto the user record.
	if app, err := s.apps.GetByID(appID); err == nil && app != nil {
		mirror := "active"
		if paymentStatus == applications.PaymentFailed {
			mirror = "past_due"
		}
		if err := migrations.UpdateUserSubscriptionStatus(app.UserID, mirror); err != nil {
			log.Printf("[STRIPE][webhook] mirror subscription status failed user=%d: %v", app.UserID, err)
		}
	}

	log.Printf("[STRIPE][webhook] application=%d payment_status=%s", appID, paymentStatus)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
	return nil
}
