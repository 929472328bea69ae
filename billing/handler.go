package billing

import (
	"errors"
	"log"
	"net/http"

	"aneti-backend/applications"
	"aneti-backend/login"
	"aneti-backend/migrations"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
	apps    *applications.Repository
}

func NewHandler(service *Service, apps *applications.Repository) *Handler {
	return &Handler{service: service, apps: apps}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/create-subscription", login.AuthRequired(), h.createSubscription)
	r.POST("/stripe/webhook", h.webhook)
}

type createSubscriptionPayload struct {
	PlanID   int    `json:"plan_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// createSubscription bootstraps the Stripe subscription for the caller's
// chosen plan and records the resulting ids on their open draft, when one
// exists.
func (h *Handler) createSubscription(c *gin.Context) {
	ident, _ := login.CurrentIdentity(c)
	var p createSubscriptionPayload
	if err := c.ShouldBindJSON(&p); err != nil || p.PlanID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos"})
		return
	}
	email := p.Email
	if email == "" {
		email = ident.Email
	}
	fullName := p.FullName
	if fullName == "" {
		if user := migrations.GetUserByID(ident.UserID); user != nil {
			fullName = user.FirstName + " " + user.LastName
		}
	}
	boot, err := h.service.EnsureSubscription(c.Request.Context(), p.PlanID, email, fullName)
	if err != nil {
		if errors.Is(err, ErrStripeNotConfigured) || errors.Is(err, ErrStripeInvalidAPIKey) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Pagamento indisponível no momento, tente novamente"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Não foi possível iniciar o pagamento, tente novamente"})
		return
	}
	if draft, err := h.apps.LatestOpenDraft(ident.UserID); err == nil && draft != nil {
		if err := h.apps.SetStripeRefs(draft.ID, boot.CustomerID, boot.SubscriptionID); err != nil {
			log.Printf("[STRIPE] persist refs failed application=%d: %v", draft.ID, err)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"client_secret":   boot.ClientSecret,
		"subscription_id": boot.SubscriptionID,
		"customer_id":     boot.CustomerID,
	})
}

// webhook consumes Stripe payment events and flips the payment status of the
// matching application. Unmatched events are logged and dropped, no retry.
func (h *Handler) webhook(c *gin.Context) {
	if h.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "stripe não configurado"})
		return
	}
	if err := h.service.HandleWebhook(c.Writer, c.Request); err != nil {
		log.Printf("[STRIPE][webhook] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}
