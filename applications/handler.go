package applications

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"aneti-backend/documents"
	mailer "aneti-backend/email"
	"aneti-backend/login"
	"aneti-backend/migrations"
	"aneti-backend/notifications"
	"aneti-backend/plans"
	"aneti-backend/wizard"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	repo     *Repository
	plans    *plans.Repository
	docs     *documents.Repository
	notifier *notifications.Service
}

func NewHandler(repo *Repository, planRepo *plans.Repository, docRepo *documents.Repository, notifier *notifications.Service) *Handler {
	return &Handler{repo: repo, plans: planRepo, docs: docRepo, notifier: notifier}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	member := r.Group("/", login.AuthRequired())
	member.POST("/member-applications", h.createApplication)
	member.POST("/member-applications/:id/submit", h.submitApplication)
	member.POST("/member-applications/:id/resubmit", h.resubmitApplication)
	member.POST("/member-applications/:id/appeal", h.fileAppeal)
	member.GET("/member-applications/mine", h.myApplications)
	member.GET("/member-applications/:id", h.getApplication)
}

type createApplicationPayload struct {
	PlanID          int  `json:"plan_id"`
	ExperienceYears int  `json:"experience_years"`
	IsStudent       bool `json:"is_student"`
}

// createApplication opens the draft the wizard attaches documents to.
// The draft only reaches the admin queue after an explicit submit.
func (h *Handler) createApplication(c *gin.Context) {
	ident, _ := login.CurrentIdentity(c)
	var p createApplicationPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos"})
		return
	}
	if p.PlanID == 0 || p.ExperienceYears < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos"})
		return
	}
	plan, err := h.plans.GetByID(p.PlanID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if plan == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Plano não encontrado"})
		return
	}
	if !plans.IsEligible(plan, p.ExperienceYears, p.IsStudent) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Você não atende aos requisitos do plano selecionado"})
		return
	}
	if open, err := h.repo.HasOpenApplication(ident.UserID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	} else if open {
		c.JSON(http.StatusConflict, gin.H{"error": "Você já possui uma inscrição em andamento"})
		return
	}
	// An abandoned draft is superseded by the new registration
	if draft, err := h.repo.LatestOpenDraft(ident.UserID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	} else if draft != nil {
		if err := h.repo.DeleteDraft(draft.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		log.Printf("[APPLICATIONS] stale draft %d superseded user=%d", draft.ID, ident.UserID)
	}
	paymentStatus := PaymentFree
	if plan.RequiresPayment {
		paymentStatus = PaymentPending
	}
	app := &Application{
		UserID:          ident.UserID,
		PlanID:          plan.ID,
		Status:          StatusDraft,
		PaymentStatus:   paymentStatus,
		ExperienceYears: p.ExperienceYears,
		IsStudent:       p.IsStudent,
	}
	if err := h.repo.Create(app); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	app.PlanName = plan.Name
	log.Printf("[APPLICATIONS] draft created id=%d user=%d plan=%s", app.ID, ident.UserID, plan.Name)
	c.JSON(http.StatusCreated, app)
}

type submitPayload struct {
	AcceptTerms bool `json:"accept_terms"`
}

// ownedApplication loads the application and enforces ownership.
func (h *Handler) ownedApplication(c *gin.Context) *Application {
	ident, _ := login.CurrentIdentity(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return nil
	}
	app, err := h.repo.GetByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil
	}
	if app == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Inscrição não encontrada"})
		return nil
	}
	if app.UserID != ident.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Acesso negado"})
		return nil
	}
	return app
}

// validateForReview re-runs the wizard guards plus the required-document set.
// Second line of defense: the client already gates each step.
func (h *Handler) validateForReview(app *Application, plan *plans.Plan, user *migrations.User, acceptTerms bool) (bool, string) {
	counts, err := h.docs.CountsByType(app.ID)
	if err != nil {
		return false, "Erro ao validar documentos"
	}
	if ok, msg := documents.Satisfied(counts, plan.Tier(), app.IsStudent); !ok {
		return false, msg
	}
	st := wizard.State{
		FullName:        user.FirstName + " " + user.LastName,
		Phone:           user.Phone,
		UF:              user.State,
		City:            user.City,
		Area:            user.Area,
		Plan:            plan,
		ExperienceYears: app.ExperienceYears,
		IsStudent:       app.IsStudent,
		ExperienceDocs:  counts[documents.TypeExperience],
		HasIdentityDoc:  counts[documents.TypeIdentity] > 0,
		HasStudentDoc:   counts[documents.TypeStudent] > 0,
		AcceptTerms:     acceptTerms,
	}
	return st.Validate()
}

// submitApplication moves draft→pending once everything checks out.
func (h *Handler) submitApplication(c *gin.Context) {
	app := h.ownedApplication(c)
	if app == nil {
		return
	}
	var p submitPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos"})
		return
	}
	if !CanTransition(app.Status, StatusPending) || app.Status != StatusDraft {
		c.JSON(http.StatusConflict, gin.H{"error": "Inscrição já enviada"})
		return
	}
	if !p.AcceptTerms {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Aceite os termos para continuar"})
		return
	}
	plan, err := h.plans.GetByID(app.PlanID)
	if err != nil || plan == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Plano inválido"})
		return
	}
	user := migrations.GetUserByID(app.UserID)
	if user == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Usuário não encontrado"})
		return
	}
	if ok, msg := h.validateForReview(app, plan, user, p.AcceptTerms); !ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": msg})
		return
	}
	// Paid plans must have started their subscription before submitting;
	// the client only reaches this call after the payment intent UI.
	if plan.RequiresPayment && app.StripeSubscriptionID == nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "O pagamento ainda não foi iniciado"})
		return
	}
	if err := h.repo.SetStatus(app.ID, StatusPending); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	log.Printf("[APPLICATIONS] submitted id=%d user=%d plan=%s", app.ID, app.UserID, plan.Name)
	if err := mailer.SendApplicationReceived(user.Email, plan.Name); err != nil {
		log.Printf("send application received email failed for %s: %v", user.Email, err)
	}
	h.notifier.Notify(app.UserID, "Inscrição enviada", "Sua inscrição no plano "+plan.Name+" está em análise.")
	c.JSON(http.StatusOK, gin.H{"status": StatusPending})
}

// resubmitApplication re-queues a documents_requested application after the
// member attached what was asked. Previously attached documents are kept.
func (h *Handler) resubmitApplication(c *gin.Context) {
	app := h.ownedApplication(c)
	if app == nil {
		return
	}
	if !CanTransition(app.Status, StatusPending) || app.Status != StatusDocumentsRequested {
		c.JSON(http.StatusConflict, gin.H{"error": "A inscrição não aguarda documentos"})
		return
	}
	plan, err := h.plans.GetByID(app.PlanID)
	if err != nil || plan == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Plano inválido"})
		return
	}
	counts, err := h.docs.CountsByType(app.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if ok, msg := documents.Satisfied(counts, plan.Tier(), app.IsStudent); !ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": msg})
		return
	}
	if err := h.repo.SetStatus(app.ID, StatusPending); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	log.Printf("[APPLICATIONS] resubmitted id=%d user=%d", app.ID, app.UserID)
	c.JSON(http.StatusOK, gin.H{"status": StatusPending})
}

type appealPayload struct {
	Message string `json:"message"`
}

// fileAppeal contests a rejection: the appeal is recorded, appended to the
// admin notes and the application re-enters the review queue.
func (h *Handler) fileAppeal(c *gin.Context) {
	app := h.ownedApplication(c)
	if app == nil {
		return
	}
	var p appealPayload
	if err := c.ShouldBindJSON(&p); err != nil || strings.TrimSpace(p.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Informe o motivo do recurso"})
		return
	}
	if app.Status != StatusRejected {
		c.JSON(http.StatusConflict, gin.H{"error": "Apenas inscrições recusadas aceitam recurso"})
		return
	}
	appeal := &Appeal{
		ApplicationID: app.ID,
		UserID:        app.UserID,
		Type:          AppealTypeAppeal,
		Status:        AppealPending,
		Message:       p.Message,
	}
	if err := h.repo.CreateAppeal(appeal); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := h.repo.AppendNote(app.ID, "Recurso do candidato: "+p.Message); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := h.repo.SetStatus(app.ID, StatusPending); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	log.Printf("[APPLICATIONS] appeal filed application=%d user=%d", app.ID, app.UserID)
	c.JSON(http.StatusCreated, appeal)
}

func (h *Handler) myApplications(c *gin.Context) {
	ident, _ := login.CurrentIdentity(c)
	apps, err := h.repo.GetByUser(ident.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": apps})
}

func (h *Handler) getApplication(c *gin.Context) {
	ident, _ := login.CurrentIdentity(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}
	app, err := h.repo.GetByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if app == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Inscrição não encontrada"})
		return
	}
	if app.UserID != ident.UserID && ident.Role != "admin" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Acesso negado"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": app})
}
