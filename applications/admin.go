package applications

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	mailer "aneti-backend/email"
	"aneti-backend/login"
	"aneti-backend/migrations"

	"github.com/gin-gonic/gin"
)

// RegisterAdminRoutes registers the review endpoints behind the admin session.
func (h *Handler) RegisterAdminRoutes(r *gin.Engine) {
	admin := r.Group("/admin", login.AdminRequired())
	admin.GET("/applications", h.adminList)
	admin.POST("/applications/:id/approve", h.adminApprove)
	admin.POST("/applications/:id/reject", h.adminReject)
	admin.GET("/appeals", h.adminListAppeals)
	admin.POST("/appeals/:id/review", h.adminReviewAppeal)
}

func (h *Handler) adminList(c *gin.Context) {
	status := c.DefaultQuery("status", StatusPending)
	apps, err := h.repo.ListByStatus(status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": apps})
}

func (h *Handler) adminApplication(c *gin.Context) *Application {
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
		log.Printf("[APPLICATIONS][ADMIN] application %d not found", id)
		c.JSON(http.StatusNotFound, gin.H{"error": "Inscrição não encontrada"})
		return nil
	}
	return app
}

// adminApprove is the only path that flips users.is_approved. The flip is
// idempotent: approving twice leaves the user approved, never un-approved.
func (h *Handler) adminApprove(c *gin.Context) {
	ident, _ := login.CurrentIdentity(c)
	app := h.adminApplication(c)
	if app == nil {
		return
	}
	if !CanTransition(app.Status, StatusApproved) {
		c.JSON(http.StatusConflict, gin.H{"error": "Inscrição não está em análise"})
		return
	}
	if err := h.repo.Decide(app.ID, StatusApproved, ident.UserID, ""); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := migrations.SetUserApproved(app.UserID); err != nil {
		log.Printf("[APPLICATIONS][ADMIN] set user approved failed user=%d: %v", app.UserID, err)
	}
	if err := migrations.UpdateUserPlanName(app.UserID, app.PlanName); err != nil {
		log.Printf("[APPLICATIONS][ADMIN] denormalize plan name failed user=%d: %v", app.UserID, err)
	}
	user := migrations.GetUserByID(app.UserID)
	if user != nil {
		if err := mailer.SendApplicationApproved(user.Email, app.PlanName); err != nil {
			log.Printf("send approval email failed for %s: %v", user.Email, err)
		}
	}
	h.notifier.Notify(app.UserID, "Inscrição aprovada", "Bem-vindo(a) à ANETI! Seu plano "+app.PlanName+" está ativo.")
	log.Printf("[APPLICATIONS][ADMIN] approved id=%d by=%d", app.ID, ident.UserID)
	c.JSON(http.StatusOK, gin.H{"status": StatusApproved})
}

type rejectPayload struct {
	Reason           string `json:"reason"`
	RequestDocuments bool   `json:"request_documents"`
}

// adminReject either rejects outright or asks for more documents; both record
// the reviewer and the note. Attached documents are never touched.
func (h *Handler) adminReject(c *gin.Context) {
	ident, _ := login.CurrentIdentity(c)
	app := h.adminApplication(c)
	if app == nil {
		return
	}
	var p rejectPayload
	if err := c.ShouldBindJSON(&p); err != nil || strings.TrimSpace(p.Reason) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Informe o motivo"})
		return
	}
	target := StatusRejected
	if p.RequestDocuments {
		target = StatusDocumentsRequested
	}
	if !CanTransition(app.Status, target) {
		c.JSON(http.StatusConflict, gin.H{"error": "Inscrição não está em análise"})
		return
	}
	if err := h.repo.Decide(app.ID, target, ident.UserID, p.Reason); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	user := migrations.GetUserByID(app.UserID)
	if user != nil {
		var mailErr error
		if p.RequestDocuments {
			mailErr = mailer.SendDocumentsRequested(user.Email, p.Reason)
		} else {
			mailErr = mailer.SendApplicationRejected(user.Email, p.Reason)
		}
		if mailErr != nil {
			log.Printf("send decision email failed for %s: %v", user.Email, mailErr)
		}
	}
	if p.RequestDocuments {
		h.notifier.Notify(app.UserID, "Documentos solicitados", p.Reason)
	} else {
		h.notifier.Notify(app.UserID, "Inscrição não aprovada", p.Reason)
	}
	log.Printf("[APPLICATIONS][ADMIN] decided id=%d status=%s by=%d", app.ID, target, ident.UserID)
	c.JSON(http.StatusOK, gin.H{"status": target})
}

func (h *Handler) adminListAppeals(c *gin.Context) {
	appeals, err := h.repo.ListAppeals(c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": appeals})
}

type reviewAppealPayload struct {
	Accept bool   `json:"accept"`
	Note   string `json:"note"`
}

// adminReviewAppeal closes the appeal record. The application itself was
// already re-queued when the appeal was filed; the decision on it happens
// through the regular approve/reject endpoints.
func (h *Handler) adminReviewAppeal(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}
	appeal, err := h.repo.GetAppealByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if appeal == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Recurso não encontrado"})
		return
	}
	var p reviewAppealPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos"})
		return
	}
	status := AppealRejected
	if p.Accept {
		status = AppealAccepted
	}
	if err := h.repo.SetAppealStatus(id, status); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(p.Note) != "" {
		if err := h.repo.AppendNote(appeal.ApplicationID, "Análise do recurso: "+p.Note); err != nil {
			log.Printf("[APPLICATIONS][ADMIN] append appeal note failed: %v", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}
