package plans

import (
	"net/http"
	"strconv"

	"aneti-backend/login"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/membership-plans", h.getAvailablePlans)
	r.GET("/membership-plans/:id/eligibility", h.checkEligibility)

	admin := r.Group("/admin", login.AdminRequired())
	admin.GET("/plans", h.getAllPlans)
	admin.POST("/plans", h.createPlan)
	admin.PUT("/plans/:id", h.updatePlan)
	admin.DELETE("/plans/:id", h.disablePlan)
}

func (h *Handler) getAvailablePlans(c *gin.Context) {
	plans, err := h.repo.GetAvailable()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": plans})
}

// checkEligibility lets the wizard re-validate a selection server-side:
// GET /membership-plans/:id/eligibility?experience_years=3&is_student=true
func (h *Handler) checkEligibility(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}
	years, err := strconv.Atoi(c.DefaultQuery("experience_years", "0"))
	if err != nil || years < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Anos de experiência inválidos"})
		return
	}
	isStudent := c.DefaultQuery("is_student", "false") == "true"
	plan, err := h.repo.GetByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if plan == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Plano não encontrado"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"eligible": IsEligible(plan, years, isStudent)})
}

func (h *Handler) getAllPlans(c *gin.Context) {
	plans, err := h.repo.GetAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": plans})
}

func (h *Handler) createPlan(c *gin.Context) {
	var p Plan
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos"})
		return
	}
	if p.BillingPeriod == "" {
		p.BillingPeriod = "yearly"
	}
	if err := h.repo.Create(&p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) updatePlan(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}
	var p Plan
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos"})
		return
	}
	if err := h.repo.Update(id, &p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) disablePlan(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}
	if err := h.repo.Disable(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
