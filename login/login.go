package login

import (
	"log"
	"net/http"
	"strings"
	"time"

	mailer "aneti-backend/email"
	"aneti-backend/migrations"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

type RegisterPayload struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Phone     string `json:"phone"`
	State     string `json:"state"`
	City      string `json:"city"`
	Area      string `json:"area"`
}

// RegisterRoutes registers the session endpoints
func RegisterRoutes(r *gin.Engine) {
	r.POST("/register", RegisterHandler)
	r.POST("/login", Handler)
	r.POST("/admin/login", AdminLoginHandler)
	r.POST("/logout", LogoutHandler)
	r.GET("/session", SessionHandler)
	r.POST("/change-password", ChangePasswordHandler)
}

func userResponse(user *migrations.User) gin.H {
	return gin.H{
		"id":          user.ID,
		"first_name":  user.FirstName,
		"last_name":   user.LastName,
		"full_name":   user.FirstName + " " + user.LastName,
		"email":       user.Email,
		"phone":       user.Phone,
		"state":       user.State,
		"city":        user.City,
		"area":        user.Area,
		"plan_name":   user.PlanName,
		"role":        user.Role,
		"is_approved": user.IsApproved,
		"is_active":   user.IsActive,
		"created_at":  user.CreatedAt.Format(time.RFC3339),
		"updated_at":  user.UpdatedAt.Format(time.RFC3339),
	}
}

// Handler authenticates a member and issues a member-audience token.
func Handler(c *gin.Context) {
	var creds Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos"})
		return
	}
	creds.Email = strings.TrimSpace(strings.ToLower(creds.Email))

	user := migrations.GetUserByEmail(creds.Email)
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Credenciais inválidas"})
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "Conta desativada"})
		return
	}
	token, exp, err := SignToken(user, AudienceMember, creds.Remember)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Não foi possível iniciar a sessão"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": userResponse(user), "expires_at": exp, "remember": creds.Remember})
}

// AdminLoginHandler issues an admin-audience token. Member accounts are
// rejected here even with valid credentials.
func AdminLoginHandler(c *gin.Context) {
	var creds Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos"})
		return
	}
	creds.Email = strings.TrimSpace(strings.ToLower(creds.Email))

	user := migrations.GetUserByEmail(creds.Email)
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Credenciais inválidas"})
		return
	}
	if user.Role != "admin" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Acesso restrito a administradores"})
		return
	}
	token, exp, err := SignToken(user, AudienceAdmin, creds.Remember)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Não foi possível iniciar a sessão"})
		return
	}
	log.Printf("[LOGIN] admin session opened for %s", user.Email)
	c.JSON(http.StatusOK, gin.H{"token": token, "user": userResponse(user), "expires_at": exp})
}

// RegisterHandler creates the account stub used by the registration wizard.
// The membership application itself is created later by the applications package.
func RegisterHandler(c *gin.Context) {
	var p RegisterPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos"})
		return
	}
	p.Email = strings.TrimSpace(strings.ToLower(p.Email))
	if p.Email == "" || p.Password == "" || strings.TrimSpace(p.FirstName) == "" || strings.TrimSpace(p.LastName) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Campos obrigatórios ausentes"})
		return
	}
	if len(p.Password) < 8 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "A senha deve ter pelo menos 8 caracteres"})
		return
	}
	if exists, err := migrations.EmailExists(p.Email); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro ao validar usuário"})
		return
	} else if exists {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Este e-mail já está cadastrado"})
		return
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Não foi possível criar o usuário"})
		return
	}
	id, err := migrations.CreateUser(p.FirstName, p.LastName, p.Email, string(hashed), p.Phone, p.State, p.City, p.Area)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Não foi possível criar o usuário"})
		return
	}
	user := migrations.GetUserByID(id)
	if user == nil {
		c.Status(http.StatusCreated)
		return
	}
	// Issue a session right away so the wizard continues without a second login
	token, exp, _ := SignToken(user, AudienceMember, false)
	c.JSON(http.StatusCreated, gin.H{"token": token, "user": userResponse(user), "expires_at": exp})
}

// SessionHandler returns the user behind the presented member token.
func SessionHandler(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token obrigatório"})
		return
	}
	ident, err := ParseToken(token, AudienceMember)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token inválido ou expirado"})
		return
	}
	user := migrations.GetUserByID(ident.UserID)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Usuário não encontrado"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": userResponse(user)})
}

// LogoutHandler invalidates the token until its natural expiry (best effort)
func LogoutHandler(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Token obrigatório"})
		return
	}
	revoke(token)
	c.JSON(http.StatusOK, gin.H{"message": "Sessão encerrada"})
}

type ChangePasswordPayload struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func ChangePasswordHandler(c *gin.Context) {
	var p ChangePasswordPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos"})
		return
	}
	token := bearerToken(c)
	ident, err := ParseToken(token, AudienceMember)
	if err != nil || token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token inválido"})
		return
	}
	user := migrations.GetUserByID(ident.UserID)
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(p.OldPassword)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Credenciais inválidas"})
		return
	}
	if len(p.NewPassword) < 8 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "A senha deve ter pelo menos 8 caracteres"})
		return
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(p.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Não foi possível atualizar a senha"})
		return
	}
	if err := migrations.UpdateUserPassword(user.ID, string(hashed)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Não foi possível atualizar a senha"})
		return
	}
	if err := mailer.SendPasswordChanged(user.Email); err != nil {
		log.Printf("send password change email failed for %s: %v", user.Email, err)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Senha atualizada"})
}
