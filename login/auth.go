package login

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"aneti-backend/migrations"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Audiences keep member and admin sessions apart: a member token never
// passes AdminRequired even if the same secret is configured.
const (
	AudienceMember = "member"
	AudienceAdmin  = "admin"
)

const identityKey = "auth_identity"

// Identity is the request-scoped result of token verification. Handlers read
// it from the gin context instead of re-parsing headers.
type Identity struct {
	UserID int
	Email  string
	Role   string
}

type sessionClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// blacklist for manual logout (token -> expiry). Not persisted; acceptable for MVP.
var (
	blacklistMu sync.Mutex
	blacklist   = map[string]time.Time{}
)

func sessionSecret(audience string) []byte {
	if audience == AudienceAdmin {
		if s := os.Getenv("ADMIN_SESSION_SECRET"); s != "" {
			return []byte(s)
		}
	}
	s := os.Getenv("SESSION_SECRET")
	if s == "" {
		s = "dev-insecure-secret"
	}
	return []byte(s)
}

func sessionDuration(remember bool) time.Duration {
	defHours := 12
	if v := os.Getenv("SESSION_DEFAULT_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			defHours = n
		}
	}
	remDays := 30
	if v := os.Getenv("SESSION_REMEMBER_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			remDays = n
		}
	}
	if remember {
		return time.Hour * 24 * time.Duration(remDays)
	}
	return time.Hour * time.Duration(defHours)
}

// SignToken issues an HS256 token for the user scoped to the given audience.
func SignToken(user *migrations.User, audience string, remember bool) (string, int64, error) {
	exp := time.Now().Add(sessionDuration(remember))
	claims := sessionClaims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(user.ID),
			Audience:  jwt.ClaimStrings{audience},
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(sessionSecret(audience))
	if err != nil {
		return "", 0, err
	}
	return signed, exp.Unix(), nil
}

// ParseToken verifies signature, expiry, audience and the logout blacklist.
func ParseToken(tokenStr, audience string) (Identity, error) {
	blacklistMu.Lock()
	if exp, ok := blacklist[tokenStr]; ok && exp.After(time.Now()) {
		blacklistMu.Unlock()
		return Identity{}, errors.New("token revogado")
	}
	blacklistMu.Unlock()

	var claims sessionClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("método de assinatura inesperado")
		}
		return sessionSecret(audience), nil
	}, jwt.WithAudience(audience))
	if err != nil || !token.Valid {
		return Identity{}, errors.New("token inválido ou expirado")
	}
	id, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return Identity{}, errors.New("token inválido")
	}
	return Identity{UserID: id, Email: claims.Email, Role: claims.Role}, nil
}

func bearerToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	return strings.TrimPrefix(auth, "Bearer ")
}

func revoke(tokenStr string) {
	var claims sessionClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenStr, &claims); err == nil && claims.ExpiresAt != nil {
		blacklistMu.Lock()
		blacklist[tokenStr] = claims.ExpiresAt.Time
		blacklistMu.Unlock()
	}
}

// AuthRequired resolves the member identity once per request and aborts with
// 401 when the token is missing, invalid or belongs to a deactivated user.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token obrigatório"})
			return
		}
		ident, err := ParseToken(token, AudienceMember)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token inválido ou expirado"})
			return
		}
		user := migrations.GetUserByID(ident.UserID)
		if user == nil || !user.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Usuário não encontrado"})
			return
		}
		c.Set(identityKey, Identity{UserID: user.ID, Email: user.Email, Role: user.Role})
		c.Next()
	}
}

// AdminRequired accepts admin-audience tokens of users with role=admin only.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token obrigatório"})
			return
		}
		ident, err := ParseToken(token, AudienceAdmin)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token inválido ou expirado"})
			return
		}
		user := migrations.GetUserByID(ident.UserID)
		if user == nil || user.Role != "admin" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Acesso restrito a administradores"})
			return
		}
		c.Set(identityKey, Identity{UserID: user.ID, Email: user.Email, Role: user.Role})
		c.Next()
	}
}

// CurrentIdentity returns the identity resolved by the middleware.
func CurrentIdentity(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	ident, ok := v.(Identity)
	return ident, ok
}
