package notifications

import (
	"database/sql"
	"log"
	"net/http"
	"strconv"
	"time"

	"aneti-backend/login"

	"github.com/gin-gonic/gin"
)

type Notification struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// Service persists notifications and pushes them to connected clients.
type Service struct {
	db  *sql.DB
	hub *Hub
}

func NewService(db *sql.DB, hub *Hub) *Service {
	return &Service{db: db, hub: hub}
}

// Notify stores a notification and pushes it over the websocket when the
// member is connected. Persistence failures are logged, never propagated:
// notifications must not block the decision that triggered them.
func (s *Service) Notify(userID int, title, body string) {
	res, err := s.db.Exec(`INSERT INTO notifications (user_id, title, body) VALUES (?,?,?)`, userID, title, body)
	if err != nil {
		log.Printf("[NOTIFICATIONS] persist failed user=%d: %v", userID, err)
		return
	}
	id, _ := res.LastInsertId()
	n := &Notification{ID: int(id), UserID: userID, Title: title, Body: body, CreatedAt: time.Now()}
	if s.hub != nil {
		s.hub.Push(userID, n)
	}
}

func (s *Service) listForUser(userID int) ([]Notification, error) {
	rows, err := s.db.Query(`SELECT id, user_id, title, body, is_read, created_at FROM notifications
		WHERE user_id = ? ORDER BY id DESC LIMIT 100`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Notification{}
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Body, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Service) markRead(id, userID int) error {
	_, err := s.db.Exec(`UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?`, id, userID)
	return err
}

// RegisterRoutes registers the member-facing notification endpoints.
func (s *Service) RegisterRoutes(r *gin.Engine) {
	auth := r.Group("/", login.AuthRequired())
	auth.GET("/notifications", s.getNotifications)
	auth.POST("/notifications/:id/read", s.readNotification)
	if s.hub != nil {
		auth.GET("/ws/notifications", s.hub.HandleWebSocket)
	}
}

func (s *Service) getNotifications(c *gin.Context) {
	ident, _ := login.CurrentIdentity(c)
	list, err := s.listForUser(ident.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

func (s *Service) readNotification(c *gin.Context) {
	ident, _ := login.CurrentIdentity(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}
	if err := s.markRead(id, ident.UserID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
