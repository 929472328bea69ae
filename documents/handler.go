package documents

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"aneti-backend/login"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// Applications attachable by their owner. Uploaded files for other states are
// rejected; the admin flow never mutates documents.
var attachableStatuses = map[string]bool{
	"draft":               true,
	"documents_requested": true,
}

const maxUploadBytes = 10 << 20 // 10 MB

var allowedMimeTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}

type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	auth := r.Group("/", login.AuthRequired())
	auth.POST("/uploads", h.upload)
	auth.POST("/documents", h.createDocument)
	auth.GET("/applications/:id/documents", h.listDocuments)
	auth.DELETE("/documents/:id", h.deleteDocument)
}

func uploadDir() string {
	if d := os.Getenv("UPLOAD_DIR"); d != "" {
		return d
	}
	return "./uploads"
}

func baseURL() string {
	if u := os.Getenv("BASE_URL"); u != "" {
		return u
	}
	return "http://localhost:8080"
}

// upload stores a multipart file under UPLOAD_DIR with a slugged unique name
// and returns its public URL. PDFs get a page sniff before being accepted.
func (h *Handler) upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nenhum arquivo enviado"})
		return
	}
	if file.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Arquivo excede o limite de 10MB"})
		return
	}
	mime := file.Header.Get("Content-Type")
	if !allowedMimeTypes[mime] {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "Formato não suportado (use PDF, JPG ou PNG)"})
		return
	}

	dir := uploadDir()
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		os.MkdirAll(dir, 0755)
	}

	ext := filepath.Ext(file.Filename)
	base := slug.Make(strings.TrimSuffix(file.Filename, ext))
	if base == "" {
		base = "documento"
	}
	newName := fmt.Sprintf("%s-%s%s", base, uuid.New().String(), ext)
	savePath := filepath.Join(dir, newName)

	if err := c.SaveUploadedFile(file, savePath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Falha ao salvar o arquivo"})
		return
	}

	if mime == "application/pdf" {
		pages, err := SniffPDF(savePath)
		if err != nil {
			os.Remove(savePath)
			log.Printf("[DOCUMENTS] rejected unreadable pdf %q: %v", file.Filename, err)
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "PDF ilegível ou vazio"})
			return
		}
		log.Printf("[DOCUMENTS] stored pdf %s (%d página(s))", newName, pages)
	}

	c.JSON(http.StatusOK, gin.H{
		"url":       fmt.Sprintf("%s/uploads/%s", baseURL(), newName),
		"name":      file.Filename,
		"size":      file.Size,
		"mime_type": mime,
	})
}

type createDocumentPayload struct {
	ApplicationID int    `json:"application_id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	FileURL       string `json:"file_url"`
	Size          int64  `json:"size"`
	MimeType      string `json:"mime_type"`
}

// createDocument appends a document row to the caller's own draft (or
// documents_requested) application.
func (h *Handler) createDocument(c *gin.Context) {
	ident, _ := login.CurrentIdentity(c)
	var p createDocumentPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos"})
		return
	}
	if p.ApplicationID == 0 || p.FileURL == "" || !ValidType(p.Type) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos"})
		return
	}
	ownerID, status, err := h.repo.applicationOwnership(p.ApplicationID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if ownerID == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Inscrição não encontrada"})
		return
	}
	if ownerID != ident.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Acesso negado"})
		return
	}
	if !attachableStatuses[status] {
		c.JSON(http.StatusConflict, gin.H{"error": "A inscrição não aceita mais documentos"})
		return
	}
	doc := &Document{
		ApplicationID: p.ApplicationID,
		Name:          p.Name,
		Type:          p.Type,
		FileURL:       p.FileURL,
		Size:          p.Size,
		MimeType:      p.MimeType,
	}
	if err := h.repo.Create(doc); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	log.Printf("[DOCUMENTS] appended type=%s application=%d user=%d", doc.Type, doc.ApplicationID, ident.UserID)
	c.JSON(http.StatusCreated, doc)
}

func (h *Handler) listDocuments(c *gin.Context) {
	ident, _ := login.CurrentIdentity(c)
	appID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}
	ownerID, _, err := h.repo.applicationOwnership(appID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if ownerID == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Inscrição não encontrada"})
		return
	}
	if ownerID != ident.UserID && ident.Role != "admin" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Acesso negado"})
		return
	}
	docs, err := h.repo.GetByApplication(appID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": docs})
}

// deleteDocument removes a pre-submission experience document from the
// caller's draft. Identity and student proofs are singletons in the client UI
// and are replaced, not deleted.
func (h *Handler) deleteDocument(c *gin.Context) {
	ident, _ := login.CurrentIdentity(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}
	doc, err := h.repo.GetByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if doc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Documento não encontrado"})
		return
	}
	ownerID, status, err := h.repo.applicationOwnership(doc.ApplicationID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if ownerID != ident.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Acesso negado"})
		return
	}
	if status != "draft" || doc.Type != TypeExperience {
		c.JSON(http.StatusConflict, gin.H{"error": "Documento não pode ser removido"})
		return
	}
	if err := h.repo.Delete(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
