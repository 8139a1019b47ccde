package handler

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"notetutor/internal/app"
	"notetutor/internal/transport/http/response"
)

const maxPDFSize = 10 << 20 // 10 MB

type NoteHandler struct {
	noteService *app.NoteService
}

type CreateNoteRequest struct {
	Title   string `json:"title" binding:"max=256"`
	Content string `json:"content" binding:"required"`
}

func NewNoteHandler(noteService *app.NoteService) *NoteHandler {
	return &NoteHandler{noteService: noteService}
}

func (h *NoteHandler) Create(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	doc, err := h.noteService.CreateNote(c.Request.Context(), app.CreateNoteInput{
		UserID:  userID,
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		writeServiceError(c, err, response.CodeDocumentNotFound, "create note failed")
		return
	}

	response.OK(c, doc)
}

// Upload accepts a multipart form with "file" (PDF) and an optional "title".
func (h *NoteHandler) Upload(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file")
		return
	}
	if file.Size > maxPDFSize {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file too large (max 10MB)")
		return
	}
	if strings.ToLower(filepath.Ext(file.Filename)) != ".pdf" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "only PDF files are allowed")
		return
	}

	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxPDFSize))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
		return
	}

	doc, err := h.noteService.UploadNote(c.Request.Context(), app.UploadNoteInput{
		UserID:      userID,
		Title:       c.PostForm("title"),
		Filename:    filepath.Base(file.Filename),
		ContentType: file.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		writeServiceError(c, err, response.CodeDocumentNotFound, "upload note failed")
		return
	}

	response.OK(c, doc)
}

func (h *NoteHandler) List(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	docs, err := h.noteService.ListNotes(userID)
	if err != nil {
		writeServiceError(c, err, response.CodeDocumentNotFound, "list notes failed")
		return
	}

	response.OK(c, docs)
}

func (h *NoteHandler) Get(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	doc, err := h.noteService.GetNote(userID, id)
	if err != nil {
		writeServiceError(c, err, response.CodeDocumentNotFound, "get note failed")
		return
	}

	response.OK(c, doc)
}

func (h *NoteHandler) Delete(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.noteService.DeleteNote(c.Request.Context(), userID, id); err != nil {
		writeServiceError(c, err, response.CodeDocumentNotFound, "delete note failed")
		return
	}

	response.OK(c, gin.H{"deleted_note_id": id})
}

func (h *NoteHandler) Status(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	status, err := h.noteService.IngestStatus(c.Request.Context(), userID, id)
	if err != nil {
		writeServiceError(c, err, response.CodeDocumentNotFound, "get ingest status failed")
		return
	}

	response.OK(c, status)
}

func (h *NoteHandler) Summarize(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	summary, err := h.noteService.Summarize(c.Request.Context(), userID, id)
	if err != nil {
		writeServiceError(c, err, response.CodeDocumentNotFound, "summarize note failed")
		return
	}

	response.OK(c, gin.H{"note_id": id, "summary": summary})
}
