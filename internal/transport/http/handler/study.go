package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"notetutor/internal/app"
	"notetutor/internal/model"
	"notetutor/internal/transport/http/response"
)

// StudyHandler serves quizzes and Q&A sets. The same handler methods back both
// resources; the route decides the artifact kind.
type StudyHandler struct {
	studyService *app.StudyService
}

type GenerateArtifactRequest struct {
	DocumentID uint `json:"document_id" binding:"required,gt=0"`
}

type SaveScoreRequest struct {
	Score *int `json:"score" binding:"required"`
}

type generateFunc func(ctx context.Context, input app.GenerateInput) (*model.Artifact, error)

func NewStudyHandler(studyService *app.StudyService) *StudyHandler {
	return &StudyHandler{studyService: studyService}
}

func (h *StudyHandler) GenerateQuiz(c *gin.Context) {
	h.generate(c, h.studyService.GenerateQuiz, "generate quiz failed")
}

func (h *StudyHandler) GenerateQA(c *gin.Context) {
	h.generate(c, h.studyService.GenerateQA, "generate q&a failed")
}

func (h *StudyHandler) generate(c *gin.Context, run generateFunc, fallback string) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req GenerateArtifactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	artifact, err := run(c.Request.Context(), app.GenerateInput{UserID: userID, DocumentID: req.DocumentID})
	if err != nil {
		writeServiceError(c, err, response.CodeDocumentNotFound, fallback)
		return
	}

	response.OK(c, artifact)
}

// List returns a gin handler listing artifacts of one kind, newest first.
func (h *StudyHandler) List(kind model.ArtifactKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := getUserIDFromContext(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
			return
		}

		artifacts, err := h.studyService.ListArtifacts(userID, kind)
		if err != nil {
			writeServiceError(c, err, response.CodeArtifactNotFound, "list "+string(kind)+" failed")
			return
		}

		response.OK(c, artifacts)
	}
}

func (h *StudyHandler) Get(kind model.ArtifactKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := getUserIDFromContext(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
			return
		}
		id, ok := parseIDParam(c, "id")
		if !ok {
			return
		}

		artifact, err := h.studyService.GetArtifact(userID, id, kind)
		if err != nil {
			writeServiceError(c, err, response.CodeArtifactNotFound, "get "+string(kind)+" failed")
			return
		}

		response.OK(c, artifact)
	}
}

func (h *StudyHandler) Delete(kind model.ArtifactKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := getUserIDFromContext(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
			return
		}
		id, ok := parseIDParam(c, "id")
		if !ok {
			return
		}

		if err := h.studyService.DeleteArtifact(userID, id, kind); err != nil {
			writeServiceError(c, err, response.CodeArtifactNotFound, "delete "+string(kind)+" failed")
			return
		}

		response.OK(c, gin.H{"deleted_id": id})
	}
}

func (h *StudyHandler) SaveQuizScore(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req SaveScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	artifact, err := h.studyService.SaveQuizScore(userID, id, *req.Score)
	if err != nil {
		writeServiceError(c, err, response.CodeArtifactNotFound, "save quiz score failed")
		return
	}

	response.OK(c, artifact)
}
