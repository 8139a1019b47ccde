package http

import (
	"github.com/gin-gonic/gin"

	"notetutor/internal/bootstrap"
	"notetutor/internal/model"
	"notetutor/internal/transport/http/handler"
	"notetutor/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(middleware.RequestLogger(app.Logger.Named("http")), middleware.Recovery(app.Logger))

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	registerAPI(router, app.Config.Auth.JWTSecret, handlers{
		auth:  handler.NewAuthHandler(app.AuthService),
		notes: handler.NewNoteHandler(app.NoteService),
		chat:  handler.NewChatHandler(app.ChatService),
		study: handler.NewStudyHandler(app.StudyService),
	})
	return router
}

type handlers struct {
	auth  *handler.AuthHandler
	notes *handler.NoteHandler
	chat  *handler.ChatHandler
	study *handler.StudyHandler
}

func registerAPI(router gin.IRouter, jwtSecret string, h handlers) {
	authRequired := middleware.AuthJWT(jwtSecret)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", h.auth.Register)
	authGroup.POST("/login", h.auth.Login)
	authGroup.GET("/me", authRequired, h.auth.Me)

	notes := v1.Group("/notes", authRequired)
	notes.POST("", h.notes.Create)
	notes.POST("/upload", h.notes.Upload)
	notes.GET("", h.notes.List)
	notes.GET("/:id", h.notes.Get)
	notes.DELETE("/:id", h.notes.Delete)
	notes.GET("/:id/status", h.notes.Status)
	notes.POST("/:id/summary", h.notes.Summarize)

	v1.POST("/chat", authRequired, h.chat.Stream)

	quizzes := v1.Group("/quizzes", authRequired)
	quizzes.POST("", h.study.GenerateQuiz)
	quizzes.GET("", h.study.List(model.ArtifactQuiz))
	quizzes.GET("/:id", h.study.Get(model.ArtifactQuiz))
	quizzes.DELETE("/:id", h.study.Delete(model.ArtifactQuiz))
	quizzes.PUT("/:id/score", h.study.SaveQuizScore)

	qa := v1.Group("/qa", authRequired)
	qa.POST("", h.study.GenerateQA)
	qa.GET("", h.study.List(model.ArtifactQA))
	qa.GET("/:id", h.study.Get(model.ArtifactQA))
	qa.DELETE("/:id", h.study.Delete(model.ArtifactQA))
}
