package devserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/midhunpallampetty/upskillr-forum-engine/internal/app/gateway"
	"github.com/midhunpallampetty/upskillr-forum-engine/internal/app/models"
	"github.com/midhunpallampetty/upskillr-forum-engine/internal/pkg/apperrors"
	"github.com/midhunpallampetty/upskillr-forum-engine/internal/pkg/channel"
)

// Server serves the forum REST contract and the push channel from
// process memory
type Server struct {
	router   *gin.Engine
	hub      *Hub
	store    *memoryStore
	validate *validator.Validate
	logger   zerolog.Logger
}

// New creates a dev server. Call Start before serving.
func New(logger zerolog.Logger) *Server {
	store := newMemoryStore()
	s := &Server{
		hub:      NewHub(store, logger),
		store:    store,
		validate: validator.New(),
		logger:   logger,
	}

	router := gin.New()
	router.Use(gin.Recovery())

	v1 := router.Group("/api/v1")
	{
		v1.GET("/questions", s.listQuestions)
		v1.GET("/questions/:id", s.getQuestion)
		v1.POST("/questions", s.createQuestion)
		v1.DELETE("/questions/:id", s.deleteQuestion)
		v1.POST("/answers", s.createAnswer)
		v1.DELETE("/answers/:id", s.deleteAnswer)
		v1.POST("/replies", s.createReply)
		v1.DELETE("/replies/:id", s.deleteReply)
	}
	router.GET("/ws", s.handleWebSocket)

	s.router = router
	return s
}

// Start launches the hub loop; it stops when the context is cancelled
func (s *Server) Start(ctx context.Context) {
	go s.hub.Run(ctx)
}

// Router returns the HTTP handler, exposed for tests and for the server
// binary
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) listQuestions(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.List())
}

func (s *Server) getQuestion(c *gin.Context) {
	q, ok := s.store.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": apperrors.ErrQuestionNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, q)
}

func (s *Server) createQuestion(c *gin.Context) {
	var in gateway.CreateQuestionInput
	if !s.bind(c, &in) {
		return
	}

	q := models.Question{
		ID:        uuid.NewString(),
		Text:      in.Text,
		Author:    userFor(in.AuthorID, c),
		Category:  in.Category,
		Assets:    assetsFor(in.AssetURLs),
		CreatedAt: time.Now().UTC(),
	}
	s.store.AddQuestion(q)
	s.hub.Broadcast(channel.NewQuestion{Question: q})

	s.logger.Info().Str("questionID", q.ID).Msg("Question created")
	c.JSON(http.StatusCreated, gateway.CreateResult{ID: q.ID})
}

func (s *Server) deleteQuestion(c *gin.Context) {
	s.store.DeleteQuestion(c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (s *Server) createAnswer(c *gin.Context) {
	var in gateway.CreateAnswerInput
	if !s.bind(c, &in) {
		return
	}

	a := models.Answer{
		ID:         uuid.NewString(),
		QuestionID: in.QuestionID,
		Text:       in.Text,
		Author:     userFor(in.AuthorID, c),
		Assets:     assetsFor(in.AssetURLs),
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.AddAnswer(a); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	s.hub.Broadcast(channel.NewAnswer{Answer: a})

	c.JSON(http.StatusCreated, gateway.CreateResult{ID: a.ID})
}

func (s *Server) deleteAnswer(c *gin.Context) {
	s.store.DeleteAnswer(c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (s *Server) createReply(c *gin.Context) {
	var in gateway.CreateReplyInput
	if !s.bind(c, &in) {
		return
	}

	r := models.Reply{
		ID:            uuid.NewString(),
		QuestionID:    in.QuestionID,
		AnswerID:      in.AnswerID,
		ParentReplyID: in.ParentReplyID,
		Text:          in.Text,
		Author:        userFor(in.AuthorID, c),
		Assets:        assetsFor(in.AssetURLs),
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.store.AddReply(r); err != nil {
		status := http.StatusNotFound
		if errors.Is(err, apperrors.ErrReplyNotFound) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	s.hub.Broadcast(channel.NewRemoteReply{Reply: r})

	c.JSON(http.StatusCreated, gateway.CreateResult{ID: r.ID})
}

func (s *Server) deleteReply(c *gin.Context) {
	s.store.DeleteReply(c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to upgrade connection")
		return
	}

	client := &client{
		hub:    s.hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		logger: s.logger,
	}
	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// bind decodes and validates a JSON request body
func (s *Server) bind(c *gin.Context, in any) bool {
	if err := c.ShouldBindJSON(in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	if err := s.validate.Struct(in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// userFor builds the author for a create call. The dev server has no
// user directory; the display name comes from an optional header.
func userFor(authorID string, c *gin.Context) models.User {
	name := c.GetHeader("X-User-Name")
	if name == "" {
		name = authorID
	}
	role := models.Role(c.GetHeader("X-User-Role"))
	if role != models.RoleSchool {
		role = models.RoleStudent
	}
	return models.User{ID: authorID, DisplayName: name, Role: role}
}

func assetsFor(urls []string) []models.Asset {
	if len(urls) == 0 {
		return nil
	}
	out := make([]models.Asset, 0, len(urls))
	for _, u := range urls {
		out = append(out, models.Asset{ID: uuid.NewString(), ImageURL: u})
	}
	return out
}
