package handlers

import (
	"net/http"
	"strconv"

	"tutorapp/internal/config"
	"tutorapp/internal/models"
	"tutorapp/internal/observability"
	"tutorapp/internal/services"

	"github.com/gin-gonic/gin"
)

const defaultQuestionPageSize = 50

// QuestionHandler exposes catalog question routes
type QuestionHandler struct {
	questionService services.QuestionServiceInterface
	cfg             *config.Config
	logger          *observability.Logger
}

// NewQuestionHandler creates a new question handler
func NewQuestionHandler(questionService services.QuestionServiceInterface, cfg *config.Config, logger *observability.Logger) *QuestionHandler {
	return &QuestionHandler{
		questionService: questionService,
		cfg:             cfg,
		logger:          logger,
	}
}

type createQuestionRequest struct {
	Subject        string                 `json:"subject" binding:"required"`
	Topic          string                 `json:"topic" binding:"required"`
	Type           string                 `json:"type" binding:"required,oneof=free_response multiple_choice drag_drop_match extended_response"`
	Content        map[string]interface{} `json:"content" binding:"required"`
	CorrectAnswers []string               `json:"correct_answers"`
}

// CreateQuestion handles POST /v1/questions
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "create_question")
	var err error
	defer observability.FinishSpan(span, &err)

	var req createQuestionRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		HandleValidationError(c, "request body", "", bindErr.Error())
		return
	}

	questionType := models.QuestionType(req.Type)
	if questionType != models.ExtendedResponse && len(req.CorrectAnswers) == 0 {
		HandleValidationError(c, "correct_answers", "", "required for scored question types")
		return
	}

	question, err := h.questionService.CreateQuestion(ctx, &models.Question{
		Subject:        req.Subject,
		Topic:          req.Topic,
		Type:           questionType,
		Content:        req.Content,
		CorrectAnswers: req.CorrectAnswers,
	})
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, question)
}

// GetQuestion handles GET /v1/questions/:id
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_question")
	var err error
	defer observability.FinishSpan(span, &err)

	questionID, convErr := strconv.Atoi(c.Param("id"))
	if convErr != nil {
		HandleValidationError(c, "question id", c.Param("id"), "must be an integer")
		return
	}

	question, err := h.questionService.GetQuestion(ctx, questionID)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

// ListQuestions handles GET /v1/questions with optional topic filter and paging
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_questions")
	var err error
	defer observability.FinishSpan(span, &err)

	limit := defaultQuestionPageSize
	if raw := c.Query("limit"); raw != "" {
		if parsed, parseErr := strconv.Atoi(raw); parseErr == nil && parsed > 0 {
			limit = parsed
		}
	}
	offset := 0
	if raw := c.Query("offset"); raw != "" {
		if parsed, parseErr := strconv.Atoi(raw); parseErr == nil && parsed >= 0 {
			offset = parsed
		}
	}

	questions, err := h.questionService.ListQuestions(ctx, c.Query("topic"), limit, offset)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"questions": questions})
}

// ListTopics handles GET /v1/topics
func (h *QuestionHandler) ListTopics(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_topics")
	var err error
	defer observability.FinishSpan(span, &err)

	topics, err := h.questionService.ListTopics(ctx)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"topics": topics})
}
