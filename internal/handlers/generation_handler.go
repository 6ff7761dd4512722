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

// GenerationHandler exposes the quiz generation pipeline over HTTP
type GenerationHandler struct {
	generationService services.GenerationServiceInterface
	cfg               *config.Config
	logger            *observability.Logger
}

// NewGenerationHandler creates a new generation handler
func NewGenerationHandler(generationService services.GenerationServiceInterface, cfg *config.Config, logger *observability.Logger) *GenerationHandler {
	return &GenerationHandler{
		generationService: generationService,
		cfg:               cfg,
		logger:            logger,
	}
}

// GenerateQuiz handles POST /v1/quizzes/generate
func (h *GenerationHandler) GenerateQuiz(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "generate_quiz")
	var err error
	defer observability.FinishSpan(span, &err)

	var req models.GenerateQuizRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		HandleValidationError(c, "request body", "", bindErr.Error())
		return
	}

	resp, err := h.generationService.GenerateQuiz(ctx, &req)
	if err != nil {
		h.logger.Error(ctx, "Quiz generation failed", err, map[string]interface{}{
			"student_id": req.StudentID,
		})
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// RegenerateQuiz handles POST /v1/quizzes/:id/regenerate
func (h *GenerationHandler) RegenerateQuiz(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "regenerate_quiz")
	var err error
	defer observability.FinishSpan(span, &err)

	quizID, convErr := strconv.Atoi(c.Param("id"))
	if convErr != nil {
		HandleValidationError(c, "quiz id", c.Param("id"), "must be an integer")
		return
	}

	resp, err := h.generationService.RegenerateQuiz(ctx, quizID)
	if err != nil {
		h.logger.Error(ctx, "Quiz regeneration failed", err, map[string]interface{}{
			"quiz_id": quizID,
		})
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// AssembleQuiz handles POST /v1/quizzes
func (h *GenerationHandler) AssembleQuiz(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "assemble_quiz")
	var err error
	defer observability.FinishSpan(span, &err)

	var req models.AssembleQuizRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		HandleValidationError(c, "request body", "", bindErr.Error())
		return
	}

	resp, err := h.generationService.AssembleQuiz(ctx, &req)
	if err != nil {
		h.logger.Error(ctx, "Quiz assembly failed", err, map[string]interface{}{
			"student_id": req.StudentID,
		})
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}
