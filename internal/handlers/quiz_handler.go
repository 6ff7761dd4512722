package handlers

import (
	"net/http"
	"strconv"

	"tutorapp/internal/config"
	"tutorapp/internal/middleware"
	"tutorapp/internal/models"
	"tutorapp/internal/observability"
	"tutorapp/internal/services"

	"github.com/gin-gonic/gin"
)

// QuizHandler exposes quiz retrieval, lifecycle and answer submission
type QuizHandler struct {
	quizService     services.QuizServiceInterface
	questionService services.QuestionServiceInterface
	answerService   services.AnswerServiceInterface
	cfg             *config.Config
	logger          *observability.Logger
}

// NewQuizHandler creates a new quiz handler
func NewQuizHandler(
	quizService services.QuizServiceInterface,
	questionService services.QuestionServiceInterface,
	answerService services.AnswerServiceInterface,
	cfg *config.Config,
	logger *observability.Logger,
) *QuizHandler {
	return &QuizHandler{
		quizService:     quizService,
		questionService: questionService,
		answerService:   answerService,
		cfg:             cfg,
		logger:          logger,
	}
}

func quizIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		HandleValidationError(c, "quiz id", c.Param("id"), "must be an integer")
		return 0, false
	}
	return id, true
}

// GetQuiz handles GET /v1/quizzes/:id and returns the quiz with its questions
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_quiz")
	var err error
	defer observability.FinishSpan(span, &err)

	quizID, ok := quizIDParam(c)
	if !ok {
		return
	}

	quiz, err := h.quizService.GetQuiz(ctx, quizID)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	questions, err := h.questionService.GetQuestionsByIDs(ctx, quiz.QuestionIDs)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"quiz":      quiz,
		"questions": questions,
	})
}

// ListStudentQuizzes handles GET /v1/students/:id/quizzes
func (h *QuizHandler) ListStudentQuizzes(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_student_quizzes")
	var err error
	defer observability.FinishSpan(span, &err)

	studentID, convErr := strconv.Atoi(c.Param("id"))
	if convErr != nil {
		HandleValidationError(c, "student id", c.Param("id"), "must be an integer")
		return
	}

	quizzes, err := h.quizService.ListStudentQuizzes(ctx, studentID)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"quizzes": quizzes})
}

// StartQuiz handles POST /v1/quizzes/:id/start
func (h *QuizHandler) StartQuiz(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "start_quiz")
	var err error
	defer observability.FinishSpan(span, &err)

	quizID, ok := quizIDParam(c)
	if !ok {
		return
	}

	quiz, err := h.quizService.StartQuiz(ctx, quizID)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// SubmitQuiz handles POST /v1/quizzes/:id/submit
func (h *QuizHandler) SubmitQuiz(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "submit_quiz")
	var err error
	defer observability.FinishSpan(span, &err)

	quizID, ok := quizIDParam(c)
	if !ok {
		return
	}

	quiz, err := h.quizService.SubmitQuiz(ctx, quizID)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// SubmitAnswer handles POST /v1/answers. The authenticated user is the
// answering student.
func (h *QuizHandler) SubmitAnswer(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "submit_answer")
	var err error
	defer observability.FinishSpan(span, &err)

	studentID := c.GetInt(middleware.UserIDKey)

	var req models.SubmitAnswerRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		HandleValidationError(c, "request body", "", bindErr.Error())
		return
	}

	record, err := h.answerService.SubmitAnswer(ctx, studentID, &req)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, record)
}

// ListQuizAnswers handles GET /v1/quizzes/:id/answers
func (h *QuizHandler) ListQuizAnswers(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_quiz_answers")
	var err error
	defer observability.FinishSpan(span, &err)

	quizID, ok := quizIDParam(c)
	if !ok {
		return
	}

	answers, err := h.answerService.ListQuizAnswers(ctx, quizID)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"answers": answers})
}
