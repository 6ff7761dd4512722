package handlers

import (
	"net/http"
	"strconv"

	"tutorapp/internal/config"
	"tutorapp/internal/middleware"
	"tutorapp/internal/models"
	"tutorapp/internal/observability"
	"tutorapp/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// UserHandler exposes account, login and student profile routes
type UserHandler struct {
	userService     services.UserServiceInterface
	learningService services.LearningServiceInterface
	cfg             *config.Config
	logger          *observability.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(
	userService services.UserServiceInterface,
	learningService services.LearningServiceInterface,
	cfg *config.Config,
	logger *observability.Logger,
) *UserHandler {
	return &UserHandler{
		userService:     userService,
		learningService: learningService,
		cfg:             cfg,
		logger:          logger,
	}
}

type signupRequest struct {
	Name     string `json:"name" binding:"required,notblank"`
	Email    string `json:"email" binding:"required,email"`
	Role     string `json:"role" binding:"required,oneof=student educator"`
	Password string `json:"password" binding:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Signup handles POST /v1/auth/signup
func (h *UserHandler) Signup(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "signup")
	var err error
	defer observability.FinishSpan(span, &err)

	var req signupRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		HandleValidationError(c, "request body", "", bindErr.Error())
		return
	}

	user, err := h.userService.CreateUser(ctx, req.Name, req.Email, models.UserRole(req.Role), req.Password)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// Login handles POST /v1/auth/login and establishes a session
func (h *UserHandler) Login(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "login")
	var err error
	defer observability.FinishSpan(span, &err)

	var req loginRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		HandleValidationError(c, "request body", "", bindErr.Error())
		return
	}

	user, err := h.userService.AuthenticateUser(ctx, req.Email, req.Password)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(middleware.UserIDKey, user.ID)
	session.Set(middleware.UserRoleKey, string(user.Role))
	if saveErr := session.Save(); saveErr != nil {
		h.logger.Error(ctx, "Failed to save session", saveErr)
		StandardizeHTTPError(c, http.StatusInternalServerError, "Failed to establish session", saveErr.Error())
		return
	}

	c.JSON(http.StatusOK, user)
}

// Logout handles POST /v1/auth/logout
func (h *UserHandler) Logout(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "logout")
	var err error
	defer observability.FinishSpan(span, &err)

	session := sessions.Default(c)
	session.Clear()
	if saveErr := session.Save(); saveErr != nil {
		h.logger.Warn(c.Request.Context(), "Failed to clear session", map[string]interface{}{"error": saveErr.Error()})
	}

	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

// GetStudentProfile handles GET /v1/students/:id/profile and bundles the
// student's learning style, self-assessment and performance stats
func (h *UserHandler) GetStudentProfile(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_student_profile")
	var err error
	defer observability.FinishSpan(span, &err)

	studentID, convErr := strconv.Atoi(c.Param("id"))
	if convErr != nil {
		HandleValidationError(c, "student id", c.Param("id"), "must be an integer")
		return
	}

	student, err := h.userService.GetStudent(ctx, studentID)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	style, err := h.userService.GetLearningStyle(ctx, studentID)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	assessment, err := h.userService.GetSelfAssessment(ctx, studentID)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	performance, err := h.learningService.GetStudentPerformance(ctx, studentID)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"student":         student,
		"learning_style":  style,
		"self_assessment": assessment,
		"performance":     performance,
	})
}

// UpsertLearningStyle handles PUT /v1/students/:id/learning-style
func (h *UserHandler) UpsertLearningStyle(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "upsert_learning_style")
	var err error
	defer observability.FinishSpan(span, &err)

	studentID, convErr := strconv.Atoi(c.Param("id"))
	if convErr != nil {
		HandleValidationError(c, "student id", c.Param("id"), "must be an integer")
		return
	}

	var style models.LearningStyle
	if bindErr := c.ShouldBindJSON(&style); bindErr != nil {
		HandleValidationError(c, "request body", "", bindErr.Error())
		return
	}
	style.UserID = studentID

	updated, err := h.userService.UpsertLearningStyle(ctx, &style)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// UpsertSelfAssessment handles PUT /v1/students/:id/self-assessment
func (h *UserHandler) UpsertSelfAssessment(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "upsert_self_assessment")
	var err error
	defer observability.FinishSpan(span, &err)

	studentID, convErr := strconv.Atoi(c.Param("id"))
	if convErr != nil {
		HandleValidationError(c, "student id", c.Param("id"), "must be an integer")
		return
	}

	var assessment models.SelfAssessment
	if bindErr := c.ShouldBindJSON(&assessment); bindErr != nil {
		HandleValidationError(c, "request body", "", bindErr.Error())
		return
	}
	assessment.UserID = studentID

	updated, err := h.userService.UpsertSelfAssessment(ctx, &assessment)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}
