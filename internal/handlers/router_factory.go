package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"tutorapp/internal/config"
	"tutorapp/internal/middleware"
	"tutorapp/internal/observability"
	"tutorapp/internal/services"
	"tutorapp/internal/version"
)

// NewRouter wires middleware, handlers and routes into a gin engine
func NewRouter(
	cfg *config.Config,
	userService services.UserServiceInterface,
	questionService services.QuestionServiceInterface,
	learningService services.LearningServiceInterface,
	quizService services.QuizServiceInterface,
	answerService services.AnswerServiceInterface,
	generationService services.GenerationServiceInterface,
	logger *observability.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	}
	RegisterValidations()

	router := gin.New()
	router.Use(gin.Recovery())
	router.RedirectTrailingSlash = false

	// Request logging through the observability logger
	router.Use(func(c *gin.Context) {
		start := time.Now()

		c.Next()

		statusCode := c.Writer.Status()
		fields := map[string]interface{}{
			"http.method":      c.Request.Method,
			"http.path":        c.Request.URL.Path,
			"http.status_code": statusCode,
			"http.latency_ms":  time.Since(start).Milliseconds(),
			"http.client_ip":   c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			fields["http.error"] = c.Errors.String()
		}

		switch {
		case statusCode >= 500:
			logger.Error(c.Request.Context(), "HTTP request failed", nil, fields)
		case statusCode >= 400:
			logger.Warn(c.Request.Context(), "HTTP request warning", fields)
		default:
			logger.Info(c.Request.Context(), "HTTP request", fields)
		}
	})

	// Health check before any other middleware
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "tutorapp"})
	})

	router.Use(observability.GinMiddlewareWithErrorHandling(cfg.OpenTelemetry.ServiceName))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Requested-With"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	store := cookie.NewStore([]byte(cfg.Server.SessionSecret))
	sessionOpts := sessions.Options{
		Path:     config.SessionPath,
		MaxAge:   int(config.SessionMaxAge.Seconds()),
		HttpOnly: config.SessionHTTPOnly,
		Secure:   config.SessionSecure,
	}
	if cfg.Server.Debug {
		sessionOpts.SameSite = http.SameSiteDefaultMode
	} else {
		sessionOpts.SameSite = http.SameSiteLaxMode
		sessionOpts.Secure = true
	}
	store.Options(sessionOpts)
	router.Use(sessions.Sessions(config.SessionName, store))

	secureConfig := secure.DefaultConfig()
	secureConfig.SSLRedirect = false
	secureConfig.ContentSecurityPolicy = config.DefaultCSP
	router.Use(secure.New(secureConfig))

	userHandler := NewUserHandler(userService, learningService, cfg, logger)
	questionHandler := NewQuestionHandler(questionService, cfg, logger)
	quizHandler := NewQuizHandler(quizService, questionService, answerService, cfg, logger)
	generationHandler := NewGenerationHandler(generationService, cfg, logger)

	v1 := router.Group("/v1")
	{
		v1.GET("/version", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"service":   "tutorapp",
				"version":   version.Version,
				"commit":    version.Commit,
				"buildTime": version.BuildTime,
			})
		})

		auth := v1.Group("/auth")
		{
			auth.POST("/signup", userHandler.Signup)
			auth.POST("/login", userHandler.Login)
			auth.POST("/logout", userHandler.Logout)
		}

		students := v1.Group("/students")
		students.Use(middleware.RequireAuth())
		{
			students.GET("/:id/profile", userHandler.GetStudentProfile)
			students.PUT("/:id/learning-style", userHandler.UpsertLearningStyle)
			students.PUT("/:id/self-assessment", userHandler.UpsertSelfAssessment)
			students.GET("/:id/quizzes", quizHandler.ListStudentQuizzes)
		}

		questions := v1.Group("/questions")
		questions.Use(middleware.RequireAuth())
		{
			questions.POST("", middleware.RequireEducator(), questionHandler.CreateQuestion)
			questions.GET("", questionHandler.ListQuestions)
			questions.GET("/:id", questionHandler.GetQuestion)
		}
		v1.GET("/topics", middleware.RequireAuth(), questionHandler.ListTopics)

		quizzes := v1.Group("/quizzes")
		quizzes.Use(middleware.RequireAuth())
		{
			quizzes.POST("", middleware.RequireEducator(), generationHandler.AssembleQuiz)
			quizzes.POST("/generate", middleware.RequireEducator(), generationHandler.GenerateQuiz)
			quizzes.POST("/:id/regenerate", middleware.RequireEducator(), generationHandler.RegenerateQuiz)
			quizzes.GET("/:id", quizHandler.GetQuiz)
			quizzes.POST("/:id/start", quizHandler.StartQuiz)
			quizzes.POST("/:id/submit", quizHandler.SubmitQuiz)
			quizzes.GET("/:id/answers", quizHandler.ListQuizAnswers)
		}

		v1.POST("/answers", middleware.RequireAuth(), quizHandler.SubmitAnswer)
	}

	return router
}
