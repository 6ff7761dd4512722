// Package di provides a service container wiring the application together.
package di

import (
	"context"
	"database/sql"

	"tutorapp/internal/config"
	"tutorapp/internal/database"
	"tutorapp/internal/observability"
	"tutorapp/internal/services"
)

// ServiceContainer owns the shared dependencies and constructed services
type ServiceContainer struct {
	cfg    *config.Config
	logger *observability.Logger
	db     *sql.DB

	UserService       services.UserServiceInterface
	QuestionService   services.QuestionServiceInterface
	LearningService   services.LearningServiceInterface
	QuizService       services.QuizServiceInterface
	AnswerService     services.AnswerServiceInterface
	PlannerService    services.PlannerServiceInterface
	SelectorService   services.SelectorServiceInterface
	GenerationService services.GenerationServiceInterface
}

// NewServiceContainer creates an uninitialized container
func NewServiceContainer(cfg *config.Config, logger *observability.Logger) *ServiceContainer {
	return &ServiceContainer{cfg: cfg, logger: logger}
}

// Initialize connects to the database, runs migrations, and builds every
// service in dependency order
func (c *ServiceContainer) Initialize(ctx context.Context) error {
	dbManager := database.NewManager(c.logger)
	db, err := dbManager.InitDB(c.cfg.Database)
	if err != nil {
		return err
	}
	c.db = db

	userService := services.NewUserService(db, c.logger)
	questionService := services.NewQuestionService(db, c.logger)
	learningService := services.NewLearningService(db, c.logger)
	quizService := services.NewQuizService(db, c.logger)
	answerService := services.NewAnswerService(db, quizService, c.logger)

	aiClient := services.NewAIClient(c.cfg, c.logger)
	plannerService := services.NewPlannerService(aiClient, userService, learningService, questionService, c.logger)
	selectorService := services.NewSelectorService(questionService, c.logger)
	generationService := services.NewGenerationService(
		plannerService, selectorService, quizService, questionService, userService, answerService, c.logger)

	c.UserService = userService
	c.QuestionService = questionService
	c.LearningService = learningService
	c.QuizService = quizService
	c.AnswerService = answerService
	c.PlannerService = plannerService
	c.SelectorService = selectorService
	c.GenerationService = generationService

	c.logger.Info(ctx, "Service container initialized")
	return nil
}

// DB exposes the underlying pool for callers that need direct access
func (c *ServiceContainer) DB() *sql.DB {
	return c.db
}

// Shutdown releases container resources
func (c *ServiceContainer) Shutdown(ctx context.Context) error {
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			c.logger.Warn(ctx, "Failed to close database", map[string]interface{}{"error": err.Error()})
			return err
		}
	}
	c.logger.Info(ctx, "Service container shut down")
	return nil
}
