package services

import (
	"context"

	"tutorapp/internal/models"
	"tutorapp/internal/observability"
	contextutils "tutorapp/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// GenerationServiceInterface is the quiz generation pipeline entry point
type GenerationServiceInterface interface {
	GenerateQuiz(ctx context.Context, req *models.GenerateQuizRequest) (*models.GenerateQuizResponse, error)
	RegenerateQuiz(ctx context.Context, quizID int) (*models.GenerateQuizResponse, error)
	AssembleQuiz(ctx context.Context, req *models.AssembleQuizRequest) (*models.GenerateQuizResponse, error)
}

// GenerationService orchestrates planning, selection and assembly into one
// generate-quiz operation
type GenerationService struct {
	plannerService  PlannerServiceInterface
	selectorService SelectorServiceInterface
	quizService     QuizServiceInterface
	questionService QuestionServiceInterface
	userService     UserServiceInterface
	answerService   AnswerServiceInterface
	logger          *observability.Logger
}

// NewGenerationService creates a new quiz generation pipeline
func NewGenerationService(
	plannerService PlannerServiceInterface,
	selectorService SelectorServiceInterface,
	quizService QuizServiceInterface,
	questionService QuestionServiceInterface,
	userService UserServiceInterface,
	answerService AnswerServiceInterface,
	logger *observability.Logger,
) *GenerationService {
	return &GenerationService{
		plannerService:  plannerService,
		selectorService: selectorService,
		quizService:     quizService,
		questionService: questionService,
		userService:     userService,
		answerService:   answerService,
		logger:          logger,
	}
}

// GenerateQuiz runs the full pipeline: plan a topic distribution from the
// student's history, select concrete questions, and persist the quiz.
// Required question IDs are pinned into the result and count against the
// requested total. The response's Fulfilled flag is false when the plan or
// the catalog could not cover the full request; the quiz is still created.
func (s *GenerationService) GenerateQuiz(ctx context.Context, req *models.GenerateQuizRequest) (result0 *models.GenerateQuizResponse, err error) {
	ctx, span := observability.TraceQuizFunction(ctx, "generate_quiz",
		observability.AttributeStudentID(req.StudentID),
		observability.AttributeCount(req.TotalQuestions),
	)
	defer observability.FinishSpan(span, &err)

	if req.TotalQuestions <= 0 {
		return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "total_questions must be positive")
	}
	if len(req.RequiredQuestionIDs) > req.TotalQuestions {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidInput,
			"%d required questions exceed the requested total of %d", len(req.RequiredQuestionIDs), req.TotalQuestions)
	}

	if _, err := s.userService.GetUser(ctx, req.EducatorID); err != nil {
		if contextutils.IsError(err, contextutils.ErrRecordNotFound) {
			return nil, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "no educator with id %d", req.EducatorID)
		}
		return nil, err
	}

	if err := s.verifyRequiredQuestions(ctx, req.RequiredQuestionIDs); err != nil {
		return nil, err
	}

	planTotal := req.TotalQuestions - len(req.RequiredQuestionIDs)

	var plan *models.DistributionPlan
	if planTotal > 0 {
		plan, err = s.plannerService.PlanDistribution(ctx, req.StudentID, planTotal, req.FocusAreas, nil)
		if err != nil {
			return nil, err
		}
	} else {
		// every slot is pinned; nothing to plan
		if _, err := s.userService.GetStudent(ctx, req.StudentID); err != nil {
			return nil, err
		}
		plan = &models.DistributionPlan{
			Topics:    map[string]int{},
			Reasoning: "All questions were pinned by the educator.",
			Fulfilled: true,
		}
	}

	selected, err := s.selectorService.SelectQuestions(ctx, plan, req.RequiredQuestionIDs, nil)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return nil, contextutils.ErrEmptyQuiz
	}

	quiz, err := s.quizService.CreateQuiz(ctx, req.EducatorID, req.StudentID, selected)
	if err != nil {
		return nil, err
	}

	fulfilled := plan.Fulfilled && len(selected) == req.TotalQuestions
	if !fulfilled {
		s.logger.Warn(ctx, "Quiz generated below the requested size", map[string]interface{}{
			"quiz_id":   quiz.ID,
			"requested": req.TotalQuestions,
			"selected":  len(selected),
		})
	}

	span.SetAttributes(
		observability.AttributeQuizID(quiz.ID),
		attribute.Int("selected.count", len(selected)),
		attribute.Bool("fulfilled", fulfilled),
	)
	return &models.GenerateQuizResponse{
		Quiz:                quiz,
		TopicDistribution:   plan.Topics,
		Reasoning:           plan.Reasoning,
		SelectedQuestionIDs: selected,
		Fulfilled:           fulfilled,
	}, nil
}

// RegenerateQuiz produces a fresh quiz for the same student and educator as
// an existing one, at the same size, avoiding the original's questions. The
// feedback recorded on the original quiz's answers is aggregated and fed to
// the planner so the new distribution targets what the feedback flagged.
func (s *GenerationService) RegenerateQuiz(ctx context.Context, quizID int) (result0 *models.GenerateQuizResponse, err error) {
	ctx, span := observability.TraceQuizFunction(ctx, "regenerate_quiz",
		observability.AttributeQuizID(quizID),
	)
	defer observability.FinishSpan(span, &err)

	original, err := s.quizService.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	feedback, err := s.aggregateQuizFeedback(ctx, quizID)
	if err != nil {
		return nil, err
	}

	plan, err := s.plannerService.PlanDistribution(ctx, original.StudentID, len(original.QuestionIDs), nil, feedback)
	if err != nil {
		return nil, err
	}

	selected, err := s.selectorService.SelectQuestions(ctx, plan, nil, original.QuestionIDs)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return nil, contextutils.ErrEmptyQuiz
	}

	quiz, err := s.quizService.CreateQuiz(ctx, original.EducatorID, original.StudentID, selected)
	if err != nil {
		return nil, err
	}

	fulfilled := plan.Fulfilled && len(selected) == len(original.QuestionIDs)
	return &models.GenerateQuizResponse{
		Quiz:                quiz,
		TopicDistribution:   plan.Topics,
		Reasoning:           plan.Reasoning,
		SelectedQuestionIDs: selected,
		Fulfilled:           fulfilled,
	}, nil
}

// AssembleQuiz builds a quiz from an explicit topic distribution, bypassing
// the model entirely
func (s *GenerationService) AssembleQuiz(ctx context.Context, req *models.AssembleQuizRequest) (result0 *models.GenerateQuizResponse, err error) {
	ctx, span := observability.TraceQuizFunction(ctx, "assemble_quiz",
		observability.AttributeStudentID(req.StudentID),
		attribute.Int("distribution.topics", len(req.TopicQuestionDistribution)),
	)
	defer observability.FinishSpan(span, &err)

	if len(req.TopicQuestionDistribution) == 0 {
		return nil, contextutils.WrapError(contextutils.ErrMissingRequired, "topic_question_distribution is required")
	}
	for topic, count := range req.TopicQuestionDistribution {
		if count < 0 {
			return nil, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "negative count for topic '%s'", topic)
		}
	}

	if _, err := s.userService.GetStudent(ctx, req.StudentID); err != nil {
		return nil, err
	}
	if _, err := s.userService.GetUser(ctx, req.EducatorID); err != nil {
		if contextutils.IsError(err, contextutils.ErrRecordNotFound) {
			return nil, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "no educator with id %d", req.EducatorID)
		}
		return nil, err
	}

	plan := &models.DistributionPlan{
		Topics:    req.TopicQuestionDistribution,
		Reasoning: "Distribution supplied directly by the educator.",
		Fulfilled: true,
	}

	selected, err := s.selectorService.SelectQuestions(ctx, plan, nil, nil)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return nil, contextutils.ErrEmptyQuiz
	}

	quiz, err := s.quizService.CreateQuiz(ctx, req.EducatorID, req.StudentID, selected)
	if err != nil {
		return nil, err
	}

	fulfilled := len(selected) == plan.Sum()
	return &models.GenerateQuizResponse{
		Quiz:                quiz,
		TopicDistribution:   plan.Topics,
		Reasoning:           plan.Reasoning,
		SelectedQuestionIDs: selected,
		Fulfilled:           fulfilled,
	}, nil
}

// aggregateQuizFeedback collects the non-empty feedback notes attached to a
// quiz's answers, in submission order
func (s *GenerationService) aggregateQuizFeedback(ctx context.Context, quizID int) ([]string, error) {
	answers, err := s.answerService.ListQuizAnswers(ctx, quizID)
	if err != nil {
		return nil, err
	}

	var feedback []string
	for _, record := range answers {
		if record.Feedback.Valid && record.Feedback.String != "" {
			feedback = append(feedback, record.Feedback.String)
		}
	}
	return feedback, nil
}

// verifyRequiredQuestions confirms every pinned question ID exists
func (s *GenerationService) verifyRequiredQuestions(ctx context.Context, ids []int) error {
	if len(ids) == 0 {
		return nil
	}

	questions, err := s.questionService.GetQuestionsByIDs(ctx, ids)
	if err != nil {
		return err
	}

	found := make(map[int]bool, len(questions))
	for _, q := range questions {
		found[q.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return contextutils.WrapErrorf(contextutils.ErrQuestionNotFound, "required question %d does not exist", id)
		}
	}
	return nil
}
