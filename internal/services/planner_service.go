package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"tutorapp/internal/config"
	"tutorapp/internal/models"
	"tutorapp/internal/observability"
	contextutils "tutorapp/internal/utils"

	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/otel/attribute"
)

// Subjects present in the catalog
const (
	SubjectMath    = "Math"
	SubjectReading = "Reading & Language Arts"
	SubjectScience = "Science"
	SubjectSocial  = "Social Studies"
)

// focusSynonyms maps lowercase substrings of caller-supplied focus areas to
// canonical subjects. Matching is substring-based so "pre-algebra review"
// resolves to Math.
var focusSynonyms = map[string]string{
	"math":       SubjectMath,
	"algebra":    SubjectMath,
	"geometry":   SubjectMath,
	"arithmetic": SubjectMath,
	"fraction":   SubjectMath,
	"number":     SubjectMath,
	"reading":    SubjectReading,
	"language":   SubjectReading,
	"writing":    SubjectReading,
	"grammar":    SubjectReading,
	"vocabulary": SubjectReading,
	"literacy":   SubjectReading,
	"ela":        SubjectReading,
	"science":    SubjectScience,
	"biology":    SubjectScience,
	"chemistry":  SubjectScience,
	"physics":    SubjectScience,
	"social":     SubjectSocial,
	"history":    SubjectSocial,
	"geography":  SubjectSocial,
	"civics":     SubjectSocial,
}

// planSchema validates the model's JSON output before it is trusted
const planSchema = `{
	"type": "object",
	"properties": {
		"distribution": {
			"type": "object",
			"additionalProperties": {
				"type": "integer",
				"minimum": 0
			}
		},
		"reasoning": {
			"type": "string"
		}
	},
	"required": ["distribution", "reasoning"],
	"additionalProperties": false
}`

// PlannerServiceInterface produces a topic distribution for a quiz request.
// feedback carries per-answer feedback text from a previous quiz when the
// caller is regenerating; it is embedded in the planning prompt.
type PlannerServiceInterface interface {
	PlanDistribution(ctx context.Context, studentID, totalQuestions int, focusAreas, feedback []string) (*models.DistributionPlan, error)
}

// PlannerService asks the configured model how to distribute quiz questions
// across topics, grounded in the student's performance history and profile
type PlannerService struct {
	aiClient        AIClientInterface
	userService     UserServiceInterface
	learningService LearningServiceInterface
	questionService QuestionServiceInterface
	logger          *observability.Logger
}

// NewPlannerService creates a new distribution planner
func NewPlannerService(
	aiClient AIClientInterface,
	userService UserServiceInterface,
	learningService LearningServiceInterface,
	questionService QuestionServiceInterface,
	logger *observability.Logger,
) *PlannerService {
	return &PlannerService{
		aiClient:        aiClient,
		userService:     userService,
		learningService: learningService,
		questionService: questionService,
		logger:          logger,
	}
}

// PlanDistribution builds the planning prompt, invokes the model, and
// validates its JSON answer into a DistributionPlan. The prompt embeds the
// catalog's topic vocabulary; topics the model invents anyway are kept in the
// plan but warned about, and select nothing downstream.
func (s *PlannerService) PlanDistribution(ctx context.Context, studentID, totalQuestions int, focusAreas, feedback []string) (result0 *models.DistributionPlan, err error) {
	ctx, span := observability.TracePlannerFunction(ctx, "plan_distribution",
		observability.AttributeStudentID(studentID),
		observability.AttributeCount(totalQuestions),
		attribute.Int("focus_areas.count", len(focusAreas)),
		attribute.Int("feedback.count", len(feedback)),
	)
	defer observability.FinishSpan(span, &err)

	if totalQuestions <= 0 {
		return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "total_questions must be positive")
	}

	student, err := s.userService.GetStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	topics, err := s.questionService.ListTopics(ctx)
	if err != nil {
		return nil, err
	}
	if len(topics) == 0 {
		return nil, contextutils.ErrEmptyCatalog
	}

	performance, err := s.learningService.GetStudentPerformance(ctx, studentID)
	if err != nil {
		return nil, err
	}

	style, err := s.userService.GetLearningStyle(ctx, studentID)
	if err != nil {
		return nil, err
	}
	assessment, err := s.userService.GetSelfAssessment(ctx, studentID)
	if err != nil {
		return nil, err
	}

	prompt := s.buildPrompt(student, topics, performance, style, assessment, totalQuestions, focusAreas, feedback)

	s.logger.Debug(ctx, "Invoking distribution planner", map[string]interface{}{
		"student_id":    studentID,
		"topics":        len(topics),
		"prompt_length": len(prompt),
	})

	response, err := s.aiClient.Invoke(ctx, prompt)
	if err != nil {
		return nil, err
	}

	plan, err := s.parsePlan(ctx, response, topics, totalQuestions)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("plan.topics", len(plan.Topics)),
		attribute.Int("plan.sum", plan.Sum()),
		attribute.Bool("plan.fulfilled", plan.Fulfilled),
	)
	return plan, nil
}

// buildPrompt renders the planning prompt: student profile, per-topic
// accuracy, focus emphasis, feedback from a prior quiz when regenerating,
// and the closed topic vocabulary the model must draw from.
func (s *PlannerService) buildPrompt(
	student *models.User,
	topics []TopicEntry,
	performance map[string]*models.TopicPerformance,
	style *models.LearningStyle,
	assessment *models.SelfAssessment,
	totalQuestions int,
	focusAreas []string,
	feedback []string,
) string {
	var sb strings.Builder

	sb.WriteString("You are planning an adaptive quiz for a student. ")
	fmt.Fprintf(&sb, "Distribute exactly %d questions across topics from the list below.\n\n", totalQuestions)

	fmt.Fprintf(&sb, "Student: %s\n", student.Name)

	if style != nil {
		sb.WriteString("Learning profile:\n")
		if style.Modality != "" {
			fmt.Fprintf(&sb, "- Preferred modality: %s\n", style.Modality)
		}
		if style.WorriedSubject != "" {
			fmt.Fprintf(&sb, "- Subject the student worries about: %s\n", style.WorriedSubject)
		}
		if style.WrongAnswerAction != "" {
			fmt.Fprintf(&sb, "- When answers are wrong, the student prefers: %s\n", style.WrongAnswerAction)
		}
		if len(style.DifficultyFactors) > 0 {
			fmt.Fprintf(&sb, "- Reported difficulty factors: %s\n", strings.Join(style.DifficultyFactors, ", "))
		}
		if style.Notes != "" {
			fmt.Fprintf(&sb, "- Notes: %s\n", style.Notes)
		}
	}

	if assessment != nil {
		if len(assessment.Strengths) > 0 {
			fmt.Fprintf(&sb, "Self-reported strengths: %s\n", strings.Join(assessment.Strengths, ", "))
		}
		if len(assessment.Weaknesses) > 0 {
			fmt.Fprintf(&sb, "Self-reported weaknesses: %s\n", strings.Join(assessment.Weaknesses, ", "))
		}
	}

	if len(performance) > 0 {
		sb.WriteString("\nPerformance history (topic: correct/total):\n")
		perfTopics := make([]string, 0, len(performance))
		for topic := range performance {
			perfTopics = append(perfTopics, topic)
		}
		sort.Strings(perfTopics)
		for _, topic := range perfTopics {
			tp := performance[topic]
			fmt.Fprintf(&sb, "- %s (%s): %d/%d (%.0f%%)\n", topic, tp.Subject, tp.Correct, tp.Total, tp.AccuracyRate())
		}
		sb.WriteString("Weight topics with low accuracy more heavily.\n")
	} else {
		sb.WriteString("\nThe student has no performance history yet; spread questions broadly.\n")
	}

	if len(feedback) > 0 {
		sb.WriteString("\nFeedback recorded on the student's previous quiz:\n")
		for _, note := range feedback {
			fmt.Fprintf(&sb, "- %s\n", note)
		}
		sb.WriteString("Allocate more questions to the areas this feedback flags.\n")
	}

	if subjects := resolveFocusSubjects(focusAreas); len(subjects) > 0 {
		fmt.Fprintf(&sb, "\nThe educator asked to focus on: %s. Allocate most questions to topics in these subjects.\n",
			strings.Join(subjects, ", "))
	}

	sb.WriteString("\nAvailable topics (use ONLY these names, verbatim):\n")
	for i, entry := range topics {
		if i >= config.MaxPromptTopics {
			fmt.Fprintf(&sb, "... and %d more\n", len(topics)-config.MaxPromptTopics)
			break
		}
		fmt.Fprintf(&sb, "- %s (%s)\n", entry.Topic, entry.Subject)
	}

	fmt.Fprintf(&sb, `
Respond with ONLY a JSON object, no prose outside it:
{
  "distribution": {"<topic name>": <question count>, ...},
  "reasoning": "<one short paragraph explaining the allocation>"
}
The counts must sum to exactly %d. Use only topic names from the list.`, totalQuestions)

	return sb.String()
}

// parsePlan extracts, validates and interprets the model's JSON response
func (s *PlannerService) parsePlan(ctx context.Context, response string, topics []TopicEntry, totalQuestions int) (*models.DistributionPlan, error) {
	jsonText, err := extractJSONObject(response)
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrAIResponseInvalid, "no JSON object in response: %s",
			contextutils.Truncate(response, config.ResponseExcerptLength))
	}

	schemaResult, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(planSchema),
		gojsonschema.NewStringLoader(jsonText),
	)
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrAIResponseInvalid, "schema validation error: %v", err)
	}
	if !schemaResult.Valid() {
		var issues []string
		for _, desc := range schemaResult.Errors() {
			issues = append(issues, desc.String())
		}
		return nil, contextutils.WrapErrorf(contextutils.ErrAIResponseInvalid, "plan failed validation: %s", strings.Join(issues, "; "))
	}

	var parsed struct {
		Distribution map[string]int `json:"distribution"`
		Reasoning    string         `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(jsonText), &parsed); err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrAIResponseInvalid, "failed to decode plan: %v", err)
	}
	if len(parsed.Distribution) == 0 {
		return nil, contextutils.WrapError(contextutils.ErrAIResponseInvalid, "plan distribution is empty")
	}

	known := make(map[string]bool, len(topics))
	for _, entry := range topics {
		known[entry.Topic] = true
	}
	for topic := range parsed.Distribution {
		if !known[topic] {
			s.logger.Warn(ctx, "Planner produced a topic not in the catalog", map[string]interface{}{
				"topic": topic,
			})
		}
	}

	plan := &models.DistributionPlan{
		Topics:    parsed.Distribution,
		Reasoning: parsed.Reasoning,
	}
	plan.Fulfilled = plan.Sum() == totalQuestions
	if !plan.Fulfilled {
		s.logger.Warn(ctx, "Plan counts do not sum to the requested total", map[string]interface{}{
			"requested": totalQuestions,
			"planned":   plan.Sum(),
		})
	}

	return plan, nil
}

// resolveFocusSubjects maps free-form focus areas onto catalog subjects via
// synonym substrings, deduplicated and sorted
func resolveFocusSubjects(focusAreas []string) []string {
	seen := make(map[string]bool)
	for _, area := range focusAreas {
		lower := strings.ToLower(area)
		for synonym, subject := range focusSynonyms {
			if strings.Contains(lower, synonym) {
				seen[subject] = true
			}
		}
	}

	subjects := make([]string, 0, len(seen))
	for subject := range seen {
		subjects = append(subjects, subject)
	}
	sort.Strings(subjects)
	return subjects
}

// extractJSONObject strips markdown code fences and returns the first
// balanced top-level JSON object in the text
func extractJSONObject(text string) (string, error) {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx != -1 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	start := strings.Index(text, "{")
	if start == -1 {
		return "", fmt.Errorf("no opening brace found")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return text[start : i+1], nil
				}
			}
		}
	}

	return "", fmt.Errorf("unbalanced JSON object")
}
