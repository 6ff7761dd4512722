package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"tutorapp/internal/models"
	"tutorapp/internal/observability"
	contextutils "tutorapp/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plannerFixture(aiResponse string) (*PlannerService, *string) {
	var capturedPrompt string

	ai := &mockAIClient{
		invokeFn: func(_ context.Context, prompt string) (string, error) {
			capturedPrompt = prompt
			return aiResponse, nil
		},
	}
	users := &mockUserService{
		getStudentFn: func(_ context.Context, id int) (*models.User, error) {
			return &models.User{ID: id, Name: "Jordan", Role: models.RoleStudent}, nil
		},
	}
	learning := &mockLearningService{
		getStudentPerformanceFn: func(_ context.Context, _ int) (map[string]*models.TopicPerformance, error) {
			return map[string]*models.TopicPerformance{
				"fractions": {Subject: "Math", Correct: 1, Total: 4},
				"geometry":  {Subject: "Math", Correct: 5, Total: 5},
			}, nil
		},
	}
	questions := &mockQuestionService{
		listTopicsFn: func(_ context.Context) ([]TopicEntry, error) {
			return []TopicEntry{
				{Topic: "fractions", Subject: "Math"},
				{Topic: "geometry", Subject: "Math"},
				{Topic: "photosynthesis", Subject: "Science"},
			}, nil
		},
	}

	planner := NewPlannerService(ai, users, learning, questions, observability.NewLogger(nil))
	return planner, &capturedPrompt
}

func TestPlanDistribution_ParsesFencedJSON(t *testing.T) {
	response := "```json\n" + `{
		"distribution": {"fractions": 4, "geometry": 1},
		"reasoning": "Weak on fractions."
	}` + "\n```"

	planner, _ := plannerFixture(response)
	plan, err := planner.PlanDistribution(context.Background(), 1, 5, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"fractions": 4, "geometry": 1}, plan.Topics)
	assert.Equal(t, "Weak on fractions.", plan.Reasoning)
	assert.True(t, plan.Fulfilled)
}

func TestPlanDistribution_ExtractsJSONFromProse(t *testing.T) {
	response := `Here is my plan: {"distribution": {"fractions": 3}, "reasoning": "ok"} Hope that helps!`

	planner, _ := plannerFixture(response)
	plan, err := planner.PlanDistribution(context.Background(), 1, 3, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, plan.Topics["fractions"])
}

func TestPlanDistribution_SumMismatchIsSoft(t *testing.T) {
	response := `{"distribution": {"fractions": 2}, "reasoning": "short"}`

	planner, _ := plannerFixture(response)
	plan, err := planner.PlanDistribution(context.Background(), 1, 5, nil, nil)
	require.NoError(t, err)
	assert.False(t, plan.Fulfilled)
	assert.Equal(t, 2, plan.Sum())
}

func TestPlanDistribution_UnknownTopicKeptInPlan(t *testing.T) {
	response := `{"distribution": {"fractions": 2, "quantum biology": 3}, "reasoning": "r"}`

	planner, _ := plannerFixture(response)
	plan, err := planner.PlanDistribution(context.Background(), 1, 5, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, plan.Topics["quantum biology"])
	assert.True(t, plan.Fulfilled)
}

func TestPlanDistribution_InvalidResponses(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{name: "no JSON at all", response: "I cannot answer that."},
		{name: "unbalanced object", response: `{"distribution": {"fractions": 2`},
		{name: "missing reasoning", response: `{"distribution": {"fractions": 2}}`},
		{name: "missing distribution", response: `{"reasoning": "r"}`},
		{name: "negative count", response: `{"distribution": {"fractions": -1}, "reasoning": "r"}`},
		{name: "fractional count", response: `{"distribution": {"fractions": 2.5}, "reasoning": "r"}`},
		{name: "string count", response: `{"distribution": {"fractions": "two"}, "reasoning": "r"}`},
		{name: "empty distribution", response: `{"distribution": {}, "reasoning": "r"}`},
		{name: "extra top-level field", response: `{"distribution": {"fractions": 2}, "reasoning": "r", "mood": "great"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			planner, _ := plannerFixture(tt.response)
			_, err := planner.PlanDistribution(context.Background(), 1, 2, nil, nil)
			require.Error(t, err)
			assert.True(t, contextutils.IsError(err, contextutils.ErrAIResponseInvalid), "got %v", err)
		})
	}
}

func TestPlanDistribution_EmptyCatalogSkipsModel(t *testing.T) {
	invoked := false
	ai := &mockAIClient{
		invokeFn: func(_ context.Context, _ string) (string, error) {
			invoked = true
			return "", nil
		},
	}
	users := &mockUserService{
		getStudentFn: func(_ context.Context, id int) (*models.User, error) {
			return &models.User{ID: id, Role: models.RoleStudent}, nil
		},
	}
	learning := &mockLearningService{
		getStudentPerformanceFn: func(_ context.Context, _ int) (map[string]*models.TopicPerformance, error) {
			return nil, nil
		},
	}
	questions := &mockQuestionService{
		listTopicsFn: func(_ context.Context) ([]TopicEntry, error) { return nil, nil },
	}

	planner := NewPlannerService(ai, users, learning, questions, observability.NewLogger(nil))
	_, err := planner.PlanDistribution(context.Background(), 1, 5, nil, nil)
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrEmptyCatalog))
	assert.False(t, invoked, "model must not be invoked when the catalog is empty")
}

func TestPlanDistribution_StudentNotFound(t *testing.T) {
	planner, _ := plannerFixture(`{"distribution": {"fractions": 1}, "reasoning": "r"}`)
	planner.userService = &mockUserService{
		getStudentFn: func(_ context.Context, _ int) (*models.User, error) {
			return nil, contextutils.ErrStudentNotFound
		},
	}

	_, err := planner.PlanDistribution(context.Background(), 99, 5, nil, nil)
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrStudentNotFound))
}

func TestPlanDistribution_PromptContents(t *testing.T) {
	planner, prompt := plannerFixture(`{"distribution": {"fractions": 5}, "reasoning": "r"}`)

	_, err := planner.PlanDistribution(context.Background(), 1, 5, []string{"pre-algebra review"}, nil)
	require.NoError(t, err)

	assert.Contains(t, *prompt, "exactly 5 questions")
	assert.Contains(t, *prompt, "- fractions (Math)")
	assert.Contains(t, *prompt, "- photosynthesis (Science)")
	assert.Contains(t, *prompt, "1/4")
	assert.Contains(t, *prompt, "focus on: Math")
}

func TestPlanDistribution_FeedbackEmbeddedInPrompt(t *testing.T) {
	planner, prompt := plannerFixture(`{"distribution": {"fractions": 5}, "reasoning": "r"}`)

	feedback := []string{"Confuses numerator and denominator", "Strong on geometry proofs"}
	_, err := planner.PlanDistribution(context.Background(), 1, 5, nil, feedback)
	require.NoError(t, err)

	assert.Contains(t, *prompt, "previous quiz")
	assert.Contains(t, *prompt, "Confuses numerator and denominator")
	assert.Contains(t, *prompt, "Strong on geometry proofs")

	_, err = planner.PlanDistribution(context.Background(), 1, 5, nil, nil)
	require.NoError(t, err)
	assert.NotContains(t, *prompt, "previous quiz")
}

func TestPlanDistribution_PromptCapsTopicList(t *testing.T) {
	planner, prompt := plannerFixture(`{"distribution": {"topic-001": 5}, "reasoning": "r"}`)

	many := make([]TopicEntry, 60)
	for i := range many {
		many[i] = TopicEntry{Topic: fmt.Sprintf("topic-%03d", i), Subject: "Math"}
	}
	planner.questionService = &mockQuestionService{
		listTopicsFn: func(_ context.Context) ([]TopicEntry, error) { return many, nil },
	}

	_, err := planner.PlanDistribution(context.Background(), 1, 5, nil, nil)
	require.NoError(t, err)

	assert.Contains(t, *prompt, "topic-049")
	assert.NotContains(t, *prompt, "topic-050")
	assert.Contains(t, *prompt, "and 10 more")
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    string
		wantErr bool
	}{
		{
			name: "bare object",
			text: `{"a": 1}`,
			want: `{"a": 1}`,
		},
		{
			name: "fenced with language",
			text: "```json\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
		},
		{
			name: "fenced without language",
			text: "```\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
		},
		{
			name: "braces inside strings ignored",
			text: `{"a": "closing } brace", "b": 2} trailing`,
			want: `{"a": "closing } brace", "b": 2}`,
		},
		{
			name: "escaped quote inside string",
			text: `{"a": "say \"hi\" {ok}"}`,
			want: `{"a": "say \"hi\" {ok}"}`,
		},
		{
			name: "nested objects",
			text: `prefix {"a": {"b": {"c": 3}}} suffix`,
			want: `{"a": {"b": {"c": 3}}}`,
		},
		{
			name:    "no object",
			text:    "just words",
			wantErr: true,
		},
		{
			name:    "unbalanced",
			text:    `{"a": {"b": 1}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractJSONObject(tt.text)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveFocusSubjects(t *testing.T) {
	tests := []struct {
		name  string
		areas []string
		want  []string
	}{
		{
			name:  "substring match",
			areas: []string{"pre-algebra review"},
			want:  []string{"Math"},
		},
		{
			name:  "multiple subjects sorted",
			areas: []string{"US History", "reading comprehension"},
			want:  []string{"Reading & Language Arts", "Social Studies"},
		},
		{
			name:  "case insensitive",
			areas: []string{"CHEMISTRY"},
			want:  []string{"Science"},
		},
		{
			name:  "deduplicated",
			areas: []string{"algebra", "geometry", "fractions"},
			want:  []string{"Math"},
		},
		{
			name:  "no match",
			areas: []string{"underwater basket weaving"},
			want:  []string{},
		},
		{
			name:  "empty input",
			areas: nil,
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveFocusSubjects(tt.areas)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlanDistribution_RejectsNonPositiveTotal(t *testing.T) {
	planner, _ := plannerFixture(`{"distribution": {"fractions": 1}, "reasoning": "r"}`)

	for _, total := range []int{0, -3} {
		_, err := planner.PlanDistribution(context.Background(), 1, total, nil, nil)
		require.Error(t, err, "total %d", total)
		assert.True(t, contextutils.IsError(err, contextutils.ErrInvalidInput))
	}
}

func TestPlanDistribution_NoHistoryPrompt(t *testing.T) {
	planner, prompt := plannerFixture(`{"distribution": {"fractions": 5}, "reasoning": "r"}`)
	planner.learningService = &mockLearningService{
		getStudentPerformanceFn: func(_ context.Context, _ int) (map[string]*models.TopicPerformance, error) {
			return map[string]*models.TopicPerformance{}, nil
		},
	}

	_, err := planner.PlanDistribution(context.Background(), 1, 5, nil, nil)
	require.NoError(t, err)
	assert.True(t, strings.Contains(*prompt, "no performance history"))
}
