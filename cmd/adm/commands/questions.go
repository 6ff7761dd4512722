package commands

import (
	"fmt"
	"os"

	"tutorapp/internal/models"
	"tutorapp/internal/services"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var seedQuestionsFile string

// seedFile is the YAML layout accepted by seed-questions
type seedFile struct {
	Questions []struct {
		Subject        string                 `yaml:"subject"`
		Topic          string                 `yaml:"topic"`
		Type           string                 `yaml:"type"`
		Content        map[string]interface{} `yaml:"content"`
		CorrectAnswers []string               `yaml:"correct_answers"`
	} `yaml:"questions"`
}

var seedQuestionsCmd = &cobra.Command{
	Use:   "seed-questions",
	Short: "Load catalog questions from a YAML file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if seedQuestionsFile == "" {
			return fmt.Errorf("--file is required")
		}

		data, err := os.ReadFile(seedQuestionsFile)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", seedQuestionsFile, err)
		}

		var seed seedFile
		if err := yaml.Unmarshal(data, &seed); err != nil {
			return fmt.Errorf("failed to parse %s: %w", seedQuestionsFile, err)
		}
		if len(seed.Questions) == 0 {
			return fmt.Errorf("%s contains no questions", seedQuestionsFile)
		}

		_, logger, db, err := bootstrap()
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				logger.Warn(cmd.Context(), "Failed to close database", map[string]interface{}{"error": closeErr.Error()})
			}
		}()

		questionService := services.NewQuestionService(db, logger)
		created := 0
		for i, q := range seed.Questions {
			question := &models.Question{
				Subject:        q.Subject,
				Topic:          q.Topic,
				Type:           models.QuestionType(q.Type),
				Content:        q.Content,
				CorrectAnswers: q.CorrectAnswers,
			}
			if _, err := questionService.CreateQuestion(cmd.Context(), question); err != nil {
				return fmt.Errorf("question %d (%s): %w", i+1, q.Topic, err)
			}
			created++
		}

		fmt.Printf("Seeded %d questions from %s\n", created, seedQuestionsFile)
		return nil
	},
}

func init() {
	seedQuestionsCmd.Flags().StringVar(&seedQuestionsFile, "file", "", "YAML file of questions to load")
}
