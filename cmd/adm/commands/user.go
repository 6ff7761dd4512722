package commands

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"tutorapp/internal/models"
	"tutorapp/internal/services"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	createUserName  string
	createUserEmail string
	createUserRole  string
)

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create a user account, prompting for a password",
	RunE: func(cmd *cobra.Command, args []string) error {
		if createUserName == "" || createUserEmail == "" {
			return fmt.Errorf("--name and --email are required")
		}

		password, err := promptPassword()
		if err != nil {
			return err
		}

		cfg, logger, db, err := bootstrap()
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				logger.Warn(cmd.Context(), "Failed to close database", map[string]interface{}{"error": closeErr.Error()})
			}
		}()
		_ = cfg

		userService := services.NewUserService(db, logger)
		user, err := userService.CreateUser(cmd.Context(), createUserName, createUserEmail, models.UserRole(createUserRole), password)
		if err != nil {
			return err
		}

		fmt.Printf("Created %s '%s' with id %d\n", user.Role, user.Email, user.ID)
		return nil
	},
}

func init() {
	createUserCmd.Flags().StringVar(&createUserName, "name", "", "full name")
	createUserCmd.Flags().StringVar(&createUserEmail, "email", "", "email address")
	createUserCmd.Flags().StringVar(&createUserRole, "role", "student", "account role (student or educator)")
}

// promptPassword reads the password twice without echo
func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	first, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	fmt.Fprint(os.Stderr, "Confirm password: ")
	second, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password confirmation: %w", err)
	}

	password := strings.TrimSpace(string(first))
	if password != strings.TrimSpace(string(second)) {
		return "", fmt.Errorf("passwords do not match")
	}
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}

	return password, nil
}
