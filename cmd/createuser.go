package cmd

import (
	"fmt"

	"go-invoice-webapp/internal/config"
	"go-invoice-webapp/internal/handlers"
	"go-invoice-webapp/internal/models"
	"go-invoice-webapp/internal/repository"

	"github.com/spf13/cobra"
)

var (
	createUserName     string
	createUserEmail    string
	createUserPassword string
)

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create an application user account",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if len(createUserPassword) < cfg.Security.PasswordMinLength {
			return fmt.Errorf("password must be at least %d characters", cfg.Security.PasswordMinLength)
		}

		db, err := repository.NewDatabase(&cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		if err := db.AutoMigrate(&models.User{}, &models.Session{}); err != nil {
			return fmt.Errorf("failed to migrate database schema: %w", err)
		}

		authHandler := handlers.NewAuthHandler(db.DB, cfg)
		if err := authHandler.CreateUser(createUserName, createUserEmail, createUserPassword); err != nil {
			return fmt.Errorf("failed to create user %s: %w", createUserName, err)
		}

		fmt.Printf("Created user %s\n", createUserName)
		return nil
	},
}

func init() {
	createUserCmd.Flags().StringVar(&createUserName, "username", "", "Username for the new account")
	createUserCmd.Flags().StringVar(&createUserEmail, "email", "", "Email for the new account")
	createUserCmd.Flags().StringVar(&createUserPassword, "password", "", "Password for the new account")
	createUserCmd.MarkFlagRequired("username")
	createUserCmd.MarkFlagRequired("email")
	createUserCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(createUserCmd)
}
