package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Admin account commands",
	}

	cmd.AddCommand(newAdminAuthCmd("register", "Register an admin account", "/api/v1/admin/users/register"))
	cmd.AddCommand(newAdminAuthCmd("login", "Login with an admin account", "/api/v1/admin/login"))
	cmd.AddCommand(newAdminLogoutCmd())
	cmd.AddCommand(newAdminBackfillPromoCmd())

	return cmd
}

func newAdminAuthCmd(use, short, path string) *cobra.Command {
	var email, pass string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || pass == "" {
				return fmt.Errorf("--email and --pass are required")
			}

			req := map[string]string{
				"email":    email,
				"password": pass,
			}
			var result AuthResult

			if err := client.Post(path, req, &result); err != nil {
				return err
			}

			// Save token
			if err := cfg.SaveToken(result.SessionToken); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Admin email (required)")
	cmd.Flags().StringVar(&pass, "pass", "", "Password (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func newAdminLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current admin session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post("/api/v1/admin/logout", nil, nil); err != nil {
				return err
			}
			if err := cfg.SaveToken(""); err != nil {
				return fmt.Errorf("failed to clear token: %w", err)
			}

			NewOutput(cfg.Output).PrintMessage("Logged out")
			return nil
		},
	}
}

func newAdminBackfillPromoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backfill-promo",
		Short: "Give registrations without a promo code the single-player code",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result PromoBackfill
			if err := client.Post("/api/v1/admin/registrations/backfill-promo", nil, &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}
