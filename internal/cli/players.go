package cli

import (
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"
)

func newPlayersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "players",
		Short: "Player administration commands",
	}

	cmd.AddCommand(newPlayersListCmd())
	cmd.AddCommand(newPlayersGetCmd())
	cmd.AddCommand(newPlayersAddCmd())
	cmd.AddCommand(newPlayersUpdateCmd())
	cmd.AddCommand(newPlayersDeleteCmd())

	return cmd
}

func playerPath(id string) string {
	return "/api/v1/admin/players/" + url.PathEscape(id)
}

func newPlayersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all players with their registrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []PlayerDetail

			if err := client.Get("/api/v1/admin/players", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newPlayersGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <player-id>",
		Short: "Show one player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result PlayerDetail

			if err := client.Get(playerPath(args[0]), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newPlayersAddCmd() *cobra.Command {
	var name, email, division string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a player and allocate a jersey",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name is required")
			}

			req := map[string]string{
				"full_name":    name,
				"parent_email": email,
				"division":     division,
			}
			var result Player

			if err := client.Post("/api/v1/admin/players", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Full name (required)")
	cmd.Flags().StringVar(&email, "parent-email", "", "Parent email")
	cmd.Flags().StringVar(&division, "division", "", "Division to allocate the jersey in (default U6)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newPlayersUpdateCmd() *cobra.Command {
	var name, email string
	var jersey int

	cmd := &cobra.Command{
		Use:   "update <player-id>",
		Short: "Edit a player's name, parent email or jersey number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{}
			if cmd.Flags().Changed("name") {
				req["full_name"] = name
			}
			if cmd.Flags().Changed("parent-email") {
				req["parent_email"] = email
			}
			if cmd.Flags().Changed("jersey") {
				req["jersey_number"] = jersey
			}
			if len(req) == 0 {
				return fmt.Errorf("nothing to update: pass --name, --parent-email or --jersey")
			}

			var result Player
			if err := client.Patch(playerPath(args[0]), req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New full name")
	cmd.Flags().StringVar(&email, "parent-email", "", "New parent email")
	cmd.Flags().IntVar(&jersey, "jersey", 0, "New jersey number (1-99)")

	return cmd
}

func newPlayersDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <player-id>",
		Short: "Delete a player and their registrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete(playerPath(args[0])); err != nil {
				return err
			}

			NewOutput(cfg.Output).PrintMessage(fmt.Sprintf("Deleted player %s", args[0]))
			return nil
		},
	}
}

func newRosterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roster",
		Short: "Show players grouped by sport and division",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []RosterSport

			if err := client.Get("/api/v1/admin/roster", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newExportCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export players as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := client.GetRaw("/api/v1/admin/export")
			if err != nil {
				return err
			}

			if file == "" || file == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(file, data, 0644); err != nil {
				return err
			}
			NewOutput(cfg.Output).PrintMessage(fmt.Sprintf("Wrote %s", file))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Write CSV to file instead of stdout")

	return cmd
}
