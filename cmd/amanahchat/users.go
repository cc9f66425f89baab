package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(usersCmd)
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List the members of your workspace",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := getClient()
		identity := getIdentity()

		if identity.WorkspaceID == "" {
			return fmt.Errorf("no workspace configured, run 'amanahchat init <token> --workspace <id>'")
		}

		users, err := client.GetUsersByWorkspace(cmd.Context(), identity.WorkspaceID)
		if err != nil {
			return fmt.Errorf("failed to load users: %w", err)
		}

		for _, u := range users {
			role := ""
			if u.IsAdmin {
				role = " (admin)"
			}
			name := strings.TrimSpace(u.FirstName + " " + u.LastName)
			fmt.Printf("%-36s  %-20s  %s%s\n", u.ID, u.Username, name, role)
		}
		return nil
	},
}

// containsFold reports whether s contains substr, ignoring case.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
