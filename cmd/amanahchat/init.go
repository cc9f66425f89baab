package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().String("user", "", "viewer user id")
	initCmd.Flags().String("workspace", "", "workspace id")
	initCmd.Flags().String("base-url", "", "backend base URL")
}

var initCmd = &cobra.Command{
	Use:   "init <token>",
	Short: "Store session token in ~/.amanahchat/config.toml",
	Long:  "Initialize the AmanahChat CLI by storing your session token and identity in the local configuration file.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token := args[0]

		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		cfg.Auth.Token = token
		if v, _ := cmd.Flags().GetString("user"); v != "" {
			cfg.Auth.UserID = v
		}
		if v, _ := cmd.Flags().GetString("workspace"); v != "" {
			cfg.Auth.WorkspaceID = v
		}
		if v, _ := cmd.Flags().GetString("base-url"); v != "" {
			cfg.Default.BaseURL = v
		}

		if err := saveConfig(cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		path, _ := configPath()
		fmt.Printf("Session saved to %s\n", path)
		return nil
	},
}
