package main

import (
	"context"
	"fmt"
	"os"

	amanahchat "github.com/amanahchat/widget-go"
)

// getClient creates a REST client from the stored session token.
func getClient() *amanahchat.Client {
	cfg := mustLoadConfig()

	var opts []amanahchat.ClientOption
	if cfg.Default.BaseURL != "" {
		opts = append(opts, amanahchat.WithBaseURL(cfg.Default.BaseURL))
	}
	return amanahchat.NewClient(cfg.Auth.Token, opts...)
}

// getHubClient creates a hub client for the configured hub (or base) URL.
func getHubClient() *amanahchat.HubClient {
	cfg := mustLoadConfig()

	hubURL := cfg.Default.HubURL
	if hubURL == "" {
		hubURL = cfg.Default.BaseURL
	}
	if hubURL == "" {
		hubURL = amanahchat.DefaultBaseURL
	}
	return amanahchat.NewHubClient(hubURL, amanahchat.HubConfig{
		Token:         cfg.Auth.Token,
		AutoReconnect: true,
	})
}

// getIdentity returns the stored viewer identity.
func getIdentity() amanahchat.Identity {
	cfg := mustLoadConfig()
	return amanahchat.Identity{
		UserID:      cfg.Auth.UserID,
		WorkspaceID: cfg.Auth.WorkspaceID,
	}
}

func mustLoadConfig() *Config {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Auth.Token == "" {
		fmt.Fprintln(os.Stderr, "No session token. Run 'amanahchat init <token>' first.")
		os.Exit(1)
	}
	return cfg
}

// findRoom resolves a room id (or unambiguous title prefix) to a summary.
func findRoom(ctx context.Context, client *amanahchat.Client, key string) (amanahchat.ConversationSummary, error) {
	rooms, err := client.GetChatRooms(ctx)
	if err != nil {
		return amanahchat.ConversationSummary{}, fmt.Errorf("failed to load chat rooms: %w", err)
	}
	for _, r := range rooms {
		if r.ChatRoomID == key {
			return r, nil
		}
	}
	for _, r := range rooms {
		if r.Title == key {
			return r, nil
		}
	}
	return amanahchat.ConversationSummary{}, fmt.Errorf("no chat room matching %q", key)
}
