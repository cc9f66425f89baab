package main

import (
	"fmt"
	"os"
	"path/filepath"

	amanahchat "github.com/amanahchat/widget-go"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().String("file", "", "attach a file")
}

var sendCmd = &cobra.Command{
	Use:   "send <room> <text>",
	Short: "Send a message to a room",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := getClient()

		room, err := findRoom(cmd.Context(), client, args[0])
		if err != nil {
			return err
		}

		req := amanahchat.SendMessageRequest{
			ChatRoomID:   room.ChatRoomID,
			RoomMemberID: room.RoomMemberID,
			Body:         args[1],
		}

		if path, _ := cmd.Flags().GetString("file"); path != "" {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}
			req.File = data
			req.FileName = filepath.Base(path)
		}

		id, err := client.SendMessage(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("failed to send: %w", err)
		}

		fmt.Printf("Sent %s to %s\n", id, room.Title)
		return nil
	},
}
