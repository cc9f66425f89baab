package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().Int("page", 1, "history page")
	historyCmd.Flags().Int("page-size", 50, "messages per page")
}

var historyCmd = &cobra.Command{
	Use:   "history <room>",
	Short: "Print a room's message history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := getClient()

		room, err := findRoom(cmd.Context(), client, args[0])
		if err != nil {
			return err
		}

		page, _ := cmd.Flags().GetInt("page")
		pageSize, _ := cmd.Flags().GetInt("page-size")

		msgs, err := client.GetMessages(cmd.Context(), room.ChatRoomID, page, pageSize)
		if err != nil {
			return fmt.Errorf("failed to load messages: %w", err)
		}

		if len(msgs) == 0 {
			fmt.Println("No messages.")
			return nil
		}
		for _, m := range msgs {
			sender := m.SenderName
			if sender == "" {
				sender = m.RoomMemberID
			}
			fmt.Printf("[%s] %s: %s\n",
				m.Timestamp.Local().Format("15:04:05"), sender, m.Body)
		}
		return nil
	},
}
