package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(roomsCmd)
	roomsCmd.AddCommand(roomsMembersCmd)

	roomsCmd.Flags().String("filter", "", "filter rooms by title")
}

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "List your chat rooms",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := getClient()

		rooms, err := client.GetChatRooms(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to load chat rooms: %w", err)
		}

		filter, _ := cmd.Flags().GetString("filter")
		if len(rooms) == 0 {
			fmt.Println("No chat rooms.")
			return nil
		}

		for _, r := range rooms {
			if filter != "" && !containsFold(r.Title, filter) {
				continue
			}
			fmt.Printf("%-36s  %-24s  %s\n", r.ChatRoomID, r.Title,
				r.LastActionAt.Local().Format("2006-01-02 15:04"))
			if r.LastMessage != "" {
				fmt.Printf("%-36s  %s\n", "", truncate(r.LastMessage, 60))
			}
		}
		return nil
	},
}

var roomsMembersCmd = &cobra.Command{
	Use:   "members <room>",
	Short: "List the members of a room",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := getClient()

		room, err := findRoom(cmd.Context(), client, args[0])
		if err != nil {
			return err
		}

		members, err := client.GetRoomMembers(cmd.Context(), room.ChatRoomID)
		if err != nil {
			return fmt.Errorf("failed to load members: %w", err)
		}

		for _, m := range members {
			role := ""
			if m.IsAdmin {
				role = " (admin)"
			}
			fmt.Printf("%-36s  %s%s\n", m.ID, m.UserName, role)
		}
		return nil
	},
}
