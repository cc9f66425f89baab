package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	amanahchat "github.com/amanahchat/widget-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().Bool("verbose", false, "log connection internals")
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Connect to the hub and stream live events",
	Long:  "Connect a widget to the push hub, join every room you belong to, and print messages, typing indicators, and presence changes as they arrive. Ctrl-C to stop.",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := zap.NewNop()
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			l, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			logger = l
		}

		widget := amanahchat.NewWidget(amanahchat.WidgetConfig{
			Client:    getClient(),
			Transport: getHubClient(),
			Identity:  getIdentity(),
			Logger:    logger,
		})

		widget.OnMessage(func(m amanahchat.Message) {
			title := m.ChatRoomID
			if chat, ok := widget.Chats().Find(m.ChatRoomID); ok {
				title = chat.Title
			}
			sender := m.SenderName
			if sender == "" {
				sender = m.RoomMemberID
			}
			fmt.Printf("[%s] %s: %s\n", title, sender, m.Body)
		})
		widget.OnTyping(func(t amanahchat.TypingIndicator) {
			if t.IsTyping {
				fmt.Printf("[%s] %s is typing...\n", t.ChatRoomID, t.UserName)
			}
		})
		widget.OnPresence(func(p amanahchat.UserPresence) {
			fmt.Printf("[%s] %s %s\n", p.ChatRoomID, p.UserName, p.Action)
		})
		widget.Connection().SubscribeStatus(func(live bool) {
			if live {
				fmt.Println("-- connected --")
			} else {
				fmt.Println("-- connection lost --")
			}
		})

		if err := widget.Start(cmd.Context()); err != nil {
			return fmt.Errorf("failed to start: %w", err)
		}
		defer widget.Close()

		fmt.Printf("Watching %d rooms. Ctrl-C to stop.\n", widget.Chats().Len())

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		return nil
	},
}
