package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/discovery-api/internal/chat"
)

var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Ask the chat assistant one question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("chat"); err != nil {
			return err
		}

		reply, err := buildResponder(cfg).Respond(cmd.Context(), chat.Request{
			Message: strings.Join(args, " "),
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", reply.Source, reply.Reply)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
