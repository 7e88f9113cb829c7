package command

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/starkeep/starkeep/internal/favorites"
)

// NewShowCmd creates the show command.
func NewShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the active chat's transcript",
		Long:  "Print the active chat with a star next to each favorited message.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			conv, err := ctx.Host.ActiveConversation()
			if err != nil {
				return writeCommandError(cmd, err)
			}
			ctx.Host.NotifyHistoryLoaded()

			if ctx.JSONMode {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(conv)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s — %s (%d messages)\n\n", conv.Name, conv.Entity.PreviewKey(), len(conv.Messages))
			for _, msg := range conv.Messages {
				star := "☆"
				if ctx.Store.IsFavorited(favorites.FormatRef(msg.Position)) {
					star = "★"
				}
				fmt.Fprintf(out, "%s #%d %s: %s\n", star, msg.Position, msg.Sender, msg.Body)
			}
			return nil
		},
	}
}
