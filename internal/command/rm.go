package command

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/starkeep/starkeep/internal/favorites"
	"github.com/starkeep/starkeep/internal/iconsync"
)

// NewRmCmd creates the rm command.
func NewRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <position>",
		Short: "Delete a message from the active chat",
		Long:  "Remove the message at the given position. The log reindexes and a favorite recorded for that position is removed with it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			position, ok := favorites.ParseRef(args[0])
			if !ok {
				return writeCommandError(cmd, fmt.Errorf("invalid message position: %s", args[0]))
			}

			removed, err := ctx.Host.DeleteMessage(position)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			if !removed {
				return writeCommandError(cmd, fmt.Errorf("no message at position %d", position))
			}

			// The same reconciliation a live binding runs on a delete event.
			conv, err := ctx.Host.ActiveConversation()
			if err != nil {
				return writeCommandError(cmd, err)
			}
			engine := iconsync.NewEngine(iconsync.NewMemoryView(conv.Messages), ctx.Store)
			engine.HandleDeleted(position)

			if ctx.JSONMode {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"position": position, "removed": true,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed #%d\n", position)
			return nil
		},
	}
}

// NewEditCmd creates the edit command.
func NewEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <position> <message...>",
		Short: "Replace a message's body in the active chat",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			position, ok := favorites.ParseRef(args[0])
			if !ok {
				return writeCommandError(cmd, fmt.Errorf("invalid message position: %s", args[0]))
			}

			updated, err := ctx.Host.EditMessage(position, strings.Join(args[1:], " "))
			if err != nil {
				return writeCommandError(cmd, err)
			}
			if !updated {
				return writeCommandError(cmd, fmt.Errorf("no message at position %d", position))
			}

			if ctx.JSONMode {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"position": position, "edited": true,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Edited #%d\n", position)
			return nil
		},
	}
}
