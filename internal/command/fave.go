package command

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/starkeep/starkeep/internal/favorites"
	"github.com/starkeep/starkeep/internal/iconsync"
)

// NewFaveCmd creates the fave command.
func NewFaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fave <position>",
		Short: "Favorite a message in the active chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToggle(cmd, args[0], true)
		},
	}
}

// NewUnfaveCmd creates the unfave command.
func NewUnfaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unfave <position>",
		Short: "Remove a favorite from the active chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToggle(cmd, args[0], false)
		},
	}
}

// runToggle drives the star engine over the current transcript, the same
// path a click on a star takes.
func runToggle(cmd *cobra.Command, ref string, want bool) error {
	ctx, err := GetContext(cmd)
	if err != nil {
		return writeCommandError(cmd, err)
	}
	defer ctx.Close()

	if _, ok := favorites.ParseRef(ref); !ok {
		return writeCommandError(cmd, fmt.Errorf("invalid message position: %s", ref))
	}

	conv, err := ctx.Host.ActiveConversation()
	if err != nil {
		return writeCommandError(cmd, err)
	}

	view := iconsync.NewMemoryView(conv.Messages)
	engine := iconsync.NewEngine(view, ctx.Store)
	engine.Sync()

	if ctx.Store.IsFavorited(ref) == want {
		if ctx.JSONMode {
			return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
				"ref": ref, "favorited": want, "changed": false,
			})
		}
		if want {
			fmt.Fprintf(cmd.OutOrStdout(), "Already faved #%s\n", ref)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Not faved: #%s\n", ref)
		}
		return nil
	}

	starred, ok := engine.ToggleRef(ref)
	if !ok {
		return writeCommandError(cmd, fmt.Errorf("no message at position %s", ref))
	}

	if ctx.JSONMode {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
			"ref": ref, "favorited": starred, "changed": true,
		})
	}
	if starred {
		fmt.Fprintf(cmd.OutOrStdout(), "Faved #%s\n", ref)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Unfaved #%s\n", ref)
	}
	return nil
}
