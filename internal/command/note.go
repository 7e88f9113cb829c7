package command

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/starkeep/starkeep/internal/favorites"
)

// NewNoteCmd creates the note command.
func NewNoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "note <position> [text...]",
		Short: "Attach a note to a favorite",
		Long:  "Set the note on the favorite at the given message position. Empty text clears the note.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			ref := args[0]
			if _, ok := favorites.ParseRef(ref); !ok {
				return writeCommandError(cmd, fmt.Errorf("invalid message position: %s", ref))
			}

			var target string
			for _, rec := range ctx.Store.Records() {
				if rec.MessageRef == ref {
					target = rec.ID
					break
				}
			}
			if target == "" {
				return writeCommandError(cmd, fmt.Errorf("message #%s is not faved", ref))
			}

			note := strings.Join(args[1:], " ")
			if !ctx.Store.UpdateNote(target, note) {
				return writeCommandError(cmd, fmt.Errorf("failed to update note"))
			}

			if ctx.JSONMode {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"ref": ref, "note": note,
				})
			}
			if note == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared note on #%s\n", ref)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Noted #%s\n", ref)
			}
			return nil
		},
	}
}
