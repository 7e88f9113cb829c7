package command

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/starkeep/starkeep/internal/host"
	"github.com/starkeep/starkeep/internal/types"
)

// NewPostCmd creates the post command.
func NewPostCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post <message...>",
		Short: "Append a message to the active chat",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			sender, _ := cmd.Flags().GetString("as")
			role := types.RoleUser
			if sender == "" {
				sender = "User"
			} else {
				role = types.RoleCharacter
			}

			msg := types.Message{
				Sender: sender,
				Role:   role,
				Body:   strings.Join(args, " "),
				TS:     time.Now().Unix(),
			}
			if err := ctx.Host.AppendMessage(cmd.Context(), msg, host.AppendOptions{ForcePosition: -1}); err != nil {
				return writeCommandError(cmd, err)
			}
			position := ctx.Host.RenderedCount() - 1

			if ctx.JSONMode {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"position": position,
					"sender":   sender,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Posted #%d\n", position)
			return nil
		},
	}

	cmd.Flags().String("as", "", "post as this character (default: the user)")
	return cmd
}
