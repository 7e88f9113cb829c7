package command

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/starkeep/starkeep/internal/favorites"
	"github.com/starkeep/starkeep/internal/types"
)

// NewCleanCmd creates the clean command.
func NewCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove favorites pointing at deleted messages",
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
			log := conv.Messages

			broken := 0
			for _, rec := range ctx.Store.Records() {
				if _, ok := favorites.Resolve(rec.MessageRef, log); !ok {
					broken++
				}
			}
			if broken == 0 {
				if ctx.JSONMode {
					return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{"removed": 0})
				}
				fmt.Fprintln(cmd.OutOrStdout(), "No broken favorites")
				return nil
			}

			force, _ := cmd.Flags().GetBool("force")
			if !force && !ctx.JSONMode {
				fmt.Fprintf(cmd.OutOrStdout(), "Remove %d favorite(s) pointing at deleted messages? [y/N] ", broken)
				reader := bufio.NewReader(cmd.InOrStdin())
				answer, _ := reader.ReadString('\n')
				if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y") {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
					return nil
				}
			}

			removed := ctx.Store.ClearInvalid(func(rec types.FavoriteRecord) bool {
				_, ok := favorites.Resolve(rec.MessageRef, log)
				return !ok
			})

			if ctx.JSONMode {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{"removed": removed})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d favorite(s)\n", removed)
			return nil
		},
	}
}
