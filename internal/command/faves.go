package command

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/starkeep/starkeep/internal/favorites"
)

// NewFavesCmd creates the faves listing command.
func NewFavesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "faves",
		Short: "List the active chat's favorites",
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
			faves := ctx.Store.List()

			if ctx.JSONMode {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(faves)
			}

			if len(faves) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No favorites")
				return nil
			}

			page, _ := cmd.Flags().GetInt("page")
			perPage := ctx.Settings.ItemsPerPage
			totalPages := (len(faves) + perPage - 1) / perPage
			if page < 1 {
				page = 1
			}
			if page > totalPages {
				page = totalPages
			}
			start := (page - 1) * perPage
			end := start + perPage
			if end > len(faves) {
				end = len(faves)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Favorites — %s (%d), page %d/%d\n\n", conv.Name, len(faves), page, totalPages)
			for _, rec := range faves[start:end] {
				body := "[message unavailable]"
				if msg, ok := favorites.Resolve(rec.MessageRef, conv.Messages); ok {
					body = msg.Body
				}
				fmt.Fprintf(out, "  ★ #%s %s: %s\n", rec.MessageRef, rec.Sender, body)
				if rec.Note != "" {
					fmt.Fprintf(out, "      (%s)\n", rec.Note)
				}
			}
			return nil
		},
	}

	cmd.Flags().Int("page", 1, "page to show")
	return cmd
}
