package command

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/starkeep/starkeep/internal/db"
	"github.com/starkeep/starkeep/internal/preview"
)

// NewPreviewCmd creates the preview command.
func NewPreviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preview",
		Short: "Rebuild the active chat's favorites in its preview chat",
		Long:  "Switch to the entity's preview chat, empty it, and refill it with every favorited message at its original position.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			rec := preview.New(ctx.Host, ctx.Store, db.PreviewMappings{Conn: ctx.DB}, preview.Config{
				SwitchTimeout: ctx.Settings.SwitchTimeout,
				ClearBudget:   ctx.Settings.ClearBudget,
				ClearInterval: ctx.Settings.ClearInterval,
				BatchSize:     ctx.Settings.BatchSize,
				BatchYield:    ctx.Settings.BatchYield,
			})

			res, err := rec.Run(cmd.Context())
			switch {
			case errors.Is(err, preview.ErrNoFavorites):
				ctx.Notifier.Info("Preview", "No favorites to preview")
				fmt.Fprintln(cmd.OutOrStdout(), "No favorites to preview")
				return nil
			case err != nil:
				ctx.Notifier.Error("Preview failed", err.Error())
				return writeCommandError(cmd, err)
			}

			if ctx.JSONMode {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(res)
			}
			if res.NoneApplied() {
				ctx.Notifier.Warning("Preview", "Messages were prepared but none were applied")
			} else {
				ctx.Notifier.Success("Preview ready", fmt.Sprintf("%d message(s) in %s", res.Inserted, res.ChatGUID))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Preview %s: %d inserted, %d skipped\n", res.ChatGUID, res.Inserted, res.Skipped)
			return nil
		},
	}
}
