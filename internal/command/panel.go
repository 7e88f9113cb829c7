package command

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/starkeep/starkeep/internal/db"
	"github.com/starkeep/starkeep/internal/popup"
	"github.com/starkeep/starkeep/internal/preview"
	"github.com/starkeep/starkeep/internal/types"
)

// NewPanelCmd creates the panel command.
func NewPanelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "panel",
		Short: "Open the interactive favorites panel",
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

			rec := preview.New(ctx.Host, ctx.Store, db.PreviewMappings{Conn: ctx.DB}, preview.Config{
				SwitchTimeout: ctx.Settings.SwitchTimeout,
				ClearBudget:   ctx.Settings.ClearBudget,
				ClearInterval: ctx.Settings.ClearInterval,
				BatchSize:     ctx.Settings.BatchSize,
				BatchYield:    ctx.Settings.BatchYield,
			})

			return popup.Open(popup.Deps{
				Store: ctx.Store,
				Messages: func() []types.Message {
					current, err := ctx.Host.ActiveConversation()
					if err != nil {
						return nil
					}
					return current.Messages
				},
				ChatName:     conv.Name,
				ItemsPerPage: ctx.Settings.ItemsPerPage,
				OnPreview: func() {
					go func() {
						if _, err := rec.Run(context.Background()); err != nil {
							ctx.Notifier.Error("Preview failed", err.Error())
						}
					}()
				},
			})
		},
	}
}
