package command

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/starkeep/starkeep/internal/host"
	"github.com/starkeep/starkeep/internal/iconsync"
)

// NewWatchCmd creates the watch command.
func NewWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep star state in sync until interrupted",
		Long:  "Follow host events and workspace file changes, reconciling star state as the chat and its favorites change.",
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

			view := iconsync.NewMemoryView(conv.Messages)
			engine := iconsync.NewEngine(view, ctx.Store)
			engine.Sync()

			binding := iconsync.Bind(engine, ctx.Host.Events(), ctx.Settings.RefreshDelay)
			defer binding.Stop()

			// The binding re-syncs stars; the view itself must follow the
			// active chat's transcript.
			changes, cancelChanges := ctx.Host.Events().Subscribe(host.EventChatChanged)
			defer cancelChanges()
			go func() {
				for range changes {
					current, err := ctx.Host.ActiveConversation()
					if err != nil {
						continue
					}
					view.Reset(current.Messages)
					engine.Sync()
				}
			}()

			watcher, err := iconsync.NewWatcher(engine, ctx.Workspace.Dir(), ctx.Settings.SweepInterval)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer watcher.Stop()

			fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (ctrl+c to stop)\n", ctx.Workspace.Dir())

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			select {
			case <-sig:
			case <-cmd.Context().Done():
			}
			return nil
		},
	}
}
