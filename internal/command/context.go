package command

import (
	"database/sql"

	"github.com/spf13/cobra"
	"github.com/starkeep/starkeep/internal/core"
	"github.com/starkeep/starkeep/internal/db"
	"github.com/starkeep/starkeep/internal/favorites"
	"github.com/starkeep/starkeep/internal/host"
	"github.com/starkeep/starkeep/internal/notify"
	"github.com/starkeep/starkeep/internal/types"
)

// CommandContext provides shared command resources.
type CommandContext struct {
	DB        *sql.DB
	Workspace core.Workspace
	Settings  core.Settings
	JSONMode  bool
	Host      *host.Local
	Store     *favorites.Store
	Notifier  *notify.Notifier
}

// GetContext resolves the workspace and wires the host and store for a command.
func GetContext(cmd *cobra.Command) (*CommandContext, error) {
	jsonMode, _ := cmd.Flags().GetBool("json")

	ws, err := core.DiscoverWorkspace("")
	if err != nil {
		return nil, err
	}
	conn, err := db.OpenDatabase(ws)
	if err != nil {
		return nil, err
	}
	if err := db.InitSchema(conn); err != nil {
		_ = conn.Close()
		return nil, err
	}

	settings, err := core.LoadSettings(ws.Root)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	h, err := host.NewLocal(conn, host.Config{SettleDelay: settings.SettleDelay})
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	store := favorites.NewStore(
		func() *types.ChatMetadata {
			meta, err := h.Metadata()
			if err != nil {
				return nil
			}
			return meta
		},
		h.PersistMetadata,
	)

	return &CommandContext{
		DB:        conn,
		Workspace: ws,
		Settings:  settings,
		JSONMode:  jsonMode,
		Host:      h,
		Store:     store,
		Notifier:  notify.New(settings.Notifications),
	}, nil
}

// Close flushes the host and closes the database.
func (c *CommandContext) Close() {
	c.Host.Close()
	_ = c.DB.Close()
}
