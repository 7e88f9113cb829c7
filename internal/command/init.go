package command

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/starkeep/starkeep/internal/core"
	"github.com/starkeep/starkeep/internal/db"
)

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a starkeep workspace",
		Long:  "Create the .starkeep directory and database in the current directory.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")

			ws, err := core.InitWorkspace("", force)
			if err != nil {
				return writeCommandError(cmd, err)
			}

			conn, err := db.OpenDatabase(ws)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer conn.Close()
			if err := db.InitSchema(conn); err != nil {
				return writeCommandError(cmd, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Initialized starkeep workspace in %s\n", ws.Dir())
			return nil
		},
	}
	return cmd
}
