package command

import (
	"os"

	"github.com/spf13/cobra"
)

const AppName = "starkeep"

// Version is overwritten at build time using -ldflags.
var Version = "dev"

func NewRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           AppName,
		Short:         "Starkeep - favorite messages for local chat logs",
		Long:          "Starkeep marks, lists, annotates, and previews favorite messages in a chat workspace.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.Version = version
	cmd.SetVersionTemplate(AppName + " version {{.Version}}\n")
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.PersistentFlags().Bool("json", false, "output in JSON format")
	cmd.PersistentFlags().Bool("force", false, "force action (skip confirmations)")

	cmd.AddCommand(
		NewInitCmd(),
		NewChatsCmd(),
		NewPostCmd(),
		NewEditCmd(),
		NewRmCmd(),
		NewShowCmd(),
		NewFaveCmd(),
		NewUnfaveCmd(),
		NewFavesCmd(),
		NewNoteCmd(),
		NewCleanCmd(),
		NewPreviewCmd(),
		NewPanelCmd(),
		NewWatchCmd(),
	)

	return cmd
}

func Execute() error {
	return NewRootCmd(Version).Execute()
}
