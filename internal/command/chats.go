package command

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/starkeep/starkeep/internal/db"
	"github.com/starkeep/starkeep/internal/host"
	"github.com/starkeep/starkeep/internal/types"
)

// NewChatsCmd creates the chats command group.
func NewChatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chats",
		Short: "Manage chats in the workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChatsList(cmd)
		},
	}

	cmd.AddCommand(newChatsNewCmd(), newChatsListCmd(), newChatsSwitchCmd())
	return cmd
}

func newChatsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List chats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChatsList(cmd)
		},
	}
}

func runChatsList(cmd *cobra.Command) error {
	ctx, err := GetContext(cmd)
	if err != nil {
		return writeCommandError(cmd, err)
	}
	defer ctx.Close()

	chats, err := db.ListChats(ctx.DB)
	if err != nil {
		return writeCommandError(cmd, err)
	}
	active, err := db.GetActiveChat(ctx.DB)
	if err != nil {
		return writeCommandError(cmd, err)
	}
	mappings, err := db.ListPreviewChats(ctx.DB)
	if err != nil {
		return writeCommandError(cmd, err)
	}
	previews := make(map[string]bool, len(mappings))
	for _, m := range mappings {
		previews[m.ChatGUID] = true
	}

	if ctx.JSONMode {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
			"active":        active,
			"chats":         chats,
			"preview_chats": mappings,
		})
	}

	if len(chats) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No chats. Use 'starkeep chats new' first")
		return nil
	}
	out := cmd.OutOrStdout()
	for _, chat := range chats {
		marker := " "
		if chat.GUID == active {
			marker = "*"
		}
		label := ""
		if previews[chat.GUID] {
			label = "  [preview]"
		}
		fmt.Fprintf(out, "%s %s  %s (%s)%s\n", marker, chat.GUID, chat.Name, chat.Entity.PreviewKey(), label)
	}
	return nil
}

func newChatsNewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a chat and make it active",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			name, _ := cmd.Flags().GetString("name")
			if name == "" {
				name = time.Now().Format("2006-01-02 15:04:05")
			}
			entityID, _ := cmd.Flags().GetString("with")
			if entityID == "" {
				return writeCommandError(cmd, fmt.Errorf("--with is required"))
			}
			kind := types.EntityCharacter
			if group, _ := cmd.Flags().GetBool("group"); group {
				kind = types.EntityGroup
			}
			entity := types.EntityRef{Kind: kind, ID: entityID}

			chat, err := db.CreateChat(ctx.DB, name, entity)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			if err := db.SetActiveChat(ctx.DB, chat.GUID); err != nil {
				return writeCommandError(cmd, err)
			}

			if ctx.JSONMode {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(chat)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created chat %s with %s\n", chat.GUID, entity.PreviewKey())
			return nil
		},
	}

	cmd.Flags().String("name", "", "chat name")
	cmd.Flags().String("with", "", "character or group identifier")
	cmd.Flags().Bool("group", false, "chat with a group instead of a character")
	_ = cmd.MarkFlagRequired("with")
	return cmd
}

func newChatsSwitchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "switch <chat>",
		Short: "Switch the active chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			chat, err := db.GetChat(ctx.DB, args[0])
			if err != nil {
				return writeCommandError(cmd, err)
			}
			if chat == nil {
				return writeCommandError(cmd, fmt.Errorf("chat not found: %s", args[0]))
			}

			events, cancel := ctx.Host.Events().Subscribe(host.EventChatChanged)
			defer cancel()
			if err := ctx.Host.SwitchConversation(chat.Entity, chat.GUID); err != nil {
				return writeCommandError(cmd, err)
			}
			<-events

			if ctx.JSONMode {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(chat)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Switched to %s\n", chat.GUID)
			return nil
		},
	}
}
