// Package chatscmder provides the chats command and its subcommands.
package chatscmder

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/burnes-center/fair/cmd/fair/cmdutil"
	"github.com/burnes-center/fair/pkg/cliui"
	"github.com/burnes-center/fair/pkg/llm"
	"github.com/burnes-center/fair/pkg/utils"
)

const chatsLongDesc string = `List and manage the chat threads of a session.

Without a subcommand, lists the chats of the given session or of the
current session.

Examples:
  fair chats
  fair chats 12
  fair chats new "Pricing questions"
  fair chats show 3`

const chatsShortDesc string = "List and manage chat threads"

func NewChatsCmd() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "chats [session]",
		Short: chatsShortDesc,
		Long:  chatsLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Resolve(cmd)
			if err != nil {
				return err
			}
			defer env.Sync()

			sessionID, err := env.SessionArg(args)
			if err != nil {
				return err
			}

			chats, err := env.Client.ListChats(cmd.Context(), sessionID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(chats) == 0 {
				fmt.Fprintf(out, "  %s No chats in session %s.\n", cliui.DimStyle.Render("●"), sessionID)
				return nil
			}

			state, err := env.State()
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(chats))
			for _, ch := range chats {
				mark := " "
				if ch.ID == state.ChatID {
					mark = cliui.SuccessMark
				}
				rows = append(rows, []string{mark, strconv.FormatInt(ch.ID, 10), ch.Name})
			}
			return cliui.Table(out, []string{"", "ID", "NAME"}, rows, 60)
		},
	}

	cmdutil.AddTargetFlag(cmd, &target)

	cmd.AddCommand(newNewCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newRenameCmd())
	cmd.AddCommand(newDeleteCmd())

	return cmd
}

func newNewCmd() *cobra.Command {
	var target, sessionID string

	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Start a new chat thread in a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Resolve(cmd)
			if err != nil {
				return err
			}
			defer env.Sync()

			sid, err := env.SessionArg([]string{sessionID})
			if err != nil {
				return err
			}

			created, err := env.Client.CreateChat(cmd.Context(), sid, args[0])
			if err != nil {
				return err
			}

			state, err := env.State()
			if err != nil {
				return err
			}
			if strconv.FormatInt(state.SessionID, 10) == sid {
				state.ChatID = created.ChatID
				if err := env.SaveState(state); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "  %s Created chat %s %s\n",
				cliui.SuccessMark,
				cliui.NameStyle.Render(created.Name),
				cliui.DimStyle.Render(fmt.Sprintf("(chat %d)", created.ChatID)),
			)
			return nil
		},
	}

	cmdutil.AddTargetFlag(cmd, &target)
	cmd.Flags().StringVar(&sessionID, "session", "", "Session to add the chat to (default: current session)")

	return cmd
}

func newShowCmd() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "show <chat>",
		Short: "Print the messages of a chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Resolve(cmd)
			if err != nil {
				return err
			}
			defer env.Sync()

			chat, err := env.Client.LoadChat(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\n  %s %s\n\n",
				cliui.HeaderStyle.Render(chat.Name),
				cliui.DimStyle.Render(fmt.Sprintf("(%s, session %d)", utils.Truncate(chat.SessionName, 40), chat.SessionID)),
			)
			for _, m := range chat.Messages {
				role := cliui.DimStyle.Render(string(m.Role) + ">")
				if m.Role == llm.RoleUser {
					role = cliui.NameStyle.Render("you>")
				}
				fmt.Fprintf(out, "  %s %s\n\n", role, m.Content)
			}
			return nil
		},
	}

	cmdutil.AddTargetFlag(cmd, &target)
	return cmd
}

func newRenameCmd() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "rename <chat> <name>",
		Short: "Rename a chat",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Resolve(cmd)
			if err != nil {
				return err
			}
			defer env.Sync()

			out := cmd.OutOrStdout()
			return cliui.Step(out, "Renaming chat "+args[0], cliui.IsTerminal(out), func() error {
				return env.Client.RenameChat(cmd.Context(), args[0], args[1])
			})
		},
	}
	cmdutil.AddTargetFlag(cmd, &target)
	return cmd
}

func newDeleteCmd() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "delete <chat>",
		Short: "Delete a chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Resolve(cmd)
			if err != nil {
				return err
			}
			defer env.Sync()

			out := cmd.OutOrStdout()
			if err := cliui.Step(out, "Deleting chat "+args[0], cliui.IsTerminal(out), func() error {
				return env.Client.DeleteChat(cmd.Context(), args[0])
			}); err != nil {
				return err
			}

			state, err := env.State()
			if err != nil {
				return err
			}
			if strconv.FormatInt(state.ChatID, 10) == args[0] {
				state.ChatID = 0
				return env.SaveState(state)
			}
			return nil
		},
	}
	cmdutil.AddTargetFlag(cmd, &target)
	return cmd
}
