// Package sessionscmder provides the sessions command and its subcommands.
package sessionscmder

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/burnes-center/fair/cmd/fair/cmdutil"
	"github.com/burnes-center/fair/pkg/cliui"
	"github.com/burnes-center/fair/pkg/client"
	"github.com/burnes-center/fair/pkg/utils"
)

const sessionsLongDesc string = `List and manage interview sessions.

Without a subcommand, lists the sessions of the logged in user. The current
session is marked with *.

Examples:
  fair sessions
  fair sessions --all
  fair sessions show 12
  fair sessions rename 12 "Onboarding interview"
  fair sessions subscribe 12`

const sessionsShortDesc string = "List and manage interview sessions"

const maxNameWidth = 48

func NewSessionsCmd() *cobra.Command {
	var (
		target string
		all    bool
	)

	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"session"},
		Short:   sessionsShortDesc,
		Long:    sessionsLongDesc,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := cmdutil.Resolve(cmd)
			if err != nil {
				return err
			}
			defer env.Sync()

			return runList(cmd, env, all)
		},
	}

	cmdutil.AddTargetFlag(cmd, &target)
	cmd.Flags().BoolVarP(&all, "all", "a", false, "List every session, not just your own")

	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newUseCmd())
	cmd.AddCommand(newRenameCmd())
	cmd.AddCommand(newDeleteCmd())
	cmd.AddCommand(newSubscribeCmd(true))
	cmd.AddCommand(newSubscribeCmd(false))

	return cmd
}

func runList(cmd *cobra.Command, env *cmdutil.Env, all bool) error {
	state, err := env.State()
	if err != nil {
		return err
	}

	var sessions []client.SessionSummary
	if all {
		sessions, err = env.Client.ListSessions(cmd.Context())
	} else {
		if state.UserID == "" {
			return cmdutil.ErrNotLoggedIn
		}
		sessions, err = env.Client.UserSessions(cmd.Context(), state.UserID)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(sessions) == 0 {
		fmt.Fprintf(out, "  %s No sessions yet. Use 'fair summarize' to create one.\n", cliui.DimStyle.Render("●"))
		return nil
	}

	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		mark := " "
		if s.ID == state.SessionID {
			mark = cliui.SuccessMark
		}
		rows = append(rows, []string{mark, strconv.FormatInt(s.ID, 10), utils.Truncate(s.Name, maxNameWidth)})
	}
	return cliui.Table(out, []string{"", "ID", "NAME"}, rows, 0)
}

func newShowCmd() *cobra.Command {
	var (
		target     string
		transcript bool
	)

	cmd := &cobra.Command{
		Use:   "show [session]",
		Short: "Show a session's summary and chats",
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

			s, err := env.Client.LoadSession(cmd.Context(), sessionID)
			if err != nil {
				return err
			}
			return printSession(cmd.OutOrStdout(), s, transcript)
		},
	}

	cmdutil.AddTargetFlag(cmd, &target)
	cmd.Flags().BoolVar(&transcript, "transcript", false, "Also print the transcript")

	return cmd
}

func printSession(out io.Writer, s *client.Session, transcript bool) error {
	fmt.Fprintf(out, "\n  %s %s\n", cliui.HeaderStyle.Render(s.Name), cliui.DimStyle.Render(fmt.Sprintf("(session %d)", s.SessionID)))

	summary, _ := cliui.RenderMarkdown(out, s.Summary)
	fmt.Fprint(out, summary)

	if transcript && s.Transcript != "" {
		fmt.Fprintf(out, "\n  %s\n\n%s\n", cliui.KeyStyle.Render("Transcript"), s.Transcript)
	}

	if len(s.Chats) > 0 {
		fmt.Fprintf(out, "\n  %s\n", cliui.KeyStyle.Render("Chats"))
		rows := make([][]string, 0, len(s.Chats))
		for _, ch := range s.Chats {
			rows = append(rows, []string{strconv.FormatInt(ch.ID, 10), utils.Truncate(ch.Name, maxNameWidth)})
		}
		return cliui.Table(out, nil, rows, 0)
	}
	return nil
}

func newUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <session>",
		Short: "Make a session the current session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Resolve(cmd)
			if err != nil {
				return err
			}
			defer env.Sync()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid session id %q", args[0])
			}

			state, err := env.State()
			if err != nil {
				return err
			}
			if state.SessionID != id {
				state.ChatID = 0
			}
			state.SessionID = id
			if err := env.SaveState(state); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "  %s Now working in session %d\n", cliui.SuccessMark, id)
			return nil
		},
	}
}

func newRenameCmd() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "rename <session> <name>",
		Short: "Rename a session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Resolve(cmd)
			if err != nil {
				return err
			}
			defer env.Sync()

			out := cmd.OutOrStdout()
			return cliui.Step(out, "Renaming session "+args[0], cliui.IsTerminal(out), func() error {
				return env.Client.RenameSession(cmd.Context(), args[0], args[1])
			})
		},
	}
	cmdutil.AddTargetFlag(cmd, &target)
	return cmd
}

func newDeleteCmd() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "delete <session>",
		Short: "Delete a session and its chats",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Resolve(cmd)
			if err != nil {
				return err
			}
			defer env.Sync()

			out := cmd.OutOrStdout()
			err = cliui.Step(out, "Deleting session "+args[0], cliui.IsTerminal(out), func() error {
				return env.Client.DeleteSession(cmd.Context(), args[0])
			})
			if err != nil {
				return err
			}

			state, err := env.State()
			if err != nil {
				return err
			}
			if strconv.FormatInt(state.SessionID, 10) == args[0] {
				state.SessionID, state.ChatID = 0, 0
				return env.SaveState(state)
			}
			return nil
		},
	}
	cmdutil.AddTargetFlag(cmd, &target)
	return cmd
}

// newSubscribeCmd builds "subscribe" or, when subscribe is false,
// "unsubscribe".
func newSubscribeCmd(subscribe bool) *cobra.Command {
	var target string

	use, short, verb := "subscribe", "Subscribe to another user's session", "Subscribing to"
	if !subscribe {
		use, short, verb = "unsubscribe", "Unsubscribe from a session", "Unsubscribing from"
	}

	cmd := &cobra.Command{
		Use:   use + " <session>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Resolve(cmd)
			if err != nil {
				return err
			}
			defer env.Sync()

			state, err := env.RequireUser()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			return cliui.Step(out, verb+" session "+args[0], cliui.IsTerminal(out), func() error {
				if subscribe {
					return env.Client.Subscribe(cmd.Context(), state.UserID, args[0])
				}
				return env.Client.Unsubscribe(cmd.Context(), state.UserID, args[0])
			})
		},
	}
	cmdutil.AddTargetFlag(cmd, &target)
	return cmd
}
