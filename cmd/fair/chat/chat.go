// Package chatcmder provides the chat command for asking questions about
// an interview session.
package chatcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/burnes-center/fair/cmd/fair/cmdutil"
	"github.com/burnes-center/fair/pkg/cliui"
	"github.com/burnes-center/fair/pkg/client"
)

var (
	userPrompt      = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")
	assistantPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("fair> ")
)

const chatLongDesc string = `Chat about an interview session.

With a message argument, sends it and prints the reply. Without one, starts
an interactive chat; type /exit or press Ctrl+D to quit.

Replies go to the chat given by --chat, otherwise to the chat of the last
reply in this session, otherwise to the session's default chat.

Examples:
  fair chat "What did the interviewee say about onboarding?"
  fair chat --session 12 --chat 3 "Summarize the pricing concerns"
  fair chat`

const chatShortDesc string = "Chat about an interview session"

type chatCommander struct {
	target    string
	sessionID string
	chatID    int64
	render    bool
}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Resolve(cmd)
			if err != nil {
				return err
			}
			defer env.Sync()

			if err := cmder.resolve(env); err != nil {
				return err
			}

			p := cmdutil.NewStreamPrinter(cmd.OutOrStdout(), cmder.render)
			if len(args) == 1 {
				return cmder.send(cmd.Context(), env, p, args[0])
			}
			return cmder.interactive(cmd.Context(), env, p, cmd.InOrStdin())
		},
	}

	cmdutil.AddTargetFlag(cmd, &cmder.target)
	cmd.Flags().StringVar(&cmder.sessionID, "session", "", "Session to chat about (default: current session)")
	cmd.Flags().Int64Var(&cmder.chatID, "chat", 0, "Chat thread to continue")
	cmd.Flags().BoolVar(&cmder.render, "render", false, "Render replies as markdown")

	return cmd
}

// resolve fills in the session and, when it is the current session, the
// chat from the stored state.
func (c *chatCommander) resolve(env *cmdutil.Env) error {
	state, err := env.State()
	if err != nil {
		return err
	}

	if c.sessionID == "" {
		if state.SessionID == 0 {
			return errors.New("no session given and no current session, pass --session")
		}
		c.sessionID = strconv.FormatInt(state.SessionID, 10)
	}

	if c.chatID == 0 && c.sessionID == strconv.FormatInt(state.SessionID, 10) {
		c.chatID = state.ChatID
	}
	return nil
}

func (c *chatCommander) send(ctx context.Context, env *cmdutil.Env, p *cmdutil.StreamPrinter, message string) error {
	res, err := p.Run(env, func(h client.StreamHandler) (*client.StreamResult, error) {
		return env.Client.Chat(ctx, c.sessionID, message, c.chatID, h)
	})
	if res != nil && res.Meta != nil && res.Meta.ChatID != 0 {
		c.chatID = res.Meta.ChatID
	}
	return err
}

func (c *chatCommander) interactive(ctx context.Context, env *cmdutil.Env, p *cmdutil.StreamPrinter, in io.Reader) error {
	fmt.Fprintf(p.Out, "\n  %s %s\n", cliui.KeyStyle.Render("Session:"), cliui.NameStyle.Render(c.sessionID))
	fmt.Fprintf(p.Out, "  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /exit or Ctrl+D to quit."))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(p.Out, userPrompt)
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/exit" {
			break
		}

		fmt.Fprint(p.Out, assistantPrompt)
		if err := c.send(ctx, env, p, input); err != nil {
			fmt.Fprintf(p.Out, "  %s %v\n", cliui.FailMark, err)
		}
		fmt.Fprintln(p.Out)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	fmt.Fprintln(p.Out)
	return nil
}
