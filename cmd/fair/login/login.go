// Package logincmder provides the login and logout commands.
package logincmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/burnes-center/fair/cmd/fair/cmdutil"
	"github.com/burnes-center/fair/pkg/cliui"
	"github.com/burnes-center/fair/pkg/client"
	"github.com/burnes-center/fair/pkg/dotdir"
)

const loginLongDesc string = `Log in to FAIR.

The backend creates unknown users on first login. The user id is stored in
state.json in the .fair/ directory and used by later commands.

Examples:
  fair login ada
  echo ada | fair login
  fair login ada --target http://fair.example.org`

const loginShortDesc string = "Log in to FAIR"

type loginCommander struct {
	target string
}

func NewLoginCmd() *cobra.Command {
	cmder := &loginCommander{}

	cmd := &cobra.Command{
		Use:   "login [username]",
		Short: loginShortDesc,
		Long:  loginLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Resolve(cmd)
			if err != nil {
				return err
			}
			defer env.Sync()

			username := ""
			if len(args) > 0 {
				username = args[0]
			} else {
				username, err = readUsername(cmd.InOrStdin(), cmd.OutOrStdout())
				if err != nil {
					return err
				}
			}

			return cmder.run(cmd.Context(), env, cmd.OutOrStdout(), username)
		},
	}

	cmdutil.AddTargetFlag(cmd, &cmder.target)

	return cmd
}

func (c *loginCommander) run(ctx context.Context, env *cmdutil.Env, out io.Writer, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return errors.New("username cannot be empty")
	}

	var res *client.LoginResult
	err := cliui.Step(out, "Logging in as "+cliui.NameStyle.Render(username), cliui.IsTerminal(out), func() error {
		var err error
		res, err = env.Client.Login(ctx, username)
		return err
	})
	if err != nil {
		return err
	}

	state := &dotdir.State{
		UserID:   strconv.FormatInt(res.UserID, 10),
		Username: username,
	}
	if err := env.SaveState(state); err != nil {
		return err
	}

	env.Logger.Debug("stored login", zap.String("user_id", state.UserID))
	fmt.Fprintf(out, "  %s %s\n", cliui.DimStyle.Render("●"), cliui.DimStyle.Render(res.Message))
	return nil
}

// readUsername prompts on a terminal, otherwise it reads the first line
// of in.
func readUsername(in io.Reader, out io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(out, "Username: ")
	}

	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return "", errors.New("no username given")
}

const logoutShortDesc string = "Forget the stored login"

func NewLogoutCmd() *cobra.Command {
	var (
		target        string
		deleteAccount bool
	)

	cmd := &cobra.Command{
		Use:   "logout",
		Short: logoutShortDesc,
		Long: `Forget the stored login, session and chat.

Removes state.json from the .fair/ directory. With --delete-account the
user and everything it owns is deleted from the backend first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := cmdutil.Resolve(cmd)
			if err != nil {
				return err
			}
			defer env.Sync()

			out := cmd.OutOrStdout()
			if deleteAccount {
				state, err := env.RequireUser()
				if err != nil {
					return err
				}
				if err := cliui.Step(out, "Deleting user "+cliui.NameStyle.Render(state.Username), cliui.IsTerminal(out), func() error {
					return env.Client.DeleteUser(cmd.Context(), state.UserID)
				}); err != nil {
					return err
				}
			}

			if err := env.Dotdir.ClearState(env.ConfigDir); err != nil {
				return err
			}
			fmt.Fprintf(out, "  %s Logged out\n", cliui.SuccessMark)
			return nil
		},
	}

	cmdutil.AddTargetFlag(cmd, &target)
	cmd.Flags().BoolVar(&deleteAccount, "delete-account", false, "Delete the user from the backend before logging out")

	return cmd
}
