// Package revisecmder provides the revise command.
package revisecmder

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/burnes-center/fair/cmd/fair/cmdutil"
	"github.com/burnes-center/fair/pkg/client"
)

const reviseLongDesc string = `Revise the summary of a session.

Sends the revision request and prints the revised summary as the backend
writes it. Without --session the current session is revised.

Examples:
  fair revise "Make the key findings shorter"
  fair revise --session 12 "Add a section on pricing"`

const reviseShortDesc string = "Revise a session summary"

type reviseCommander struct {
	target    string
	sessionID string
	render    bool
}

func NewReviseCmd() *cobra.Command {
	cmder := &reviseCommander{}

	cmd := &cobra.Command{
		Use:   "revise <request>",
		Short: reviseShortDesc,
		Long:  reviseLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Resolve(cmd)
			if err != nil {
				return err
			}
			defer env.Sync()

			return cmder.run(cmd.Context(), env, cmdutil.NewStreamPrinter(cmd.OutOrStdout(), cmder.render), args[0])
		},
	}

	cmdutil.AddTargetFlag(cmd, &cmder.target)
	cmd.Flags().StringVar(&cmder.sessionID, "session", "", "Session to revise (default: current session)")
	cmd.Flags().BoolVar(&cmder.render, "render", false, "Render the finished summary as markdown")

	return cmd
}

func (c *reviseCommander) run(ctx context.Context, env *cmdutil.Env, p *cmdutil.StreamPrinter, revision string) error {
	sessionID, err := env.SessionArg([]string{c.sessionID})
	if err != nil {
		return err
	}

	_, err = p.Run(env, func(h client.StreamHandler) (*client.StreamResult, error) {
		return env.Client.Revise(ctx, sessionID, revision, h)
	})
	return err
}
