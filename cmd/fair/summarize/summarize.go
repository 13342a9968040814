// Package summarizecmder provides the summarize command.
package summarizecmder

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/burnes-center/fair/cmd/fair/cmdutil"
	"github.com/burnes-center/fair/pkg/client"
)

const summarizeLongDesc string = `Summarize an interview.

Uploads the transcript and the recording, plus any additional context
files, and prints the summary as the backend writes it. The new session
becomes the current session for "fair revise" and "fair chat".

Examples:
  fair summarize --transcript interview.txt --recording interview.mp3
  fair summarize -T interview.txt -R interview.mp3 -c notes.md -c brief.pdf
  fair summarize -T interview.txt -R interview.mp3 --render`

const summarizeShortDesc string = "Summarize an interview"

type summarizeCommander struct {
	target string
	files  client.SummarizeFiles
	render bool
}

func NewSummarizeCmd() *cobra.Command {
	cmder := &summarizeCommander{}

	cmd := &cobra.Command{
		Use:   "summarize",
		Short: summarizeShortDesc,
		Long:  summarizeLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := cmdutil.Resolve(cmd)
			if err != nil {
				return err
			}
			defer env.Sync()

			return cmder.run(cmd.Context(), env, cmdutil.NewStreamPrinter(cmd.OutOrStdout(), cmder.render))
		},
	}

	cmdutil.AddTargetFlag(cmd, &cmder.target)
	cmd.Flags().StringVarP(&cmder.files.Transcript, "transcript", "T", "", "Interview transcript file")
	cmd.Flags().StringVarP(&cmder.files.Recording, "recording", "R", "", "Interview recording file")
	cmd.Flags().StringArrayVarP(&cmder.files.AdditionalContext, "context", "c", nil, "Additional context file (repeatable)")
	cmd.Flags().BoolVar(&cmder.render, "render", false, "Render the finished summary as markdown")
	_ = cmd.MarkFlagRequired("transcript")
	_ = cmd.MarkFlagRequired("recording")

	return cmd
}

func (c *summarizeCommander) run(ctx context.Context, env *cmdutil.Env, p *cmdutil.StreamPrinter) error {
	state, err := env.RequireUser()
	if err != nil {
		return err
	}

	res, err := p.Run(env, func(h client.StreamHandler) (*client.StreamResult, error) {
		return env.Client.Summarize(ctx, state.UserID, c.files, h)
	})
	if err != nil {
		return err
	}
	if res.Meta == nil {
		return errors.New("the summary finished without a session id")
	}
	return nil
}
