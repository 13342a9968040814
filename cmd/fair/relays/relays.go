// Package relayscmder provides the relays command for inspecting relay
// records kept by the gateway.
package relayscmder

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/burnes-center/fair/cmd/fair/cmdutil"
	"github.com/burnes-center/fair/pkg/cliui"
	"github.com/burnes-center/fair/pkg/relay"
	"github.com/burnes-center/fair/pkg/storage"
)

const relaysLongDesc string = `List the relay records kept by the gateway.

Every streamed summary, revision and chat reply leaves one record with its
outcome, byte counts and the session metadata it carried. Records are
listed newest first.

Examples:
  fair relays
  fair relays --session 12 --endpoint chat
  fair relays show 3f1c2a7e-...`

const relaysShortDesc string = "List relay records"

func NewRelaysCmd() *cobra.Command {
	var (
		target    string
		sessionID string
		endpoint  string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "relays",
		Short: relaysShortDesc,
		Long:  relaysLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := cmdutil.Resolve(cmd)
			if err != nil {
				return err
			}
			defer env.Sync()

			list, err := env.Client.ListRelays(cmd.Context(), sessionID, endpoint, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if list.Count == 0 {
				fmt.Fprintf(out, "  %s No relays recorded.\n", cliui.DimStyle.Render("●"))
				return nil
			}

			rows := make([][]string, 0, len(list.Relays))
			for _, r := range list.Relays {
				rows = append(rows, []string{
					stateMark(r.State),
					r.ID,
					r.Endpoint,
					r.SessionID,
					strconv.FormatInt(r.BytesOut, 10),
					cliui.FormatDuration(r.CompletedAt.Sub(r.StartedAt)),
					r.StartedAt.Local().Format(time.DateTime),
				})
			}
			return cliui.Table(out, []string{"", "ID", "ENDPOINT", "SESSION", "BYTES", "TOOK", "STARTED"}, rows, 40)
		},
	}

	cmdutil.AddTargetFlag(cmd, &target)
	cmd.Flags().StringVar(&sessionID, "session", "", "Only relays of this session")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Only relays of this endpoint (summarize, revise, chat)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of relays (default: gateway default)")

	cmd.AddCommand(newShowCmd())

	return cmd
}

func stateMark(state string) string {
	if state == string(relay.StateComplete) {
		return cliui.SuccessMark
	}
	return cliui.FailMark
}

func newShowCmd() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "show <relay>",
		Short: "Print one relay record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Resolve(cmd)
			if err != nil {
				return err
			}
			defer env.Sync()

			rec, err := env.Client.GetRelay(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printRecord(cmd, rec)
		},
	}

	cmdutil.AddTargetFlag(cmd, &target)
	return cmd
}

func printRecord(cmd *cobra.Command, rec *storage.Record) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}
