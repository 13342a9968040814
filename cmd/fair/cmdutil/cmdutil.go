// Package cmdutil holds what the gateway client commands share: resolving
// the gateway target, building a client and loading the CLI state.
package cmdutil

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/burnes-center/fair/pkg/client"
	"github.com/burnes-center/fair/pkg/config"
	"github.com/burnes-center/fair/pkg/dotdir"
	"github.com/burnes-center/fair/pkg/logger"
)

// ErrNotLoggedIn is returned by commands that act on behalf of a user when
// no login is stored.
var ErrNotLoggedIn = errors.New(`not logged in, run "fair login" first`)

// Env is the resolved environment of a client command.
type Env struct {
	ConfigDir string
	Target    string
	Debug     bool

	Logger *zap.Logger
	Client *client.Client
	Dotdir *dotdir.Manager
}

// AddTargetFlag registers --target on cmd.
func AddTargetFlag(cmd *cobra.Command, target *string) {
	config.AddStringFlag(cmd, config.Flags, config.FlagTarget, target)
}

// Resolve builds an Env for cmd. The gateway target follows the usual
// precedence of flag, FAIR_CLIENT_TARGET, config.toml and default.
func Resolve(cmd *cobra.Command) (*Env, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")
	debug, _ := cmd.Flags().GetBool("debug")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagTarget})
	cfg := config.FromViper(v)

	// Client commands print to the terminal; keep logs on stderr.
	log := logger.NewLoggerWithWriters(debug, cmd.ErrOrStderr())

	return &Env{
		ConfigDir: configDir,
		Target:    cfg.Client.Target,
		Debug:     debug,
		Logger:    log,
		Client:    client.New(cfg.Client.Target, client.WithLogger(log)),
		Dotdir:    dotdir.NewManager(),
	}, nil
}

// State returns the stored CLI state, or an empty one.
func (e *Env) State() (*dotdir.State, error) {
	state, err := e.Dotdir.LoadState(e.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("loading state: %w", err)
	}
	if state == nil {
		state = &dotdir.State{}
	}
	return state, nil
}

// RequireUser returns the stored state of a logged in user.
func (e *Env) RequireUser() (*dotdir.State, error) {
	state, err := e.State()
	if err != nil {
		return nil, err
	}
	if state.UserID == "" {
		return nil, ErrNotLoggedIn
	}
	return state, nil
}

// SaveState persists state.
func (e *Env) SaveState(state *dotdir.State) error {
	return e.Dotdir.SaveState(state, e.ConfigDir)
}

// SessionArg picks the session a command acts on: the first positional
// argument when present, otherwise the current session from the state.
func (e *Env) SessionArg(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}

	state, err := e.State()
	if err != nil {
		return "", err
	}
	if state.SessionID == 0 {
		return "", errors.New("no session given and no current session, pass a session id")
	}
	return strconv.FormatInt(state.SessionID, 10), nil
}

// Sync flushes the logger.
func (e *Env) Sync() {
	_ = e.Logger.Sync()
}
