package cmdutil

import (
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/burnes-center/fair/pkg/cliui"
	"github.com/burnes-center/fair/pkg/client"
	"github.com/burnes-center/fair/pkg/notify"
	"github.com/burnes-center/fair/pkg/relay"
)

// StreamCall starts one streaming request with the given handler.
type StreamCall func(h client.StreamHandler) (*client.StreamResult, error)

// StreamPrinter shows a streamed answer and keeps the CLI state in step
// with the session metadata it carries.
type StreamPrinter struct {
	Out io.Writer

	// Render buffers the answer and prints it as rendered markdown once
	// complete instead of echoing chunks as they arrive.
	Render bool

	Notices *notify.Queue
}

// NewStreamPrinter creates a StreamPrinter writing to out.
func NewStreamPrinter(out io.Writer, render bool) *StreamPrinter {
	return &StreamPrinter{Out: out, Render: render, Notices: notify.NewQueue(8)}
}

// Run performs call, then saves the last session and chat seen in the
// stream to the state. The partial answer stays on screen when the
// stream aborts.
func (p *StreamPrinter) Run(e *Env, call StreamCall) (*client.StreamResult, error) {
	var metas []*relay.Meta

	h := client.StreamHandler{
		OnMeta: func(m *relay.Meta) { metas = append(metas, m) },
	}
	if !p.Render {
		h.OnText = func(text string) { _, _ = io.WriteString(p.Out, text) }
	}

	res, err := call(h)

	if p.Render && res != nil && res.Text != "" {
		rendered, rerr := cliui.RenderMarkdown(p.Out, res.Text)
		if rerr != nil {
			e.Logger.Debug("rendering markdown", zap.Error(rerr))
		}
		_, _ = io.WriteString(p.Out, rendered)
	} else if res != nil && res.Text != "" {
		_, _ = io.WriteString(p.Out, "\n")
	}

	if len(metas) > 0 {
		if serr := p.remember(e, metas[len(metas)-1]); serr != nil {
			p.Notices.Push(notify.KindError, serr.Error(), 0)
		}
	}

	var streamErr *client.StreamError
	switch {
	case errors.As(err, &streamErr):
		p.Notices.Push(notify.KindError, "The response was interrupted: "+streamErr.Message, 0)
	case errors.Is(err, client.ErrTruncated):
		p.Notices.Push(notify.KindError, "The response ended early and may be incomplete.", 0)
	case err == nil && res != nil && res.RelayID != "":
		p.Notices.Push(notify.KindInfo, "relay "+res.RelayID, 0)
	}

	p.flush()
	return res, err
}

func (p *StreamPrinter) remember(e *Env, meta *relay.Meta) error {
	state, err := e.State()
	if err != nil {
		return err
	}

	if meta.SessionID != state.SessionID {
		p.Notices.Push(notify.KindSuccess, fmt.Sprintf("Now working in session %d", meta.SessionID), 0)
	}
	state.SessionID = meta.SessionID
	if meta.ChatID != 0 {
		state.ChatID = meta.ChatID
	}
	return e.SaveState(state)
}

// flush prints the notices that are still active.
func (p *StreamPrinter) flush() {
	now := time.Now()
	for _, n := range p.Notices.Active(now) {
		mark := cliui.DimStyle.Render("●")
		switch n.Kind {
		case notify.KindSuccess:
			mark = cliui.SuccessMark
		case notify.KindError:
			mark = cliui.FailMark
		}
		fmt.Fprintf(p.Out, "  %s %s\n", mark, cliui.DimStyle.Render(n.Message))
	}
	p.Notices.Prune(now.Add(notify.DefaultTTL))
}
