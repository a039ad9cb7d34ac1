package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/courselet"
	"github.com/aretw0/courselet/internal/logging"
	"github.com/aretw0/courselet/pkg/domain"
)

// Engine is the part of courselet.Engine the runner drives.
type Engine interface {
	Dispatch(ctx context.Context, req domain.Request, event string, extra domain.Extra) (domain.Target, error)
	PushFlow(ctx context.Context, req domain.Request, spec string, seed *domain.State) (domain.Target, error)
	PopFlow(ctx context.Context, req domain.Request) (domain.Target, error)
	Render(ctx context.Context, req domain.Request) (domain.Target, error)
	Inspect(ctx context.Context, key string) (*courselet.Snapshot, error)
}

// ContentRenderer transforms markdown before it is written, e.g. to ANSI.
type ContentRenderer func(string) (string, error)

// Runner reads commands and applies them to one session.
type Runner struct {
	engine   Engine
	req      domain.Request
	in       io.Reader
	out      io.Writer
	renderer ContentRenderer
	logger   *slog.Logger
	maxInput int
	prompt   string

	lines     chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// New creates a Runner reading stdin and writing stdout.
func New(engine Engine, req domain.Request, opts ...Option) *Runner {
	r := &Runner{
		engine:   engine,
		req:      req,
		in:       os.Stdin,
		out:      os.Stdout,
		logger:   logging.NewNop(),
		maxInput: DefaultMaxInputSize,
		prompt:   "> ",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run renders the current target and then applies commands until :quit, end
// of input or ctx is done. Reaching the end of input is not an error.
func (r *Runner) Run(ctx context.Context) error {
	target, err := r.engine.Render(ctx, r.req)
	if err != nil {
		return fmt.Errorf("render error: %w", err)
	}
	r.show(target)

	for {
		line, err := r.read(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		cmd, err := Parse(line)
		if err != nil {
			fmt.Fprintf(r.out, "Error: %v\n", err)
			continue
		}
		if cmd.Kind == KindQuit {
			return nil
		}
		if err := r.apply(ctx, cmd); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.logger.Debug("command failed", "line", line, "err", err)
			fmt.Fprintf(r.out, "Error: %v\n", err)
		}
	}
}

func (r *Runner) apply(ctx context.Context, cmd Command) error {
	var (
		target domain.Target
		err    error
	)
	switch cmd.Kind {
	case KindHelp:
		fmt.Fprint(r.out, helpText)
		return nil
	case KindStack:
		return r.stack(ctx)
	case KindPop:
		target, err = r.engine.PopFlow(ctx, r.req)
	case KindPush:
		var seed *domain.State
		if seed, err = domain.SeedFromMap(cmd.Args); err != nil {
			return err
		}
		target, err = r.engine.PushFlow(ctx, r.req, cmd.Name, seed)
	default:
		target, err = r.engine.Dispatch(ctx, r.req, cmd.Name, domain.Extra(cmd.Args))
	}
	if err != nil {
		return err
	}
	r.show(target)
	return nil
}

func (r *Runner) stack(ctx context.Context) error {
	snap, err := r.engine.Inspect(ctx, r.req.SessionKey)
	if err != nil {
		return err
	}
	for i := len(snap.Frames) - 1; i >= 0; i-- {
		f := snap.Frames[i]
		fmt.Fprintf(r.out, "  %d  %s:%s", i, f.Spec, f.Node)
		for _, k := range sortedKeys(f.State) {
			fmt.Fprintf(r.out, " %s=%s", k, f.State[k])
		}
		fmt.Fprintln(r.out)
	}
	return nil
}

func (r *Runner) show(t domain.Target) {
	md := fmt.Sprintf("**%s** · %s → `%s`", t.Spec, t.Node, t.URL)
	if r.renderer != nil {
		if rendered, err := r.renderer(md); err == nil {
			md = rendered
		}
	}
	fmt.Fprintln(r.out, strings.TrimSpace(md))
}

func (r *Runner) read(ctx context.Context) (string, error) {
	r.startOnce.Do(func() {
		r.lines = make(chan inputResult)
		go r.pump()
	})

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
			fmt.Fprint(r.out, r.prompt)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-r.lines:
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				return "", res.err
			}
			clean, err := SanitizeInput(strings.TrimSpace(res.text), r.maxInput)
			if err != nil {
				fmt.Fprintf(r.out, "Error: %v. Please try again.\n", err)
				continue
			}
			return clean, nil
		}
	}
}

// pump feeds lines to read so a blocked Read never holds up cancellation.
func (r *Runner) pump() {
	reader := bufio.NewReader(r.in)
	for {
		text, err := reader.ReadString('\n')
		if text != "" {
			r.lines <- inputResult{text: text}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				r.lines <- inputResult{err: err}
			}
			close(r.lines)
			return
		}
	}
}
