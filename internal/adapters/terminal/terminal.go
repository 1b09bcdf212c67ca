// Package terminal is a line-oriented front end: commands in, rendered views out.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dkeye/Wordbrain/internal/app/session"
	"github.com/dkeye/Wordbrain/internal/domain"
	"github.com/rs/zerolog/log"
)

type Session interface {
	Post(m session.Msg)
	State(ctx context.Context) (session.View, error)
	Subscribe(buffer int) (<-chan session.View, func())
	Topics(ctx context.Context) ([]domain.Topic, error)
}

type Terminal struct {
	session Session
	in      io.Reader
	out     io.Writer
	opts    Options
	timeout time.Duration

	last string
}

func New(s Session, in io.Reader, out io.Writer, opts Options) *Terminal {
	return &Terminal{session: s, in: in, out: out, opts: opts, timeout: 10 * time.Second}
}

// Run reads commands and renders views until ctx is done, input ends or the
// user quits. All output is written from this goroutine.
func (t *Terminal) Run(ctx context.Context) error {
	views, unsubscribe := t.session.Subscribe(1)
	defer unsubscribe()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(t.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	fmt.Fprintln(t.out, "Wordbrain. Type 'help' for commands.")
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			return err
		case v, ok := <-views:
			if !ok {
				views = nil
				continue
			}
			t.render(v)
		case line := <-lines:
			quit, err := t.exec(ctx, line)
			if err != nil {
				fmt.Fprintf(t.out, "%v\n", err)
			}
			if quit {
				return nil
			}
		}
	}
}

// render skips views that would print exactly what is already on screen.
func (t *Terminal) render(v session.View) {
	var b strings.Builder
	Render(&b, v, t.opts)
	if b.String() == t.last {
		return
	}
	t.last = b.String()
	io.WriteString(t.out, t.last)
}

func (t *Terminal) exec(ctx context.Context, line string) (bool, error) {
	cmd, err := Parse(line)
	if err != nil {
		if errors.Is(err, ErrUnknownCommand) {
			return false, fmt.Errorf("%v\n%s", err, Help)
		}
		return false, err
	}

	switch cmd.Action {
	case ActionPost:
		log.Debug().Str("module", "adapters.terminal").Type("msg", cmd.Msg).Msg("command")
		t.session.Post(cmd.Msg)
	case ActionTopics:
		ctx, cancel := context.WithTimeout(ctx, t.timeout)
		defer cancel()
		topics, err := t.session.Topics(ctx)
		if err != nil {
			return false, fmt.Errorf("topics: %s", domain.UserMessage(err, "Failed to load topics"))
		}
		for _, tp := range topics {
			if tp.Difficulty != "" {
				fmt.Fprintf(t.out, "  %s  %s (%s)\n", tp.ID, tp.Name, tp.Difficulty)
				continue
			}
			fmt.Fprintf(t.out, "  %s  %s\n", tp.ID, tp.Name)
		}
	case ActionState:
		ctx, cancel := context.WithTimeout(ctx, t.timeout)
		defer cancel()
		v, err := t.session.State(ctx)
		if err != nil {
			return false, err
		}
		Render(t.out, v, t.opts)
	case ActionHelp:
		fmt.Fprintln(t.out, Help)
	case ActionQuit:
		return true, nil
	}
	return false, nil
}
