package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	orchestratorx "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/agents/orchestrator"
	contractx "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/contract"
	enginex "github.com/tanpawarit/Chative-Marketplace-Assistant/agent/engine"
)

const (
	msgGreeting   = "Welcome to the marketplace assistant! Please enter your 6-digit pincode:"
	msgRetryCode  = "Would you like to try another pincode? (yes/no)"
	msgEnterCode  = "Please enter your 6-digit pincode:"
	msgGoodbye    = "Thank you for shopping with us. Goodbye!"
	msgTurnFailed = "Sorry, something went wrong. Please try again."
	msgExpired    = "Your session has expired. Please enter your 6-digit pincode:"

	prompt = "> "
)

var exitTokens = map[string]struct{}{
	"exit": {},
	"quit": {},
	"bye":  {},
}

// Session is the conversation surface the console drives.
type Session interface {
	StartSession(ctx context.Context, sessionID string, code string) (enginex.OpenStatus, contractx.Response, error)
	HandleMessage(ctx context.Context, sessionID string, text string) (contractx.Response, error)
	EndSession(ctx context.Context, sessionID string) error
}

type Option func(*Console)

// WithSessionID fixes the session id instead of generating one.
func WithSessionID(id string) Option {
	return func(c *Console) {
		c.sessionID = id
	}
}

type Console struct {
	session   Session
	in        io.Reader
	lines     <-chan string
	out       io.Writer
	sessionID string
}

func New(session Session, in io.Reader, out io.Writer, opts ...Option) *Console {
	c := &Console{
		session:   session,
		in:        in,
		out:       out,
		sessionID: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Console) SessionID() string {
	return c.sessionID
}

// Run reads the pincode, then one line per turn until an exit token, EOF or
// ctx cancellation.
func (c *Console) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	c.lines = scanLines(c.in, done)

	started, err := c.open(ctx, msgGreeting)
	if err != nil || !started {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return c.end(ctx)
		}

		line, ok := c.readLine(ctx, prompt)
		if !ok {
			return c.end(ctx)
		}
		if line == "" {
			continue
		}
		if isExit(line) {
			c.println(msgGoodbye)
			return c.end(ctx)
		}

		resp, err := c.session.HandleMessage(ctx, c.sessionID, line)
		if errors.Is(err, orchestratorx.ErrSessionNotStarted) {
			log.Info().Str("session_id", c.sessionID).Msg("session expired, asking for pincode again")
			started, err := c.open(ctx, msgExpired)
			if err != nil || !started {
				return err
			}
			continue
		}
		if err != nil {
			log.Error().Err(err).Str("session_id", c.sessionID).Msg("handle message failed")
			c.println(msgTurnFailed)
			continue
		}
		c.println(resp.Text)
	}
}

func (c *Console) open(ctx context.Context, greeting string) (bool, error) {
	c.println(greeting)

	for {
		if err := ctx.Err(); err != nil {
			return false, nil
		}

		code, ok := c.readLine(ctx, prompt)
		if !ok {
			return false, nil
		}
		if isExit(code) {
			c.println(msgGoodbye)
			return false, nil
		}

		status, resp, err := c.session.StartSession(ctx, c.sessionID, code)
		if err != nil {
			return false, fmt.Errorf("start session: %w", err)
		}
		c.println(resp.Text)

		switch status {
		case enginex.OpenReady:
			return true, nil
		case enginex.OpenInvalidFormat:
			continue
		}

		answer, ok := c.readLine(ctx, msgRetryCode+"\n"+prompt)
		if !ok || !isYes(answer) {
			c.println(msgGoodbye)
			return false, nil
		}
		c.println(msgEnterCode)
	}
}

func (c *Console) end(ctx context.Context) error {
	if err := c.session.EndSession(context.WithoutCancel(ctx), c.sessionID); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

// readLine returns false on EOF or when ctx is cancelled while waiting.
func (c *Console) readLine(ctx context.Context, p string) (string, bool) {
	fmt.Fprint(c.out, p)
	select {
	case line, ok := <-c.lines:
		if !ok {
			return "", false
		}
		return strings.TrimSpace(line), true
	case <-ctx.Done():
		c.println("")
		return "", false
	}
}

// scanLines feeds lines from r until EOF or until done is closed. A read
// already blocked in r only returns once r does.
func scanLines(r io.Reader, done <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		if err := scanner.Err(); err != nil {
			log.Warn().Err(err).Msg("console input failed")
		}
	}()
	return lines
}

func (c *Console) println(text string) {
	fmt.Fprintln(c.out, text)
}

func isExit(text string) bool {
	_, ok := exitTokens[strings.ToLower(strings.TrimSpace(text))]
	return ok
}

func isYes(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "yes", "y":
		return true
	default:
		return false
	}
}
