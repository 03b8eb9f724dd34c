package console

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"charm.land/lipgloss/v2"
	"github.com/robfig/cron/v3"

	"tourdesk/internal/admin"
	"tourdesk/internal/client"
	"tourdesk/internal/config"
	"tourdesk/internal/dispatch"
	"tourdesk/internal/events"
	"tourdesk/internal/resources"
	"tourdesk/internal/session"
	logger "tourdesk/internal/utils/logger"
)

var log = logger.New("CONSOLE")

// Console is the interactive admin shell. One screen is active at a time;
// commands run on the caller's goroutine, only the watch job runs on cron's.
type Console struct {
	cfg      *config.Config
	api      *client.Client
	sessions *session.Manager
	bus      *events.EventBus

	in          *bufio.Reader
	out         io.Writer
	interactive bool

	mu       sync.Mutex // guards out, screen and reported
	screen   admin.Screen
	unsub    func()
	reported bool

	cron    *cron.Cron
	watchID cron.EntryID
	watched string
}

type Option func(*Console)

// WithTerminal marks input as a real terminal so secrets are read unechoed
func WithTerminal() Option {
	return func(c *Console) {
		c.interactive = true
	}
}

func WithBus(bus *events.EventBus) Option {
	return func(c *Console) {
		c.bus = bus
	}
}

func New(cfg *config.Config, api *client.Client, sessions *session.Manager, in io.Reader, out io.Writer, opts ...Option) *Console {
	c := &Console{
		cfg:      cfg,
		api:      api,
		sessions: sessions,
		in:       bufio.NewReader(in),
		out:      out,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Console) printf(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = lipgloss.Fprintf(c.out, format, args...)
}

func (c *Console) prompt() string {
	name := "tourdesk"
	c.mu.Lock()
	if c.screen != nil {
		name += "/" + c.screen.Name()
	}
	c.mu.Unlock()
	if s, err := c.sessions.Current(); err == nil {
		name = s.User.Email + "@" + name
	}
	return titleStyle.Render(name) + "> "
}

// Run reads commands until exit, end of input or ctx is done
func (c *Console) Run(ctx context.Context) error {
	if err := c.sessions.Init(ctx); err != nil {
		log.Warn("Continuing without a stored session: %v", err)
	}
	defer c.Close()

	c.printf("%s\n", hintStyle.Render("Type help for commands."))
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		c.printf("%s", c.prompt())
		line, err := readLine(c.in)
		if errors.Is(err, ErrInputClosed) {
			c.printf("\n")
			return nil
		}
		if err != nil {
			return err
		}
		quit, err := c.Exec(ctx, line)
		if err != nil {
			c.report(err)
		}
		if quit {
			c.printf("Bye!\n")
			return nil
		}
	}
}

// report prints a command error unless the dispatcher already showed one
func (c *Console) report(err error) {
	c.mu.Lock()
	shown := c.reported
	c.mu.Unlock()
	if shown || errors.Is(err, ErrInputClosed) {
		return
	}
	c.printf("%s\n", errorStyle.Render("✘ "+describe(err)))
}

func describe(err error) string {
	if errors.Is(err, session.ErrNoSession) || errors.Is(err, session.ErrExpired) {
		return err.Error() + " (type login)"
	}
	return dispatch.Describe(err)
}

// Exec runs one command line. It reports whether the console should exit.
func (c *Console) Exec(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	c.mu.Lock()
	c.reported = false
	c.mu.Unlock()

	name, args := strings.ToLower(fields[0]), fields[1:]
	cmd, ok := lookup(name)
	if !ok {
		return false, errUnknownCommand(name)
	}
	if cmd.name == "exit" {
		return true, nil
	}
	if err := cmd.checkArgs(args); err != nil {
		return false, err
	}
	return false, cmd.run(ctx, c, args)
}

// current returns the active screen or an error telling the user to pick one
func (c *Console) current() (admin.Screen, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.screen == nil {
		return nil, errNoScreen
	}
	return c.screen, nil
}

func (c *Console) options() resources.Options {
	deps := admin.Deps{
		Notify:           c,
		Bus:              c.bus,
		KeepStaleOnError: true,
	}
	if c.cfg.Console.ConfirmWrite {
		deps.Confirm = c
	}
	return resources.Options{PageSize: c.cfg.Console.PageSize, Deps: deps}
}

// switchTo closes the active screen and opens the named one
func (c *Console) switchTo(ctx context.Context, name string) (admin.Screen, error) {
	next, err := resources.Open(name, c.api, c.options())
	if err != nil {
		return nil, err
	}
	c.stopWatch()

	c.mu.Lock()
	prev, unsub := c.screen, c.unsub
	c.screen = next
	c.unsub = next.Subscribe(func() {
		log.Debug("%s changed", next.Name())
	})
	c.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	if prev != nil {
		prev.Close()
	}
	return next, next.Refresh(ctx)
}

func (c *Console) show(s admin.Screen) {
	c.printf("%s\n", renderFrame(s.Render(), s.Columns()))
}

// Close stops the watch job and the active screen
func (c *Console) Close() {
	c.stopWatch()
	c.mu.Lock()
	s, unsub := c.screen, c.unsub
	c.screen, c.unsub = nil, nil
	c.mu.Unlock()
	if unsub != nil {
		unsub()
	}
	if s != nil {
		s.Close()
	}
}
