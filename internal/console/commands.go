package console

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"tourdesk/internal/client"
	"tourdesk/internal/resources"
	"tourdesk/internal/session"
	sorting "tourdesk/internal/table"
)

var errNoScreen = errors.New("no resource selected (type: use <resource>)")

func errUnknownCommand(name string) error {
	return fmt.Errorf("unknown command %q (type help)", name)
}

type command struct {
	name    string
	usage   string
	summary string
	minArgs int
	maxArgs int
	run     func(ctx context.Context, c *Console, args []string) error
}

func (cmd command) checkArgs(args []string) error {
	if len(args) < cmd.minArgs || (cmd.maxArgs >= 0 && len(args) > cmd.maxArgs) {
		return fmt.Errorf("usage: %s", cmd.usage)
	}
	return nil
}

var commands []command

func init() {
	commands = []command{
		{"help", "help", "show this list", 0, 0, runHelp},
		{"login", "login [email]", "sign in to the backend", 0, 1, runLogin},
		{"logout", "logout", "end the session", 0, 0, runLogout},
		{"whoami", "whoami", "show the signed in user", 0, 0, runWhoami},
		{"resources", "resources", "list the resources you can manage", 0, 0, runResources},
		{"use", "use <resource>", "open a resource list", 1, 1, runUse},
		{"refresh", "refresh", "reload the list from the backend", 0, 0, runRefresh},
		{"list", "list", "show the list again", 0, 0, runList},
		{"sort", "sort <column> [asc|desc|none]", "order the list by a column", 1, 2, runSort},
		{"page", "page <n>", "go to page n", 1, 1, runPage},
		{"size", "size <n>", "show n rows per page", 1, 1, runSize},
		{"select", "select <id|all|none>", "toggle row selection", 1, 1, runSelect},
		{"expand", "expand <id>", "toggle a row's details", 1, 1, runExpand},
		{"new", "new", "create a record", 0, 0, runNew},
		{"edit", "edit <id>", "edit a record", 1, 1, runEdit},
		{"delete", "delete <id|selected>", "delete a record or the selection", 1, 1, runDelete},
		{"do", "do <action> <id>", "run a row action", 2, 2, runDo},
		{"upload", "upload <file>", "upload a file", 1, 1, runUpload},
		{"watch", "watch [schedule]", "refresh the list on a schedule", 0, -1, runWatch},
		{"unwatch", "unwatch", "stop refreshing on a schedule", 0, 0, runUnwatch},
		{"exit", "exit", "leave the console", 0, -1, nil},
	}
}

func lookup(name string) (command, bool) {
	if name == "quit" || name == "q" {
		name = "exit"
	}
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd, true
		}
	}
	return command{}, false
}

func parseID(raw string) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimPrefix(raw, "#"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a record id", raw)
	}
	return id, nil
}

func runHelp(ctx context.Context, c *Console, args []string) error {
	rows := make([][]string, 0, len(commands))
	for _, cmd := range commands {
		rows = append(rows, []string{cmd.usage, cmd.summary})
	}
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return labelStyle.PaddingRight(2)
			}
			return hintStyle
		})
	c.printf("%s\n", t.Render())
	return nil
}

func runLogin(ctx context.Context, c *Console, args []string) error {
	var (
		email string
		err   error
	)
	if len(args) == 1 {
		email = args[0]
	} else if email, err = c.ask("Email: "); err != nil {
		return err
	}
	if email == "" {
		return errors.New("email is required")
	}
	password, err := c.askSecret("Password: ")
	if err != nil {
		return err
	}

	s, err := c.sessions.Login(ctx, c.api, email, password)
	if err != nil {
		return err
	}
	c.printf("%s\n", successStyle.Render(fmt.Sprintf("✔ Signed in as %s", userLine(s.User))))
	return nil
}

func userLine(u session.User) string {
	line := u.Email
	if u.Name != "" {
		line = u.Name + " <" + u.Email + ">"
	}
	if u.Role != "" {
		line += " (" + u.Role + ")"
	}
	return line
}

func runLogout(ctx context.Context, c *Console, args []string) error {
	err := c.sessions.Logout(ctx, c.api)
	if errors.Is(err, session.ErrNoSession) {
		return err
	}
	c.Close()
	if err != nil {
		c.printf("%s\n", warnStyle.Render("! Signed out locally; the backend did not confirm: "+describe(err)))
		return nil
	}
	c.printf("%s\n", successStyle.Render("✔ Signed out"))
	return nil
}

func runWhoami(ctx context.Context, c *Console, args []string) error {
	s, err := c.sessions.Current()
	if err != nil {
		return err
	}
	line := userLine(s.User)
	if !s.ExpiresAt.IsZero() {
		line += hintStyle.Render(" · expires " + s.ExpiresAt.Local().Format("2006-01-02 15:04"))
	}
	c.printf("%s\n", line)
	return nil
}

func runResources(ctx context.Context, c *Console, args []string) error {
	c.printf("%s\n", strings.Join(resources.Names(), "  "))
	return nil
}

func runUse(ctx context.Context, c *Console, args []string) error {
	s, err := c.switchTo(ctx, args[0])
	if s == nil {
		return err
	}
	c.show(s)
	return err
}

func runRefresh(ctx context.Context, c *Console, args []string) error {
	s, err := c.current()
	if err != nil {
		return err
	}
	err = s.Refresh(ctx)
	c.show(s)
	return err
}

func runList(ctx context.Context, c *Console, args []string) error {
	s, err := c.current()
	if err != nil {
		return err
	}
	c.show(s)
	return nil
}

func runSort(ctx context.Context, c *Console, args []string) error {
	s, err := c.current()
	if err != nil {
		return err
	}
	if len(args) == 2 {
		dir, err := sorting.ParseDirection(args[1])
		if err != nil {
			return err
		}
		if err := s.SortBy(args[0], dir); err != nil {
			return err
		}
	} else if _, err := s.Sort(args[0]); err != nil {
		return err
	}
	c.show(s)
	return nil
}

func runPage(ctx context.Context, c *Console, args []string) error {
	s, err := c.current()
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return fmt.Errorf("%q is not a page number", args[0])
	}
	if err := s.GoToPage(ctx, n-1); err != nil {
		return err
	}
	c.show(s)
	return nil
}

func runSize(ctx context.Context, c *Console, args []string) error {
	s, err := c.current()
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("%q is not a page size", args[0])
	}
	if err := s.SetPageSize(ctx, n); err != nil {
		return err
	}
	c.show(s)
	return nil
}

func runSelect(ctx context.Context, c *Console, args []string) error {
	s, err := c.current()
	if err != nil {
		return err
	}
	// selection applies to the rows as last derived
	s.Render()
	switch strings.ToLower(args[0]) {
	case "all":
		s.SelectAll()
	case "none":
		s.ClearSelection()
	default:
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := s.Select(id); err != nil {
			return err
		}
	}
	c.show(s)
	if n := len(s.Selected()); n > 0 {
		c.printf("%s\n", hintStyle.Render(fmt.Sprintf("%d selected", n)))
	}
	return nil
}

func runExpand(ctx context.Context, c *Console, args []string) error {
	s, err := c.current()
	if err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	s.Render()
	if _, err := s.Expand(id); err != nil {
		return err
	}
	c.show(s)
	return nil
}

func runNew(ctx context.Context, c *Console, args []string) error {
	s, err := c.current()
	if err != nil {
		return err
	}
	c.printf("%s\n", titleStyle.Render("New "+strings.TrimSuffix(s.Title(), "s")))
	if err := s.Create(ctx, fieldPrompter{c: c}); err != nil {
		return err
	}
	c.show(s)
	return nil
}

func runEdit(ctx context.Context, c *Console, args []string) error {
	s, err := c.current()
	if err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	c.printf("%s\n", titleStyle.Render(fmt.Sprintf("Edit #%d", id)))
	if err := s.Edit(ctx, id, fieldPrompter{c: c}); err != nil {
		return err
	}
	c.show(s)
	return nil
}

func runDelete(ctx context.Context, c *Console, args []string) error {
	s, err := c.current()
	if err != nil {
		return err
	}
	if strings.EqualFold(args[0], "selected") {
		if len(s.Selected()) == 0 {
			return errors.New("nothing selected")
		}
		if _, err := s.DeleteSelected(ctx); err != nil {
			return err
		}
		c.show(s)
		return nil
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := s.Delete(ctx, id); err != nil {
		return err
	}
	c.show(s)
	return nil
}

func runDo(ctx context.Context, c *Console, args []string) error {
	s, err := c.current()
	if err != nil {
		return err
	}
	id, err := parseID(args[1])
	if err != nil {
		return err
	}
	if err := s.Do(ctx, strings.ToLower(args[0]), id); err != nil {
		if len(s.Actions()) > 0 {
			names := make([]string, 0, len(s.Actions()))
			for _, a := range s.Actions() {
				names = append(names, a.Name)
			}
			return fmt.Errorf("%w (actions: %s)", err, strings.Join(names, ", "))
		}
		return err
	}
	c.show(s)
	return nil
}

func runUpload(ctx context.Context, c *Console, args []string) error {
	form := client.NewForm()
	if err := form.AddFilePath("file", args[0]); err != nil {
		return err
	}
	form.AddField("name", filepath.Base(args[0]))

	res, err := c.api.Upload(ctx, c.cfg.API.UploadPath, form)
	if err != nil {
		return err
	}
	where := res.URL
	if where == "" {
		where = res.Path
	}
	c.printf("%s\n", successStyle.Render(fmt.Sprintf("✔ Uploaded %s (%d bytes) → %s", filepath.Base(args[0]), res.Size, where)))
	return nil
}

func runWatch(ctx context.Context, c *Console, args []string) error {
	if _, err := c.current(); err != nil {
		return err
	}
	spec := strings.Join(args, " ")
	if spec == "" {
		spec = c.cfg.Console.RefreshSpec
	}
	if err := c.startWatch(spec); err != nil {
		return err
	}
	c.printf("%s\n", hintStyle.Render("Refreshing "+spec+" (type unwatch to stop)"))
	return nil
}

func runUnwatch(ctx context.Context, c *Console, args []string) error {
	if !c.stopWatch() {
		return errors.New("not watching")
	}
	c.printf("%s\n", hintStyle.Render("Stopped refreshing"))
	return nil
}
