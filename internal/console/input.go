package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"tourdesk/internal/form"
)

// readPassword is a seam so tests can feed secrets without a terminal
var readPassword = term.ReadPassword

// ErrInputClosed means the input ended while a question was pending
var ErrInputClosed = errors.New("input closed")

// readLine returns one trimmed line. A final line without a newline still counts.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrInputClosed
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (c *Console) ask(prompt string) (string, error) {
	c.printf("%s", prompt)
	return readLine(c.in)
}

func (c *Console) askSecret(prompt string) (string, error) {
	c.printf("%s", prompt)
	if !c.interactive {
		return readLine(c.in)
	}
	b, err := readPassword(int(os.Stdin.Fd()))
	c.printf("\n")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Confirm implements dispatch.Confirmer with a y/N question
func (c *Console) Confirm(ctx context.Context, prompt string) (bool, error) {
	answer, err := c.ask(warnStyle.Render(prompt) + " [y/N] ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// fieldPrompter asks for dialog fields on the console. A blank answer keeps
// the current value and "-" clears it.
type fieldPrompter struct {
	c *Console
}

func (p fieldPrompter) Prompt(ctx context.Context, field form.FieldSpec, current, problem string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if problem != "" {
		p.c.printf("  %s\n", errorStyle.Render("! "+problem))
	}

	label := fieldLabel(field)
	var (
		answer string
		err    error
	)
	if field.Secret {
		answer, err = p.c.askSecret(label + ": ")
	} else if current != "" {
		answer, err = p.c.ask(fmt.Sprintf("%s [%s]: ", label, current))
	} else {
		answer, err = p.c.ask(label + ": ")
	}
	if err != nil {
		return "", err
	}

	switch answer {
	case "":
		return current, nil
	case "-":
		return "", nil
	}
	return answer, nil
}

func (p fieldPrompter) Retry(ctx context.Context, err error) (bool, error) {
	answer, aerr := p.c.ask("Fix the form and try again? [Y/n] ")
	if aerr != nil {
		return false, aerr
	}
	switch strings.ToLower(answer) {
	case "", "y", "yes":
		return true, nil
	}
	return false, nil
}

func fieldLabel(f form.FieldSpec) string {
	var hints []string
	if f.Required {
		hints = append(hints, "required")
	}
	if f.RequiredIf != "" {
		hints = append(hints, "required if "+f.RequiredIf)
	}
	if len(f.Enum) > 0 {
		hints = append(hints, strings.Join(f.Enum, "|"))
	}
	switch f.Kind {
	case form.KindList:
		hints = append(hints, "comma separated")
	case form.KindTime:
		hints = append(hints, "YYYY-MM-DD HH:MM")
	case form.KindBool:
		hints = append(hints, "y/n")
	}

	label := "  " + labelStyle.Render(f.Name)
	if len(hints) > 0 {
		label += " " + hintStyle.Render("("+strings.Join(hints, ", ")+")")
	}
	return label
}
