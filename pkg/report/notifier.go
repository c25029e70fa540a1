package report

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Icon is the picture the firmware shows next to a dialog's text.
type Icon int

const (
	IconNone Icon = iota
	IconInfo
	IconQuestion
	IconAttention
	IconError
	IconWLAN
)

// Notifier talks to whoever started the pass.
type Notifier interface {
	// Confirm asks a yes/no question. Anything but an explicit yes is a no.
	Confirm(ctx context.Context, text string) (bool, error)
	Notify(ctx context.Context, icon Icon, text string) error
}

// Dialog shows messages through the reader firmware's dialog binary. The binary takes the icon, a title, the
// text and the button labels, and exits with the 1-based index of the button pressed.
type Dialog struct {
	Path string
}

func NewDialog(path string) *Dialog {
	return &Dialog{Path: path}
}

// Show displays text with the given buttons and returns the 1-based index of the one pressed.
func (d *Dialog) Show(ctx context.Context, icon Icon, text string, buttons ...string) (int, error) {
	args := append([]string{strconv.Itoa(int(icon)), "", text}, buttons...)
	err := exec.CommandContext(ctx, d.Path, args...).Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		return exitErr.ExitCode(), nil
	}
	return 0, errors.Wrapf(err, "running %s", d.Path)
}

func (d *Dialog) Confirm(ctx context.Context, text string) (bool, error) {
	button, err := d.Show(ctx, IconNone, text, "Cancel", "Yes")
	if err != nil {
		return false, err
	}
	return button == 2, nil
}

func (d *Dialog) Notify(ctx context.Context, icon Icon, text string) error {
	_, err := d.Show(ctx, icon, text, "OK")
	return err
}

// Console asks on a terminal.
type Console struct {
	In  io.Reader
	Out io.Writer
}

func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{In: in, Out: out}
}

func (c *Console) Confirm(_ context.Context, text string) (bool, error) {
	if _, err := fmt.Fprintf(c.Out, "%s [y/N] ", text); err != nil {
		return false, errors.WithStack(err)
	}
	line, err := bufio.NewReader(c.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, errors.WithStack(err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func (c *Console) Notify(_ context.Context, _ Icon, text string) error {
	_, err := fmt.Fprintln(c.Out, text)
	return errors.WithStack(err)
}
