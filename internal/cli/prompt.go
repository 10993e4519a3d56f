package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/longkidkoolstar/jsonviewer/internal/app"
	"github.com/longkidkoolstar/jsonviewer/internal/session"
)

// ask prints question and reads a y/N answer. EOF counts as no.
func (c *cli) ask(question string) (bool, error) {
	fmt.Fprintf(c.out, "%s [y/N]: ", question)
	line, err := c.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read answer: %w", err)
	}
	if errors.Is(err, io.EOF) {
		fmt.Fprintln(c.out)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// resolve confirms p, asking first when it carries a risk and yes is unset.
func (c *cli) resolve(ctx context.Context, rt *app.Runtime, p *session.Proposal, yes bool) error {
	if p.NeedsConfirmation() && !yes {
		ok, err := c.ask(p.Message)
		if err != nil || !ok {
			rt.Controller.Cancel(p.Token)
			if err == nil {
				fmt.Fprintln(c.out, "cancelled")
			}
			return err
		}
	}

	out, err := rt.Controller.Confirm(ctx, p.Token)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, out.Notice)
	return nil
}
