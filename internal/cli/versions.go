package cli

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/longkidkoolstar/jsonviewer/internal/app"
	"github.com/longkidkoolstar/jsonviewer/internal/domain"
)

func (c *cli) versionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions",
		Short: "Inspect the stored versions of a url",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list [url]",
			Short: "List versions, newest first",
			Args:  cobra.MaximumNArgs(1),
			RunE: c.withRuntime(func(_ context.Context, rt *app.Runtime, args []string) error {
				url := ""
				if len(args) == 1 {
					url = args[0]
				}
				return c.listVersions(rt.Controller.Versions(url))
			}),
		},
		&cobra.Command{
			Use:   "diff <i> <j>",
			Short: "Compare two versions of the current url",
			Args:  cobra.ExactArgs(2),
			RunE: c.withRuntime(func(_ context.Context, rt *app.Runtime, args []string) error {
				i, err := parseIndex(args[0])
				if err != nil {
					return err
				}
				j, err := parseIndex(args[1])
				if err != nil {
					return err
				}
				if _, err := rt.Controller.SelectVersions(i, j); err != nil {
					return err
				}
				diff, err := rt.Controller.Diff()
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "--- #%d %s\n+++ #%d %s\n",
					diff.Older.Seq, diff.Older.Timestamp.Format(time.RFC3339),
					diff.Newer.Seq, diff.Newer.Timestamp.Format(time.RFC3339))
				if diff.Text == "" {
					fmt.Fprintln(c.out, "no differences")
					return nil
				}
				fmt.Fprintln(c.out, diff.Text)
				return nil
			}),
		},
	)
	return cmd
}

func parseIndex(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, domain.Validationf("invalid version index %q", s)
	}
	return i, nil
}

func (c *cli) listVersions(versions []domain.Version) error {
	if len(versions) == 0 {
		fmt.Fprintln(c.out, "no versions")
		return nil
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tSEQ\tTIMESTAMP\tID")
	for i, v := range versions {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", i, v.Seq, v.Timestamp.Format(time.RFC3339), v.ID)
	}
	return tw.Flush()
}
