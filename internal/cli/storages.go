package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/longkidkoolstar/jsonviewer/internal/app"
	"github.com/longkidkoolstar/jsonviewer/internal/domain"
	"github.com/longkidkoolstar/jsonviewer/internal/remote"
)

func (c *cli) storagesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "storages",
		Aliases: []string{"storage"},
		Short:   "Manage saved storages",
	}

	var yes bool
	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a storage",
		Args:  cobra.ExactArgs(1),
		RunE: c.withRuntime(func(ctx context.Context, rt *app.Runtime, args []string) error {
			p, err := rt.Controller.ProposeDeleteStorage(args[0])
			if err != nil {
				return err
			}
			return c.resolve(ctx, rt, p, yes)
		}),
	}
	rm.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List storages, most recently used first",
			Args:  cobra.NoArgs,
			RunE: c.withRuntime(func(_ context.Context, rt *app.Runtime, _ []string) error {
				return c.listStorages(rt.Controller.ListStorages(), rt.Controller.Snapshot().ActiveStorageID)
			}),
		},
		&cobra.Command{
			Use:   "add <name> [url]",
			Short: "Save url (default: the current url) under name",
			Args:  cobra.RangeArgs(1, 2),
			RunE: c.withRuntime(func(ctx context.Context, rt *app.Runtime, args []string) error {
				var (
					entry domain.StorageEntry
					err   error
				)
				if len(args) == 2 {
					entry, err = rt.Controller.AddStorage(ctx, args[0], args[1])
				} else {
					entry, err = rt.Controller.SaveStorage(ctx, args[0])
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "storage %q saved as %s\n", entry.Name, entry.ID)
				return nil
			}),
		},
		c.editStorageCommand("rename <id> <name>", "Rename a storage", func(v string) domain.StorageEdit {
			return domain.StorageEdit{Name: v}
		}),
		c.editStorageCommand("retarget <id> <url>", "Point a storage at another url", func(v string) domain.StorageEdit {
			return domain.StorageEdit{URL: v}
		}),
		rm,
		&cobra.Command{
			Use:   "load <id>",
			Short: "Fetch a storage's url and make it active",
			Args:  cobra.ExactArgs(1),
			RunE: c.withRuntime(func(ctx context.Context, rt *app.Runtime, args []string) error {
				res, err := rt.Controller.LoadStorage(ctx, args[0])
				if err != nil {
					return err
				}
				c.printFetch(res)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "import <file>",
			Short: "Create storages from a YAML file",
			Args:  cobra.ExactArgs(1),
			RunE: c.withRuntime(func(ctx context.Context, rt *app.Runtime, args []string) error {
				res, err := rt.ImportFile(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "created %d, skipped %d, invalid %d\n", len(res.Created), res.Skipped, res.Invalid)
				return nil
			}),
		},
	)
	return cmd
}

func (c *cli) editStorageCommand(use, short string, edit func(string) domain.StorageEdit) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: c.withRuntime(func(ctx context.Context, rt *app.Runtime, args []string) error {
			entry, err := rt.Controller.EditStorage(ctx, args[0], edit(args[1]))
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "storage %s: %q %s\n", entry.ID, entry.Name, displayURL(entry.URL))
			return nil
		}),
	}
}

func (c *cli) listStorages(entries []domain.StorageEntry, activeID string) error {
	if len(entries) == 0 {
		fmt.Fprintln(c.out, "no storages saved")
		return nil
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\tID\tNAME\tURL\tLAST ACCESSED")
	for _, e := range entries {
		mark := ""
		if e.ID == activeID {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", mark, e.ID, e.Name, displayURL(e.URL), e.LastAccessed.Format(time.RFC3339))
	}
	return tw.Flush()
}

// displayURL hides an API key embedded in raw.
func displayURL(raw string) string {
	ep, err := remote.ResolveEndpoint(raw, "")
	if err != nil || ep.APIKey == "" {
		return raw
	}
	return ep.Redacted()
}
