package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/longkidkoolstar/jsonviewer/internal/app"
	"github.com/longkidkoolstar/jsonviewer/internal/domain"
	"github.com/longkidkoolstar/jsonviewer/internal/session"
)

func (c *cli) fetchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch [url]",
		Short: "Fetch the document at url (default: the last used url)",
		Args:  cobra.MaximumNArgs(1),
		RunE: c.withRuntime(func(ctx context.Context, rt *app.Runtime, args []string) error {
			url := ""
			if len(args) == 1 {
				url = args[0]
			}
			res, err := rt.Controller.Fetch(ctx, url)
			if err != nil {
				return err
			}
			c.printFetch(res)
			return nil
		}),
	}
}

func (c *cli) printFetch(res session.FetchResult) {
	fmt.Fprintln(c.out, res.Notice)
	if res.Added != nil {
		fmt.Fprintf(c.out, "version #%d %s\n", res.Added.Seq, res.Added.ID)
	}
}

type showOptions struct {
	path    string
	version int
	yaml    bool
}

func (c *cli) showCommand() *cobra.Command {
	opts := showOptions{version: -1}
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the current document or one of its versions",
		Long: `Print the current document, pretty-printed.

--path selects part of it with a gjson path (for example "items.#.name").
--version picks a stored version instead, 0 being the newest.`,
		Args: cobra.NoArgs,
		RunE: c.withRuntime(func(ctx context.Context, rt *app.Runtime, args []string) error {
			doc, err := pickDocument(rt.Controller, opts.version)
			if err != nil {
				return err
			}
			return c.show(doc, opts)
		}),
	}
	cmd.Flags().StringVar(&opts.path, "path", "", "gjson path to select")
	cmd.Flags().IntVar(&opts.version, "version", -1, "version index to show, 0 is the newest")
	cmd.Flags().BoolVar(&opts.yaml, "yaml", false, "print as YAML")
	return cmd
}

func pickDocument(ctrl *session.Controller, index int) (domain.Document, error) {
	if index < 0 {
		doc := ctrl.Snapshot().Current
		if doc.IsZero() {
			return domain.Document{}, domain.Validationf("no document loaded, run fetch first")
		}
		return doc, nil
	}
	history := ctrl.Versions("")
	if index >= len(history) {
		return domain.Document{}, domain.Validationf("version index %d out of range: history has %d versions", index, len(history))
	}
	return history[index].Data, nil
}

func (c *cli) show(doc domain.Document, opts showOptions) error {
	value := gjson.ParseBytes(doc.Raw()).Value()
	text := doc.Pretty()

	if opts.path != "" {
		res := gjson.GetBytes(doc.Raw(), opts.path)
		if !res.Exists() {
			return fmt.Errorf("path %q: %w", opts.path, domain.ErrNotFound)
		}
		value = res.Value()
		if res.Type == gjson.String {
			text = res.Str
		} else {
			text = domain.MustParseDocument(res.Raw).Pretty()
		}
	}

	if opts.yaml {
		out, err := yaml.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		_, err = c.out.Write(out)
		return err
	}
	_, err := fmt.Fprintln(c.out, text)
	return err
}

type pushOptions struct {
	file    string
	storage string
	yes     bool
}

func (c *cli) pushCommand() *cobra.Command {
	var opts pushOptions
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Update the remote document",
		Long: `Push the current document back to its url.

--storage loads a saved storage first; --file replaces the document with the
file's content before pushing. Pushing to a url that belongs to another
storage asks for confirmation unless --yes is given.`,
		Args: cobra.NoArgs,
		RunE: c.withRuntime(func(ctx context.Context, rt *app.Runtime, args []string) error {
			return c.push(ctx, rt, opts)
		}),
	}
	cmd.Flags().StringVar(&opts.file, "file", "", "JSON file to push instead of the current document")
	cmd.Flags().StringVar(&opts.storage, "storage", "", "storage id to load before pushing")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func (c *cli) push(ctx context.Context, rt *app.Runtime, opts pushOptions) error {
	ctrl := rt.Controller
	if opts.storage != "" {
		if _, err := ctrl.LoadStorage(ctx, opts.storage); err != nil {
			return err
		}
	}
	if opts.file != "" {
		data, err := os.ReadFile(opts.file)
		if err != nil {
			return fmt.Errorf("read %s: %w", opts.file, err)
		}
		if _, err := ctrl.Edit(string(data)); err != nil {
			return err
		}
	}

	p, err := ctrl.ProposeUpdate()
	if err != nil {
		return err
	}
	return c.resolve(ctx, rt, p, opts.yes)
}

func (c *cli) keyCommand() *cobra.Command {
	key := &cobra.Command{
		Use:   "key",
		Short: "Manage the API key",
	}
	key.AddCommand(&cobra.Command{
		Use:   "set <key>",
		Short: "Store the API key sent with every request",
		Args:  cobra.ExactArgs(1),
		RunE: c.withRuntime(func(ctx context.Context, rt *app.Runtime, args []string) error {
			if err := rt.Controller.SetAPIKey(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "api key saved")
			return nil
		}),
	})
	return key
}
