package cli

import (
	"github.com/spf13/cobra"

	"github.com/longkidkoolstar/jsonviewer/internal/app"
	"github.com/longkidkoolstar/jsonviewer/internal/version"
)

func (c *cli) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := c.open(cmd.Context(), c.logLevel)
			if err != nil {
				return err
			}
			return app.New(rt).Run()
		},
	}
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version.String())
		},
	}
}
