package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	merrors "github.com/matzehuels/manifestkit/pkg/errors"
	"github.com/matzehuels/manifestkit/pkg/manifest"
)

// showOpts holds the command-line flags for the show command.
type showOpts struct {
	file   string // exact manifest file instead of a directory lookup
	output string // json or yaml; the config decides when empty
}

// showCommand creates the show command, which prints a manifest.
func (c *CLI) showCommand() *cobra.Command {
	var opts showOpts

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the project manifest",
		Long: `Print the manifest of the project directory.

The lookup tries package.json, then package.json5, then package.yaml. With
--file the named manifest is read directly.

Examples:
  manifestkit show
  manifestkit show -o yaml
  manifestkit show --file ./web/package.json5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runShow(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "read this manifest file instead of searching --dir")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output format: json or yaml (default from config)")

	return cmd
}

func (c *CLI) runShow(cmd *cobra.Command, opts showOpts) error {
	logger := loggerFromContext(cmd.Context())

	output := opts.output
	if output == "" {
		output = c.Config.Output
	}
	name, err := parseOutput(output)
	if err != nil {
		return merrors.Wrap(merrors.ErrCodeInvalidInput, err, "--output %q", output)
	}

	var rec *manifest.Record
	if opts.file != "" {
		rec, err = readExact(cmd.Context(), c.reader, opts.file)
	} else {
		rec, err = readProject(cmd.Context(), c.reader, c.projectDir(), false)
	}
	if err != nil {
		return err
	}
	logger.Debug("read manifest", "path", rec.Path)

	data, err := manifest.Marshal(rec.Manifest, name, &manifest.Formatting{Indent: "  ", InsertFinalNewline: true})
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(c.Out, string(data))
	return err
}
