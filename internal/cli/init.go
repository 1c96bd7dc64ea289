package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	merrors "github.com/matzehuels/manifestkit/pkg/errors"
	"github.com/matzehuels/manifestkit/pkg/manifest"
)

// initOpts holds the command-line flags for the init command.
type initOpts struct {
	name    string // package name; defaults to the directory name
	version string
}

// initCommand creates the init command, which writes a new package.json.
func (c *CLI) initCommand() *cobra.Command {
	opts := initOpts{version: "0.1.0"}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a package.json in the project directory",
		Long: `Create a package.json in the project directory.

The file uses the indentation configured in config.toml. init refuses to run
when the directory already has a package.json, package.json5 or package.yaml.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInit(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "package name (default: directory name)")
	cmd.Flags().StringVar(&opts.version, "version", opts.version, "package version")

	return cmd
}

func (c *CLI) runInit(cmd *cobra.Command, opts initOpts) error {
	ctx := cmd.Context()
	dir := c.projectDir()

	rec, err := readProject(ctx, c.reader, dir, true)
	if err != nil {
		return err
	}
	if rec.Manifest != nil {
		return merrors.New(merrors.ErrCodeInvalidInput, "%s already exists", rec.Path)
	}

	name := opts.name
	if name == "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return merrors.Wrap(merrors.ErrCodeInternal, err, "resolve %s", dir)
		}
		name = filepath.Base(abs)
	}
	if err := merrors.ValidatePackageName(name); err != nil {
		return err
	}
	if err := merrors.ValidateVersionSpec(opts.version); err != nil {
		return err
	}

	m := manifest.New()
	m.Set("name", name)
	m.Set("version", opts.version)

	w, err := manifest.NewWriter(rec.Path, c.Config.Formatting(), nil)
	if err != nil {
		return err
	}
	if _, err := writeManifest(ctx, w, m, false); err != nil {
		return err
	}

	c.printSuccess("Created %s", StyleHighlight.Render(string(rec.FileName)))
	c.printFile(w.Path())
	c.printNextStep("Add a dependency with", "manifestkit add <name> <spec>")
	return nil
}
