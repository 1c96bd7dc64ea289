package cli

import (
	"strings"

	"github.com/spf13/cobra"

	merrors "github.com/matzehuels/manifestkit/pkg/errors"
	"github.com/matzehuels/manifestkit/pkg/manifest"
)

// addOpts selects the dependency block `add` writes to.
type addOpts struct {
	dev      bool
	optional bool
	peer     bool
}

func (o addOpts) kind() (manifest.DependencyKind, error) {
	var kinds []manifest.DependencyKind
	if o.dev {
		kinds = append(kinds, manifest.KindDev)
	}
	if o.optional {
		kinds = append(kinds, manifest.KindOptional)
	}
	if o.peer {
		kinds = append(kinds, manifest.KindPeer)
	}
	switch len(kinds) {
	case 0:
		return manifest.KindProd, nil
	case 1:
		return kinds[0], nil
	}
	return "", merrors.New(merrors.ErrCodeInvalidInput, "--dev, --optional and --peer are mutually exclusive")
}

// addCommand creates the add command, which sets a dependency.
func (c *CLI) addCommand() *cobra.Command {
	var opts addOpts

	cmd := &cobra.Command{
		Use:   "add <name> <spec>",
		Short: "Add or update a dependency",
		Long: `Add or update a dependency in the project manifest.

The manifest is rewritten in its detected formatting, and only when the
dependency actually changes.

Examples:
  manifestkit add lodash ^4.17.21
  manifestkit add -D typescript ~5.4.0
  manifestkit add -P react ">=18"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAdd(cmd, opts, args[0], args[1])
		},
	}

	cmd.Flags().BoolVarP(&opts.dev, "dev", "D", false, "add to devDependencies")
	cmd.Flags().BoolVarP(&opts.optional, "optional", "O", false, "add to optionalDependencies")
	cmd.Flags().BoolVarP(&opts.peer, "peer", "P", false, "add to peerDependencies")

	return cmd
}

func (c *CLI) runAdd(cmd *cobra.Command, opts addOpts, name, spec string) error {
	ctx := cmd.Context()

	kind, err := opts.kind()
	if err != nil {
		return err
	}
	if err := merrors.ValidatePackageName(name); err != nil {
		return err
	}
	if err := merrors.ValidateVersionSpec(spec); err != nil {
		return err
	}

	rec, err := readProject(ctx, c.reader, c.projectDir(), false)
	if err != nil {
		return err
	}
	manifest.SetDependency(rec.Manifest, kind, name, spec)

	written, err := writeManifest(ctx, rec.Writer, rec.Manifest, false)
	if err != nil {
		return err
	}
	if !written {
		c.printInfo("%s@%s is already in %s", name, spec, kind)
		return nil
	}

	c.printSuccess("Added %s to %s", StyleHighlight.Render(name+"@"+spec), kind)
	c.printFile(rec.Path)
	return nil
}

// removeCommand creates the remove command, which deletes a dependency from
// every block that lists it.
func (c *CLI) removeCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <name>",
		Aliases: []string{"rm"},
		Short:   "Remove a dependency",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRemove(cmd, args[0])
		},
	}
}

func (c *CLI) runRemove(cmd *cobra.Command, name string) error {
	ctx := cmd.Context()

	rec, err := readProject(ctx, c.reader, c.projectDir(), false)
	if err != nil {
		return err
	}

	var removed []string
	for _, kind := range manifest.DependencyKinds {
		if !manifest.RemoveDependency(rec.Manifest, kind, name) {
			continue
		}
		removed = append(removed, string(kind))
		if block := manifest.Dependencies(rec.Manifest, kind); block != nil && len(block.Keys()) == 0 {
			rec.Manifest.Delete(string(kind))
		}
	}
	if len(removed) == 0 {
		c.printWarning("%s is not a dependency", name)
		return nil
	}

	if _, err := writeManifest(ctx, rec.Writer, rec.Manifest, false); err != nil {
		return err
	}

	c.printSuccess("Removed %s from %s", StyleHighlight.Render(name), strings.Join(removed, ", "))
	c.printFile(rec.Path)
	return nil
}
