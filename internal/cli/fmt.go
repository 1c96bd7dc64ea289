package cli

import (
	"github.com/spf13/cobra"
)

// fmtCommand creates the fmt command, which rewrites the manifest in its
// detected formatting even when the content is unchanged.
func (c *CLI) fmtCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fmt",
		Short: "Rewrite the manifest in its detected formatting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rec, err := readProject(ctx, c.reader, c.projectDir(), false)
			if err != nil {
				return err
			}
			if _, err := writeManifest(ctx, rec.Writer, rec.Manifest, true); err != nil {
				return err
			}

			c.printSuccess("Formatted %s", StyleHighlight.Render(string(rec.FileName)))
			return nil
		},
	}
}
