package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

// whichCommand creates the which command, which reports the manifest file
// that lookups in the project directory resolve to.
func (c *CLI) whichCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "which",
		Short: "Show which manifest file the project uses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := readProject(cmd.Context(), c.reader, c.projectDir(), true)
			if err != nil {
				return err
			}
			if rec.Manifest == nil {
				c.printWarning("No manifest in %s", c.projectDir())
				c.printNextStep("Create one with", "manifestkit init")
				return nil
			}
			c.printKeyValue("File", string(rec.FileName))
			c.printKeyValue("Path", rec.Path)
			if f := rec.Writer.Formatting(); f != nil {
				c.printKeyValue("Indent", describeIndent(f.Indent))
				c.printKeyValue("Newline", yesNo(f.InsertFinalNewline))
			}
			return nil
		},
	}
}

func describeIndent(indent string) string {
	switch {
	case indent == "":
		return "none"
	case indent == "\t":
		return "tab"
	case len(indent) == 1:
		return "1 space"
	}
	if isSpaces(indent) {
		return strconv.Itoa(len(indent)) + " spaces"
	}
	return "mixed"
}

func isSpaces(s string) bool {
	for _, r := range s {
		if r != ' ' {
			return false
		}
	}
	return true
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
