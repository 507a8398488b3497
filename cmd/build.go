package cmd

import (
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Builds the static site from content, layouts, and static assets",
	Long: `The build command validates every Markdown file under the content directory
against its collection schema, applies templates from the layouts directory
(including partials), copies static assets, and generates the site in the
configured output directory (default './public/').

Any document that fails validation aborts the build before the output
directory is touched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := newBuilder(cmd).Build(cmd.Context())
		return err
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
}
