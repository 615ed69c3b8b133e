package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"github.com/sw33tLie/acctsync/internal/utils"
	"github.com/sw33tLie/acctsync/pkg/manifest"
	"gopkg.in/yaml.v3"
)

// parseCmd dumps the parse tree of a manifest, useful when a manifest is
// rejected and the syntax error alone does not explain why.
var parseCmd = &cobra.Command{
	Use:   "parse <manifest>",
	Short: "Print the parse tree of a manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		raw, err := os.ReadFile(args[0])
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("file not found: %s", args[0])
		}
		if err != nil {
			return err
		}

		decl, err := manifest.ParseSource(string(raw))
		if err != nil {
			var syntaxErr *manifest.SyntaxError
			if errors.As(err, &syntaxErr) {
				utils.Log.Debugf("Parser expected %v at line %d", syntaxErr.Expected, syntaxErr.Line)
			}
			return fmt.Errorf("%s: %w", args[0], err)
		}

		switch format {
		case "yaml":
			out, err := yaml.Marshal(decl.Tree())
			if err != nil {
				return err
			}
			fmt.Print(string(out))
		case "manifest":
			fmt.Println(decl.String())
		default:
			return fmt.Errorf("unknown format %q. Available: yaml, manifest", format)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().StringP("format", "f", "yaml", "Output format. Available: yaml, manifest")
}
