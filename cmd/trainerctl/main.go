// Command trainerctl runs the time and colour conversions the trainer app uses, for
// checking a booking or a brand colour from the shell.
package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "trainerctl",
		Short:         "Colombia time and brand colour helpers for the trainer app",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().Bool("json", false, "print results as JSON")
	root.AddCommand(newTimeCmd(), newThemeCmd())
	return root
}

// printResult writes v as JSON when --json is set, otherwise the text lines.
func printResult(cmd *cobra.Command, v any, lines ...string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	for _, l := range lines {
		if _, err := io.WriteString(out, l+"\n"); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// cobra already printed the error
		os.Exit(1)
	}
}
