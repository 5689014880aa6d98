package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newConfigCmd(root *Root) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := os.Getenv("AUTOFLIGHT_CONFIG")
			if cfgPath == "" {
				cfgPath = "(default) ~/.config/autoflight/config.json"
			}
			fmt.Printf("Config file: %s\n\n", cfgPath)

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(root.cfg)
		},
	}
}
