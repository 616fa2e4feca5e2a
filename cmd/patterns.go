package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voidhaven/sweeper/internal/ui"
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Print the resolved pattern set",
	Long: `Shows the disposable-directory and disposable-file patterns after
applying the config file and environment overrides. Useful to verify
what a clean run would match.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		m := cfg.Matcher()

		fmt.Println(ui.TitleStyle.Render("directories:"))
		for _, p := range m.DirectoryPatterns() {
			fmt.Println("  " + p)
		}
		fmt.Println(ui.TitleStyle.Render("files:"))
		for _, p := range m.FilePatterns() {
			fmt.Println("  " + p)
		}
		if cfg.HasRetention() {
			fmt.Println(ui.DimStyle.Render(fmt.Sprintf("retention: %d days", cfg.Days)))
		}
		return nil
	},
}
