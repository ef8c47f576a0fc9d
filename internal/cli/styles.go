package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shouni/couplai/internal/config"
)

func init() {
	cmd := &cobra.Command{
		Use:   "styles",
		Short: "List styles in the catalog",
		Long:  "Load the style catalog (CATALOG_PATH) and print every usable style.",
		Run:   runStyles,
	}
	cmd.Flags().Bool("shuffle", false, "Shuffle the list like the wizard does")

	RootCmd.AddCommand(cmd)
}

func runStyles(cmd *cobra.Command, args []string) {
	shuffle, _ := cmd.Flags().GetBool("shuffle")

	cfg := config.Load()
	logger := cfg.NewLogger(os.Stderr, false)
	cat, err := loadCatalog(cmd.Context(), cfg, newReader(), logger)
	if err != nil {
		exitErr("load catalog", err)
	}

	styles := cat.All()
	if shuffle {
		styles = cat.Shuffled(nil)
	}

	if formatFlag == "json" {
		b, _ := json.MarshalIndent(styles, "", "  ")
		fmt.Println(string(b))
		return
	}
	for _, s := range styles {
		fmt.Printf("%-20s %-24s %d prompts", s.ID, s.Label(), len(s.GalleryPrompts))
		if len(s.Details.Tags) > 0 {
			fmt.Printf("  [%s]", strings.Join(s.Details.Tags, ", "))
		}
		fmt.Println()
	}
}
