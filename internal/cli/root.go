// Package cli は couplai のコマンドを実装します。
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var formatFlag string

// RootCmd はトップレベルのコマンドです。
var RootCmd = &cobra.Command{
	Use:   "couplai",
	Short: "Turn a couple photo into a styled profile and gallery",
	Long: "couplai generates a stylized profile image and a themed gallery from one photo, " +
		"then packages every version into a ZIP with light and dark HTML viewers.",
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "text", "Output format: json or text")
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
