package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the backtest CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("backtest version %s\n", version)
		fmt.Println("A multi-asset backtest engine for crypto trading strategies")
		fmt.Println("https://github.com/rustyeddy/backtest")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
