package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "recall",
	Short: "personal content graph with portable archives",
	Example: `recall node create -u <user> -t text -c <content>
recall node search -u <user> -q <query>
recall link add -u <user> -a <node-uuid> -b <node-uuid>
recall export -u <user> -o graph.tar.gz
recall import -u <user> -p <package-uuid>
recall undo -u <user> -p <package-uuid>`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(dbCmd)
	rootCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	cobra.EnableCommandSorting = false
}
