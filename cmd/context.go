package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var contextCommand = &cobra.Command{
	Use:   "context",
	Short: "context commands",
}

func init() {
	rootCmd.AddCommand(contextCommand)
	contextCommand.AddCommand(setContextCommand())
	contextCommand.AddCommand(currentContextCommand())
}

type Context struct {
	StorageRoot string `json:"storageRoot"`
	DBPath      string `json:"dbPath"`
}

// saves the context info to the config file in ./.recall
func setContextCommand() *cobra.Command {
	var storageRoot string
	var dbPath string

	command := &cobra.Command{
		Use:   "set",
		Short: "set context",
		Run: func(cmd *cobra.Command, args []string) {
			if storageRoot == "" && dbPath == "" {
				color.Red(`missing: --storage-root or --db-path`)
				return
			}

			viper.SetConfigName("recall")
			viper.AddConfigPath("./.recall")
			viper.SetConfigType("yml")
			viper.Set("context", Context{
				StorageRoot: storageRoot,
				DBPath:      dbPath,
			})

			if err := viper.WriteConfig(); err != nil {
				fmt.Println("error writing config file: ", err)
			} else {
				fmt.Println("context saved")
			}
		},
	}

	command.Flags().StringVarP(&storageRoot, "storage-root", "s", "", "attachment root")
	command.Flags().StringVarP(&dbPath, "db-path", "d", "", "sqlite database path")

	return command
}

func currentContextCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "current",
		Short: "current context",
		Run: func(cmd *cobra.Command, args []string) {
			viper.SetConfigName("recall")
			viper.AddConfigPath("./.recall")
			viper.SetConfigType("yml")

			if err := viper.ReadInConfig(); err != nil {
				color.Red("no context set")
				return
			}

			fmt.Println(viper.Get("context"))
		},
	}

	return command
}
