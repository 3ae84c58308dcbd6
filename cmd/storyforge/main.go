package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var projectFile string

func main() {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "storyforge",
		Short: "Rules engine and MCP host for branching RPG stories",
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVarP(&projectFile, "config", "c", "storyforge.yaml", "Project config file")
	root.AddCommand(initCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(rollCmd())
	root.AddCommand(savesCmd())
	root.AddCommand(exportGraphCmd())
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
