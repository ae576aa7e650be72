// Command meetupctl runs administrative tasks against the meetup database.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"example.com/meetup/internal/config"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	var envFile string
	root := &cobra.Command{
		Use:           "meetupctl",
		Short:         "Admin tool for the meetup service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file loaded before MEETUP_* variables")

	load := func() (config.Config, error) {
		return config.Load(envFile)
	}
	root.AddCommand(newMigrateCmd(load), newUserCmd(load), newTokenCmd(load))
	return root
}
