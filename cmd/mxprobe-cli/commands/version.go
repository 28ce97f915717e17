package commands

import (
	"runtime"

	"github.com/spf13/cobra"
)

var version = "dev"

func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

func init() {
	var short bool

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version of mxprobe-cli",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if short {
				cmd.Println(version)
				return
			}

			cmd.Printf("mxprobe-cli %s (%s %s/%s)\n", version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}

	versionCmd.Flags().BoolVar(&short, "short", false, "Only print the version number")
	rootCmd.AddCommand(versionCmd)
}
