package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jake-the-creative/dehc-1/pkg/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the ems version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ems %s\n", version.Version)
		},
	}
}
