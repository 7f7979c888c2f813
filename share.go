package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/sharepoint-go/pkg/sharepoint"
)

func newShareTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "share-token <url>",
		Short: "Print the /shares token for a sharing URL",
		Long: `Print the "u!" token Graph uses to address a sharing URL under
/shares/{token}/driveItem. No credentials or network access are needed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), sharepoint.EncodeShareLink(args[0]))
			return err
		},
	}
}
