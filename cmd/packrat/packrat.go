// Package packratcmder
package packratcmder

import (
	servecmder "github.com/packratco/packrat/cmd/packrat/serve"
	versioncmder "github.com/packratco/packrat/cmd/packrat/version"
	"github.com/spf13/cobra"
)

const packratLongDesc string = `Packrat remembers where you put things.

Tell it where an item went and ask for it back later:
  packrat serve        Run the memory API server`

const packratShortDesc string = "Packrat - Where Did I Put It"

func NewPackratCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "packrat",
		Short: packratShortDesc,
		Long:  packratLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
