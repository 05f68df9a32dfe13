// Package versioncmder provides the version cobra command.
package versioncmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/packratco/packrat/pkg/utils"
)

func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the packrat version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Println(utils.Version)
		},
	}
}
