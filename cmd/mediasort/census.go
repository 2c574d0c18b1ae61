package main

import (
	"strconv"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/quidome/mediasort/pkg/census"
)

func newCensusCmd(_ *options) *cobra.Command {
	return &cobra.Command{
		Use:   "census [dir...]",
		Short: "Count the files below each directory",
		Long:  "Print the recursive file count of each directory. A missing directory counts as 0.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fsys := afero.NewOsFs()

			rows := make([][]string, 0, len(args)+1)
			total := 0
			for _, dir := range args {
				n, err := census.Count(fsys, dir)
				if err != nil {
					return err
				}
				total += n
				rows = append(rows, []string{dir, strconv.Itoa(n)})
			}
			if len(args) > 1 {
				rows = append(rows, []string{"total", strconv.Itoa(total)})
			}

			cmd.Println(renderTable([]string{"Directory", "Files"}, rows, 2))
			return nil
		},
	}
}
