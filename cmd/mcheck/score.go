package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/mcheck/internal/names"
	"github.com/John-Robertt/mcheck/internal/similarity"
)

// newScoreCmd 打印两个名字（规整后）的相似度，用于挑选 threshold。
func (c *cli) newScoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score A B",
		Short: "计算两个名字的相似度（0-100）",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			a, b := names.Normalize(args[0]), names.Normalize(args[1])
			fmt.Fprintln(cmd.OutOrStdout(), similarity.Ratio(a, b))
		},
	}
}
