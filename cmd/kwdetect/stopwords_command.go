package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kwdetect/internal/detector"
)

func newStopWordsCommand() *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:         "stopwords",
		Short:       "Print the words the detector never counts",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			words := detector.StopWords()
			if jsonOutput {
				return writeJSON(cmd, words)
			}
			out := cmd.OutOrStdout()
			for _, w := range words {
				fmt.Fprintln(out, w)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output JSON")
	return cmd
}
