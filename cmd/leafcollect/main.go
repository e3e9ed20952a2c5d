//  Copyright (c) 2023 The Quickwit Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// 		http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command leafcollect is a small example driver for the leaf search
// collector: it builds a synthetic in-memory segment, runs a collector over
// it, and prints the resulting partial hits. It exists to exercise
// internal/drive end to end and is not part of the collector core.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/naveenann/quickwit/cmd/leafcollect/internal/demo"
)

var rootCmd = &cobra.Command{
	Use:   "leafcollect",
	Short: "Run the leaf search collector against a synthetic segment",
	Long:  `leafcollect builds a small in-memory segment, searches it with a configurable sort and page, and prints the ranked hits.`,
}

var (
	numDocs     int
	maxHits     int
	startOffset int
	sortField   string
	descending  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Collect and print top hits from a synthetic segment",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := demo.Run(demo.Options{
			NumDocs:     numDocs,
			MaxHits:     maxHits,
			StartOffset: startOffset,
			SortField:   sortField,
			Descending:  descending,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), result)
		return nil
	},
}

func init() {
	runCmd.Flags().IntVar(&numDocs, "docs", 20, "number of synthetic documents")
	runCmd.Flags().IntVar(&maxHits, "max-hits", 5, "max hits to return")
	runCmd.Flags().IntVar(&startOffset, "start-offset", 0, "hits to skip before the returned page")
	runCmd.Flags().StringVar(&sortField, "sort-field", "score", "field to sort by: score, docid, or a fast field name")
	runCmd.Flags().BoolVar(&descending, "desc", true, "sort descending")
	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
