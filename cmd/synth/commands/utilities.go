/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utilities.go
Description: Utility commands for synth. Lists search strategies, shows stored
results and summarises log files.
*/

package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/kleascm/akaylee-synth/pkg/logging"
	"github.com/kleascm/akaylee-synth/pkg/search"
	"github.com/kleascm/akaylee-synth/pkg/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ListSearch lists the enumeration strategies
func ListSearch(cmd *cobra.Command, args []string) {
	fmt.Println("🔎 Akaylee Synth - Search Strategies")
	fmt.Println("====================================")
	fmt.Println()

	descriptions := map[string]string{
		search.StrategyHeap:   "Best first enumeration, programs in non-increasing probability",
		search.StrategyBucket: "Bucketed enumeration, near best first with cheaper comparisons (--bucket-size)",
	}
	for i, name := range search.Strategies() {
		fmt.Printf("%d. %s\n", i+1, name)
		fmt.Printf("   %s\n\n", descriptions[name])
	}
	fmt.Println("✨ Use --search to choose a strategy")
}

// ShowResults prints the results held in the store
func ShowResults(cmd *cobra.Command, args []string) error {
	if err := LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	path := viper.GetString("store")
	if path == "" {
		return errors.New("--store is required")
	}

	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := st.Results(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("📦 %d results in %s\n\n", len(records), path)
	solved := 0
	for _, r := range records {
		status := "FAIL"
		if r.Solved {
			status = "OK"
			solved++
		}
		fmt.Printf("  %-6s %-20s %-14s tried=%-8d %s %s\n",
			status, r.TaskID, r.Strategy, r.Tried, r.Elapsed, r.Program)
	}
	fmt.Printf("\nSolved %d/%d\n", solved, len(records))
	return nil
}

// AnalyzeLogs summarises the log files of log_dir
func AnalyzeLogs(cmd *cobra.Command, args []string) error {
	if err := LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	dir := viper.GetString("log_dir")
	if dir == "" {
		return errors.New("--log-dir is required")
	}

	stats, err := logging.NewLogManager(dir, viper.GetInt("log_max_files")).GetLogStats()
	if err != nil {
		return err
	}
	analysis, err := logging.NewLogAnalyzer(dir).AnalyzeLogs()
	if err != nil {
		return err
	}

	fmt.Println(analysis.GetLogSummary())
	fmt.Printf("  Size: %d bytes\n", stats.TotalSize)
	if stats.TotalFiles > 0 {
		fmt.Printf("  Oldest: %s\n  Newest: %s\n", stats.OldestFile.Format("2006-01-02 15:04:05"), stats.NewestFile.Format("2006-01-02 15:04:05"))
	}
	return nil
}
