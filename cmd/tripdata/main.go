package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-transit/tripdata"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	// Prepare cmd
	cmd := &cobra.Command{
		Use:   "tripdata",
		Short: "CLI tool for downloading Citi Bike NYC monthly trip-data archives",
		RunE:  cmdHandler,
	}

	cmd.Flags().Bool("backfill", false, "download every month from the start month through the latest available")
	cmd.Flags().String("url", "", "download a specific archive URL instead of resolving a month")
	cmd.Flags().StringP("input", "i", "", "path to file which contains archive URLs")
	cmd.Flags().StringP("output", "o", "", "directory to store downloaded data")
	cmd.Flags().StringP("config", "c", "", "path to YAML config file")

	cmd.Flags().String("start-month", "", "first month for backfill (YYYYMM)")
	cmd.Flags().Int("lag-days", 0, "days after month end before an archive counts as published")
	cmd.Flags().StringP("user-agent", "u", "", "set custom user agent")
	cmd.Flags().Bool("keep-zip", false, "keep the downloaded zip after extraction")
	cmd.Flags().BoolP("quiet", "q", false, "disable logging")
	cmd.Flags().Bool("verbose", false, "more verbose logging")

	cmd.Flags().IntP("timeout", "t", 60, "maximum time (in second) before request timeout")
	cmd.Flags().IntP("retries", "r", 0, "max retries on transient server errors")
	cmd.Flags().Int64("max-concurrent-download", 1, "max concurrent download at a time")

	// Execute
	err := cmd.Execute()
	if err != nil {
		logrus.Fatalln(err)
	}
}

func cmdHandler(cmd *cobra.Command, args []string) error {
	// Parse flags
	backfill, _ := cmd.Flags().GetBool("backfill")
	rawURL, _ := cmd.Flags().GetString("url")
	inputPath, _ := cmd.Flags().GetString("input")
	outputDir, _ := cmd.Flags().GetString("output")
	configPath, _ := cmd.Flags().GetString("config")

	startMonth, _ := cmd.Flags().GetString("start-month")
	lagDays, _ := cmd.Flags().GetInt("lag-days")
	userAgent, _ := cmd.Flags().GetString("user-agent")
	keepZip, _ := cmd.Flags().GetBool("keep-zip")
	disableLog, _ := cmd.Flags().GetBool("quiet")
	useVerboseLog, _ := cmd.Flags().GetBool("verbose")

	timeout, _ := cmd.Flags().GetInt("timeout")
	retries, _ := cmd.Flags().GetInt("retries")
	maxConcurrentDownload, _ := cmd.Flags().GetInt64("max-concurrent-download")

	// The three source modes are mutually exclusive
	modes := 0
	for _, set := range []bool{backfill, rawURL != "", inputPath != ""} {
		if set {
			modes++
		}
	}
	if modes > 1 {
		return fmt.Errorf("--backfill, --url and --input are mutually exclusive")
	}

	// Start from the config file when given, flags override its values
	fetcher := &tripdata.Fetcher{}
	if configPath != "" {
		cfg, err := tripdata.LoadConfig(configPath)
		if err != nil {
			return err
		}
		fetcher = cfg.NewFetcher()
	}

	if outputDir != "" {
		fetcher.DataDir = outputDir
	}
	if startMonth != "" {
		m, err := tripdata.ParseMonth(startMonth)
		if err != nil {
			return err
		}
		fetcher.StartMonth = m
	}
	if cmd.Flags().Changed("lag-days") {
		fetcher.PublicationLagDays = lagDays
	}
	if userAgent != "" {
		fetcher.UserAgent = userAgent
	}
	if keepZip {
		fetcher.KeepZip = true
	}
	if cmd.Flags().Changed("timeout") || fetcher.RequestTimeout == 0 {
		fetcher.RequestTimeout = time.Duration(timeout) * time.Second
	}
	if cmd.Flags().Changed("retries") {
		fetcher.MaxRetries = retries
	}
	if cmd.Flags().Changed("max-concurrent-download") {
		fetcher.MaxConcurrentDownload = maxConcurrentDownload
	}
	fetcher.EnableLog = !disableLog
	fetcher.EnableVerboseLog = !disableLog && useVerboseLog

	fetcher.Validate()

	ctx := context.Background()
	switch {
	case rawURL != "":
		return fetcher.FetchURL(ctx, rawURL)
	case inputPath != "":
		urls, err := parseInputFile(inputPath)
		if err != nil {
			return err
		}
		return fetcher.FetchURLs(ctx, urls)
	case backfill:
		return fetcher.Backfill(ctx)
	default:
		return fetcher.FetchLatest(ctx)
	}
}
