package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"gnss-survey/internal/api"
	"gnss-survey/internal/correction"
	"gnss-survey/internal/db"
	"gnss-survey/internal/models"
	"gnss-survey/internal/parser"
	"gnss-survey/internal/quality"
	"gnss-survey/internal/stats"

	"github.com/spf13/cobra"
)

var (
	dbPath    string
	modelPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gnss-survey",
		Short: "GNSS Survey Analyzer - static-point fix statistics and corrections",
		Long: `A CLI tool for analyzing GNSS NMEA logs of repeated static-point
measurements. Computes quality statistics and a corrected best-estimate
position (mean, median or quality-weighted average), serves them over a
REST API, and can archive raw fixes to SQLite.`,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "gnss_fixes.db", "Path to SQLite fix archive")
	rootCmd.PersistentFlags().StringVar(&modelPath, "model", "", "YAML file overriding the confidence model")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(correctCmd())
	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(archiveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadModel returns the stock confidence model or the YAML override.
func loadModel() (quality.Model, error) {
	if modelPath == "" {
		return quality.Default(), nil
	}
	return quality.Load(modelPath)
}

// serveCmd starts the REST API server over a sample dataset
func serveCmd() *cobra.Command {
	var port int
	var dataPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := loadModel()
			if err != nil {
				return fmt.Errorf("model error: %w", err)
			}

			var records []models.Fix
			if dataPath != "" {
				var report parser.Report
				records, report, err = parser.ParseFile(dataPath)
				if err != nil {
					return fmt.Errorf("failed to load dataset: %w", err)
				}
				fmt.Printf("Loaded %d records from %s (%d lines skipped)\n",
					len(records), dataPath, report.Skipped)
			} else {
				fmt.Println("Warning: no --data file given, serving an empty dataset")
			}

			server := api.NewServer(records, model)
			addr := fmt.Sprintf(":%d", port)

			fmt.Printf("🛰  GNSS Survey Analyzer API Server\n")
			fmt.Printf("   Listening on http://localhost%s\n\n", addr)
			fmt.Println("Available endpoints:")
			fmt.Println("  GET  /health")
			fmt.Println("  GET  /api/data")
			fmt.Println("  GET  /api/stats")
			fmt.Println("  GET  /api/positions")
			fmt.Println("  POST /api/upload")
			fmt.Println("  POST /api/corrections")
			fmt.Println("  POST /api/apply_corrections")
			fmt.Println()

			return http.ListenAndServe(addr, server.Router())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "Server port")
	cmd.Flags().StringVarP(&dataPath, "data", "d", "", "NMEA log to serve as the dataset")
	return cmd
}

// analyzeCmd computes summary statistics for an NMEA log
func analyzeCmd() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Compute summary statistics for an NMEA log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := loadModel()
			if err != nil {
				return fmt.Errorf("model error: %w", err)
			}

			records, report, err := parser.ParseFile(args[0])
			if err != nil {
				return err
			}

			summary := stats.Summarize(records, model)

			if outputFormat == "json" {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}

			fmt.Printf("📊 Summary for %s\n", args[0])
			fmt.Println("=====================================")
			fmt.Printf("  Decoded sentences:  %d (%d lines skipped)\n", report.Decoded, report.Skipped)
			printCounts(summary.SentenceCounts)
			if g := summary.GGA; g != nil {
				if g.Latitude != nil && g.Longitude != nil {
					fmt.Printf("  Latitude:           avg %.6f (%.6f … %.6f)\n", g.Latitude.Avg, g.Latitude.Min, g.Latitude.Max)
					fmt.Printf("  Longitude:          avg %.6f (%.6f … %.6f)\n", g.Longitude.Avg, g.Longitude.Min, g.Longitude.Max)
				}
				if g.PositionSpreadM != nil {
					fmt.Printf("  Position spread:    %.1f m\n", *g.PositionSpreadM)
				}
				if g.Altitude != nil {
					fmt.Printf("  Altitude:           avg %.1f m (range %.1f m)\n", g.Altitude.Avg, g.Altitude.Range)
				}
				if g.Satellites != nil {
					fmt.Printf("  Satellites:         avg %.1f (%d … %d)\n", g.Satellites.Avg, g.Satellites.Min, g.Satellites.Max)
				}
				fmt.Printf("  Signal quality:     %.1f%%\n", g.SignalQualityPercent)
			}
			if d := summary.DOP; d != nil && d.HDOP != nil {
				fmt.Printf("  HDOP:               avg %.2f (%.2f … %.2f)\n", d.HDOP.Avg, d.HDOP.Min, d.HDOP.Max)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table, json)")
	return cmd
}

func printCounts(counts map[models.SentenceType]int) {
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, string(t))
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Printf("  %s sentences:      %d\n", t, counts[models.SentenceType(t)])
	}
}

// correctCmd runs the position correction calculator
func correctCmd() *cobra.Command {
	var method string
	var weighted bool
	var fromArchive bool
	var source string
	var apply bool
	var output string

	cmd := &cobra.Command{
		Use:   "correct [file]",
		Short: "Compute a corrected best-estimate position",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := loadModel()
			if err != nil {
				return fmt.Errorf("model error: %w", err)
			}

			var records []models.Fix
			switch {
			case fromArchive:
				archive, err := db.Open(dbPath)
				if err != nil {
					return fmt.Errorf("database error: %w", err)
				}
				defer archive.Close()

				records, err = archive.QueryFixes(db.ArchiveQuery{Source: source})
				if err != nil {
					return fmt.Errorf("query error: %w", err)
				}
			case len(args) == 1:
				records, _, err = parser.ParseFile(args[0])
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("either a file argument or --from-archive is required")
			}

			result := correction.Calculate(records, models.Method(method), weighted, model)
			if result.Failed() {
				return fmt.Errorf("%s", result.Error)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")

			if apply {
				corrected := correction.Apply(records, result)
				if output != "" {
					file, err := os.Create(output)
					if err != nil {
						return fmt.Errorf("error creating output file: %w", err)
					}
					defer file.Close()
					fileEnc := json.NewEncoder(file)
					fileEnc.SetIndent("", "  ")
					if err := fileEnc.Encode(corrected); err != nil {
						return err
					}
					fmt.Printf("✓ Corrected records written to %s\n", output)
				} else {
					if err := enc.Encode(corrected); err != nil {
						return err
					}
				}
			}

			return enc.Encode(result)
		},
	}

	cmd.Flags().StringVarP(&method, "method", "m", "mean", "Estimator (mean, median, weighted_average)")
	cmd.Flags().BoolVarP(&weighted, "weighted", "w", true, "Weight fixes by quality (weighted_average only)")
	cmd.Flags().BoolVar(&fromArchive, "from-archive", false, "Read fixes from the archive instead of a file")
	cmd.Flags().StringVarP(&source, "source", "s", "", "Archive source filter (with --from-archive)")
	cmd.Flags().BoolVar(&apply, "apply", false, "Also apply the correction to the records")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write corrected records to a JSON file (with --apply)")
	return cmd
}

// ingestCmd archives the position fixes of NMEA logs
func ingestCmd() *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "ingest [file...]",
		Short: "Parse NMEA logs and archive their position fixes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := db.Open(dbPath)
			if err != nil {
				return fmt.Errorf("database error: %w", err)
			}
			defer archive.Close()

			totalFixes := int64(0)
			totalSkipped := 0

			for _, file := range args {
				fmt.Printf("Processing %s...\n", file)

				records, report, err := parser.ParseFile(file)
				if err != nil {
					fmt.Printf("  Error: %v\n", err)
					continue
				}

				src := source
				if src == "" {
					src = filepath.Base(file)
				}

				count, err := archive.InsertFixes(src, records)
				if err != nil {
					fmt.Printf("  Database error: %v\n", err)
					continue
				}

				fmt.Printf("  ✓ Archived %d fixes (%d sentences decoded, %d lines skipped)\n",
					count, report.Decoded, report.Skipped)
				totalFixes += count
				totalSkipped += report.Skipped
			}

			fmt.Printf("\nTotal: %d fixes archived", totalFixes)
			if totalSkipped > 0 {
				fmt.Printf(", %d undecodable lines", totalSkipped)
			}
			fmt.Println()

			return nil
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", "", "Source name to archive under (default: file name)")
	return cmd
}

// archiveCmd inspects the fix archive
func archiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Fix archive commands",
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show archive statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := db.Open(dbPath)
			if err != nil {
				return fmt.Errorf("database error: %w", err)
			}
			defer archive.Close()

			archiveStats, err := archive.Stats()
			if err != nil {
				return fmt.Errorf("error getting stats: %w", err)
			}

			fmt.Println("📊 GNSS Fix Archive Statistics")
			fmt.Println("=====================================")
			fmt.Printf("  Total Fixes:    %v\n", archiveStats["total_fixes"])
			fmt.Printf("  Sources:        %v\n", archiveStats["total_sources"])
			fmt.Printf("  By Quality:     %v\n", archiveStats["fix_quality_counts"])
			fmt.Printf("  Database:       %s\n", dbPath)

			return nil
		},
	}

	sourcesCmd := &cobra.Command{
		Use:   "sources",
		Short: "List archived source logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := db.Open(dbPath)
			if err != nil {
				return fmt.Errorf("database error: %w", err)
			}
			defer archive.Close()

			sources, err := archive.Sources()
			if err != nil {
				return fmt.Errorf("error listing sources: %w", err)
			}

			if len(sources) == 0 {
				fmt.Println("No fixes archived. Use 'gnss-survey ingest' to add some.")
				return nil
			}

			fmt.Printf("%-40s %s\n", "Source", "Fixes")
			for _, s := range sources {
				fmt.Printf("%-40s %d\n", s.Source, s.Fixes)
			}

			return nil
		},
	}

	cmd.AddCommand(statsCmd, sourcesCmd)
	return cmd
}
