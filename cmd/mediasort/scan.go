package main

import (
	"encoding/json"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/quidome/mediasort/pkg/createdat"
	"github.com/quidome/mediasort/pkg/scan"
)

type jsonRecord struct {
	SourcePath    string    `json:"source_path"`
	Kind          string    `json:"kind"`
	Year          int       `json:"year,omitempty"`
	YearSource    string    `json:"year_source,omitempty"`
	CreatedAt     time.Time `json:"created_at,omitzero"`
	FileSizeBytes int64     `json:"file_size_bytes"`
	ModTime       time.Time `json:"mod_time"`
	Error         string    `json:"error,omitempty"`
}

func newScanCmd(opts *options) *cobra.Command {
	var asJSON bool

	scanCmd := &cobra.Command{
		Use:   "scan [directory]",
		Short: "List media files and the year each would be sorted into",
		Long:  "Scan a directory and print every photo and video found (relative to the scan root) with its resolved year. Nothing is moved.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			directory := args[0]

			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logger, err := newLogger(cmd, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			fsys := afero.NewOsFs()
			matches, err := scan.ScanRecords(fsys, directory, cfg.ScanOptions())
			if err != nil {
				return err
			}

			resolver := createdat.NewResolver(createdat.Options{
				FilenameDates: cfg.Resolve.FilenameDates,
				Logger:        logger,
			})

			records := make([]jsonRecord, 0, len(matches))
			for _, m := range matches {
				rec := jsonRecord{
					SourcePath:    m.Path,
					Kind:          m.Kind.String(),
					FileSizeBytes: m.FileSizeBytes,
					ModTime:       m.ModTime,
				}
				res, err := resolver.Resolve(fsys, m.Path, m.Kind)
				if err != nil {
					rec.Error = err.Error()
				} else {
					rec.Year = res.Year
					rec.YearSource = string(res.Source)
					rec.CreatedAt = res.CreatedAt
				}
				records = append(records, rec)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}

			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				rel, err := filepath.Rel(directory, rec.SourcePath)
				if err != nil {
					rel = rec.SourcePath
				}
				year := "?"
				if rec.Year > 0 {
					year = strconv.Itoa(rec.Year)
				}
				rows = append(rows, []string{rel, rec.Kind, year, rec.YearSource})
			}
			cmd.Println(renderTable([]string{"File", "Kind", "Year", "From"}, rows, 3))

			if opts.verbose {
				cmd.PrintErrf("found %d media files\n", len(records))
			}
			return nil
		},
	}

	scanCmd.Flags().BoolVar(&asJSON, "json", false, "print records as JSON")

	return scanCmd
}
