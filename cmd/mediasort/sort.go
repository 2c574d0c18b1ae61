package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quidome/mediasort/pkg/census"
	"github.com/quidome/mediasort/pkg/createdat"
	"github.com/quidome/mediasort/pkg/logging"
	"github.com/quidome/mediasort/pkg/runlock"
	"github.com/quidome/mediasort/pkg/sorter"
)

func newSortCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sort [source] [photo_dest] [video_dest] [duplicates_root]",
		Short: "Move media files into year folders",
		Long: "Sort every photo and video below source into <photo_dest>/<year> or <video_dest>/<year>.\n" +
			"Identical copies of files already sorted go to <duplicates_root>/<Photo|Video>/<year>.\n" +
			"Without arguments the four folders are taken from the config file.",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 4 {
				return fmt.Errorf("accepts 0 or 4 arg(s), received %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if len(args) == 4 {
				if err := cfg.OverridePaths(args[0], args[1], args[2], args[3]); err != nil {
					return err
				}
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := newLogger(cmd, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			lock, err := runlock.Acquire("", cfg.Paths.PhotoDest, cfg.Paths.VideoDest, cfg.Paths.DuplicatesRoot)
			if err != nil {
				return err
			}
			defer func() {
				if err := lock.Release(); err != nil {
					logger.Warn("release run lock", zap.Error(err))
				}
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fsys := afero.NewOsFs()
			sorterOpts := sorter.Options{
				Scan: cfg.ScanOptions(),
				Resolve: createdat.Options{
					FilenameDates: cfg.Resolve.FilenameDates,
				},
				DryRun: opts.dryRun,
				Logger: logger,
			}

			if !opts.verbose && logging.IsTerminal(cmd.ErrOrStderr()) {
				if total, err := census.Count(fsys, cfg.Paths.Source); err == nil && total > 0 {
					bar := progressbar.Default(int64(total), "Sorting")
					sorterOpts.OnFile = func(sorter.FileEvent) {
						_ = bar.Add(1)
					}
					defer func() { _ = bar.Finish() }()
				}
			}

			s := sorter.New(fsys, sorter.Config{
				SourceFolder:    cfg.Paths.Source,
				PhotoDestFolder: cfg.Paths.PhotoDest,
				VideoDestFolder: cfg.Paths.VideoDest,
				DuplicatesRoot:  cfg.Paths.DuplicatesRoot,
			}, sorterOpts)

			rep, err := s.Run(ctx)
			if err != nil {
				return err
			}

			cmd.Println(renderReport(rep))

			var errs []error
			if rep.Interrupted {
				errs = append(errs, fmt.Errorf("interrupted after %d of %d files", rep.Walked, rep.Before.Source))
			}
			if rep.WalkError != "" {
				errs = append(errs, fmt.Errorf("walk stopped early: %s", rep.WalkError))
			}
			if err := rep.Check(); err != nil {
				errs = append(errs, err)
			}
			return errors.Join(errs...)
		},
	}
}
