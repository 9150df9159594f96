package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"pddlenv/internal/logging"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Re-plan whenever a problem descriptor changes",
	Long: `Plans the descriptor once, then watches it and plans again after every
change, waiting for writes to settle. Stops on interrupt or --timeout.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		w := cmd.OutOrStdout()
		replan := func() error {
			if err := planFiles(ctx, w, args); err != nil {
				fmt.Fprintf(w, "error: %v\n", err)
			}
			return nil
		}
		if err := replan(); err != nil {
			return err
		}
		err := watchFile(ctx, args[0], watchDebounce, replan)
		if ctx.Err() != nil {
			return nil
		}
		return err
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 300*time.Millisecond, "Quiet period before re-planning")
}

// watchFile calls onChange once writes to path have been quiet for debounce.
// The parent directory is watched so editors that replace the file are seen.
// It returns when ctx is done or onChange fails.
func watchFile(ctx context.Context, path string, debounce time.Duration, onChange func() error) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	logging.Boot("watching %s", abs)

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			logging.BootDebug("%s: %s", event.Op, event.Name)
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Get(logging.CategoryBoot).Warn("watch error: %v", err)

		case <-timer.C:
			if err := onChange(); err != nil {
				return err
			}
		}
	}
}
