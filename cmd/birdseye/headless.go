package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sadopc/birdseye/internal/config"
	"github.com/sadopc/birdseye/internal/engine"
	"github.com/sadopc/birdseye/internal/model"
	"github.com/sadopc/birdseye/internal/ops"
	"github.com/sadopc/birdseye/internal/scanner"
	"github.com/sadopc/birdseye/internal/util"
)

const pollInterval = 50 * time.Millisecond

func newScanCmd(o *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "scan [path|user@host [remote-path]]",
		Short: "Scan without the UI and print a report",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, o, args, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()

			consumer := engine.NewConsumer(cmd.Context(), e.session())
			defer consumer.Close()
			if err := waitForScan(consumer, e.src.root, progressPrinter(cmd.ErrOrStderr())); err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), consumer.Snapshot(), consumer.Stats(), e.cfg, time.Now())
		},
	}
}

func newExportCmd(o *cliOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export [path|user@host [remote-path]]",
		Short: "Scan without the UI and write an ncdu-compatible JSON export",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, o, args, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()

			consumer := engine.NewConsumer(cmd.Context(), e.session())
			defer consumer.Close()
			if err := waitForScan(consumer, e.src.root, progressPrinter(cmd.ErrOrStderr())); err != nil {
				return err
			}
			if err := ops.ExportJSON(consumer.Snapshot(), output, version); err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			if output != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", output)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", defaultExportPath, `output file ("-" for stdout)`)
	return cmd
}

// waitForScan starts a scan of root and polls until it completes. The scan
// error, if any, is returned; the final snapshot stays on the consumer.
func waitForScan(c *engine.Consumer, root string, progress func(s scanner.Stats, done bool)) error {
	c.StartScan(root)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for range ticker.C {
		res := c.Poll()
		if res.Completed {
			break
		}
		if res.Updated && progress != nil {
			progress(c.Stats(), false)
		}
	}
	if progress != nil {
		progress(c.Stats(), true)
	}
	return c.Err()
}

// progressPrinter writes a single updating line when w is a terminal.
func progressPrinter(w io.Writer) func(scanner.Stats, bool) {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return nil
	}
	return func(s scanner.Stats, done bool) {
		fmt.Fprintf(w, "\rScanning... %s files, %s dirs, %s ",
			util.FormatCount(s.Files), util.FormatCount(s.Dirs), util.FormatSize(s.Bytes))
		if done {
			fmt.Fprintln(w)
		}
	}
}

// writeReport prints the ranked lists of snap as aligned columns.
func writeReport(w io.Writer, snap *model.Snapshot, stats scanner.Stats, cfg *config.Config, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	total := snap.CombinedSize()

	fmt.Fprintf(tw, "%s\n", snap.Root())
	fmt.Fprintf(tw, "%s in %s files and %s directories, scanned in %s\n",
		util.FormatSize(total),
		util.FormatCountExact(int64(snap.Len())),
		util.FormatCountExact(int64(snap.DirCount())),
		stats.Elapsed.Round(time.Millisecond))
	if stats.Errors > 0 {
		fmt.Fprintf(tw, "%s entries could not be read\n", util.FormatCountExact(stats.Errors))
	}

	fmt.Fprintf(tw, "\nLargest files\n")
	for _, f := range limit(snap.FilesBySize(), cfg.MaxFiles) {
		fmt.Fprintf(tw, "  %s\t%5.1f%%\t%s\t%s\n",
			util.FormatSize(f.Size), util.Percent(f.Size, total),
			util.FormatAge(f.Modified, f.ModifiedKnown, now), relPath(snap.Root(), f.Path))
	}

	fmt.Fprintf(tw, "\nLargest directories\n")
	for _, d := range limit(snap.DirsBySize(), cfg.MaxDirs) {
		fmt.Fprintf(tw, "  %s\t%5.1f%%\t%d files\t%s\n",
			util.FormatSize(d.CombinedSize), util.Percent(d.CombinedSize, total),
			len(d.Files), relPath(snap.Root(), d.Path))
	}

	fmt.Fprintf(tw, "\nLargest types\n")
	for _, g := range limit(snap.TypesBySize(), cfg.MaxTypes) {
		fmt.Fprintf(tw, "  %s\t%5.1f%%\t%d files\t%s\n",
			util.FormatSize(g.Size), util.Percent(g.Size, total), len(g.Files), typeName(g.Ext))
	}

	if chain := cfg.FilterChain(); len(chain) > 0 {
		fmt.Fprintf(tw, "\nFiltered (%s)\n", strings.Join(chain.Strings(), ", "))
		for f := range chain.Evaluate(snap.FilesBySize(), now) {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n",
				util.FormatSize(f.Size), util.FormatAge(f.Modified, f.ModifiedKnown, now), relPath(snap.Root(), f.Path))
		}
	}
	return tw.Flush()
}

// limit returns at most n items; n <= 0 keeps them all.
func limit[T any](items []T, n int) []T {
	if n <= 0 || len(items) <= n {
		return items
	}
	return items[:n]
}

func relPath(root, p string) string {
	if p == root {
		return "."
	}
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return p
	}
	return rel
}

func typeName(ext string) string {
	if ext == "" {
		return "(no extension)"
	}
	return "." + ext
}
