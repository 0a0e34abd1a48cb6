package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/width"

	"github.com/MimeLyc/job-tracker/internal/apperr"
	"github.com/MimeLyc/job-tracker/internal/export"
	"github.com/MimeLyc/job-tracker/pkg/file"
)

const (
	listTimeLayout = "2006-01-02 15:04"
	// list columns are clipped to this many terminal cells
	listColumnWidth = 48
)

func (a *app) addCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <title> [description]",
		Short: "Add a job",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, release, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer release()
			description := ""
			if len(args) == 2 {
				description = args[1]
			}
			job, err := store.Create(cmd.Context(), args[0], description)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added job %d\n", job.ID)
			return nil
		},
	}
}

func (a *app) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, release, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer release()
			list := store.List()
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No jobs found")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tDESCRIPTION\tCREATED")
			for _, job := range list {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n",
					job.ID,
					clip(job.Title, listColumnWidth),
					clip(job.Description, listColumnWidth),
					job.CreatedAt.Local().Format(listTimeLayout),
				)
			}
			return tw.Flush()
		},
	}
}

func (a *app) removeCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Remove a job by id",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return apperr.NewError(apperr.ErrValidation, "invalid job id").WithContext("id", args[0])
			}
			store, release, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer release()
			if err := store.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed job %d\n", id)
			return nil
		},
	}
}

func (a *app) clearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every job; ids are not reused",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, release, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer release()
			n := store.Len()
			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d jobs\n", n)
			return nil
		},
	}
}

func (a *app) exportCommand() *cobra.Command {
	var req export.Request
	var path string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all jobs as JSON or CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := req.Parse()
			if err != nil {
				return err
			}
			store, release, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer release()
			snapshot := store.List()
			data, err := export.Encode(snapshot, format)
			if err != nil {
				return err
			}

			if path == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			switch {
			case path == "":
				path = format.FileName()
			case filepath.Ext(path) == "":
				path = file.ReplaceExt(path, format.Ext())
			}
			if err := file.WriteAtomic(path, data, 0o644); err != nil {
				return apperr.WrapError(err, apperr.ErrStorage, "write export").WithContext("path", path)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d jobs to %s\n", len(snapshot), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&req.Format, "format", "f", export.FormatJSON.String(), "export format: "+export.Names())
	cmd.Flags().StringVarP(&path, "file", "o", "", `output file, "-" for stdout (default "jobs.<format>")`)
	return cmd
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// clip folds s onto one line and shortens it to at most limit cells,
// counting East Asian wide runes as two.
func clip(s string, limit int) string {
	s = singleLine(s)
	total := 0
	for _, r := range s {
		total += cellWidth(r)
	}
	if total <= limit {
		return s
	}

	used := 0
	for i, r := range s {
		w := cellWidth(r)
		if used+w > limit-1 {
			return s[:i] + "…"
		}
		used += w
	}
	return s
}

func cellWidth(r rune) int {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	default:
		return 1
	}
}
