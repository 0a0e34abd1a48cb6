package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"github.com/MimeLyc/job-tracker/internal/export"
	"github.com/MimeLyc/job-tracker/internal/jobs"
	"github.com/MimeLyc/job-tracker/pkg/file"
	"github.com/MimeLyc/job-tracker/pkg/icron"
	"github.com/MimeLyc/job-tracker/pkg/log"
)

const (
	filePrefix     = "jobs-"
	fileTimeLayout = "20060102T150405.000Z"
)

// Lister is the read side of the job store.
type Lister interface {
	List() []jobs.Job
}

type Config struct {
	CronExpr string
	Format   export.Format
	Dir      string
	// Keep is how many exports survive pruning; 0 keeps everything.
	Keep int
}

// Exporter writes periodic snapshots of the store to Dir.
type Exporter struct {
	cfg   Config
	store Lister
	cron  *cron.Cron
	now   func() time.Time
	group singleflight.Group
}

func NewExporter(cfg Config, store Lister, c *cron.Cron) *Exporter {
	return &Exporter{
		cfg:   cfg,
		store: store,
		cron:  c,
		now:   time.Now,
	}
}

// Schedule registers the export with the cron engine. The engine must be
// started by the caller.
func (e *Exporter) Schedule(ctx context.Context) error {
	if e.cfg.CronExpr == "" {
		log.Info("Scheduled export disabled")
		return nil
	}

	runFunc := func() {
		if ctx.Err() != nil {
			return
		}
		if _, err := e.Run(ctx); err != nil {
			log.Error("Scheduled export failed: %v", err)
		}
	}
	if _, err := e.cron.AddFunc(e.cfg.CronExpr, runFunc); err != nil {
		return fmt.Errorf("schedule export: %w", err)
	}

	if info, err := icron.GetTriggerInfo(e.cfg.CronExpr, e.now()); err == nil {
		log.Info("Scheduled %s export to %s, next run at %s (every %s)",
			e.cfg.Format, e.cfg.Dir, info.Next.Format(time.RFC3339), info.Interval)
	}
	return nil
}

// Run writes one export and prunes old ones. Overlapping calls share a single
// run and get the same path.
func (e *Exporter) Run(ctx context.Context) (string, error) {
	v, err, _ := e.group.Do("export", func() (any, error) {
		return e.run(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (e *Exporter) run(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	snapshot := e.store.List()
	data, err := export.Encode(snapshot, e.cfg.Format)
	if err != nil {
		return "", err
	}

	name := filePrefix + e.now().UTC().Format(fileTimeLayout) + e.cfg.Format.Ext()
	target := filepath.Join(e.cfg.Dir, name)
	if err := file.WriteAtomic(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	log.Info("Exported %d jobs to %s", len(snapshot), target)

	if err := e.prune(); err != nil {
		log.Warn("Failed to prune old exports in %s: %v", e.cfg.Dir, err)
	}
	return target, nil
}

func (e *Exporter) prune() error {
	if e.cfg.Keep <= 0 {
		return nil
	}
	all, err := file.ListByModTime(e.cfg.Dir, e.cfg.Format.Ext())
	if err != nil {
		return err
	}
	files := make([]string, 0, len(all))
	for _, p := range all {
		if strings.HasPrefix(filepath.Base(p), filePrefix) {
			files = append(files, p)
		}
	}
	for len(files) > e.cfg.Keep {
		if err := os.Remove(files[0]); err != nil {
			return err
		}
		log.Debug("Pruned export %s", files[0])
		files = files[1:]
	}
	return nil
}
