package main

import (
	"context"

	"github.com/MimeLyc/job-tracker/internal/apperr"
	"github.com/MimeLyc/job-tracker/internal/config"
	"github.com/MimeLyc/job-tracker/internal/jobs"
	"github.com/MimeLyc/job-tracker/internal/persistence"
	"github.com/MimeLyc/job-tracker/pkg/log"
)

// openStore builds the job store for the configured driver. The returned
// func releases the backend and must be called once the store is done.
func (a *app) openStore(ctx context.Context) (*jobs.Store, func(), error) {
	switch a.cfg.Store.Driver {
	case config.DriverMemory:
		log.Debug("Using in-memory job store")
		return jobs.NewStore(), func() {}, nil
	default:
		dbPath := a.cfg.DBPath()
		backend, err := persistence.NewSQLiteStore(dbPath)
		if err != nil {
			return nil, nil, apperr.WrapError(err, apperr.ErrStorage, "open database").WithContext("path", dbPath)
		}
		release := func() {
			if err := backend.Close(); err != nil {
				log.Warn("Failed to close database: %v", err)
			}
		}

		store, err := jobs.Open(ctx, backend)
		if err != nil {
			release()
			return nil, nil, err
		}
		log.Debug("Loaded %d jobs from %s", store.Len(), dbPath)
		return store, release, nil
	}
}
