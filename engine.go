package tablesync

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Engine reconciles a local dataset against a record-shaped table service.
// One engine performs one sync run at a time; the request controller it was
// built with gates every remote call of the run, reads and writes alike.
type Engine struct {
	service  TableService
	ctrl     *RequestController
	transfer *TransferManager
	cfg      *Config
	logger   zerolog.Logger
}

// NewEngine builds an engine for the given service and run configuration.
func NewEngine(service TableService, ctrl *RequestController, cfg *Config, logger zerolog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		service:  service,
		ctrl:     ctrl,
		transfer: NewTransferManager(ctrl, cfg.InterCallDelay, logger),
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// Plan computes the delta for local without mutating the remote store. The
// remote read still goes through the controller's rate limit.
func (e *Engine) Plan(ctx context.Context, local []Row) (*SyncPlan, error) {
	local = e.cfg.columnFilter().Apply(local)

	index, err := e.remoteIndex(ctx)
	if err != nil {
		return nil, err
	}
	return BuildPlan(local, e.cfg.Mode, index, e.cfg.KeyColumn)
}

// Sync computes the delta for local and applies it. Phases run in mode
// order (updates before creates, deletes before creates); a failed phase
// does not suppress the remaining phases, and the overall result joins
// every phase failure.
func (e *Engine) Sync(ctx context.Context, local []Row) error {
	plan, err := e.Plan(ctx, local)
	if err != nil {
		return err
	}

	e.logger.Info().
		Stringer("mode", e.cfg.Mode).
		Int("create", len(plan.ToCreate)).
		Int("update", len(plan.ToUpdate)).
		Int("delete", len(plan.ToDelete)).
		Msg("sync plan computed")

	return e.Apply(ctx, plan)
}

// Apply executes an already-computed plan. Deletes run first so overwrite
// and clone never hold both the old and new copy of a row, then updates,
// then creates.
func (e *Engine) Apply(ctx context.Context, plan *SyncPlan) error {
	var phaseErrs []error

	if len(plan.ToDelete) > 0 {
		if err := e.deletePhase(ctx, plan.ToDelete); err != nil {
			phaseErrs = append(phaseErrs, fmt.Errorf("delete phase: %w", err))
		}
	}
	if len(plan.ToUpdate) > 0 {
		if err := e.updatePhase(ctx, plan.ToUpdate); err != nil {
			phaseErrs = append(phaseErrs, fmt.Errorf("update phase: %w", err))
		}
	}
	if len(plan.ToCreate) > 0 {
		if err := e.createPhase(ctx, plan.ToCreate); err != nil {
			phaseErrs = append(phaseErrs, fmt.Errorf("create phase: %w", err))
		}
	}

	return errors.Join(phaseErrs...)
}

func (e *Engine) deletePhase(ctx context.Context, ids []string) error {
	err := e.transfer.Transfer(ctx, "batch delete", len(ids), e.cfg.BatchSize, func(ctx context.Context, c Chunk) error {
		return e.service.BatchDelete(ctx, ids[c.Start:c.End])
	})
	e.logPhase("delete", len(ids), err)
	return err
}

func (e *Engine) updatePhase(ctx context.Context, updates []RecordUpdate) error {
	err := e.transfer.Transfer(ctx, "batch update", len(updates), e.cfg.BatchSize, func(ctx context.Context, c Chunk) error {
		return e.service.BatchUpdate(ctx, updates[c.Start:c.End])
	})
	e.logPhase("update", len(updates), err)
	return err
}

func (e *Engine) createPhase(ctx context.Context, rows []Row) error {
	err := e.transfer.Transfer(ctx, "batch create", len(rows), e.cfg.BatchSize, func(ctx context.Context, c Chunk) error {
		return e.service.BatchCreate(ctx, rows[c.Start:c.End])
	})
	e.logPhase("create", len(rows), err)
	return err
}

func (e *Engine) logPhase(phase string, units int, err error) {
	if err != nil {
		e.logger.Error().Err(err).Str("phase", phase).Int("units", units).Msg("phase failed")
		return
	}
	e.logger.Info().Str("phase", phase).Int("units", units).Msg("phase complete")
}

// remoteIndex materializes the remote state needed by the configured mode.
// Modes that cannot match anything (no key column, and not clone) skip the
// remote read entirely and degenerate to append-only plans.
func (e *Engine) remoteIndex(ctx context.Context) (RecordIndex, error) {
	if e.cfg.Mode != SyncClone && e.cfg.KeyColumn == "" {
		return RecordIndex{}, nil
	}

	records, err := e.fetchAllRecords(ctx)
	if err != nil {
		return nil, err
	}

	if e.cfg.Mode == SyncClone {
		// Clone deletes by identity, not by key match.
		return IndexByID(records), nil
	}
	return BuildRecordIndex(records, e.cfg.KeyColumn), nil
}

// fetchAllRecords pages through the remote store until the page token runs
// out. Each page fetch goes through the controller.
func (e *Engine) fetchAllRecords(ctx context.Context) ([]RemoteRecord, error) {
	var all []RemoteRecord
	token := ""

	for {
		var (
			page []RemoteRecord
			next string
		)
		err := e.ctrl.Do(ctx, "page records", func(ctx context.Context) error {
			var err error
			page, next, err = e.service.PageRecords(ctx, token)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("paging remote records: %w", err)
		}

		all = append(all, page...)
		if next == "" {
			break
		}
		token = next
	}

	e.logger.Debug().Int("records", len(all)).Msg("remote state loaded")
	return all, nil
}
