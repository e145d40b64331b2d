package tabula

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vk/tabula/internal/ctxlog"
)

// LoadAll fetches, decodes, and installs every declared dataset, one task
// per slot. Tasks are independent; a failure in one never blocks the
// others. After all tasks complete the aggregated per-slot failures are
// returned joined, and every slot that succeeded is visible to subsequent
// lookups. The first LoadAll flips Initialized regardless of partial
// failures.
func (c *Context) LoadAll(ctx context.Context) error {
	logger := c.loggerFrom(ctx)
	logger.Debug("Loading all datasets.", "slots", len(c.slots))

	errs := make([]error, len(c.slots))
	var g errgroup.Group
	for i, s := range c.slots {
		g.Go(func() error {
			if err := c.loadSlot(ctx, s, "load"); err != nil {
				errs[i] = &SlotError{Slot: s.name, Op: "load", Err: err}
			}
			return nil
		})
	}
	_ = g.Wait()
	c.initialized.Store(true)

	if err := errors.Join(errs...); err != nil {
		logger.Warn("Load completed with failures.", "error", err)
		return err
	}
	logger.Info("All datasets loaded.", "slots", len(c.slots))
	return nil
}

// SaveAll serializes every currently-installed repository's full contents
// back through its codec and out through the storage collaborator, one
// task per slot. Slots that were never installed are skipped. Failures are
// aggregated the same way as LoadAll.
func (c *Context) SaveAll(ctx context.Context) error {
	logger := c.loggerFrom(ctx)
	logger.Debug("Saving all datasets.", "slots", len(c.slots))

	errs := make([]error, len(c.slots))
	var g errgroup.Group
	for i, s := range c.slots {
		g.Go(func() error {
			if err := c.saveSlot(ctx, s); err != nil {
				errs[i] = &SlotError{Slot: s.name, Op: "save", Err: err}
			}
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

// Reload re-runs the fetch/decode/install sequence for exactly one named
// slot, replacing its repository wholesale. Every other slot is untouched.
func (c *Context) Reload(ctx context.Context, name string) error {
	for _, s := range c.slots {
		if s.name != name {
			continue
		}
		if err := c.loadSlot(ctx, s, "reload"); err != nil {
			return &SlotError{Slot: name, Op: "load", Err: err}
		}
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownSlot, name)
}

// loadSlot runs the fetch/decode/install sequence for one slot. op is the
// metrics label: "load" for the bulk path, "reload" for single-slot reloads.
func (c *Context) loadSlot(ctx context.Context, s *slot, op string) error {
	logger := c.loggerFrom(ctx)
	start := time.Now()

	data, err := c.storage.LoadText(ctx, s.path)
	if err == nil {
		err = s.load(ctx, data)
	}
	c.metrics.observe(op, s.name, err, start)
	if err != nil {
		logger.Warn("Dataset load failed.", "slot", s.name, "path", s.path, "error", err)
		return err
	}
	logger.Debug("Dataset loaded.", "slot", s.name, "path", s.path, "duration", time.Since(start))
	return nil
}

func (c *Context) saveSlot(ctx context.Context, s *slot) error {
	logger := c.loggerFrom(ctx)
	start := time.Now()

	data, ok, err := s.save(ctx)
	if err == nil && ok {
		err = c.storage.SaveText(ctx, s.path, data)
	}
	if err == nil && !ok {
		logger.Debug("Dataset never installed, skipping save.", "slot", s.name)
		return nil
	}
	c.metrics.observe("save", s.name, err, start)
	if err != nil {
		logger.Warn("Dataset save failed.", "slot", s.name, "path", s.path, "error", err)
		return err
	}
	logger.Debug("Dataset saved.", "slot", s.name, "path", s.path, "duration", time.Since(start))
	return nil
}

// loggerFrom prefers a context-carried logger over the configured one, so
// callers can scope logging per operation the way the rest of the stack
// does.
func (c *Context) loggerFrom(ctx context.Context) *slog.Logger {
	if logger, ok := ctxlog.Maybe(ctx); ok {
		return logger
	}
	return c.logger
}
