package godine

import (
	"context"
	"fmt"
	"sync"
)

// teardownRecord pairs a provider name with the teardown that releases
// its value.
type teardownRecord struct {
	name string
	fn   func(ctx context.Context) error
}

// teardownStack accumulates teardowns in creation order so they can run
// in reverse when the owner ends. After drain the stack refuses new
// records, leaving a late registrant to release its own value.
type teardownStack struct {
	mu      sync.Mutex
	records []teardownRecord
	drained bool
}

// push appends a record. It reports false once the stack has been
// drained.
func (t *teardownStack) push(name string, fn func(ctx context.Context) error) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.drained {
		return false
	}
	t.records = append(t.records, teardownRecord{name: name, fn: fn})
	return true
}

// mark returns the current length, for a later rollback.
func (t *teardownStack) mark() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.records)
}

// drain removes and returns every record and rejects further pushes.
func (t *teardownStack) drain() []teardownRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	records := t.records
	t.records = nil
	t.drained = true
	return records
}

// rollback removes the records pushed since mark whose names are in
// created and returns them. Records for other names keep their place.
func (t *teardownStack) rollback(mark int, created map[string]struct{}) []teardownRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	var keep, out []teardownRecord
	for _, rec := range t.records[mark:] {
		if _, ok := created[rec.name]; ok {
			out = append(out, rec)
		} else {
			keep = append(keep, rec)
		}
	}
	t.records = append(t.records[:mark], keep...)
	return out
}

// runTeardowns executes records in reverse order, reporting each
// failure, and returns the failures in the order they occurred. Every
// record runs regardless of earlier failures.
func runTeardowns(ctx context.Context, records []teardownRecord, report func(name string, err error)) []error {
	var errs []error
	for i := len(records) - 1; i >= 0; i-- {
		if err := records[i].fn(ctx); err != nil {
			report(records[i].name, err)
			errs = append(errs, fmt.Errorf("%s: %w", records[i].name, err))
		}
	}
	return errs
}
