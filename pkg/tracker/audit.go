package tracker

import (
	"time"

	"github.com/goliatone/go-formengine/pkg/model"
)

// AuditLog returns the entries recorded for one parameter, oldest first.
func (t *Tracker) AuditLog(formID, parameterID string) []model.ParameterAuditLogEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []model.ParameterAuditLogEntry
	for _, entry := range t.audit {
		if entry.FormID == formID && entry.ParameterID == parameterID {
			out = append(out, cloneEntry(entry))
		}
	}
	return out
}

// AllAuditLogs returns every entry, oldest first.
func (t *Tracker) AllAuditLogs() []model.ParameterAuditLogEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]model.ParameterAuditLogEntry, 0, len(t.audit))
	for _, entry := range t.audit {
		out = append(out, cloneEntry(entry))
	}
	return out
}

// cloneEntry copies the parts of entry that alias tracker state.
func cloneEntry(entry model.ParameterAuditLogEntry) model.ParameterAuditLogEntry {
	entry.AffectedParameters = append([]model.ParameterRef(nil), entry.AffectedParameters...)
	if entry.Source != nil {
		source := *entry.Source
		entry.Source = &source
	}
	return entry
}

// ClearAuditLogsOlderThan drops entries stamped before cutoff and returns
// how many were removed.
func (t *Tracker) ClearAuditLogsOlderThan(cutoff time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	kept := t.audit[:0]
	for _, entry := range t.audit {
		if !entry.Timestamp.Before(cutoff) {
			kept = append(kept, entry)
		}
	}
	removed := len(t.audit) - len(kept)
	for idx := len(kept); idx < len(t.audit); idx++ {
		t.audit[idx] = model.ParameterAuditLogEntry{}
	}
	t.audit = kept
	return removed
}
