package db

import "github.com/TokiACD/caretrack/pkg/core/model"

// CreateEntryResult is the persistence boundary's answer to a successful
// commit: the stored entry plus the authoritative server-side rule check
// that was run inside the same transaction.
type CreateEntryResult struct {
	Entry      model.ShiftEntry      `json:"entry"`
	Violations []model.RuleViolation `json:"violations"`
	Warnings   []model.RuleViolation `json:"warnings"`
}

// BatchDeleteError records one failed deletion inside a batch
type BatchDeleteError struct {
	EntryID string `json:"entryId"`
	Error   string `json:"error"`
}

// BatchDeleteResult reports a batch deletion with per-id outcomes. A batch
// with DeletedCount > 0 is a (partial) success even when Errors is
// non-empty; only DeletedCount == 0 is a failure.
type BatchDeleteResult struct {
	DeletedCount int                `json:"deletedCount"`
	Errors       []BatchDeleteError `json:"errors"`
}

// IsTotalFailure reports whether nothing in the batch was deleted
func (r BatchDeleteResult) IsTotalFailure() bool {
	return r.DeletedCount == 0 && len(r.Errors) > 0
}
