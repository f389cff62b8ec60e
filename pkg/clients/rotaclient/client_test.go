package rotaclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TokiACD/caretrack/pkg/core/model"
	"github.com/TokiACD/caretrack/pkg/db"
)

var weekStart = model.NewDate(2026, time.March, 2)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	return NewClient(server.URL, zap.NewNop()), server
}

func TestGetWeeklySchedule(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/packages/pkg-1/weekly-schedule", r.URL.Path)
		assert.Equal(t, "2026-03-02", r.URL.Query().Get("weekStart"))
		json.NewEncoder(w).Encode(model.NewWeeklySchedule("pkg-1", weekStart))
	})
	defer server.Close()

	schedule, err := client.GetWeeklySchedule(context.Background(), "pkg-1", weekStart)
	require.NoError(t, err)
	assert.Equal(t, "pkg-1", schedule.PackageID)
	assert.Equal(t, weekStart, schedule.WeekStart)
}

func TestCreateEntryDecodesResult(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/rota-entries", r.URL.Path)

		var candidate model.ShiftEntry
		require.NoError(t, json.NewDecoder(r.Body).Decode(&candidate))
		assert.Equal(t, "amira", candidate.CarerID)

		candidate.ID = "e1"
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(db.CreateEntryResult{Entry: candidate})
	})
	defer server.Close()

	result, err := client.CreateEntry(context.Background(), model.ShiftEntry{
		PackageID: "pkg-1",
		CarerID:   "amira",
		Date:      weekStart,
		ShiftType: model.ShiftDay,
	})
	require.NoError(t, err)
	assert.Equal(t, "e1", result.Entry.ID)
}

func TestCreateEntryRefusalBecomesValidationError(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]any{
			"error": "placement refused",
			"violations": []model.RuleViolation{{
				Rule:     model.RuleWeeklyHourLimit,
				CarerID:  "amira",
				Message:  "over the weekly limit",
				Severity: model.SeverityError,
			}},
		})
	})
	defer server.Close()

	_, err := client.CreateEntry(context.Background(), model.ShiftEntry{CarerID: "amira"})
	require.Error(t, err)

	verr, ok := db.AsValidation(err)
	require.True(t, ok)
	require.Len(t, verr.Violations, 1)
	assert.Equal(t, model.RuleWeeklyHourLimit, verr.Violations[0].Rule)
}

func TestConfirmEntryNotFound(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/v1/rota-entries/e1/confirm", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{
			"error":    "rota entry e1 not found",
			"resource": "rota entry",
			"id":       "e1",
		})
	})
	defer server.Close()

	_, err := client.ConfirmEntry(context.Background(), "e1")
	require.Error(t, err)
	assert.True(t, db.IsNotFound(err))
	assert.Contains(t, err.Error(), "e1")
}

func TestDeleteEntry(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/v1/rota-entries/e1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})
	defer server.Close()

	assert.NoError(t, client.DeleteEntry(context.Background(), "e1"))
}

func TestBatchDeleteEntries(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/rota-entries/batch-delete", r.URL.Path)

		var req batchDeleteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"e1", "e2"}, req.EntryIDs)

		json.NewEncoder(w).Encode(db.BatchDeleteResult{
			DeletedCount: 1,
			Errors:       []db.BatchDeleteError{{EntryID: "e2", Error: "rota entry e2 not found"}},
		})
	})
	defer server.Close()

	result, err := client.BatchDeleteEntries(context.Background(), []string{"e1", "e2"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.DeletedCount)
	assert.Len(t, result.Errors, 1)
}

func TestUnreachableServerBecomesTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close() // nothing is listening any more
	client := NewClient(server.URL, zap.NewNop())

	_, err := client.GetWeeklySchedule(context.Background(), "pkg-1", weekStart)
	require.Error(t, err)
	assert.True(t, db.IsTransport(err))
}

func TestGatewayFailureBecomesTransportError(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	defer server.Close()

	err := client.DeleteEntry(context.Background(), "e1")
	require.Error(t, err)
	assert.True(t, db.IsTransport(err))
}

func TestUnexpectedStatusIsPlainError(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "internal error"})
	})
	defer server.Close()

	_, err := client.ListPackages(context.Background())
	require.Error(t, err)
	assert.False(t, db.IsTransport(err))
	assert.False(t, db.IsNotFound(err))
	assert.Contains(t, err.Error(), "500")
}

func TestListPackages(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/packages", r.URL.Path)
		json.NewEncoder(w).Encode([]model.CarePackage{
			{ID: "pkg-1", Name: "Smith household"},
			{ID: "pkg-2", Name: "Jones household"},
		})
	})
	defer server.Close()

	packages, err := client.ListPackages(context.Background())
	require.NoError(t, err)
	require.Len(t, packages, 2)
	assert.Equal(t, "Smith household", packages[0].Name)
}
