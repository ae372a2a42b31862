package entries

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/trackfit/internal/auth"
	"github.com/2beens/trackfit/internal/telemetry/metrics"
	"github.com/2beens/trackfit/internal/telemetry/tracing"
	"github.com/2beens/trackfit/internal/workouts"
	"github.com/2beens/trackfit/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=entries_test

const notifyTimeout = 2 * time.Second

type entriesRepo interface {
	Add(ctx context.Context, entry workouts.Entry) (*workouts.Entry, error)
	Get(ctx context.Context, userID, id string) (*workouts.Entry, error)
	ListAll(ctx context.Context, userID string) ([]workouts.Entry, error)
	Update(ctx context.Context, entry *workouts.Entry) error
	UpdateNotes(ctx context.Context, userID, id, notes string) error
	Delete(ctx context.Context, userID, id string) (*workouts.Entry, error)
}

type statsInvalidator interface {
	Invalidate(userID string)
}

type UpdateNotesRequest struct {
	Notes string `json:"notes"`
}

type ListResponse struct {
	Entries []workouts.Entry `json:"entries"`
	Total   int              `json:"total"`
}

type HistoryResponse struct {
	Days  []HistoryDay `json:"days"`
	Total int          `json:"total"`
}

type Handler struct {
	repo           entriesRepo
	notifier       Notifier
	statsCache     statsInvalidator
	metricsManager *metrics.Manager
	location       *time.Location
	now            func() time.Time
}

type NewHandlerParams struct {
	Repo           entriesRepo
	Notifier       Notifier
	StatsCache     statsInvalidator
	MetricsManager *metrics.Manager
	Location       *time.Location
	Now            func() time.Time
}

func NewHandler(params NewHandlerParams) *Handler {
	h := &Handler{
		repo:           params.Repo,
		notifier:       params.Notifier,
		statsCache:     params.StatsCache,
		metricsManager: params.MetricsManager,
		location:       params.Location,
		now:            params.Now,
	}
	if h.notifier == nil {
		h.notifier = NoopNotifier{}
	}
	if h.location == nil {
		h.location = time.UTC
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.entries.add")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	entry, ok := decodeEntry(w, r)
	if !ok {
		return
	}
	entry.UserID = userID

	added, err := handler.repo.Add(ctx, *entry)
	if err != nil {
		if errors.Is(err, ErrEntryExists) {
			http.Error(w, "entry already exists", http.StatusConflict)
			return
		}
		log.Errorf("failed to add entry for user [%s]: %s", userID, err)
		http.Error(w, "error, failed to add entry", http.StatusInternalServerError)
		return
	}
	span.SetAttributes(attribute.String("entry.id", added.ID))

	handler.afterWrite(ctx, EventEntryCreated, added)
	handler.writeJSON(w, added, http.StatusCreated)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.entries.get")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	entry, err := handler.repo.Get(ctx, userID, id)
	if err != nil {
		handler.repoError(w, "get", id, err)
		return
	}

	handler.writeJSON(w, entry, http.StatusOK)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.entries.list")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	entries, err := handler.repo.ListAll(ctx, userID)
	if err != nil {
		log.Errorf("failed to list entries for user [%s]: %s", userID, err)
		http.Error(w, "failed to get entries", http.StatusInternalServerError)
		return
	}

	handler.writeJSON(w, ListResponse{Entries: entries, Total: len(entries)}, http.StatusOK)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.entries.update")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	entry, ok := decodeEntry(w, r)
	if !ok {
		return
	}
	entry.ID = id
	entry.UserID = userID

	if err := handler.repo.Update(ctx, entry); err != nil {
		handler.repoError(w, "update", id, err)
		return
	}

	handler.afterWrite(ctx, EventEntryUpdated, entry)

	// respond with the stored row, it carries the original creation time
	stored, err := handler.repo.Get(ctx, userID, id)
	if err != nil {
		log.Errorf("get entry [%s] after update: %s", id, err)
		stored = entry
	}
	handler.writeJSON(w, stored, http.StatusOK)
}

func (handler *Handler) HandleUpdateNotes(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.entries.update_notes")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	var req UpdateNotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("update notes, unmarshal json params: %s", err)
		http.Error(w, "error, invalid notes request", http.StatusBadRequest)
		return
	}

	if err := handler.repo.UpdateNotes(ctx, userID, id, req.Notes); err != nil {
		handler.repoError(w, "update notes of", id, err)
		return
	}

	handler.afterWrite(ctx, EventEntryUpdated, &workouts.Entry{ID: id, UserID: userID})
	pkg.WriteJSONResponseOK(w, `{"updated":true}`)
}

// HandleDelete removes the entry and returns it, so the client can restore it
// by posting it back with the same ID.
func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.entries.delete")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	deleted, err := handler.repo.Delete(ctx, userID, id)
	if err != nil {
		handler.repoError(w, "delete", id, err)
		return
	}

	handler.afterWrite(ctx, EventEntryDeleted, deleted)
	handler.writeJSON(w, deleted, http.StatusOK)
}

// HandleHistory serves the entries grouped by date, newest first:
//
//	GET /entries/history?type=Chest/Triceps&days=30
func (handler *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.entries.history")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	days := 30
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		var err error
		days, err = strconv.Atoi(daysStr)
		if err != nil || days < 0 {
			http.Error(w, "invalid days parameter (must be a non-negative integer)", http.StatusBadRequest)
			return
		}
	}

	entries, err := handler.repo.ListAll(ctx, userID)
	if err != nil {
		log.Errorf("failed to list entries for user [%s]: %s", userID, err)
		http.Error(w, "failed to get entries", http.StatusInternalServerError)
		return
	}

	history := BuildHistory(entries, HistoryParams{
		WorkoutType: r.URL.Query().Get("type"),
		Days:        days,
		Today:       workouts.CalendarDate(handler.now(), handler.location),
	})
	handler.writeJSON(w, HistoryResponse{Days: history, Total: len(history)}, http.StatusOK)
}

func decodeEntry(w http.ResponseWriter, r *http.Request) (*workouts.Entry, bool) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return nil, false
	}

	var entry workouts.Entry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		log.Tracef("entry, unmarshal json params: %s", err)
		http.Error(w, "error, invalid entry", http.StatusBadRequest)
		return nil, false
	}

	dateDay, err := workouts.NormalizeDateDay(entry.DateDay)
	if err != nil {
		http.Error(w, "error, invalid date day", http.StatusBadRequest)
		return nil, false
	}
	entry.DateDay = dateDay

	if entry.Weight != nil && *entry.Weight <= 0 {
		entry.Weight = nil
	}

	return &entry, true
}

func (handler *Handler) repoError(w http.ResponseWriter, op, id string, err error) {
	if errors.Is(err, ErrEntryNotFound) {
		pkg.WriteResponse(w, pkg.ContentType.Text, "entry not found", http.StatusNotFound)
		return
	}
	log.Errorf("failed to %s entry [%s]: %s", op, id, err)
	http.Error(w, "error, failed to "+op+" entry", http.StatusInternalServerError)
}

// afterWrite drops the cached statistics and publishes the change.
// Publishing failures are only logged.
func (handler *Handler) afterWrite(ctx context.Context, eventType EventType, entry *workouts.Entry) {
	if handler.statsCache != nil {
		handler.statsCache.Invalidate(entry.UserID)
	}
	if handler.metricsManager != nil {
		handler.metricsManager.CounterEntryWrites.WithLabelValues(string(eventType)).Inc()
	}

	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := handler.notifier.Notify(notifyCtx, EntryEvent{
		Type:    eventType,
		EntryID: entry.ID,
		UserID:  entry.UserID,
		DateDay: entry.DateDay,
		At:      handler.now(),
	}); err != nil {
		log.Errorf("notify [%s] for entry [%s]: %s", eventType, entry.ID, err)
		if handler.metricsManager != nil {
			handler.metricsManager.CounterNotifierFailures.Inc()
		}
	}
}

func (handler *Handler) writeJSON(w http.ResponseWriter, v any, status int) {
	respJson, err := json.Marshal(v)
	if err != nil {
		log.Errorf("failed to marshal response: %s", err)
		http.Error(w, "failed to marshal response", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, status)
}
