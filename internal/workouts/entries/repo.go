package entries

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/trackfit/internal/telemetry/tracing"
	"github.com/2beens/trackfit/internal/workouts"
	"github.com/2beens/trackfit/pkg"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrEntryNotFound = errors.New("entry not found")
	ErrEntryExists   = errors.New("entry already exists")
)

const entryColumns = `id, user_id, date_day, workout_type, exercises, cardio, notes, weight, created_at, updated_at`

// Repo stores the workout entries in postgres, table workout_entry.
type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// Add stores a new entry. A missing ID is generated; a given one is kept,
// so a deleted entry can be restored under its old ID.
func (r *Repo) Add(ctx context.Context, entry workouts.Entry) (_ *workouts.Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.entries.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	prepareNewEntry(&entry, time.Now())
	span.SetAttributes(attribute.String("entry.id", entry.ID))

	exercisesJson, cardioJson, err := marshalEntryParts(entry)
	if err != nil {
		return nil, err
	}

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO workout_entry (`+entryColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);`,
		entry.ID, entry.UserID, entry.DateDay, entry.WorkoutType, exercisesJson, cardioJson,
		entry.Notes, entry.Weight, entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return nil, ErrEntryExists
		}
		return nil, fmt.Errorf("insert entry: %w", err)
	}

	return &entry, nil
}

func (r *Repo) Get(ctx context.Context, userID, id string) (_ *workouts.Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.entries.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("entry.id", id))

	rows, err := r.db.Query(
		ctx,
		`SELECT `+entryColumns+` FROM workout_entry WHERE id = $1 AND user_id = $2;`,
		id, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrEntryNotFound
	}

	return scanEntry(rows)
}

// ListAll returns all the entries of the user, oldest first.
func (r *Repo) ListAll(ctx context.Context, userID string) (_ []workouts.Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.entries.list_all")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT `+entryColumns+` FROM workout_entry
			WHERE user_id = $1
			ORDER BY left(date_day, 10), created_at;`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]workouts.Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("entries.count", len(entries)))
	return entries, nil
}

func (r *Repo) Update(ctx context.Context, entry *workouts.Entry) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.entries.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("entry.id", entry.ID))

	exercisesJson, cardioJson, err := marshalEntryParts(*entry)
	if err != nil {
		return err
	}
	entry.UpdatedAt = time.Now()

	tag, err := r.db.Exec(
		ctx,
		`UPDATE workout_entry
			SET date_day = $1, workout_type = $2, exercises = $3, cardio = $4, notes = $5, weight = $6, updated_at = $7
			WHERE id = $8 AND user_id = $9;`,
		entry.DateDay, entry.WorkoutType, exercisesJson, cardioJson, entry.Notes, entry.Weight, entry.UpdatedAt,
		entry.ID, entry.UserID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}

	return nil
}

func (r *Repo) UpdateNotes(ctx context.Context, userID, id, notes string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.entries.update_notes")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("entry.id", id))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE workout_entry SET notes = $1, updated_at = $2 WHERE id = $3 AND user_id = $4;`,
		notes, time.Now(), id, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}

	return nil
}

// Delete removes the entry and returns it, so the caller can offer an undo.
func (r *Repo) Delete(ctx context.Context, userID, id string) (_ *workouts.Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.entries.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("entry.id", id))

	rows, err := r.db.Query(
		ctx,
		`DELETE FROM workout_entry WHERE id = $1 AND user_id = $2 RETURNING `+entryColumns+`;`,
		id, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrEntryNotFound
	}

	return scanEntry(rows)
}

func prepareNewEntry(entry *workouts.Entry, now time.Time) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
	if entry.Exercises == nil {
		entry.Exercises = []workouts.Exercise{}
	}
}

func marshalEntryParts(entry workouts.Entry) (exercisesJson, cardioJson []byte, err error) {
	exercises := entry.Exercises
	if exercises == nil {
		exercises = []workouts.Exercise{}
	}
	exercisesJson, err = json.Marshal(exercises)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal exercises: %w", err)
	}
	if entry.Cardio != nil {
		cardioJson, err = json.Marshal(entry.Cardio)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal cardio: %w", err)
		}
	}
	return exercisesJson, cardioJson, nil
}

func scanEntry(rows pgx.Rows) (*workouts.Entry, error) {
	var (
		entry         workouts.Entry
		exercisesJson []byte
		cardioJson    []byte
	)
	if err := rows.Scan(
		&entry.ID, &entry.UserID, &entry.DateDay, &entry.WorkoutType,
		&exercisesJson, &cardioJson, &entry.Notes, &entry.Weight,
		&entry.CreatedAt, &entry.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}

	if err := json.Unmarshal(exercisesJson, &entry.Exercises); err != nil {
		return nil, fmt.Errorf("unmarshal exercises: %w", err)
	}
	if len(cardioJson) > 0 {
		if err := json.Unmarshal(cardioJson, &entry.Cardio); err != nil {
			return nil, fmt.Errorf("unmarshal cardio: %w", err)
		}
	}

	return &entry, nil
}
