package entries

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/2beens/trackfit/internal/telemetry/tracing"
	"github.com/2beens/trackfit/internal/workouts"
)

const DefaultFirestoreCollection = "gymEntries"

type firestoreEntry struct {
	UserID      string              `firestore:"userId"`
	DateDay     string              `firestore:"dateDay"`
	WorkoutType string              `firestore:"workoutType"`
	Exercises   []firestoreExercise `firestore:"exercises"`
	Cardio      *firestoreCardio    `firestore:"cardio,omitempty"`
	Notes       string              `firestore:"notes"`
	Weight      *float64            `firestore:"weight,omitempty"`
	CreatedAt   time.Time           `firestore:"createdAt"`
	UpdatedAt   time.Time           `firestore:"updatedAt"`
}

type firestoreExercise struct {
	Name string   `firestore:"name"`
	Sets []string `firestore:"sets"`
}

type firestoreCardio struct {
	Incline string `firestore:"incline"`
	Speed   string `firestore:"speed"`
	Time    string `firestore:"time"`
}

func toFirestoreEntry(e workouts.Entry) firestoreEntry {
	doc := firestoreEntry{
		UserID:      e.UserID,
		DateDay:     e.DateDay,
		WorkoutType: e.WorkoutType,
		Exercises:   make([]firestoreExercise, 0, len(e.Exercises)),
		Notes:       e.Notes,
		Weight:      e.Weight,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	for _, ex := range e.Exercises {
		doc.Exercises = append(doc.Exercises, firestoreExercise{Name: ex.Name, Sets: ex.Sets})
	}
	if e.Cardio != nil {
		doc.Cardio = &firestoreCardio{Incline: e.Cardio.Incline, Speed: e.Cardio.Speed, Time: e.Cardio.Time}
	}
	return doc
}

func (doc firestoreEntry) toEntry(id string) workouts.Entry {
	e := workouts.Entry{
		ID:          id,
		UserID:      doc.UserID,
		DateDay:     doc.DateDay,
		WorkoutType: doc.WorkoutType,
		Exercises:   make([]workouts.Exercise, 0, len(doc.Exercises)),
		Notes:       doc.Notes,
		Weight:      doc.Weight,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
	for _, ex := range doc.Exercises {
		e.Exercises = append(e.Exercises, workouts.Exercise{Name: ex.Name, Sets: ex.Sets})
	}
	if doc.Cardio != nil {
		e.Cardio = &workouts.Cardio{Incline: doc.Cardio.Incline, Speed: doc.Cardio.Speed, Time: doc.Cardio.Time}
	}
	return e
}

// FirestoreRepo stores the entries as documents of a firestore collection,
// keyed by entry ID and owned through the userId field.
type FirestoreRepo struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreClient connects to firestore; with an empty credentials file
// the application default credentials are used.
func NewFirestoreClient(ctx context.Context, projectID, credentialsFile string) (*firestore.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("new firestore client: %w", err)
	}
	return client, nil
}

func NewFirestoreRepo(client *firestore.Client, collection string) *FirestoreRepo {
	if collection == "" {
		collection = DefaultFirestoreCollection
	}
	return &FirestoreRepo{
		client:     client,
		collection: collection,
	}
}

func (r *FirestoreRepo) entries() *firestore.CollectionRef {
	return r.client.Collection(r.collection)
}

func (r *FirestoreRepo) Add(ctx context.Context, entry workouts.Entry) (_ *workouts.Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.entries.firestore.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	prepareNewEntry(&entry, time.Now())
	span.SetAttributes(attribute.String("entry.id", entry.ID))

	if _, err := r.entries().Doc(entry.ID).Create(ctx, toFirestoreEntry(entry)); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, ErrEntryExists
		}
		return nil, fmt.Errorf("create entry doc: %w", err)
	}

	return &entry, nil
}

func (r *FirestoreRepo) Get(ctx context.Context, userID, id string) (_ *workouts.Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.entries.firestore.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("entry.id", id))

	doc, err := r.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	entry := doc.toEntry(id)
	return &entry, nil
}

func (r *FirestoreRepo) getOwned(ctx context.Context, userID, id string) (*firestoreEntry, error) {
	snap, err := r.entries().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("get entry doc: %w", err)
	}

	var doc firestoreEntry
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode entry doc: %w", err)
	}
	// documents of other users are reported as missing
	if doc.UserID != userID {
		return nil, ErrEntryNotFound
	}
	return &doc, nil
}

func (r *FirestoreRepo) ListAll(ctx context.Context, userID string) (_ []workouts.Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.entries.firestore.list_all")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	iter := r.entries().
		Where("userId", "==", userID).
		OrderBy("dateDay", firestore.Asc).
		OrderBy("createdAt", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	entries := make([]workouts.Entry, 0)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterate entry docs: %w", err)
		}

		var doc firestoreEntry
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode entry doc [%s]: %w", snap.Ref.ID, err)
		}
		entries = append(entries, doc.toEntry(snap.Ref.ID))
	}

	span.SetAttributes(attribute.Int("entries.count", len(entries)))
	return entries, nil
}

func (r *FirestoreRepo) Update(ctx context.Context, entry *workouts.Entry) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.entries.firestore.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("entry.id", entry.ID))

	current, err := r.getOwned(ctx, entry.UserID, entry.ID)
	if err != nil {
		return err
	}

	entry.CreatedAt = current.CreatedAt
	entry.UpdatedAt = time.Now()
	if _, err := r.entries().Doc(entry.ID).Set(ctx, toFirestoreEntry(*entry)); err != nil {
		return fmt.Errorf("set entry doc: %w", err)
	}
	return nil
}

func (r *FirestoreRepo) UpdateNotes(ctx context.Context, userID, id, notes string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.entries.firestore.update_notes")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("entry.id", id))

	if _, err := r.getOwned(ctx, userID, id); err != nil {
		return err
	}

	if _, err := r.entries().Doc(id).Update(ctx, []firestore.Update{
		{Path: "notes", Value: notes},
		{Path: "updatedAt", Value: time.Now()},
	}); err != nil {
		return fmt.Errorf("update entry notes: %w", err)
	}
	return nil
}

func (r *FirestoreRepo) Delete(ctx context.Context, userID, id string) (_ *workouts.Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.entries.firestore.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("entry.id", id))

	doc, err := r.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if _, err := r.entries().Doc(id).Delete(ctx); err != nil {
		return nil, fmt.Errorf("delete entry doc: %w", err)
	}

	entry := doc.toEntry(id)
	return &entry, nil
}
