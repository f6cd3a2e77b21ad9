package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bibliotech/consultation-api/internal/core/domain"
	"github.com/bibliotech/consultation-api/internal/core/ports"
)

const collectionAppointments = "appointments"

// AppointmentRepository implements ports.AppointmentRepository on MongoDB.
//
// The booking invariant is owned here: a unique index on
// (book_id, requested_date) partial-filtered on active documents makes
// check-and-insert a single atomic operation. The filter keys on the derived
// `active` flag rather than `status` because $in is not permitted in partial
// index filter expressions; every status write maintains the flag.
type AppointmentRepository struct {
	col *mongo.Collection
}

func NewAppointmentRepository(db *mongo.Database) *AppointmentRepository {
	return &AppointmentRepository{col: db.Collection(collectionAppointments)}
}

func (r *AppointmentRepository) Create(ctx context.Context, a *domain.Appointment) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, a)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDateConflict
		}
		return err
	}
	return nil
}

func (r *AppointmentRepository) FindByID(ctx context.Context, id string) (*domain.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var a domain.Appointment
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAppointmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *AppointmentRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{
		{Key: "requested_date", Value: -1},
		{Key: "created_at", Value: -1},
	})
	cursor, err := r.col.Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		return nil, err
	}
	return decodeAppointments(ctx, cursor)
}

func (r *AppointmentRepository) List(ctx context.Context, filter ports.ListAppointmentsFilter) ([]*domain.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	return decodeAppointments(ctx, cursor)
}

// Transition compare-and-sets the status. The filter matches the expected
// current status, so of two racing writers exactly one update applies; the
// loser falls through to the disambiguation lookup.
func (r *AppointmentRepository) Transition(ctx context.Context, id string, from, to domain.AppointmentStatus) (*domain.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"status":            string(to),
		"active":            to.IsActive(),
		"status_changed_at": time.Now().UTC(),
	}}

	var a domain.Appointment
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": string(from)},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&a)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, r.missOrStale(ctx, id)
		}
		return nil, err
	}
	return &a, nil
}

// Reschedule moves a pending appointment to a new date. The unique partial
// index re-checks the conflict invariant atomically during the update.
func (r *AppointmentRepository) Reschedule(ctx context.Context, id, newDate string) (*domain.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var a domain.Appointment
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": string(domain.StatusPending)},
		bson.M{"$set": bson.M{"requested_date": newDate}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&a)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDateConflict
		}
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, r.missOrStale(ctx, id)
		}
		return nil, err
	}
	return &a, nil
}

func (r *AppointmentRepository) SetAttendanceWindow(ctx context.Context, id, entryTime, exitTime string) (*domain.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{}
	if entryTime != "" {
		set["entry_time"] = entryTime
	}
	if exitTime != "" {
		set["exit_time"] = exitTime
	}
	if len(set) == 0 {
		return r.FindByID(ctx, id)
	}

	var a domain.Appointment
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": string(domain.StatusConfirmed)},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&a)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			if _, ferr := r.FindByID(ctx, id); ferr != nil {
				return nil, ferr
			}
			return nil, domain.ErrNotConfirmed
		}
		return nil, err
	}
	return &a, nil
}

// missOrStale distinguishes a missing appointment from one whose status moved
// under the caller.
func (r *AppointmentRepository) missOrStale(ctx context.Context, id string) error {
	if _, err := r.FindByID(ctx, id); err != nil {
		return err
	}
	return domain.ErrInvalidTransition
}

// EnsureIndexes creates the indexes the repository depends on. The first one
// is the invariant: at most one active appointment per (book, date).
func (r *AppointmentRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "book_id", Value: 1}, {Key: "requested_date", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "active", Value: true}}),
		},
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "requested_date", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func decodeAppointments(ctx context.Context, cursor *mongo.Cursor) ([]*domain.Appointment, error) {
	defer cursor.Close(ctx)

	var out []*domain.Appointment
	for cursor.Next(ctx) {
		var a domain.Appointment
		if err := cursor.Decode(&a); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, cursor.Err()
}
