// Package roster resolves student identities against the users collection
// owned by the administrative side of the portal.
package roster

import (
	"context"
	"errors"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"college_portal/backend/internal/shared"
)

// Directory is the roster collaborator consumed by the result engine.
type Directory interface {
	// GetStudent returns the user when id resolves to a student-role entity,
	// otherwise a not-found error.
	GetStudent(ctx context.Context, id string) (*shared.User, error)
	// ListStudentIDs returns the ids of all students in the cohort.
	ListStudentIDs(ctx context.Context, cohort shared.Cohort) ([]string, error)
}

// ============================================================================
// MongoDB implementation
// ============================================================================

// MongoRoster reads students from the users collection.
type MongoRoster struct {
	usersCol *mongo.Collection
}

// NewMongoRoster creates a roster over db's users collection
func NewMongoRoster(db *mongo.Database) *MongoRoster {
	return &MongoRoster{usersCol: db.Collection(shared.CollectionUsers)}
}

// GetStudent implements Directory.
func (r *MongoRoster) GetStudent(ctx context.Context, id string) (*shared.User, error) {
	if id == "" {
		return nil, shared.NewNotFoundError(shared.MsgStudentNotFound)
	}

	var user shared.User
	err := r.usersCol.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, shared.NewNotFoundError(shared.MsgStudentNotFound)
		}
		return nil, shared.NewStoreError("roster lookup", err)
	}

	if !user.IsStudent() {
		return nil, shared.NewNotFoundError(shared.MsgStudentNotFound)
	}
	return &user, nil
}

// ListStudentIDs implements Directory.
func (r *MongoRoster) ListStudentIDs(ctx context.Context, cohort shared.Cohort) ([]string, error) {
	filter := bson.M{"role": shared.RoleStudent}
	if cohort.Stream != "" {
		filter["stream"] = cohort.Stream
	}
	if cohort.YearLevel != 0 {
		filter["year_level"] = cohort.YearLevel
	}

	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := r.usersCol.Find(ctx, filter, opts)
	if err != nil {
		return nil, shared.NewStoreError("roster listing", err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, shared.NewStoreError("roster listing", err)
	}

	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

// ============================================================================
// In-memory implementation
// ============================================================================

// MemoryRoster is a Directory backed by a map, used by tests and dry runs.
type MemoryRoster struct {
	mu    sync.RWMutex
	users map[string]shared.User
}

// NewMemoryRoster seeds a roster with the given users.
func NewMemoryRoster(users ...shared.User) *MemoryRoster {
	r := &MemoryRoster{users: make(map[string]shared.User, len(users))}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

// Put adds or replaces a user.
func (r *MemoryRoster) Put(u shared.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
}

// GetStudent implements Directory.
func (r *MemoryRoster) GetStudent(_ context.Context, id string) (*shared.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok || !u.IsStudent() {
		return nil, shared.NewNotFoundError(shared.MsgStudentNotFound)
	}
	return &u, nil
}

// ListStudentIDs implements Directory.
func (r *MemoryRoster) ListStudentIDs(_ context.Context, cohort shared.Cohort) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for _, u := range r.users {
		if !u.IsStudent() {
			continue
		}
		if cohort.Stream != "" && u.Stream != cohort.Stream {
			continue
		}
		if cohort.YearLevel != 0 && u.YearLevel != cohort.YearLevel {
			continue
		}
		ids = append(ids, u.ID)
	}
	sort.Strings(ids)
	return ids, nil
}
