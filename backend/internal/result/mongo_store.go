package result

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"college_portal/backend/internal/shared"
)

// MongoStore keeps results in the results collection. Per-key atomicity
// comes from the unique (student_id, semester, academic_year) index created
// by EnsureIndexes together with single-document upserts.
type MongoStore struct {
	resultsCol *mongo.Collection
}

// NewMongoStore creates a store over db's results collection
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{resultsCol: db.Collection(shared.CollectionResults)}
}

func keyFilter(key shared.ResultKey) bson.M {
	return bson.M{
		"student_id":    key.StudentID,
		"semester":      key.Semester,
		"academic_year": key.AcademicYear,
	}
}

// Upsert implements Store.
func (s *MongoStore) Upsert(ctx context.Context, key shared.ResultKey, w Write) (*shared.Result, bool, error) {
	update := bson.M{
		"$set": bson.M{
			"subjects":       w.Subjects,
			"total_credits":  w.TotalCredits,
			"sgpa":           w.SGPA,
			"percentage":     w.Percentage,
			"overall_status": w.OverallStatus,
			"updated_at":     w.At,
		},
		"$setOnInsert": bson.M{
			"_id":          uuid.NewString(),
			"is_published": false,
			"created_at":   w.At,
		},
		"$inc": bson.M{"revision": int64(1)},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var res shared.Result
	err := s.resultsCol.FindOneAndUpdate(ctx, keyFilter(key), update, opts).Decode(&res)
	if mongo.IsDuplicateKeyError(err) {
		// Two first writes raced on the unique index; the loser now finds
		// the winner's document and updates it.
		err = s.resultsCol.FindOneAndUpdate(ctx, keyFilter(key), update, opts).Decode(&res)
	}
	if err != nil {
		return nil, false, shared.NewStoreError("result upsert", err)
	}
	return &res, res.Revision == 1, nil
}

// Get implements Store.
func (s *MongoStore) Get(ctx context.Context, key shared.ResultKey) (*shared.Result, error) {
	return s.findOne(ctx, keyFilter(key))
}

// GetByID implements Store.
func (s *MongoStore) GetByID(ctx context.Context, id string) (*shared.Result, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (*shared.Result, error) {
	var res shared.Result
	if err := s.resultsCol.FindOne(ctx, filter).Decode(&res); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, shared.NewNotFoundError(msgResultNotFound)
		}
		return nil, shared.NewStoreError("result lookup", err)
	}
	return &res, nil
}

// List implements Store.
func (s *MongoStore) List(ctx context.Context, filter shared.ResultFilter) ([]*shared.Result, error) {
	query := listQuery(filter)
	if filter.IsPublished != nil {
		query["is_published"] = *filter.IsPublished
	}

	opts := options.Find().SetSort(bson.D{
		{Key: "student_id", Value: 1},
		{Key: "academic_year", Value: 1},
		{Key: "semester", Value: 1},
	})

	cursor, err := s.resultsCol.Find(ctx, query, opts)
	if err != nil {
		return nil, shared.NewStoreError("result listing", err)
	}
	defer cursor.Close(ctx)

	results := []*shared.Result{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, shared.NewStoreError("result listing", err)
	}
	return results, nil
}

// listQuery translates the key parts of a filter. Cohort fields must already
// be resolved into StudentIDs by the caller.
func listQuery(filter shared.ResultFilter) bson.M {
	query := bson.M{}
	if filter.Semester != 0 {
		query["semester"] = filter.Semester
	}
	if filter.AcademicYear != "" {
		query["academic_year"] = filter.AcademicYear
	}
	switch {
	case filter.StudentID != "" && filter.StudentIDs != nil:
		// Both narrow the result: the student only matches inside the cohort.
		ids := []string{}
		if slices.Contains(filter.StudentIDs, filter.StudentID) {
			ids = append(ids, filter.StudentID)
		}
		query["student_id"] = bson.M{"$in": ids}
	case filter.StudentID != "":
		query["student_id"] = filter.StudentID
	case filter.StudentIDs != nil:
		query["student_id"] = bson.M{"$in": filter.StudentIDs}
	}
	return query
}

// Publish implements Store.
func (s *MongoStore) Publish(ctx context.Context, id string, at time.Time) (*shared.Result, bool, error) {
	filter := bson.M{"_id": id, "is_published": bson.M{"$ne": true}}
	update := bson.M{"$set": bson.M{"is_published": true, "published_at": at}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var res shared.Result
	err := s.resultsCol.FindOneAndUpdate(ctx, filter, update, opts).Decode(&res)
	if err == nil {
		return &res, true, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, shared.NewStoreError("result publish", err)
	}

	// Either unknown or already published.
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// PublishMany implements Store.
func (s *MongoStore) PublishMany(ctx context.Context, filter shared.ResultFilter, at time.Time) (int64, error) {
	query := listQuery(filter)
	query["is_published"] = bson.M{"$ne": true}
	update := bson.M{"$set": bson.M{"is_published": true, "published_at": at}}

	res, err := s.resultsCol.UpdateMany(ctx, query, update)
	if err != nil {
		return 0, shared.NewStoreError("batch publish", err)
	}
	return res.ModifiedCount, nil
}

// EnsureIndexes implements Store.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "student_id", Value: 1},
				{Key: "semester", Value: 1},
				{Key: "academic_year", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("result_key_unique"),
		},
		{
			Keys: bson.D{
				{Key: "semester", Value: 1},
				{Key: "academic_year", Value: 1},
				{Key: "is_published", Value: 1},
			},
			Options: options.Index().SetName("semester_publication"),
		},
	}
	if _, err := s.resultsCol.Indexes().CreateMany(ctx, models); err != nil {
		return shared.NewStoreError("result index creation", err)
	}
	return nil
}
