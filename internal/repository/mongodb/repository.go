package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/caloriebalance/tracker/internal/domain/models"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("not found")

const (
	profilesCollection      = "profiles"
	mealsCollection         = "meals"
	activitiesCollection    = "activities"
	weeklyReportsCollection = "weekly_reports"
)

// Repository defines the storage operations backing the tracker.
type Repository interface {
	GetProfile(ctx context.Context, userID string) (models.Profile, error)
	FindProfileByPhone(ctx context.Context, phone string) (models.Profile, error)
	ListProfilesWithPhone(ctx context.Context) ([]models.Profile, error)
	SaveProfile(ctx context.Context, profile models.Profile) error
	InsertMeals(ctx context.Context, meals []models.Meal) error
	InsertActivity(ctx context.Context, activity models.Activity) error
	ListMeals(ctx context.Context, userID string, start, end time.Time) ([]models.Meal, error)
	ListActivities(ctx context.Context, userID string, start, end time.Time) ([]models.Activity, error)
	SaveWeeklyReport(ctx context.Context, report models.WeeklyReport) error
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoDBRepository connects, pings and makes sure the query indexes exist.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	r := &MongoDBRepository{client: client, db: client.Database(dbName)}
	if err := r.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *MongoDBRepository) ensureIndexes(ctx context.Context) error {
	byUserDate := mongo.IndexModel{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: 1}}}
	for _, name := range []string{mealsCollection, activitiesCollection} {
		if _, err := r.db.Collection(name).Indexes().CreateOne(ctx, byUserDate); err != nil {
			return fmt.Errorf("create index on %s: %w", name, err)
		}
	}

	byPhone := mongo.IndexModel{Keys: bson.D{{Key: "phone", Value: 1}}}
	if _, err := r.db.Collection(profilesCollection).Indexes().CreateOne(ctx, byPhone); err != nil {
		return fmt.Errorf("create index on %s: %w", profilesCollection, err)
	}
	return nil
}

// GetProfile loads the profile of userID.
func (r *MongoDBRepository) GetProfile(ctx context.Context, userID string) (models.Profile, error) {
	return r.findProfile(ctx, bson.M{"_id": userID})
}

// FindProfileByPhone loads the profile registered for a phone number.
func (r *MongoDBRepository) FindProfileByPhone(ctx context.Context, phone string) (models.Profile, error) {
	return r.findProfile(ctx, bson.M{"phone": models.NormalizePhone(phone)})
}

func (r *MongoDBRepository) findProfile(ctx context.Context, filter bson.M) (models.Profile, error) {
	var profile models.Profile
	err := r.db.Collection(profilesCollection).FindOne(ctx, filter).Decode(&profile)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Profile{}, ErrNotFound
	}
	if err != nil {
		return models.Profile{}, fmt.Errorf("failed to load profile: %w", err)
	}
	return profile, nil
}

// ListProfilesWithPhone returns every profile reachable over WhatsApp.
func (r *MongoDBRepository) ListProfilesWithPhone(ctx context.Context) ([]models.Profile, error) {
	cursor, err := r.db.Collection(profilesCollection).Find(ctx, bson.M{"phone": bson.M{"$exists": true, "$ne": ""}})
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	var profiles []models.Profile
	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, fmt.Errorf("failed to decode profiles: %w", err)
	}
	return profiles, nil
}

// SaveProfile upserts the profile keyed by its user id.
func (r *MongoDBRepository) SaveProfile(ctx context.Context, profile models.Profile) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.db.Collection(profilesCollection).ReplaceOne(ctx, bson.M{"_id": profile.UserID}, profile, opts)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// InsertMeals stores meals in a single batch.
func (r *MongoDBRepository) InsertMeals(ctx context.Context, meals []models.Meal) error {
	if len(meals) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(meals))
	for _, m := range meals {
		docs = append(docs, m)
	}

	if _, err := r.db.Collection(mealsCollection).InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert meals: %w", err)
	}
	return nil
}

// InsertActivity stores one activity.
func (r *MongoDBRepository) InsertActivity(ctx context.Context, activity models.Activity) error {
	if _, err := r.db.Collection(activitiesCollection).InsertOne(ctx, activity); err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}
	return nil
}

// ListMeals returns meals of userID dated within [start, end], oldest first.
func (r *MongoDBRepository) ListMeals(ctx context.Context, userID string, start, end time.Time) ([]models.Meal, error) {
	var meals []models.Meal
	if err := r.listByDate(ctx, mealsCollection, userID, start, end, &meals); err != nil {
		return nil, err
	}
	return meals, nil
}

// ListActivities returns activities of userID dated within [start, end], oldest first.
func (r *MongoDBRepository) ListActivities(ctx context.Context, userID string, start, end time.Time) ([]models.Activity, error) {
	var activities []models.Activity
	if err := r.listByDate(ctx, activitiesCollection, userID, start, end, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

func (r *MongoDBRepository) listByDate(ctx context.Context, collName, userID string, start, end time.Time, out interface{}) error {
	cursor, err := r.db.Collection(collName).Find(ctx, dateRangeFilter(userID, start, end),
		options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "created_at", Value: 1}}))
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", collName, err)
	}

	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", collName, err)
	}
	return nil
}

// dateRangeFilter matches documents whose date falls on any calendar day
// from start through end.
func dateRangeFilter(userID string, start, end time.Time) bson.M {
	from := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	until := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return bson.M{
		"user_id": userID,
		"date":    bson.M{"$gte": from, "$lt": until},
	}
}

// SaveWeeklyReport saves a weekly report to the database.
func (r *MongoDBRepository) SaveWeeklyReport(ctx context.Context, report models.WeeklyReport) error {
	if _, err := r.db.Collection(weeklyReportsCollection).InsertOne(ctx, report); err != nil {
		return fmt.Errorf("failed to insert weekly report: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
