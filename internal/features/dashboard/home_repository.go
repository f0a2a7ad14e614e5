package dashboard

import (
	"context"
	"errors"
	"time"

	"go-dashboards/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// HomeRepository stores each user's home dashboard. At most one row per user
// carries is_home.
type HomeRepository interface {
	SetHome(ctx context.Context, userID, dashboardKey string) error
	GetHome(ctx context.Context, userID string) (string, error)
	ClearDashboard(ctx context.Context, dashboardKey string) error
}

type HomeRepositoryImpl struct {
	collection *mongo.Collection
}

func NewHomeRepository(db *database.MongodbDB) HomeRepository {
	return &HomeRepositoryImpl{
		collection: db.DB.Collection("dashboard_homes"),
	}
}

type homePreference struct {
	UserID       string    `bson:"user_id"`
	DashboardKey string    `bson:"dashboard_key"`
	IsHome       bool      `bson:"is_home"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func (r *HomeRepositoryImpl) SetHome(ctx context.Context, userID, dashboardKey string) error {
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": bson.M{"is_home": false}},
	)
	if err != nil {
		return err
	}

	_, err = r.collection.UpdateOne(ctx,
		bson.M{"user_id": userID, "dashboard_key": dashboardKey},
		bson.M{"$set": bson.M{"is_home": true, "updated_at": time.Now()}},
		options.Update().SetUpsert(true),
	)
	return err
}

// GetHome returns "" when the user has no home dashboard.
func (r *HomeRepositoryImpl) GetHome(ctx context.Context, userID string) (string, error) {
	var pref homePreference
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID, "is_home": true}).Decode(&pref)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", nil
		}
		return "", err
	}
	return pref.DashboardKey, nil
}

func (r *HomeRepositoryImpl) ClearDashboard(ctx context.Context, dashboardKey string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"dashboard_key": dashboardKey})
	return err
}

func (r *HomeRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "dashboard_key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
