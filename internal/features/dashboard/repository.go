package dashboard

import (
	"context"
	"errors"
	"time"

	"go-dashboards/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type DashboardRepository interface {
	Create(ctx context.Context, d *Dashboard) error
	GetByKey(ctx context.Context, key string) (*Dashboard, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*Dashboard, error)
	List(ctx context.Context) ([]Dashboard, error)
	Update(ctx context.Context, key string, d *Dashboard) error
	Delete(ctx context.Context, key string) error
	DashboardExists(ctx context.Context, key string) (bool, error)
}

type DashboardRepositoryImpl struct {
	collection *mongo.Collection
}

func NewDashboardRepository(db *database.MongodbDB) DashboardRepository {
	return &DashboardRepositoryImpl{
		collection: db.DB.Collection("dashboards"),
	}
}

func (r *DashboardRepositoryImpl) Create(ctx context.Context, d *Dashboard) error {
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt

	_, err := r.collection.InsertOne(ctx, d)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateKey
	}
	return err
}

func (r *DashboardRepositoryImpl) findOne(ctx context.Context, filter bson.M) (*Dashboard, error) {
	var d Dashboard
	if err := r.collection.FindOne(ctx, filter).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *DashboardRepositoryImpl) GetByKey(ctx context.Context, key string) (*Dashboard, error) {
	return r.findOne(ctx, bson.M{"key": key})
}

func (r *DashboardRepositoryImpl) GetByID(ctx context.Context, id primitive.ObjectID) (*Dashboard, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *DashboardRepositoryImpl) List(ctx context.Context) ([]Dashboard, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"name": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	dashboards := []Dashboard{}
	if err = cursor.All(ctx, &dashboards); err != nil {
		return nil, err
	}
	return dashboards, nil
}

func (r *DashboardRepositoryImpl) Update(ctx context.Context, key string, d *Dashboard) error {
	d.UpdatedAt = time.Now()

	update := bson.M{
		"$set": bson.M{
			"name":                     d.Name,
			"description":              d.Description,
			"visibility":               d.Visibility,
			"active":                   d.Active,
			"is_navigable":             d.IsNavigable,
			"filters":                  d.Filters,
			"auto_refresh":             d.AutoRefresh,
			"refresh_interval_seconds": d.RefreshIntervalSeconds,
			"updated_at":               d.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"key": key}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *DashboardRepositoryImpl) Delete(ctx context.Context, key string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"key": key})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *DashboardRepositoryImpl) DashboardExists(ctx context.Context, key string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"key": key}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *DashboardRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
