package query

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

type QueryRepository interface {
	Create(ctx context.Context, q *DynamicQuery) error
	Get(ctx context.Context, id primitive.ObjectID) (*DynamicQuery, error)
	List(ctx context.Context) ([]DynamicQuery, error)
	Update(ctx context.Context, q *DynamicQuery) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type QueryRepositoryImpl struct {
	collection *mongo.Collection
}

func NewQueryRepository(db *database.MongodbDB) QueryRepository {
	return &QueryRepositoryImpl{
		collection: db.DB.Collection("dynamic_queries"),
	}
}

func (r *QueryRepositoryImpl) Create(ctx context.Context, q *DynamicQuery) error {
	if q.ID.IsZero() {
		q.ID = primitive.NewObjectID()
	}
	q.CreatedAt = time.Now()
	q.UpdatedAt = q.CreatedAt

	_, err := r.collection.InsertOne(ctx, q)
	return err
}

func (r *QueryRepositoryImpl) Get(ctx context.Context, id primitive.ObjectID) (*DynamicQuery, error) {
	var q DynamicQuery
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&q); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}

func (r *QueryRepositoryImpl) List(ctx context.Context) ([]DynamicQuery, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"name": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	queries := []DynamicQuery{}
	if err := cursor.All(ctx, &queries); err != nil {
		return nil, err
	}
	return queries, nil
}

func (r *QueryRepositoryImpl) Update(ctx context.Context, q *DynamicQuery) error {
	q.UpdatedAt = time.Now()
	update := bson.M{
		"$set": bson.M{
			"name":        q.Name,
			"description": q.Description,
			"engine":      q.Engine,
			"source":      q.Source,
			"data_source": q.DataSource,
			"params":      q.Params,
			"updated_at":  q.UpdatedAt,
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": q.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *QueryRepositoryImpl) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
