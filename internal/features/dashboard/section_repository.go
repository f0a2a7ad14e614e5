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

type SectionRepository interface {
	Create(ctx context.Context, s *Section) error
	Get(ctx context.Context, id primitive.ObjectID) (*Section, error)
	Update(ctx context.Context, s *Section) error
	DeleteMany(ctx context.Context, ids []primitive.ObjectID) error
	ListByDashboard(ctx context.Context, dashboardID primitive.ObjectID) ([]Section, error)
	SectionExists(ctx context.Context, id primitive.ObjectID) (bool, error)
}

type SectionRepositoryImpl struct {
	collection *mongo.Collection
}

func NewSectionRepository(db *database.MongodbDB) SectionRepository {
	return &SectionRepositoryImpl{
		collection: db.DB.Collection("dashboard_sections"),
	}
}

func (r *SectionRepositoryImpl) Create(ctx context.Context, s *Section) error {
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt

	_, err := r.collection.InsertOne(ctx, s)
	return err
}

func (r *SectionRepositoryImpl) Get(ctx context.Context, id primitive.ObjectID) (*Section, error) {
	var s Section
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSectionNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *SectionRepositoryImpl) Update(ctx context.Context, s *Section) error {
	s.UpdatedAt = time.Now()

	set := bson.M{
		"key":        s.Key,
		"title":      s.Title,
		"order":      s.Order,
		"active":     s.Active,
		"updated_at": s.UpdatedAt,
	}
	update := bson.M{"$set": set}
	if s.ParentSectionID != nil {
		set["parent_section_id"] = s.ParentSectionID
	} else {
		update["$unset"] = bson.M{"parent_section_id": ""}
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": s.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrSectionNotFound
	}
	return nil
}

func (r *SectionRepositoryImpl) DeleteMany(ctx context.Context, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return err
}

// ListByDashboard returns sections in insertion order; ordering by Order is
// left to the caller so ties keep this order.
func (r *SectionRepositoryImpl) ListByDashboard(ctx context.Context, dashboardID primitive.ObjectID) ([]Section, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"dashboard_id": dashboardID}, options.Find().SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	sections := []Section{}
	if err := cursor.All(ctx, &sections); err != nil {
		return nil, err
	}
	return sections, nil
}

func (r *SectionRepositoryImpl) SectionExists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SectionRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "dashboard_id", Value: 1}},
	})
	return err
}
