package widget

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-dashboards/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type WidgetRepository interface {
	Create(ctx context.Context, w *Widget) error
	Get(ctx context.Context, id string) (*Widget, error)
	Update(ctx context.Context, id string, w *Widget) error
	Delete(ctx context.Context, id string) error
	ListBySections(ctx context.Context, sectionIDs []primitive.ObjectID) ([]Widget, error)
	DeleteBySections(ctx context.Context, sectionIDs []primitive.ObjectID) error
}

type WidgetRepositoryImpl struct {
	collection *mongo.Collection
}

func NewWidgetRepository(db *database.MongodbDB) WidgetRepository {
	return &WidgetRepositoryImpl{
		collection: db.DB.Collection("widgets"),
	}
}

// document is the stored shape of a Widget. Config is kept raw until the
// widget type is known.
type document struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty"`
	SectionID      primitive.ObjectID  `bson:"section_id"`
	DynamicQueryID *primitive.ObjectID `bson:"dynamic_query_id,omitempty"`
	Key            string              `bson:"key"`
	Title          string              `bson:"title"`
	WidgetType     WidgetType          `bson:"widget_type"`
	PositionConfig PositionConfig      `bson:"position_config"`
	Config         bson.Raw            `bson:"config,omitempty"`
	Order          int                 `bson:"order"`
	Active         bool                `bson:"active"`
	CreatedAt      time.Time           `bson:"created_at"`
	UpdatedAt      time.Time           `bson:"updated_at"`
}

func toDocument(w *Widget) (*document, error) {
	doc := &document{
		ID:             w.ID,
		SectionID:      w.SectionID,
		DynamicQueryID: w.DynamicQueryID,
		Key:            w.Key,
		Title:          w.Title,
		WidgetType:     w.WidgetType,
		PositionConfig: w.PositionConfig,
		Order:          w.Order,
		Active:         w.Active,
		CreatedAt:      w.CreatedAt,
		UpdatedAt:      w.UpdatedAt,
	}
	if w.Config != nil {
		raw, err := bson.Marshal(w.Config)
		if err != nil {
			return nil, fmt.Errorf("encode widget config: %w", err)
		}
		doc.Config = raw
	}
	return doc, nil
}

func (d *document) toWidget() (*Widget, error) {
	w := &Widget{
		ID:             d.ID,
		SectionID:      d.SectionID,
		DynamicQueryID: d.DynamicQueryID,
		Key:            d.Key,
		Title:          d.Title,
		WidgetType:     d.WidgetType,
		PositionConfig: d.PositionConfig,
		Order:          d.Order,
		Active:         d.Active,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
	if len(d.Config) > 0 {
		cfg, err := NewConfig(d.WidgetType)
		if err != nil {
			return nil, err
		}
		if err := bson.Unmarshal(d.Config, cfg); err != nil {
			return nil, fmt.Errorf("decode widget %s config: %w", d.ID.Hex(), err)
		}
		w.Config = cfg
	}
	return w, nil
}

func (r *WidgetRepositoryImpl) Create(ctx context.Context, w *Widget) error {
	if w.ID.IsZero() {
		w.ID = primitive.NewObjectID()
	}
	w.CreatedAt = time.Now()
	w.UpdatedAt = w.CreatedAt

	doc, err := toDocument(w)
	if err != nil {
		return err
	}
	_, err = r.collection.InsertOne(ctx, doc)
	return err
}

func (r *WidgetRepositoryImpl) Get(ctx context.Context, id string) (*Widget, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var doc document
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc.toWidget()
}

func (r *WidgetRepositoryImpl) Update(ctx context.Context, id string, w *Widget) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	w.UpdatedAt = time.Now()
	doc, err := toDocument(w)
	if err != nil {
		return err
	}

	set := bson.M{
		"dynamic_query_id": doc.DynamicQueryID,
		"key":              doc.Key,
		"title":            doc.Title,
		"widget_type":      doc.WidgetType,
		"position_config":  doc.PositionConfig,
		"config":           doc.Config,
		"order":            doc.Order,
		"active":           doc.Active,
		"updated_at":       doc.UpdatedAt,
	}
	if doc.Config == nil {
		delete(set, "config")
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *WidgetRepositoryImpl) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *WidgetRepositoryImpl) ListBySections(ctx context.Context, sectionIDs []primitive.ObjectID) ([]Widget, error) {
	if len(sectionIDs) == 0 {
		return []Widget{}, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"section_id": bson.M{"$in": sectionIDs}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	widgets := make([]Widget, 0, len(docs))
	for i := range docs {
		w, err := docs[i].toWidget()
		if err != nil {
			return nil, err
		}
		widgets = append(widgets, *w)
	}
	return widgets, nil
}

func (r *WidgetRepositoryImpl) DeleteBySections(ctx context.Context, sectionIDs []primitive.ObjectID) error {
	if len(sectionIDs) == 0 {
		return nil
	}
	_, err := r.collection.DeleteMany(ctx, bson.M{"section_id": bson.M{"$in": sectionIDs}})
	return err
}

// EnsureIndexes creates the lookup index on section_id.
func (r *WidgetRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "section_id", Value: 1}, {Key: "order", Value: 1}},
	})
	return err
}
