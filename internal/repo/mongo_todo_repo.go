package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	dom "todolist/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// todoDocument is the BSON shape of a todo in the collection.
type todoDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Priority    string             `bson:"priority"`
	Completed   bool               `bson:"completed"`
	DueDate     *time.Time         `bson:"dueDate"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d todoDocument) toDomain() dom.Todo {
	return dom.Todo{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Priority:    dom.Priority(d.Priority),
		Completed:   d.Completed,
		DueDate:     d.DueDate,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// MongoTodoRepo keeps todos as documents in a single collection.
type MongoTodoRepo struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoTodoRepo(coll *mongo.Collection) *MongoTodoRepo {
	return &MongoTodoRepo{
		coll: coll,
		// BSON dates carry millisecond precision.
		now: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

func (r *MongoTodoRepo) Create(ctx context.Context, t dom.Todo) (dom.Todo, error) {
	now := r.now()
	doc := todoDocument{
		ID:          primitive.NewObjectID(),
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		DueDate:     truncateMillis(t.DueDate),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return dom.Todo{}, fmt.Errorf("mongo insert todo: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *MongoTodoRepo) GetByID(ctx context.Context, id string) (dom.Todo, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return dom.Todo{}, ErrNoRecord
	}
	var doc todoDocument
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return dom.Todo{}, ErrNoRecord
	}
	if err != nil {
		return dom.Todo{}, err
	}
	return doc.toDomain(), nil
}

// List returns documents in the collection's natural order.
func (r *MongoTodoRepo) List(ctx context.Context) ([]dom.Todo, error) {
	cur, err := r.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	list := []dom.Todo{}
	for cur.Next(ctx) {
		var doc todoDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		list = append(list, doc.toDomain())
	}
	return list, cur.Err()
}

// Update $sets only the fields present in the patch.
func (r *MongoTodoRepo) Update(ctx context.Context, id string, patch dom.Patch) (dom.Todo, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return dom.Todo{}, ErrNoRecord
	}

	set := bson.M{"updatedAt": r.now()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Priority != nil {
		set["priority"] = string(*patch.Priority)
	}
	if patch.Completed != nil {
		set["completed"] = *patch.Completed
	}
	if patch.ClearDueDate {
		set["dueDate"] = nil
	} else if patch.DueDate != nil {
		set["dueDate"] = truncateMillis(patch.DueDate)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc todoDocument
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return dom.Todo{}, ErrNoRecord
	}
	if err != nil {
		return dom.Todo{}, err
	}
	return doc.toDomain(), nil
}

func (r *MongoTodoRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNoRecord
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNoRecord
	}
	return nil
}

func truncateMillis(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC().Truncate(time.Millisecond)
	return &v
}
