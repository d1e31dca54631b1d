package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cks-portal/identity-service/internal/core/domain"
	"github.com/cks-portal/identity-service/internal/core/ports"
)

const relationshipCollection = "relationships"

// RelationshipRepository is the Mongo-backed directory of viewer→subject
// links (ownership, assignment, service) consumed by the visibility engine.
type RelationshipRepository struct {
	coll *mongo.Collection
}

func NewRelationshipRepository(db *mongo.Database) *RelationshipRepository {
	return &RelationshipRepository{coll: db.Collection(relationshipCollection)}
}

type relationshipDoc struct {
	ViewerCode   string `bson:"viewer_code"`
	SubjectCode  string `bson:"subject_code"`
	Relationship string `bson:"relationship"`
}

// Find returns the directory link between viewer and subject. Codes compare
// case-insensitively; they are stored uppercased.
func (r *RelationshipRepository) Find(ctx context.Context, viewerCode, subjectCode string) (domain.Relationship, error) {
	filter := bson.M{
		"viewer_code":  strings.ToUpper(viewerCode),
		"subject_code": strings.ToUpper(subjectCode),
	}

	var doc relationshipDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.RelationshipNone, domain.ErrRelationshipNotFound
		}
		return domain.RelationshipNone, fmt.Errorf("find relationship: %w", err)
	}

	return domain.Relationship(doc.Relationship), nil
}

// Upsert records or replaces a directory link.
func (r *RelationshipRepository) Upsert(ctx context.Context, link ports.RelationshipLink) error {
	filter := bson.M{
		"viewer_code":  strings.ToUpper(link.ViewerCode),
		"subject_code": strings.ToUpper(link.SubjectCode),
	}
	update := bson.M{"$set": relationshipDoc{
		ViewerCode:   strings.ToUpper(link.ViewerCode),
		SubjectCode:  strings.ToUpper(link.SubjectCode),
		Relationship: string(link.Relationship),
	}}

	_, err := r.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert relationship: %w", err)
	}
	return nil
}
