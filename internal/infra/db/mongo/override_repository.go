package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainavailability "rentgate/internal/domain/availability"
	domainlistings "rentgate/internal/domain/listings"
)

// OverrideRepository stores one document per listing day; writes replace the day.
type OverrideRepository struct {
	col *mongo.Collection
}

func NewOverrideRepository(db *mongo.Database) *OverrideRepository {
	return &OverrideRepository{col: db.Collection("availability_overrides")}
}

func (r *OverrideRepository) ByListing(ctx context.Context, listingID domainlistings.ListingID) ([]domainavailability.Override, error) {
	cur, err := r.col.Find(ctx, bson.M{"listing_id": string(listingID)}, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, classify(err)
	}
	defer cur.Close(ctx)
	var out []domainavailability.Override
	for cur.Next(ctx) {
		var doc overrideDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toOverride())
	}
	return out, cur.Err()
}

func (r *OverrideRepository) Upsert(ctx context.Context, overrides []domainavailability.Override) error {
	if len(overrides) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(overrides))
	for _, o := range overrides {
		doc := newOverrideDocument(o)
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": doc.ID}).
			SetReplacement(doc).
			SetUpsert(true))
	}
	_, err := r.col.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true))
	return classify(err)
}

type overrideDocument struct {
	ID          string `bson:"_id"`
	ListingID   string `bson:"listing_id"`
	Date        string `bson:"date"`
	IsAvailable bool   `bson:"is_available"`
	UpdatedBy   string `bson:"updated_by"`
	UpdatedAt   int64  `bson:"updated_at"`
}

func newOverrideDocument(o domainavailability.Override) overrideDocument {
	day := dayToString(o.Date)
	return overrideDocument{
		ID:          string(o.ListingID) + ":" + day,
		ListingID:   string(o.ListingID),
		Date:        day,
		IsAvailable: o.IsAvailable,
		UpdatedBy:   o.UpdatedBy,
		UpdatedAt:   timeToTimestamp(o.UpdatedAt),
	}
}

func (d overrideDocument) toOverride() domainavailability.Override {
	return domainavailability.Override{
		ListingID:   domainlistings.ListingID(d.ListingID),
		Date:        stringToDay(d.Date),
		IsAvailable: d.IsAvailable,
		UpdatedBy:   d.UpdatedBy,
		UpdatedAt:   timestampToTime(d.UpdatedAt),
	}
}
