package repository

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trackadmission/go-services/internal/content"
	"github.com/trackadmission/go-services/internal/database"
)

// MongoRepo stores posts in one collection with versions embedded in each
// document. _id is stored as an ObjectID and surfaces as its hex string.
type MongoRepo struct {
	col *database.Collection
}

func NewMongoRepo(col *database.Collection) *MongoRepo {
	return &MongoRepo{col: col}
}

// Indexes are the indexes the content collection relies on. MongoDB allows a
// single text index per collection, so title, focus keywords and plain text share one.
func Indexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "isDeleted", Value: 1}}},
		{Keys: bson.D{{Key: "categories", Value: 1}}},
		{Keys: bson.D{{Key: "author.email", Value: 1}}},
		{Keys: bson.D{
			{Key: "title", Value: "text"},
			{Key: "seo.focusKeywords", Value: "text"},
			{Key: "plainText", Value: "text"},
		}},
	}
}

// EnsureIndexes creates the content indexes.
func (m *MongoRepo) EnsureIndexes(ctx context.Context) error {
	return m.col.EnsureIndexes(ctx, Indexes())
}

func (m *MongoRepo) Create(ctx context.Context, doc *content.Document) error {
	if doc.ID == "" {
		doc.ID = primitive.NewObjectID().Hex()
	}
	stored, err := database.ObjectIDDoc(doc)
	if err != nil {
		return err
	}
	return m.col.Do(ctx, func(ctx context.Context, col *mongo.Collection) error {
		_, err := col.InsertOne(ctx, stored)
		if mongo.IsDuplicateKeyError(err) {
			return content.ErrSlugTaken
		}
		return err
	})
}

func (m *MongoRepo) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*content.Document, error) {
	var d content.Document
	err := m.col.Do(ctx, func(ctx context.Context, col *mongo.Collection) error {
		return col.FindOne(ctx, filter, opts...).Decode(&d)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, content.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (m *MongoRepo) Get(ctx context.Context, id string) (*content.Document, error) {
	return m.findOne(ctx, database.IDFilter(id))
}

func (m *MongoRepo) GetPublishedBySlug(ctx context.Context, slug string) (*content.Document, error) {
	return m.findOne(ctx, bson.M{"slug": slug, "status": content.StatusPublished, "isDeleted": false})
}

func listFilter(q content.ListQuery) bson.M {
	filter := bson.M{"isDeleted": bson.M{"$ne": true}}
	if q.PublishedOnly {
		filter["status"] = content.StatusPublished
	} else if q.Status != "" {
		filter["status"] = q.Status
	}
	if q.Category != "" {
		filter["categories"] = bson.M{"$elemMatch": bson.M{
			"$regex": "^" + regexp.QuoteMeta(categoryKey(q.Category)) + "$", "$options": "i",
		}}
	}
	if q.AuthorEmail != "" {
		filter["author.email"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(q.AuthorEmail) + "$", Options: "i"}
	}
	if q.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"seo.focusKeywords": pattern},
		}
	}
	return filter
}

func (m *MongoRepo) List(ctx context.Context, q content.ListQuery) ([]*content.Document, int64, error) {
	q = q.Normalize()
	filter := listFilter(q)
	dir := -1
	if q.SortAsc {
		dir = 1
	}
	sortDoc := bson.D{{Key: q.SortField, Value: dir}}
	if q.SortField != "createdAt" {
		sortDoc = append(sortDoc, bson.E{Key: "createdAt", Value: -1})
	}
	opts := options.Find().
		SetSort(sortDoc).
		SetSkip(int64(q.Skip())).
		SetLimit(int64(q.Limit)).
		SetProjection(bson.M{"versions": 0})

	out := []*content.Document{}
	var total int64
	err := m.col.Do(ctx, func(ctx context.Context, col *mongo.Collection) error {
		cur, err := col.Find(ctx, filter, opts)
		if err != nil {
			return err
		}
		defer cur.Close(ctx)
		docs := []*content.Document{}
		for cur.Next(ctx) {
			var d content.Document
			if err := cur.Decode(&d); err != nil {
				return err
			}
			docs = append(docs, &d)
		}
		if err := cur.Err(); err != nil {
			return err
		}
		n, err := col.CountDocuments(ctx, filter)
		if err != nil {
			return err
		}
		out, total = docs, n
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (m *MongoRepo) Search(ctx context.Context, term string, limit int) ([]content.SearchHit, error) {
	filter := bson.M{
		"status":    content.StatusPublished,
		"isDeleted": false,
		"title":     primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "updatedAt", Value: -1}}).
		SetLimit(int64(limit)).
		SetProjection(bson.M{
			"title": 1, "description": 1, "slug": 1, "headerImage": 1, "updatedAt": 1,
			"author.firstName": 1, "author.lastName": 1,
		})
	out := []content.SearchHit{}
	err := m.col.Do(ctx, func(ctx context.Context, col *mongo.Collection) error {
		cur, err := col.Find(ctx, filter, opts)
		if err != nil {
			return err
		}
		hits := []content.SearchHit{}
		if err := cur.All(ctx, &hits); err != nil {
			return err
		}
		out = hits
		return nil
	})
	return out, err
}

func (m *MongoRepo) Count(ctx context.Context, since time.Time) (int64, error) {
	filter := bson.M{"isDeleted": bson.M{"$ne": true}}
	if !since.IsZero() {
		filter["$or"] = bson.A{
			bson.M{"createdAt": bson.M{"$gte": since}},
			bson.M{"updatedAt": bson.M{"$gte": since}},
		}
	}
	var n int64
	err := m.col.Do(ctx, func(ctx context.Context, col *mongo.Collection) error {
		var err error
		n, err = col.CountDocuments(ctx, filter)
		return err
	})
	return n, err
}

func (m *MongoRepo) History(ctx context.Context, id string) (*content.History, error) {
	var h content.History
	err := m.col.Do(ctx, func(ctx context.Context, col *mongo.Collection) error {
		opts := options.FindOne().SetProjection(bson.M{"versions": 1, "currentVersion": 1})
		return col.FindOne(ctx, database.IDFilter(id), opts).Decode(&h)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, content.ErrNotFound
		}
		return nil, err
	}
	return &h, nil
}

// versionWriter is the slice of *mongo.Collection the append path needs.
type versionWriter interface {
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

// AppendVersion applies $push and $set in one update filtered on the expected
// currentVersion. A zero match is disambiguated into not-found or conflict.
func (m *MongoRepo) AppendVersion(ctx context.Context, id string, expected int, v content.Version, live content.LiveFields) error {
	return m.col.Do(ctx, func(ctx context.Context, col *mongo.Collection) error {
		return appendVersion(ctx, col, id, expected, v, live)
	})
}

func appendVersion(ctx context.Context, col versionWriter, id string, expected int, v content.Version, live content.LiveFields) error {
	filter := bson.M{"_id": database.IDValue(id), "currentVersion": expected}
	update := bson.M{
		"$push": bson.M{"versions": v},
		"$set": bson.M{
			"currentVersion": v.Version,
			"content":        live.Content,
			"seo":            live.SEO,
			"plainText":      live.PlainText,
			"wordCount":      live.WordCount,
			"readingTime":    live.ReadingTime,
			"seoAnalysis":    live.SEOAnalysis,
			"updatedAt":      live.UpdatedAt,
		},
	}
	res, err := col.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 1 {
		return nil
	}
	// A reconnect retry re-runs the update after the first attempt already landed.
	n, err := col.CountDocuments(ctx, appliedFilter(id, v))
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	n, err = col.CountDocuments(ctx, database.IDFilter(id))
	if err != nil {
		return err
	}
	if n == 0 {
		return content.ErrNotFound
	}
	return content.ErrVersionConflict
}

// appliedFilter matches the document once v is its current entry.
func appliedFilter(id string, v content.Version) bson.M {
	return bson.M{
		"_id":            database.IDValue(id),
		"currentVersion": v.Version,
		"versions":       bson.M{"$elemMatch": bson.M{"version": v.Version, "hash": v.Hash}},
	}
}

func metaSet(u content.MetaUpdate) bson.M {
	set := bson.M{}
	if u.Title != nil {
		set["title"] = *u.Title
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Status != nil {
		set["status"] = *u.Status
	}
	if u.Categories != nil {
		set["categories"] = *u.Categories
	}
	if u.Keywords != nil {
		set["keywords"] = *u.Keywords
	}
	if u.FAQ != nil {
		set["faq"] = *u.FAQ
	}
	if u.HeaderImage != nil {
		set["headerImage"] = u.HeaderImage
	}
	if u.Media != nil {
		set["media"] = *u.Media
	}
	if u.TableOfContents != nil {
		set["tableOfContents"] = *u.TableOfContents
	}
	if u.ScheduledPublish != nil {
		set["scheduledPublish"] = *u.ScheduledPublish
	}
	if u.Score != nil {
		set["score"] = *u.Score
	}
	return set
}

func (m *MongoRepo) findOneAndSet(ctx context.Context, id string, set bson.M) (*content.Document, error) {
	var d content.Document
	err := m.col.Do(ctx, func(ctx context.Context, col *mongo.Collection) error {
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		return col.FindOneAndUpdate(ctx, database.IDFilter(id), bson.M{"$set": set}, opts).Decode(&d)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, content.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (m *MongoRepo) UpdateMeta(ctx context.Context, id string, u content.MetaUpdate, now time.Time) (*content.Document, error) {
	set := metaSet(u)
	set["updatedAt"] = now
	return m.findOneAndSet(ctx, id, set)
}

func (m *MongoRepo) SetDeleted(ctx context.Context, id string, deleted bool, now time.Time) (*content.Document, error) {
	return m.findOneAndSet(ctx, id, bson.M{"isDeleted": deleted, "updatedAt": now})
}

// RemoveVersions pulls the listed entries. The current version is excluded in the update itself.
func (m *MongoRepo) RemoveVersions(ctx context.Context, id string, versions []int) (int, error) {
	if len(versions) == 0 {
		return 0, nil
	}
	before, err := m.History(ctx, id)
	if err != nil {
		return 0, err
	}
	filter, update, ok := pullVersions(id, before.CurrentVersion, versions)
	if !ok {
		return 0, nil
	}
	err = m.col.Do(ctx, func(ctx context.Context, col *mongo.Collection) error {
		_, err := col.UpdateOne(ctx, filter, update)
		return err
	})
	if err != nil {
		return 0, err
	}
	after, err := m.History(ctx, id)
	if err != nil {
		return 0, err
	}
	return len(before.Versions) - len(after.Versions), nil
}

// pullVersions builds the $pull for versions other than current. The filter pins
// currentVersion so a concurrent append cannot make a listed entry current mid-update.
func pullVersions(id string, current int, versions []int) (bson.M, bson.M, bool) {
	keep := make([]int, 0, len(versions))
	for _, n := range versions {
		if n != current {
			keep = append(keep, n)
		}
	}
	if len(keep) == 0 {
		return nil, nil, false
	}
	filter := bson.M{"_id": database.IDValue(id), "currentVersion": current}
	update := bson.M{"$pull": bson.M{"versions": bson.M{"version": bson.M{"$in": keep}}}}
	return filter, update, true
}

func (m *MongoRepo) RetentionView(ctx context.Context) ([]*content.Document, error) {
	filter := bson.M{"versions.1": bson.M{"$exists": true}}
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetProjection(bson.M{
			"currentVersion": 1, "versioningPolicy": 1,
			"versions.version": 1, "versions.timestamp": 1,
		})
	out := []*content.Document{}
	err := m.col.Do(ctx, func(ctx context.Context, col *mongo.Collection) error {
		cur, err := col.Find(ctx, filter, opts)
		if err != nil {
			return err
		}
		docs := []*content.Document{}
		if err := cur.All(ctx, &docs); err != nil {
			return err
		}
		out = docs
		return nil
	})
	return out, err
}

func (m *MongoRepo) Summaries(ctx context.Context, ids []string) (map[string]content.Summary, error) {
	out := make(map[string]content.Summary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	opts := options.Find().SetProjection(bson.M{"title": 1, "slug": 1, "headerImage": 1})
	err := m.col.Do(ctx, func(ctx context.Context, col *mongo.Collection) error {
		cur, err := col.Find(ctx, bson.M{"_id": bson.M{"$in": database.IDValues(ids)}}, opts)
		if err != nil {
			return err
		}
		var list []content.Summary
		if err := cur.All(ctx, &list); err != nil {
			return err
		}
		for _, s := range list {
			out[s.ID] = s
		}
		return nil
	})
	return out, err
}

func (m *MongoRepo) Sitemap(ctx context.Context) ([]content.SitemapEntry, error) {
	filter := bson.M{
		"status":    content.StatusPublished,
		"isDeleted": bson.M{"$ne": true},
		"updatedAt": bson.M{"$exists": true},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "updatedAt", Value: -1}}).
		SetProjection(bson.M{"slug": 1, "updatedAt": 1})
	out := []content.SitemapEntry{}
	err := m.col.Do(ctx, func(ctx context.Context, col *mongo.Collection) error {
		cur, err := col.Find(ctx, filter, opts)
		if err != nil {
			return err
		}
		list := []content.SitemapEntry{}
		if err := cur.All(ctx, &list); err != nil {
			return err
		}
		out = list
		return nil
	})
	return out, err
}
