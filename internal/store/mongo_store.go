package store

import (
	"context"
	"time"

	"github.com/klass-lk/folio/internal/model"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	postsCollection    = "posts"
	countersCollection = "counters"
)

// MongoStore keeps posts in a MongoDB collection. Integer ids come from a
// counters document so they stay compatible with the SQL backends.
type MongoStore struct {
	db       *mongo.Database
	posts    *mongo.Collection
	counters *mongo.Collection
	clock    Clock
}

func NewMongoStore(db *mongo.Database, opts ...Option) *MongoStore {
	o := buildOptions(opts)
	return &MongoStore{
		db:       db,
		posts:    db.Collection(postsCollection),
		counters: db.Collection(countersCollection),
		clock:    o.clock,
	}
}

// BSON dates carry millisecond precision.
func (s *MongoStore) now() time.Time {
	return s.clock().UTC().Truncate(time.Millisecond)
}

func (s *MongoStore) EnsureSchema(ctx context.Context) error {
	_, err := s.posts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetName("posts_slug_key").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "published", Value: 1}},
			Options: options.Index().SetName("idx_posts_published"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_posts_created_at"),
		},
	})
	if err != nil {
		return unavailable("ensure schema", err)
	}
	return nil
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
}

func (s *MongoStore) find(ctx context.Context, op string, filter bson.M) ([]model.Post, error) {
	cursor, err := s.posts.Find(ctx, filter, newestFirst())
	if err != nil {
		return nil, s.classify(op, err)
	}
	defer cursor.Close(ctx)

	posts := []model.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, s.classify(op, err)
	}
	return posts, nil
}

func (s *MongoStore) List(ctx context.Context) ([]model.Post, error) {
	return s.find(ctx, "list posts", bson.M{})
}

func (s *MongoStore) ListPublished(ctx context.Context) ([]model.Post, error) {
	return s.find(ctx, "list published posts", bson.M{"published": true})
}

func (s *MongoStore) findOne(ctx context.Context, op string, filter bson.M) (model.Post, error) {
	var post model.Post
	if err := s.posts.FindOne(ctx, filter).Decode(&post); err != nil {
		return model.Post{}, s.classify(op, err)
	}
	return post, nil
}

func (s *MongoStore) GetByID(ctx context.Context, id int64) (model.Post, error) {
	return s.findOne(ctx, "get post", bson.M{"_id": id})
}

func (s *MongoStore) GetPublishedBySlug(ctx context.Context, slug string) (model.Post, error) {
	return s.findOne(ctx, "get post by slug", bson.M{"slug": slug, "published": true})
}

type counter struct {
	ID  string `bson:"_id"`
	Seq int64  `bson:"seq"`
}

func (s *MongoStore) nextID(ctx context.Context) (int64, error) {
	var c counter
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": postsCollection},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		return 0, unavailable("allocate post id", err)
	}
	return c.Seq, nil
}

func (s *MongoStore) Create(ctx context.Context, in model.PostInput) (model.Post, error) {
	in, err := validate(in)
	if err != nil {
		return model.Post{}, err
	}

	id, err := s.nextID(ctx)
	if err != nil {
		return model.Post{}, err
	}

	post := newPost(id, in, s.now())
	if _, err := s.posts.InsertOne(ctx, post); err != nil {
		return model.Post{}, s.classify("create post", err)
	}
	return post, nil
}

func (s *MongoStore) Update(ctx context.Context, id int64, in model.PostInput) (model.Post, error) {
	in, err := validate(in)
	if err != nil {
		return model.Post{}, err
	}

	update := mongo.Pipeline{{{Key: "$set", Value: bson.M{
		"title":       literal(in.Title),
		"slug":        literal(in.Slug),
		"excerpt":     literal(in.Excerpt),
		"content":     literal(in.Content),
		"cover_image": literal(in.CoverImage),
		"author":      literal(in.Author),
		"published":   literal(in.Published),
		"updated_at":  advanced(s.now()),
	}}}}

	var post model.Post
	err = s.posts.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&post)
	if err != nil {
		return model.Post{}, s.classify("update post", err)
	}
	return post, nil
}

// Pipeline updates evaluate strings that start with "$" as field paths.
func literal(v interface{}) bson.M {
	return bson.M{"$literal": v}
}

// advanced yields now, or one millisecond past the stored updated_at when
// now would not move it forward.
func advanced(now time.Time) bson.M {
	return bson.M{"$max": bson.A{now, bson.M{"$add": bson.A{"$updated_at", 1}}}}
}

func (s *MongoStore) Delete(ctx context.Context, id int64) error {
	result, err := s.posts.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return s.classify("delete post", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Stats(ctx context.Context) (model.PostStats, error) {
	total, err := s.posts.CountDocuments(ctx, bson.M{})
	if err != nil {
		return model.PostStats{}, s.classify("count posts", err)
	}
	published, err := s.posts.CountDocuments(ctx, bson.M{"published": true})
	if err != nil {
		return model.PostStats{}, s.classify("count posts", err)
	}
	return model.PostStats{Total: total, Published: published, Drafts: total - published}, nil
}

// PublishDrafts flips the drafts present at call time with one UpdateMany.
func (s *MongoStore) PublishDrafts(ctx context.Context) ([]model.Post, error) {
	drafts, err := s.find(ctx, "publish drafts", bson.M{"published": false})
	if err != nil {
		return nil, err
	}
	if len(drafts) == 0 {
		return []model.Post{}, nil
	}

	ids := make([]int64, len(drafts))
	for i, p := range drafts {
		ids[i] = p.ID
	}

	_, err = s.posts.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}, "published": false},
		mongo.Pipeline{{{Key: "$set", Value: bson.M{"published": true, "updated_at": advanced(s.now())}}}},
	)
	if err != nil {
		return nil, s.classify("publish drafts", err)
	}

	return s.find(ctx, "publish drafts", bson.M{"_id": bson.M{"$in": ids}})
}

func (s *MongoStore) Close() error {
	return s.db.Client().Disconnect(context.Background())
}

func (s *MongoStore) classify(op string, err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrUniqueConstraint
	default:
		return unavailable(op, err)
	}
}

func (s *MongoStore) Describe(ctx context.Context) (Backend, error) {
	var info struct {
		Version string `bson:"version"`
	}
	if err := s.db.RunCommand(ctx, bson.D{{Key: "buildInfo", Value: 1}}).Decode(&info); err != nil {
		return Backend{}, unavailable("read server version", err)
	}

	names, err := s.db.ListCollectionNames(ctx, bson.M{"name": postsCollection})
	if err != nil {
		return Backend{}, unavailable("list collections", err)
	}
	return Backend{
		Engine:     "mongodb",
		Version:    "MongoDB " + info.Version,
		Posts:      s.db.Name() + "." + postsCollection,
		PostsReady: len(names) > 0,
	}, nil
}
