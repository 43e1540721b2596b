package store

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/klass-lk/folio"
	"github.com/klass-lk/folio/internal/model"
	"github.com/pkg/errors"
)

// Single-table layout: every item is addressed by pk/sk.
const (
	postPK     = "Post"
	slugPK     = "PostSlug"
	counterPK  = "Counter"
	counterSK  = "Post"
	maxTxItems = 100

	maxConflictRetries = 5
)

// DynamoDBStore keeps posts in one DynamoDB table. Slug uniqueness is held by
// slug-claim items written in the same transaction as the post itself.
type DynamoDBStore struct {
	client *dynamodb.Client
	config *folio.DynamoDBConfig
	clock  Clock
}

func NewDynamoDBStore(client *dynamodb.Client, config *folio.DynamoDBConfig, opts ...Option) *DynamoDBStore {
	o := buildOptions(opts)
	return &DynamoDBStore{client: client, config: config, clock: o.clock}
}

func (s *DynamoDBStore) now() time.Time {
	return s.clock().UTC().Truncate(time.Microsecond)
}

func (s *DynamoDBStore) table() *string {
	return aws.String(s.config.TableName)
}

func key(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: pk},
		"sk": &types.AttributeValueMemberS{Value: sk},
	}
}

func postSK(id int64) string {
	return fmt.Sprintf("%019d", id)
}

func (s *DynamoDBStore) EnsureSchema(ctx context.Context) error {
	if s.config.SkipTableCreation {
		return nil
	}

	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: s.table()})
	if err == nil {
		return nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return unavailable("describe table", err)
	}

	log.Printf("DynamoDB table %s does not exist, creating it...", s.config.TableName)
	_, err = s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: s.table(),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("pk"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("sk"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("pk"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("sk"), KeyType: types.KeyTypeRange},
		},
		ProvisionedThroughput: &types.ProvisionedThroughput{
			ReadCapacityUnits:  aws.Int64(5),
			WriteCapacityUnits: aws.Int64(5),
		},
	})
	if err != nil {
		return unavailable("create table", err)
	}

	waiter := dynamodb.NewTableExistsWaiter(s.client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: s.table()}, time.Minute); err != nil {
		return unavailable("create table", err)
	}
	log.Printf("DynamoDB table %s created successfully.", s.config.TableName)
	return nil
}

func (s *DynamoDBStore) query(ctx context.Context, op string, input *dynamodb.QueryInput) ([]model.Post, error) {
	posts := []model.Post{}
	paginator := dynamodb.NewQueryPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, unavailable(op, err)
		}
		var batch []model.Post
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, unavailable(op, err)
		}
		posts = append(posts, batch...)
	}

	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID > posts[j].ID
	})
	return posts, nil
}

func (s *DynamoDBStore) List(ctx context.Context) ([]model.Post, error) {
	return s.query(ctx, "list posts", &dynamodb.QueryInput{
		TableName:              s.table(),
		KeyConditionExpression: aws.String("pk = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: postPK},
		},
	})
}

func (s *DynamoDBStore) listByPublished(ctx context.Context, op string, published bool) ([]model.Post, error) {
	return s.query(ctx, op, &dynamodb.QueryInput{
		TableName:                s.table(),
		KeyConditionExpression:   aws.String("pk = :pk"),
		FilterExpression:         aws.String("#published = :published"),
		ExpressionAttributeNames: map[string]string{"#published": "published"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":        &types.AttributeValueMemberS{Value: postPK},
			":published": &types.AttributeValueMemberBOOL{Value: published},
		},
	})
}

func (s *DynamoDBStore) ListPublished(ctx context.Context) ([]model.Post, error) {
	return s.listByPublished(ctx, "list published posts", true)
}

func (s *DynamoDBStore) GetByID(ctx context.Context, id int64) (model.Post, error) {
	output, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      s.table(),
		Key:            key(postPK, postSK(id)),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return model.Post{}, unavailable("get post", err)
	}
	if output.Item == nil {
		return model.Post{}, ErrNotFound
	}

	var post model.Post
	if err := attributevalue.UnmarshalMap(output.Item, &post); err != nil {
		return model.Post{}, unavailable("get post", err)
	}
	return post, nil
}

type slugClaim struct {
	ID int64 `dynamodbav:"id"`
}

func (s *DynamoDBStore) GetPublishedBySlug(ctx context.Context, slug string) (model.Post, error) {
	output, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      s.table(),
		Key:            key(slugPK, slug),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return model.Post{}, unavailable("get post by slug", err)
	}
	if output.Item == nil {
		return model.Post{}, ErrNotFound
	}

	var claim slugClaim
	if err := attributevalue.UnmarshalMap(output.Item, &claim); err != nil {
		return model.Post{}, unavailable("get post by slug", err)
	}

	post, err := s.GetByID(ctx, claim.ID)
	if err != nil {
		return model.Post{}, err
	}
	if !post.Published || post.Slug != slug {
		return model.Post{}, ErrNotFound
	}
	return post, nil
}

func (s *DynamoDBStore) nextID(ctx context.Context) (int64, error) {
	output, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                s.table(),
		Key:                      key(counterPK, counterSK),
		UpdateExpression:         aws.String("ADD #seq :one"),
		ExpressionAttributeNames: map[string]string{"#seq": "seq"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, unavailable("allocate post id", err)
	}

	seq, ok := output.Attributes["seq"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, unavailable("allocate post id", errors.New("counter item has no seq"))
	}
	id, err := strconv.ParseInt(seq.Value, 10, 64)
	if err != nil {
		return 0, unavailable("allocate post id", err)
	}
	return id, nil
}

func postItem(post model.Post) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(post)
	if err != nil {
		return nil, err
	}
	item["pk"] = &types.AttributeValueMemberS{Value: postPK}
	item["sk"] = &types.AttributeValueMemberS{Value: postSK(post.ID)}
	return item, nil
}

func claimItem(slug string, id int64) map[string]types.AttributeValue {
	item := key(slugPK, slug)
	item["id"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(id, 10)}
	return item
}

func (s *DynamoDBStore) Create(ctx context.Context, in model.PostInput) (model.Post, error) {
	in, err := validate(in)
	if err != nil {
		return model.Post{}, err
	}

	id, err := s.nextID(ctx)
	if err != nil {
		return model.Post{}, err
	}

	post := newPost(id, in, s.now())
	item, err := postItem(post)
	if err != nil {
		return model.Post{}, unavailable("create post", err)
	}

	input := &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           s.table(),
				Item:                claimItem(post.Slug, id),
				ConditionExpression: aws.String("attribute_not_exists(pk)"),
			}},
			{Put: &types.Put{
				TableName:           s.table(),
				Item:                item,
				ConditionExpression: aws.String("attribute_not_exists(pk)"),
			}},
		},
	}

	// Concurrent claims on the same slug can cancel each other with a
	// TransactionConflict instead of a failed condition; retry until one
	// of them observes the winner's claim.
	for attempt := 0; ; attempt++ {
		_, err = s.client.TransactWriteItems(ctx, input)
		if err == nil {
			return post, nil
		}
		if failed := cancelledAt(err); len(failed) > 0 && failed[0] {
			return model.Post{}, ErrUniqueConstraint
		}
		if !conflicted(err) || attempt == maxConflictRetries {
			return model.Post{}, unavailable("create post", err)
		}
		select {
		case <-ctx.Done():
			return model.Post{}, unavailable("create post", ctx.Err())
		case <-time.After(time.Duration(attempt+1) * 20 * time.Millisecond):
		}
	}
}

func (s *DynamoDBStore) Update(ctx context.Context, id int64, in model.PostInput) (model.Post, error) {
	in, err := validate(in)
	if err != nil {
		return model.Post{}, err
	}

	current, err := s.GetByID(ctx, id)
	if err != nil {
		return model.Post{}, err
	}

	post := newPost(id, in, s.now())
	post.CreatedAt = current.CreatedAt
	item, err := postItem(post)
	if err != nil {
		return model.Post{}, unavailable("update post", err)
	}

	// The post write is conditioned on the slug it had when read, so a
	// concurrent slug change cannot leave a stale claim behind.
	putPost := &types.Put{
		TableName:                s.table(),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_exists(pk) AND #slug = :previous"),
		ExpressionAttributeNames: map[string]string{"#slug": "slug"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":previous": &types.AttributeValueMemberS{Value: current.Slug},
		},
	}

	if post.Slug == current.Slug {
		_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:                 putPost.TableName,
			Item:                      putPost.Item,
			ConditionExpression:       putPost.ConditionExpression,
			ExpressionAttributeNames:  putPost.ExpressionAttributeNames,
			ExpressionAttributeValues: putPost.ExpressionAttributeValues,
		})
		if err != nil {
			var conditionFailed *types.ConditionalCheckFailedException
			if errors.As(err, &conditionFailed) {
				return model.Post{}, ErrNotFound
			}
			return model.Post{}, unavailable("update post", err)
		}
		return post, nil
	}

	_, err = s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           s.table(),
				Item:                claimItem(post.Slug, id),
				ConditionExpression: aws.String("attribute_not_exists(pk)"),
			}},
			{Delete: &types.Delete{
				TableName:           s.table(),
				Key:                 key(slugPK, current.Slug),
				ConditionExpression: aws.String("id = :id"),
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":id": &types.AttributeValueMemberN{Value: strconv.FormatInt(id, 10)},
				},
			}},
			{Put: putPost},
		},
	})
	if err != nil {
		failed := cancelledAt(err)
		switch {
		case len(failed) > 0 && failed[0]:
			return model.Post{}, ErrUniqueConstraint
		case len(failed) > 2 && failed[2]:
			return model.Post{}, ErrNotFound
		}
		return model.Post{}, unavailable("update post", err)
	}
	return post, nil
}

// Delete removes the post together with the claim on its current slug. If an
// update moves the slug between the read and the write, the read is retried.
func (s *DynamoDBStore) Delete(ctx context.Context, id int64) error {
	for attempt := 0; ; attempt++ {
		current, err := s.GetByID(ctx, id)
		if err != nil {
			return err
		}

		err = s.deleteWithSlug(ctx, id, current.Slug)
		if !errors.Is(err, errSlugMoved) && !conflicted(err) {
			return err
		}
		if attempt == maxConflictRetries {
			return unavailable("delete post", err)
		}
	}
}

var errSlugMoved = errors.New("post slug changed before delete")

func (s *DynamoDBStore) deleteWithSlug(ctx context.Context, id int64, slug string) error {
	idValue := &types.AttributeValueMemberN{Value: strconv.FormatInt(id, 10)}

	_, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Delete: &types.Delete{
				TableName:                s.table(),
				Key:                      key(postPK, postSK(id)),
				ConditionExpression:      aws.String("attribute_exists(pk) AND #slug = :slug"),
				ExpressionAttributeNames: map[string]string{"#slug": "slug"},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":slug": &types.AttributeValueMemberS{Value: slug},
				},
			}},
			{Delete: &types.Delete{
				TableName:                 s.table(),
				Key:                       key(slugPK, slug),
				ConditionExpression:       aws.String("id = :id"),
				ExpressionAttributeValues: map[string]types.AttributeValue{":id": idValue},
			}},
		},
	})
	if err == nil {
		return nil
	}
	if conflicted(err) {
		return err
	}
	if failed := cancelledAt(err); len(failed) > 1 && (failed[0] || failed[1]) {
		return errSlugMoved
	}
	return unavailable("delete post", err)
}

func (s *DynamoDBStore) Stats(ctx context.Context) (model.PostStats, error) {
	posts, err := s.List(ctx)
	if err != nil {
		return model.PostStats{}, err
	}
	return statsOf(posts), nil
}

// PublishDrafts flips drafts in transactions of up to 100 items; each
// transaction is all-or-nothing.
func (s *DynamoDBStore) PublishDrafts(ctx context.Context) ([]model.Post, error) {
	drafts, err := s.listByPublished(ctx, "publish drafts", false)
	if err != nil {
		return nil, err
	}

	now := s.now()
	for start := 0; start < len(drafts); start += maxTxItems {
		end := min(start+maxTxItems, len(drafts))

		items := make([]types.TransactWriteItem, 0, end-start)
		for i := start; i < end; i++ {
			items = append(items, types.TransactWriteItem{Update: &types.Update{
				TableName:           s.table(),
				Key:                 key(postPK, postSK(drafts[i].ID)),
				UpdateExpression:    aws.String("SET #published = :true, #updated_at = :now"),
				ConditionExpression: aws.String("attribute_exists(pk)"),
				ExpressionAttributeNames: map[string]string{
					"#published":  "published",
					"#updated_at": "updated_at",
				},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":true": &types.AttributeValueMemberBOOL{Value: true},
					":now":  &types.AttributeValueMemberS{Value: now.Format(time.RFC3339Nano)},
				},
			}})
		}

		if _, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items}); err != nil {
			return nil, unavailable("publish drafts", err)
		}

		for i := start; i < end; i++ {
			drafts[i].Published = true
			drafts[i].UpdatedAt = now
		}
	}
	return drafts, nil
}

// Describe reports the DynamoDB API version; the service has no server
// version of its own. The table counts as ready once it is ACTIVE.
func (s *DynamoDBStore) Describe(ctx context.Context) (Backend, error) {
	backend := Backend{
		Engine:  "dynamodb",
		Version: "DynamoDB API " + dynamodb.ServiceAPIVersion,
		Posts:   s.config.TableName,
	}

	out, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: s.table()})
	var notFound *types.ResourceNotFoundException
	switch {
	case errors.As(err, &notFound):
		return backend, nil
	case err != nil:
		return Backend{}, unavailable("describe table", err)
	}
	backend.PostsReady = out.Table.TableStatus == types.TableStatusActive
	return backend, nil
}

func (s *DynamoDBStore) Close() error {
	return nil
}

// cancelledAt reports, per transaction item, whether its condition check failed.
func cancelledAt(err error) []bool {
	var cancelled *types.TransactionCanceledException
	if !errors.As(err, &cancelled) {
		return nil
	}
	failed := make([]bool, len(cancelled.CancellationReasons))
	for i, reason := range cancelled.CancellationReasons {
		failed[i] = aws.ToString(reason.Code) == "ConditionalCheckFailed"
	}
	return failed
}

func conflicted(err error) bool {
	var cancelled *types.TransactionCanceledException
	if !errors.As(err, &cancelled) {
		var conflict *types.TransactionConflictException
		return errors.As(err, &conflict)
	}
	for _, reason := range cancelled.CancellationReasons {
		if aws.ToString(reason.Code) == "TransactionConflict" {
			return true
		}
	}
	return false
}
