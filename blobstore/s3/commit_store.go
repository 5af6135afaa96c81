package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/visearch/blobstore"
)

// ManifestName is the blob name routed through DynamoDB by CommitStore.
const ManifestName = "CURRENT"

// ErrConcurrentCommit is returned when another writer committed a manifest
// between this writer's read and write.
var ErrConcurrentCommit = errors.New("concurrent manifest commit detected")

// DDBClient is the subset of DynamoDB operations used by CommitStore.
type DDBClient interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// CommitStore is an S3 blob store whose CURRENT manifest lives in DynamoDB.
//
// S3 alone cannot update the manifest pointer atomically with respect to
// other writers. The commit store keeps snapshot blobs in S3 and routes the
// manifest through a DynamoDB conditional write, so the commit is a
// compare-and-swap: a lost race surfaces as ErrConcurrentCommit instead of
// a silently overwritten snapshot.
//
// Table schema: partition key `base_uri` (string); attributes `seq`
// (number) and `manifest` (binary).
type CommitStore struct {
	*Store
	ddb     DDBClient
	table   string
	baseURI string // s3://bucket/prefix, used as partition key
}

// NewCommitStore pairs an S3 store with a DynamoDB commit table.
func NewCommitStore(store *Store, ddb DDBClient, table, baseURI string) *CommitStore {
	return &CommitStore{
		Store:   store,
		ddb:     ddb,
		table:   table,
		baseURI: baseURI,
	}
}

// Open opens a blob for reading. The manifest is served from DynamoDB.
func (s *CommitStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if name != ManifestName {
		return s.Store.Open(ctx, name)
	}

	out, err := s.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            s.itemKey(),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, blobstore.ErrNotFound
	}

	manifest, ok := out.Item["manifest"].(*ddbtypes.AttributeValueMemberB)
	if !ok {
		return nil, errors.New("commit item has no manifest attribute")
	}

	return io.NopCloser(bytes.NewReader(manifest.Value)), nil
}

// Put writes a blob. The manifest goes through a conditional DynamoDB write.
func (s *CommitStore) Put(ctx context.Context, name string, data []byte) error {
	if name != ManifestName {
		return s.Store.Put(ctx, name, data)
	}

	prev, err := s.currentSeq(ctx)
	if err != nil {
		return err
	}

	item := map[string]ddbtypes.AttributeValue{
		"base_uri": &ddbtypes.AttributeValueMemberS{Value: s.baseURI},
		"seq":      &ddbtypes.AttributeValueMemberN{Value: strconv.FormatInt(prev+1, 10)},
		"manifest": &ddbtypes.AttributeValueMemberB{Value: data},
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	}
	if prev == 0 {
		input.ConditionExpression = aws.String("attribute_not_exists(base_uri)")
	} else {
		input.ConditionExpression = aws.String("seq = :prev")
		input.ExpressionAttributeValues = map[string]ddbtypes.AttributeValue{
			":prev": &ddbtypes.AttributeValueMemberN{Value: strconv.FormatInt(prev, 10)},
		}
	}

	if _, err := s.ddb.PutItem(ctx, input); err != nil {
		var ccf *ddbtypes.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrConcurrentCommit
		}
		return err
	}
	return nil
}

func (s *CommitStore) itemKey() map[string]ddbtypes.AttributeValue {
	return map[string]ddbtypes.AttributeValue{
		"base_uri": &ddbtypes.AttributeValueMemberS{Value: s.baseURI},
	}
}

// currentSeq returns the committed sequence number, or 0 if none exists.
func (s *CommitStore) currentSeq(ctx context.Context) (int64, error) {
	out, err := s.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            s.itemKey(),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return 0, err
	}
	if out.Item == nil {
		return 0, nil
	}

	seq, ok := out.Item["seq"].(*ddbtypes.AttributeValueMemberN)
	if !ok {
		return 0, errors.New("commit item has no seq attribute")
	}
	return strconv.ParseInt(seq.Value, 10, 64)
}
