package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/imrishuroy/go-table-orderflow/internal/aws"
)

// ErrConditionFailed indicates a conditional write failed (e.g. the record is
// no longer IN_PROGRESS).
var ErrConditionFailed = errors.New("conditional check failed")

// Store encapsulates idempotency operations against DynamoDB.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	ttlWindow time.Duration // how long finished keys are remembered
	nowFunc   func() time.Time
}

// NewStore returns a configured Store.
// tableName: DynamoDB table name for idempotency entries.
// ttlWindow: default TTL window (e.g., 48*time.Hour)
func NewStore(client aws.DynamoDBAPI, tableName string, ttlWindow time.Duration) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		ttlWindow: ttlWindow,
		nowFunc:   time.Now,
	}
}

// Claim creates an IN_PROGRESS record for key, or takes over a FAILED one.
// When the key is already held or finished it reports which.
func (s *Store) Claim(ctx context.Context, key, billNumber string) (Outcome, error) {
	now := s.nowFunc().UTC()
	rec := Record{
		Key:        key,
		Status:     StatusInProgress,
		BillNumber: billNumber,
		CreatedAt:  now,
		UpdatedAt:  now,
		ExpiresAt:  now.Add(s.ttlWindow).Unix(),
	}

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return InFlight, fmt.Errorf("marshal record: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(idempotency_key) OR #s = :failed"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":failed": &types.AttributeValueMemberS{Value: StatusFailed},
		},
	})
	if err == nil {
		return Claimed, nil
	}
	if !isConditionFailed(err) {
		return InFlight, fmt.Errorf("put item: %w", err)
	}

	existing, err := s.Get(ctx, key)
	if err != nil {
		return InFlight, err
	}
	if existing != nil && existing.Status == StatusDone {
		return AlreadyDone, nil
	}
	return InFlight, nil
}

// Get retrieves an idempotency record by key. If not found, returns (nil, nil).
func (s *Store) Get(ctx context.Context, key string) (*Record, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key:       s.key(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec Record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return &rec, nil
}

// MarkDone moves a claimed key to DONE and stores a short result.
func (s *Store) MarkDone(ctx context.Context, key, result string) error {
	_, err := s.client.UpdateItem(ctx, s.doneUpdate(key, result))
	if err != nil {
		if isConditionFailed(err) {
			return ErrConditionFailed
		}
		return fmt.Errorf("update item (mark done): %w", err)
	}
	return nil
}

// Complete marks key DONE and applies put in one transaction, so the side
// effect and the record either both land or neither does.
func (s *Store) Complete(ctx context.Context, key, result string, put *types.Put) error {
	u := s.doneUpdate(key, result)
	_, err := s.client.TransactWriteItems(ctx, &dyn.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Update: &types.Update{
					TableName:                 u.TableName,
					Key:                       u.Key,
					UpdateExpression:          u.UpdateExpression,
					ConditionExpression:       u.ConditionExpression,
					ExpressionAttributeNames:  u.ExpressionAttributeNames,
					ExpressionAttributeValues: u.ExpressionAttributeValues,
				},
			},
			{Put: put},
		},
	})
	if err != nil {
		var tc *types.TransactionCanceledException
		if errors.As(err, &tc) {
			return ErrConditionFailed
		}
		return fmt.Errorf("transact write: %w", err)
	}
	return nil
}

// MarkFailed releases a claimed key so a later delivery can retry it.
func (s *Store) MarkFailed(ctx context.Context, key, note string) error {
	now := s.nowFunc().UTC()
	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName:        &s.tableName,
		Key:              s.key(key),
		UpdateExpression: awsString("SET #s = :failed, note = :n, updated_at = :ua"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":failed": &types.AttributeValueMemberS{Value: StatusFailed},
			":n":      &types.AttributeValueMemberS{Value: note},
			":ua":     &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return fmt.Errorf("update item (mark failed): %w", err)
	}
	return nil
}

func (s *Store) doneUpdate(key, result string) *dyn.UpdateItemInput {
	now := s.nowFunc().UTC()
	return &dyn.UpdateItemInput{
		TableName:           &s.tableName,
		Key:                 s.key(key),
		UpdateExpression:    awsString("SET #s = :done, #r = :r, updated_at = :ua"),
		ConditionExpression: awsString("#s = :inprogress"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
			"#r": "result",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":done":       &types.AttributeValueMemberS{Value: StatusDone},
			":inprogress": &types.AttributeValueMemberS{Value: StatusInProgress},
			":r":          &types.AttributeValueMemberS{Value: result},
			":ua":         &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	}
}

func (s *Store) key(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"idempotency_key": &types.AttributeValueMemberS{Value: key},
	}
}

func isConditionFailed(err error) bool {
	var cc *types.ConditionalCheckFailedException
	if errors.As(err, &cc) {
		return true
	}
	var api smithy.APIError
	return errors.As(err, &api) && api.ErrorCode() == "ConditionalCheckFailedException"
}

// Helper
func awsString(s string) *string { return &s }
