package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/go-table-orderflow/internal/aws"
)

// ErrAlreadyArchived is returned when a bill number is already in the table.
var ErrAlreadyArchived = errors.New("bill already archived")

// Archive stores exported bills in DynamoDB, keyed by bill_number.
type Archive struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewArchive creates a bill Archive bound to tableName.
func NewArchive(client aws.DynamoDBAPI, tableName string) *Archive {
	return &Archive{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// Put writes the bill once. A second write for the same bill number returns
// ErrAlreadyArchived and leaves the stored copy untouched.
func (a *Archive) Put(ctx context.Context, b Bill) error {
	put, err := a.PutRequest(b)
	if err != nil {
		return err
	}

	_, err = a.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           put.TableName,
		Item:                put.Item,
		ConditionExpression: put.ConditionExpression,
	})
	if err != nil {
		var cc *types.ConditionalCheckFailedException
		if errors.As(err, &cc) {
			return ErrAlreadyArchived
		}
		return fmt.Errorf("put bill: %w", err)
	}
	return nil
}

// PutRequest builds the conditional put for b so callers can run it inside
// a transaction.
func (a *Archive) PutRequest(b Bill) (*types.Put, error) {
	b.ArchivedAt = a.nowFunc().UTC()

	item, err := attributevalue.MarshalMap(b)
	if err != nil {
		return nil, fmt.Errorf("marshal bill: %w", err)
	}
	return &types.Put{
		TableName:           &a.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(bill_number)"),
	}, nil
}

// Get fetches a bill by bill number. Returns (nil, nil) if not found.
func (a *Archive) Get(ctx context.Context, billNumber string) (*Bill, error) {
	out, err := a.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &a.tableName,
		Key: map[string]types.AttributeValue{
			"bill_number": &types.AttributeValueMemberS{Value: billNumber},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var b Bill
	if err := attributevalue.UnmarshalMap(out.Item, &b); err != nil {
		return nil, fmt.Errorf("unmarshal bill: %w", err)
	}
	return &b, nil
}

func awsString(s string) *string { return &s }
