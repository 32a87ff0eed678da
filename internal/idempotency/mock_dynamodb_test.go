package idempotency

import (
	"context"
	"errors"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// simpleMock is a small in-memory DynamoDB that understands the handful of
// condition expressions the store uses. Items are keyed by table then by the
// first string key attribute.
type simpleMock struct {
	mu            sync.Mutex
	tables        map[string]map[string]map[string]types.AttributeValue
	putCalls      int
	getCalls      int
	updateCalls   int
	transactCalls int
	transactErr   error
}

func newSimpleMock() *simpleMock {
	return &simpleMock{
		tables: map[string]map[string]map[string]types.AttributeValue{},
	}
}

func itemKey(item map[string]types.AttributeValue) string {
	for _, name := range []string{"idempotency_key", "bill_number"} {
		if v, ok := item[name].(*types.AttributeValueMemberS); ok {
			return v.Value
		}
	}
	return ""
}

func strAttr(item map[string]types.AttributeValue, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func (m *simpleMock) table(name string) map[string]map[string]types.AttributeValue {
	t, ok := m.tables[name]
	if !ok {
		t = map[string]map[string]types.AttributeValue{}
		m.tables[name] = t
	}
	return t
}

// putAllowed evaluates the put conditions used by the store and the archive.
func (m *simpleMock) putAllowed(table string, cond *string, item map[string]types.AttributeValue) bool {
	existing, exists := m.table(table)[itemKey(item)]
	if cond == nil || !exists {
		return true
	}
	switch *cond {
	case "attribute_not_exists(idempotency_key) OR #s = :failed":
		return strAttr(existing, "status") == StatusFailed
	default:
		return false
	}
}

func (m *simpleMock) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putCalls++
	if params.Item == nil {
		return nil, errors.New("nil item")
	}
	if !m.putAllowed(*params.TableName, params.ConditionExpression, params.Item) {
		return nil, &types.ConditionalCheckFailedException{}
	}
	m.table(*params.TableName)[itemKey(params.Item)] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *simpleMock) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	item, ok := m.table(*params.TableName)[itemKey(params.Key)]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

// applyUpdate copies the SET values the store writes. Caller holds mu.
func (m *simpleMock) applyUpdate(table string, key map[string]types.AttributeValue, cond *string, values map[string]types.AttributeValue) error {
	item, ok := m.table(table)[itemKey(key)]
	if !ok {
		return &types.ConditionalCheckFailedException{}
	}
	if cond != nil && *cond == "#s = :inprogress" && strAttr(item, "status") != StatusInProgress {
		return &types.ConditionalCheckFailedException{}
	}
	updated := map[string]types.AttributeValue{}
	for k, v := range item {
		updated[k] = v
	}
	for placeholder, attr := range map[string]string{
		":done":   "status",
		":failed": "status",
		":r":      "result",
		":n":      "note",
		":ua":     "updated_at",
	} {
		if v, ok := values[placeholder]; ok {
			updated[attr] = v
		}
	}
	m.table(table)[itemKey(key)] = updated
	return nil
}

func (m *simpleMock) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	if err := m.applyUpdate(*params.TableName, params.Key, params.ConditionExpression, params.ExpressionAttributeValues); err != nil {
		return nil, err
	}
	return &dyn.UpdateItemOutput{}, nil
}

func (m *simpleMock) TransactWriteItems(ctx context.Context, params *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactCalls++
	if m.transactErr != nil {
		return nil, m.transactErr
	}

	// check every condition before writing anything
	for _, it := range params.TransactItems {
		if u := it.Update; u != nil {
			item, ok := m.table(*u.TableName)[itemKey(u.Key)]
			if !ok || (u.ConditionExpression != nil && strAttr(item, "status") != StatusInProgress) {
				return nil, &types.TransactionCanceledException{}
			}
		}
		if p := it.Put; p != nil && !m.putAllowed(*p.TableName, p.ConditionExpression, p.Item) {
			return nil, &types.TransactionCanceledException{}
		}
	}
	for _, it := range params.TransactItems {
		if u := it.Update; u != nil {
			if err := m.applyUpdate(*u.TableName, u.Key, nil, u.ExpressionAttributeValues); err != nil {
				return nil, err
			}
		}
		if p := it.Put; p != nil {
			m.table(*p.TableName)[itemKey(p.Item)] = p.Item
		}
	}
	return &dyn.TransactWriteItemsOutput{}, nil
}
