package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func TestClaim_MarkDone_MarkFailed(t *testing.T) {
	mock := newSimpleMock()
	s := NewStore(mock, "idempotency-table", 48*time.Hour)

	ctx := context.Background()
	key := BillKey("BILL-GMC-1")

	outcome, err := s.Claim(ctx, key, "BILL-GMC-1")
	if err != nil {
		t.Fatalf("Claim error: %v", err)
	}
	if outcome != Claimed {
		t.Fatalf("expected claimed, got %s", outcome)
	}

	// second claim while in progress
	outcome, err = s.Claim(ctx, key, "BILL-GMC-1")
	if err != nil {
		t.Fatalf("second Claim error: %v", err)
	}
	if outcome != InFlight {
		t.Fatalf("expected in_flight, got %s", outcome)
	}

	rec, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if rec == nil || rec.Status != StatusInProgress || rec.BillNumber != "BILL-GMC-1" {
		t.Fatalf("unexpected record %+v", rec)
	}

	if err := s.MarkFailed(ctx, key, "archive unavailable"); err != nil {
		t.Fatalf("MarkFailed error: %v", err)
	}
	item := mock.tables["idempotency-table"][key]
	if st, ok := item["status"].(*types.AttributeValueMemberS); !ok || st.Value != StatusFailed {
		t.Fatalf("status not updated to FAILED, got %+v", item["status"])
	}
	if n, ok := item["note"].(*types.AttributeValueMemberS); !ok || n.Value != "archive unavailable" {
		t.Fatalf("note not set, got %+v", item["note"])
	}

	// a failed key can be claimed again
	outcome, err = s.Claim(ctx, key, "BILL-GMC-1")
	if err != nil || outcome != Claimed {
		t.Fatalf("expected reclaim, got %s, %v", outcome, err)
	}

	if err := s.MarkDone(ctx, key, "archived"); err != nil {
		t.Fatalf("MarkDone error: %v", err)
	}
	rec, _ = s.Get(ctx, key)
	if rec.Status != StatusDone || rec.Result != "archived" {
		t.Fatalf("unexpected record after done %+v", rec)
	}

	outcome, err = s.Claim(ctx, key, "BILL-GMC-1")
	if err != nil || outcome != AlreadyDone {
		t.Fatalf("expected already_done, got %s, %v", outcome, err)
	}

	// done is final
	if err := s.MarkDone(ctx, key, "again"); !errors.Is(err, ErrConditionFailed) {
		t.Fatalf("expected ErrConditionFailed, got %v", err)
	}
}

func TestGet_Missing(t *testing.T) {
	s := NewStore(newSimpleMock(), "idempotency-table", time.Hour)
	rec, err := s.Get(context.Background(), "nope")
	if err != nil || rec != nil {
		t.Fatalf("expected nil, nil; got %+v, %v", rec, err)
	}
}

func TestComplete_WritesBoth(t *testing.T) {
	mock := newSimpleMock()
	s := NewStore(mock, "idempotency-table", time.Hour)
	ctx := context.Background()
	key := BillKey("BILL-1")

	if _, err := s.Claim(ctx, key, "BILL-1"); err != nil {
		t.Fatalf("Claim: %v", err)
	}

	bills := "bills-table"
	put := &types.Put{
		TableName: &bills,
		Item: map[string]types.AttributeValue{
			"bill_number": &types.AttributeValueMemberS{Value: "BILL-1"},
		},
		ConditionExpression: awsString("attribute_not_exists(bill_number)"),
	}
	if err := s.Complete(ctx, key, "archived", put); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if mock.transactCalls != 1 {
		t.Fatalf("expected one transaction, got %d", mock.transactCalls)
	}
	if _, ok := mock.tables[bills]["BILL-1"]; !ok {
		t.Fatal("bill not written")
	}
	rec, _ := s.Get(ctx, key)
	if rec.Status != StatusDone {
		t.Fatalf("status = %s", rec.Status)
	}

	// replaying the completion is rejected and nothing changes
	if err := s.Complete(ctx, key, "archived", put); !errors.Is(err, ErrConditionFailed) {
		t.Fatalf("expected ErrConditionFailed, got %v", err)
	}
}

func TestComplete_TransportError(t *testing.T) {
	mock := newSimpleMock()
	mock.transactErr = errors.New("throttled")
	s := NewStore(mock, "idempotency-table", time.Hour)

	err := s.Complete(context.Background(), "k", "r", &types.Put{})
	if err == nil || errors.Is(err, ErrConditionFailed) {
		t.Fatalf("expected wrapped transport error, got %v", err)
	}
}

func TestClaim_SetsExpiry(t *testing.T) {
	mock := newSimpleMock()
	s := NewStore(mock, "idempotency-table", 48*time.Hour)
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	s.nowFunc = func() time.Time { return fixed }

	if _, err := s.Claim(context.Background(), "k1", "BILL-1"); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	rec, err := s.Get(context.Background(), "k1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.ExpiresAt != fixed.Add(48*time.Hour).Unix() {
		t.Fatalf("expires_at = %d", rec.ExpiresAt)
	}
	if !rec.CreatedAt.Equal(fixed) {
		t.Fatalf("created_at = %v", rec.CreatedAt)
	}
}

func TestOutcomeString(t *testing.T) {
	if Claimed.String() != "claimed" || AlreadyDone.String() != "already_done" || InFlight.String() != "in_flight" {
		t.Fatal("unexpected outcome names")
	}
	if BillKey("BILL-X") != "bill:BILL-X" {
		t.Fatalf("BillKey = %s", BillKey("BILL-X"))
	}
}
