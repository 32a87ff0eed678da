package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-table-orderflow/internal/aws"
	"github.com/imrishuroy/go-table-orderflow/internal/billing"
	"github.com/imrishuroy/go-table-orderflow/internal/idempotency"
)

// ErrInvalidMessage marks a message that can never be processed.
var ErrInvalidMessage = errors.New("invalid export message")

// Processor archives exported bills exactly once per bill number.
type Processor struct {
	archive    *billing.Archive
	idempStore *idempotency.Store // nil when no idempotency table is configured
	metrics    *aws.Metrics
	log        *zap.Logger
}

func NewProcessor(archive *billing.Archive, idempStore *idempotency.Store, metrics *aws.Metrics, log *zap.Logger) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{
		archive:    archive,
		idempStore: idempStore,
		metrics:    metrics,
		log:        log,
	}
}

// Handle receives an SQS batch event and reports the messages that failed so
// only those are redelivered.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			p.log.Error("export failed", zap.String("message_id", rec.MessageId), zap.Error(err))
			if errors.Is(err, ErrInvalidMessage) {
				// retrying a malformed body never succeeds
				continue
			}
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{
				ItemIdentifier: rec.MessageId,
			})
		}
	}
	return resp, nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var msg billing.ExportMessage
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	b := msg.Bill
	if b.BillNumber == "" || b.OrderID == "" {
		return fmt.Errorf("%w: missing bill number", ErrInvalidMessage)
	}
	log := p.log.With(zap.String("bill_number", b.BillNumber), zap.String("session_id", msg.SessionID))

	if p.idempStore == nil {
		err := p.archive.Put(ctx, b)
		if errors.Is(err, billing.ErrAlreadyArchived) {
			log.Info("bill already archived")
			return nil
		}
		if err != nil {
			return err
		}
		p.archived(ctx, log, b)
		return nil
	}

	key := idempotency.BillKey(b.BillNumber)
	outcome, err := p.idempStore.Claim(ctx, key, b.BillNumber)
	if err != nil {
		return fmt.Errorf("claim %s: %w", key, err)
	}
	switch outcome {
	case idempotency.AlreadyDone:
		log.Info("duplicate export skipped")
		return nil
	case idempotency.InFlight:
		return fmt.Errorf("export of %s already in progress", b.BillNumber)
	}

	put, err := p.archive.PutRequest(b)
	if err != nil {
		_ = p.idempStore.MarkFailed(ctx, key, err.Error())
		return err
	}
	if err := p.idempStore.Complete(ctx, key, "archived", put); err != nil {
		if errors.Is(err, idempotency.ErrConditionFailed) {
			// the bill row exists from an earlier run that lost its idempotency update
			if existing, getErr := p.archive.Get(ctx, b.BillNumber); getErr == nil && existing != nil {
				log.Info("bill already archived")
				return p.idempStore.MarkDone(ctx, key, "archived")
			}
		}
		_ = p.idempStore.MarkFailed(ctx, key, err.Error())
		return fmt.Errorf("archive %s: %w", b.BillNumber, err)
	}

	p.archived(ctx, log, b)
	return nil
}

func (p *Processor) archived(ctx context.Context, log *zap.Logger, b billing.Bill) {
	log.Info("bill archived", zap.String("order_id", b.OrderID), zap.Int64("total", b.Total))
	if err := p.metrics.Count(ctx, "BillsArchived", b.TableNumber, 1); err != nil {
		log.Warn("metric publish failed", zap.Error(err))
	}
}
