package checkout

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Payment methods accepted at the table.
const (
	MethodCard   = "card"
	MethodUPI    = "upi"
	MethodWallet = "wallet"
)

// ChargeRequest is what the session asks a gateway to collect.
type ChargeRequest struct {
	SessionID string
	Amount    int64
	Method    string
}

// PaymentGateway collects money for an order and returns a payment reference.
type PaymentGateway interface {
	Charge(ctx context.Context, req ChargeRequest) (string, error)
}

// SimulatedGateway waits for a fixed delay and then approves the charge,
// declining a configurable fraction of them.
type SimulatedGateway struct {
	delay       time.Duration
	declineRate float64
	log         *zap.Logger
	randFunc    func() float64
}

func NewSimulatedGateway(delay time.Duration, declineRate float64, log *zap.Logger) *SimulatedGateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &SimulatedGateway{
		delay:       delay,
		declineRate: declineRate,
		log:         log,
		randFunc:    rand.Float64,
	}
}

func (g *SimulatedGateway) Charge(ctx context.Context, req ChargeRequest) (string, error) {
	if err := sleep(ctx, g.delay); err != nil {
		return "", err
	}
	if g.declineRate > 0 && g.randFunc() < g.declineRate {
		g.log.Info("payment declined",
			zap.String("session_id", req.SessionID),
			zap.String("method", req.Method),
			zap.Int64("amount", req.Amount))
		return "", ErrPaymentDeclined
	}
	id := "PAY-" + uuid.NewString()
	g.log.Info("payment approved",
		zap.String("session_id", req.SessionID),
		zap.String("payment_id", id),
		zap.String("method", req.Method),
		zap.Int64("amount", req.Amount))
	return id, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
