package checkout

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-table-orderflow/internal/billing"
	"github.com/imrishuroy/go-table-orderflow/internal/catalog"
	"github.com/imrishuroy/go-table-orderflow/internal/orders"
	"github.com/imrishuroy/go-table-orderflow/internal/validation"
)

// Options configures a Session. Nil collaborators are replaced with the
// simulated ones; durations are used as given.
type Options struct {
	VerifyDelay  time.Duration
	PrepDuration time.Duration
	OTPWindow    time.Duration
	MaxAttempts  int
	MaxResends   int

	Gateway    PaymentGateway
	Sender     CodeSender
	Scheduler  Scheduler
	Calculator *billing.Calculator
	Validator  *validatorv10.Validate
	Logger     *zap.Logger

	Now        func() time.Time
	NewOrderID func() string
	NewCode    func() (string, error)
}

// DefaultOptions mirrors the timings of the in-restaurant flow.
func DefaultOptions() Options {
	return Options{
		VerifyDelay:  2 * time.Second,
		PrepDuration: 15 * time.Second,
		OTPWindow:    5 * time.Minute,
		MaxAttempts:  5,
		MaxResends:   3,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 5
	}
	if o.MaxResends <= 0 {
		o.MaxResends = 3
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Gateway == nil {
		o.Gateway = NewSimulatedGateway(3*time.Second, 0, o.Logger)
	}
	if o.Sender == nil {
		o.Sender = NewLogSender(o.Logger)
	}
	if o.Scheduler == nil {
		o.Scheduler = RealScheduler{}
	}
	if o.Calculator == nil {
		o.Calculator = billing.NewCalculator(billing.DefaultTaxRate)
	}
	if o.Validator == nil {
		o.Validator = validation.New()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewOrderID == nil {
		o.NewOrderID = func() string { return "GMC-" + uuid.NewString() }
	}
	if o.NewCode == nil {
		o.NewCode = GenerateCode
	}
	return o
}

// Session drives one table visit from cart to bill. All methods are safe for
// concurrent use; state changes are serialised by mu while simulated delays
// run without holding it.
type Session struct {
	id    string
	table string
	menu  *catalog.Menu
	opts  Options
	log   *zap.Logger

	mu       sync.Mutex
	store    *orders.Store
	stage    Stage
	busy     bool
	closed   bool
	attempts int
	resends  int
	issuedAt time.Time
	kitchen  Timer
	gen      int
}

// View is a consistent read of a session.
type View struct {
	ID               string         `json:"session_id"`
	Stage            Stage          `json:"stage"`
	Order            orders.State   `json:"order"`
	Totals           billing.Totals `json:"totals"`
	EstimatedMinutes int            `json:"estimated_minutes"`
}

// NewSession opens a session at table with an empty cart. An empty table
// falls back to the default one.
func NewSession(id, table string, menu *catalog.Menu, opts Options) *Session {
	opts = opts.withDefaults()
	store := orders.NewStore(table)
	return &Session{
		id:    id,
		table: store.Snapshot().TableNumber,
		menu:  menu,
		opts:  opts,
		log:   opts.Logger.With(zap.String("session_id", id)),
		store: store,
		stage: StageCart,
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Stage is the step currently shown.
func (s *Session) Stage() Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// Snapshot returns a copy of the order state.
func (s *Session) Snapshot() orders.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Snapshot()
}

// Totals prices the current cart.
func (s *Session) Totals() billing.Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts.Calculator.Totals(s.store.Snapshot().Items)
}

// EstimatedMinutes is the wait for the order's current status.
func (s *Session) EstimatedMinutes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return EstimatedMinutes(s.store.Snapshot().Status)
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.store.Snapshot()
	return View{
		ID:               s.id,
		Stage:            s.stage,
		Order:            st,
		Totals:           s.opts.Calculator.Totals(st.Items),
		EstimatedMinutes: EstimatedMinutes(st.Status),
	}
}

// cartGate must be called with mu held. The cart is only editable from the
// cart step of an unpaid order.
func (s *Session) cartGate() error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.busy || s.stage != StageCart || s.store.Snapshot().Status != orders.StatusCart {
		return ErrCartLocked
	}
	return nil
}

// Add puts one unit of a menu item in the cart.
func (s *Session) Add(itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.cartGate(); err != nil {
		return err
	}
	item, ok := s.menu.Find(itemID)
	if !ok {
		return ErrUnknownItem
	}
	return s.store.Dispatch(orders.AddItem{Item: item})
}

// Remove takes one unit of an item out of the cart.
func (s *Session) Remove(itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.cartGate(); err != nil {
		return err
	}
	return s.store.Dispatch(orders.RemoveItem{ItemID: itemID})
}

// SetQuantity sets the exact quantity for an item. Zero removes the line.
func (s *Session) SetQuantity(itemID string, quantity int) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.cartGate(); err != nil {
		return err
	}
	item := catalog.MenuItem{ID: itemID}
	if quantity > 0 {
		found, ok := s.menu.Find(itemID)
		if !ok {
			return ErrUnknownItem
		}
		item = found
	}
	return s.store.Dispatch(orders.SetQuantity{Item: item, Quantity: quantity})
}

// Checkout records the customer's details and moves to payment. An order that
// is already paid resumes where it left off instead.
func (s *Session) Checkout(name, phone string) error {
	name, phone = strings.TrimSpace(name), strings.TrimSpace(phone)
	req := validation.CustomerDetails{CustomerName: name, PhoneNumber: phone}
	if err := s.opts.Validator.Struct(req); err != nil {
		if validation.FirstField(err) == "customer_name" {
			return ErrInvalidName
		}
		return ErrInvalidPhone
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if s.stage != StageCart {
		return ErrWrongStage
	}

	st := s.store.Snapshot()
	switch {
	case st.Status == orders.StatusConfirmed:
		s.stage = StageVerification
		return nil
	case orders.StatusConfirmed.Before(st.Status):
		s.stage = StageConfirmation
		return nil
	}

	if err := s.store.Dispatch(orders.SetCustomerDetails{
		Name:        name,
		TableNumber: s.table,
		PhoneNumber: &phone,
	}); err != nil {
		return err
	}
	s.stage = StagePayment
	return nil
}

// Pay charges the cart total and, on success, sends a verification code.
// A declined payment leaves the session in the payment step.
func (s *Session) Pay(ctx context.Context, method string) error {
	switch method {
	case MethodCard, MethodUPI, MethodWallet:
	default:
		return ErrInvalidMethod
	}

	s.mu.Lock()
	if err := s.beginLocked(StagePayment); err != nil {
		s.mu.Unlock()
		return err
	}
	st := s.store.Snapshot()
	if len(st.Items) == 0 {
		s.busy = false
		s.mu.Unlock()
		return ErrEmptyCart
	}
	amount := s.opts.Calculator.Totals(st.Items).Total
	s.mu.Unlock()

	paymentID, err := s.opts.Gateway.Charge(ctx, ChargeRequest{SessionID: s.id, Amount: amount, Method: method})

	s.mu.Lock()
	s.busy = false
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if err != nil {
		s.mu.Unlock()
		if errors.Is(err, ErrPaymentDeclined) {
			return ErrPaymentDeclined
		}
		return fmt.Errorf("charge: %w", err)
	}

	if err := s.store.Dispatch(orders.SetPaymentDetails{Method: method, PaymentID: paymentID}); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.store.Snapshot().OrderID == "" {
		if err := s.store.Dispatch(orders.SetOrderID{ID: s.opts.NewOrderID()}); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	if err := s.store.Dispatch(orders.SetStatus{Status: orders.StatusConfirmed}); err != nil {
		s.mu.Unlock()
		return err
	}
	s.stage = StageVerification
	phone, code, err := s.issueCodeLocked()
	orderID := s.store.Snapshot().OrderID
	s.mu.Unlock()

	s.log.Info("order confirmed", zap.String("order_id", orderID), zap.String("payment_id", paymentID))
	if err != nil {
		return fmt.Errorf("issue code: %w", err)
	}
	s.send(ctx, phone, code)
	return nil
}

// ResendCode replaces the verification code. It is allowed once the current
// code's window has passed, or right away after too many wrong attempts.
// Each order gets at most MaxResends new codes.
func (s *Session) ResendCode(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.stage != StageVerification {
		s.mu.Unlock()
		return ErrWrongStage
	}
	lockedOut := s.attempts >= s.opts.MaxAttempts
	if !lockedOut && s.opts.Now().Before(s.issuedAt.Add(s.opts.OTPWindow)) {
		s.mu.Unlock()
		return ErrResendNotAvailable
	}
	if s.resends >= s.opts.MaxResends {
		s.mu.Unlock()
		return ErrResendLimit
	}
	phone, code, err := s.issueCodeLocked()
	if err == nil {
		s.resends++
	}
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("issue code: %w", err)
	}
	s.send(ctx, phone, code)
	return nil
}

// CodeExpiresAt is when a resend becomes available.
func (s *Session) CodeExpiresAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issuedAt.Add(s.opts.OTPWindow)
}

// Verify checks code against the last one sent. A match starts preparation.
func (s *Session) Verify(ctx context.Context, code string) error {
	if !wellFormedCode(code) {
		return ErrInvalidCode
	}

	s.mu.Lock()
	if err := s.beginLocked(StageVerification); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.attempts >= s.opts.MaxAttempts {
		s.busy = false
		s.mu.Unlock()
		return ErrTooManyAttempts
	}
	s.mu.Unlock()

	err := sleep(ctx, s.opts.VerifyDelay)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	if s.closed {
		return ErrSessionClosed
	}
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	st := s.store.Snapshot()
	if subtle.ConstantTimeCompare([]byte(code), []byte(st.OTP)) != 1 {
		s.attempts++
		s.log.Info("verification code mismatch", zap.Int("attempts", s.attempts))
		return ErrCodeMismatch
	}

	if err := s.store.Dispatch(orders.SetStatus{Status: orders.StatusPreparing}); err != nil {
		return err
	}
	s.stage = StageConfirmation
	s.scheduleKitchenLocked()
	s.log.Info("order verified", zap.String("order_id", st.OrderID))
	return nil
}

// GenerateBill builds the bill for the confirmed order and shows it.
func (s *Session) GenerateBill(now time.Time) (billing.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return billing.Bill{}, ErrSessionClosed
	}
	if s.stage != StageConfirmation && s.stage != StageBill {
		return billing.Bill{}, ErrWrongStage
	}
	b, err := s.opts.Calculator.NewBill(s.store.Snapshot(), now)
	if err != nil {
		return billing.Bill{}, err
	}
	s.stage = StageBill
	return b, nil
}

// Close dismisses the current step without undoing anything it did.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if s.busy {
		return ErrBusy
	}
	s.stage = s.stage.opener()
	return nil
}

// Clear drops the order and starts a fresh cart at the same table.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if s.busy {
		return ErrBusy
	}
	s.stopKitchenLocked()
	if err := s.store.Dispatch(orders.Clear{}); err != nil {
		return err
	}
	if err := s.store.Dispatch(orders.SetCustomerDetails{TableNumber: s.table}); err != nil {
		return err
	}
	s.stage = StageCart
	s.attempts = 0
	s.resends = 0
	s.issuedAt = time.Time{}
	return nil
}

// Dispose cancels pending work and rejects every later call. It is idempotent.
func (s *Session) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.stopKitchenLocked()
	s.log.Debug("session disposed")
}

// beginLocked claims the session for a slow operation in stage want.
func (s *Session) beginLocked(want Stage) error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.stage != want {
		return ErrWrongStage
	}
	if s.busy {
		return ErrBusy
	}
	s.busy = true
	return nil
}

func (s *Session) issueCodeLocked() (phone, code string, err error) {
	code, err = s.opts.NewCode()
	if err != nil {
		return "", "", err
	}
	if err := s.store.Dispatch(orders.SetOTP{Code: code}); err != nil {
		return "", "", err
	}
	s.attempts = 0
	s.issuedAt = s.opts.Now()
	return s.store.Snapshot().PhoneNumber, code, nil
}

func (s *Session) send(ctx context.Context, phone, code string) {
	if err := s.opts.Sender.Send(ctx, phone, code); err != nil {
		s.log.Warn("sending verification code failed", zap.Error(err))
	}
}

func (s *Session) scheduleKitchenLocked() {
	s.stopKitchenLocked()
	gen := s.gen
	s.kitchen = s.opts.Scheduler.AfterFunc(s.opts.PrepDuration, func() {
		s.markReady(gen)
	})
}

func (s *Session) stopKitchenLocked() {
	s.gen++
	if s.kitchen != nil {
		s.kitchen.Stop()
		s.kitchen = nil
	}
}

func (s *Session) markReady(gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.gen {
		return
	}
	s.kitchen = nil
	if err := s.store.Dispatch(orders.SetStatus{Status: orders.StatusReady}); err != nil {
		s.log.Warn("marking order ready failed", zap.Error(err))
		return
	}
	s.log.Info("order ready", zap.String("order_id", s.store.Snapshot().OrderID))
}
