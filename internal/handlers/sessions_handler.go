package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-table-orderflow/internal/billing"
	"github.com/imrishuroy/go-table-orderflow/internal/checkout"
	"github.com/imrishuroy/go-table-orderflow/internal/validation"
)

type sessionResponse struct {
	checkout.View
	DemoCode      string     `json:"demo_code,omitempty"`
	CodeExpiresAt *time.Time `json:"code_expires_at,omitempty"`
}

func (a *api) session(c *gin.Context) (*checkout.Session, bool) {
	s, err := a.cfg.Sessions.Get(c.Param("id"))
	if err != nil {
		a.writeError(c, err)
		return nil, false
	}
	return s, true
}

func (a *api) respond(c *gin.Context, status int, s *checkout.Session) {
	resp := sessionResponse{View: s.View()}
	if resp.Stage == checkout.StageVerification {
		exp := s.CodeExpiresAt()
		resp.CodeExpiresAt = &exp
		if a.cfg.DemoMode {
			resp.DemoCode = s.Snapshot().OTP
		}
	}
	c.JSON(status, resp)
}

// POST /tables/:tableId/sessions
func (a *api) createSession(c *gin.Context) {
	s := a.cfg.Sessions.Create(c.Param("tableId"))
	c.Header("Location", fmt.Sprintf("/sessions/%s", s.ID()))
	a.respond(c, http.StatusCreated, s)
}

// GET /sessions/:id
func (a *api) getSession(c *gin.Context) {
	s, ok := a.session(c)
	if !ok {
		return
	}
	a.respond(c, http.StatusOK, s)
}

// DELETE /sessions/:id
func (a *api) deleteSession(c *gin.Context) {
	if err := a.cfg.Sessions.Delete(c.Param("id")); err != nil {
		a.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /sessions/:id/items
func (a *api) addItem(c *gin.Context) {
	s, ok := a.session(c)
	if !ok {
		return
	}
	var req validation.AddItemRequest
	if err := validation.BindAndValidate(c, &req, a.validate); err != nil {
		return
	}
	if err := s.Add(req.ItemID); err != nil {
		a.writeError(c, err)
		return
	}
	a.respond(c, http.StatusOK, s)
}

// DELETE /sessions/:id/items/:itemId
func (a *api) removeItem(c *gin.Context) {
	s, ok := a.session(c)
	if !ok {
		return
	}
	if err := s.Remove(c.Param("itemId")); err != nil {
		a.writeError(c, err)
		return
	}
	a.respond(c, http.StatusOK, s)
}

// PUT /sessions/:id/items/:itemId
func (a *api) setQuantity(c *gin.Context) {
	s, ok := a.session(c)
	if !ok {
		return
	}
	var req validation.SetQuantityRequest
	if err := validation.BindAndValidate(c, &req, a.validate); err != nil {
		return
	}
	if err := s.SetQuantity(c.Param("itemId"), *req.Quantity); err != nil {
		a.writeError(c, err)
		return
	}
	a.respond(c, http.StatusOK, s)
}

// POST /sessions/:id/checkout
func (a *api) checkout(c *gin.Context) {
	s, ok := a.session(c)
	if !ok {
		return
	}
	// field rules live in the session so the error names the field
	var req validation.CustomerDetails
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body", "msg": err.Error()})
		return
	}
	if err := s.Checkout(req.CustomerName, req.PhoneNumber); err != nil {
		a.writeError(c, err)
		return
	}
	a.respond(c, http.StatusOK, s)
}

// POST /sessions/:id/payment
func (a *api) pay(c *gin.Context) {
	s, ok := a.session(c)
	if !ok {
		return
	}
	var req validation.PaymentRequest
	if err := validation.BindAndValidate(c, &req, a.validate); err != nil {
		return
	}
	ctx := c.Request.Context()
	table := s.Snapshot().TableNumber
	if err := s.Pay(ctx, req.Method); err != nil {
		if errors.Is(err, checkout.ErrPaymentDeclined) {
			a.count(ctx, "PaymentsDeclined", table)
		}
		a.writeError(c, err)
		return
	}
	a.count(ctx, "OrdersPaid", table)
	a.respond(c, http.StatusOK, s)
}

// POST /sessions/:id/otp/resend
func (a *api) resendCode(c *gin.Context) {
	s, ok := a.session(c)
	if !ok {
		return
	}
	if err := s.ResendCode(c.Request.Context()); err != nil {
		a.writeError(c, err)
		return
	}
	a.respond(c, http.StatusOK, s)
}

// POST /sessions/:id/otp/verify
func (a *api) verify(c *gin.Context) {
	s, ok := a.session(c)
	if !ok {
		return
	}
	var req validation.VerifyRequest
	if err := validation.BindAndValidate(c, &req, a.validate); err != nil {
		return
	}
	ctx := c.Request.Context()
	if err := s.Verify(ctx, req.Code); err != nil {
		a.writeError(c, err)
		return
	}
	a.count(ctx, "OrdersVerified", s.Snapshot().TableNumber)
	a.respond(c, http.StatusOK, s)
}

// POST /sessions/:id/bill
func (a *api) generateBill(c *gin.Context) {
	s, ok := a.session(c)
	if !ok {
		return
	}
	b, err := s.GenerateBill(a.cfg.Now())
	if err != nil {
		a.writeError(c, err)
		return
	}
	a.export(c, s.ID(), b)
	a.count(c.Request.Context(), "BillsGenerated", b.TableNumber)
	c.JSON(http.StatusOK, b)
}

// GET /sessions/:id/bill/download
func (a *api) downloadBill(c *gin.Context) {
	s, ok := a.session(c)
	if !ok {
		return
	}
	b, err := s.GenerateBill(a.cfg.Now())
	if err != nil {
		a.writeError(c, err)
		return
	}
	body, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", b.FileName()))
	c.Data(http.StatusOK, "application/json", body)
}

// POST /sessions/:id/close
func (a *api) closeStep(c *gin.Context) {
	s, ok := a.session(c)
	if !ok {
		return
	}
	if err := s.Close(); err != nil {
		a.writeError(c, err)
		return
	}
	a.respond(c, http.StatusOK, s)
}

// POST /sessions/:id/clear
func (a *api) clear(c *gin.Context) {
	s, ok := a.session(c)
	if !ok {
		return
	}
	if err := s.Clear(); err != nil {
		a.writeError(c, err)
		return
	}
	a.respond(c, http.StatusOK, s)
}

// export queues the bill for archiving. Failures are logged; the customer
// still gets the bill.
func (a *api) export(c *gin.Context, sessionID string, b billing.Bill) {
	if !a.cfg.Publisher.Enabled() {
		return
	}
	msg := billing.ExportMessage{SessionID: sessionID, Bill: b}
	attrs := msg.Attributes()
	attrs["correlation_id"] = c.GetHeader("X-Request-Id")
	if err := a.cfg.Publisher.PublishJSON(c.Request.Context(), msg, attrs); err != nil {
		a.log.Warn("bill export failed",
			zap.String("session_id", sessionID),
			zap.String("bill_number", b.BillNumber),
			zap.Error(err))
	}
}
