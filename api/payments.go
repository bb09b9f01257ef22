package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/Domenick1991/concertbooking/internal/repository"
	"github.com/Domenick1991/concertbooking/internal/service/checkout"
	"github.com/Domenick1991/concertbooking/internal/service/payment"
	"github.com/gin-gonic/gin"
)

type PaymentProcessor interface {
	Pay(ctx context.Context, reservationID, userID string, amountCents int64) (*checkout.PayResult, error)
}

type PaymentHandler struct {
	service PaymentProcessor
}

type payRequest struct {
	UserID      string `json:"user_id"`
	AmountCents int64  `json:"amount_cents"`
}

type paymentResponse struct {
	PaymentID      string `json:"payment_id"`
	ReservationID  string `json:"reservation_id"`
	AmountCents    int64  `json:"amount_cents"`
	Status         string `json:"status"`
	TransactionID  string `json:"transaction_id,omitempty"`
	EventDelivered bool   `json:"event_delivered"`
	EventEnqueued  bool   `json:"event_enqueued"`
}

func NewPaymentHandler(service PaymentProcessor) *PaymentHandler {
	return &PaymentHandler{service: service}
}

func (h *PaymentHandler) Register(router *gin.RouterGroup) {
	router.POST("/:id/payment", h.pay)
}

func (h *PaymentHandler) pay(c *gin.Context) {
	var req payRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	reservationID := c.Param("id")

	result, err := h.service.Pay(c.Request.Context(), reservationID, req.UserID, req.AmountCents)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrPaymentFailed):
			// The reservation has been cancelled; the seat is free again.
			c.JSON(http.StatusPaymentRequired, toPaymentResponse(result))
		case errors.Is(err, repository.ErrReservationNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, payment.ErrAmountMismatch), errors.Is(err, payment.ErrReservationNotConfirmed):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, toPaymentResponse(result))
}

func toPaymentResponse(result *checkout.PayResult) paymentResponse {
	if result == nil || result.Payment == nil {
		return paymentResponse{}
	}
	return paymentResponse{
		PaymentID:      result.Payment.ID,
		ReservationID:  result.Payment.ReservationID,
		AmountCents:    result.Payment.AmountCents,
		Status:         string(result.Payment.Status),
		TransactionID:  result.Payment.TransactionID,
		EventDelivered: result.Outcome.Delivered,
		EventEnqueued:  result.Outcome.Enqueued,
	}
}
