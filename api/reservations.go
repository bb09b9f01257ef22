package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Domenick1991/concertbooking/internal/domain"
	"github.com/Domenick1991/concertbooking/internal/ledger"
	"github.com/gin-gonic/gin"
)

type ReservationBooker interface {
	Reserve(ctx context.Context, userID string, concertID int64, seatNumber int) (*domain.Reservation, error)
}

type ReservationHandler struct {
	service ReservationBooker
}

type createReservationRequest struct {
	UserID     string `json:"user_id"`
	ConcertID  int64  `json:"concert_id"`
	SeatNumber int    `json:"seat_number"`
}

type reservationResponse struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	ConcertID   int64  `json:"concert_id"`
	SeatNumber  int    `json:"seat_number"`
	PriceCents  int64  `json:"price_cents"`
	Status      string `json:"status"`
	ConfirmedAt string `json:"confirmed_at"`
}

func NewReservationHandler(service ReservationBooker) *ReservationHandler {
	return &ReservationHandler{service: service}
}

func (h *ReservationHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
}

func (h *ReservationHandler) create(c *gin.Context) {
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reservation, err := h.service.Reserve(c.Request.Context(), req.UserID, req.ConcertID, req.SeatNumber)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrSeatNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, ledger.ErrSeatUnavailable):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, toReservationResponse(reservation))
}

func toReservationResponse(r *domain.Reservation) reservationResponse {
	return reservationResponse{
		ID:          r.ID,
		UserID:      r.UserID,
		ConcertID:   r.ConcertID,
		SeatNumber:  r.SeatNumber,
		PriceCents:  r.PriceCents,
		Status:      string(r.Status),
		ConfirmedAt: r.ConfirmedAt.Format(time.RFC3339),
	}
}
