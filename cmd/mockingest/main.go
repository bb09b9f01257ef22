// mockingest is a local stand-in for the downstream fulfillment system. It
// accepts completion events over HTTP and echoes an acknowledgement, which is
// handy when poking the service without a Kafka consumer around.
package main

import (
	"flag"
	"log"
	"net/http"

	"github.com/Domenick1991/concertbooking/internal/domain"
	"github.com/gin-gonic/gin"
)

func main() {
	addr := flag.String("addr", ":9090", "listen address")
	flag.Parse()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.POST("/ingest", func(c *gin.Context) {
		var event domain.ReservationCompletedEvent
		if err := c.ShouldBindJSON(&event); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("ingested reservation %s txn %s", event.ReservationID, event.TransactionID)
		c.JSON(http.StatusOK, gin.H{
			"ack":            true,
			"reservation_id": event.ReservationID,
			"transaction_id": event.TransactionID,
		})
	})

	log.Printf("mock ingest listening on %s", *addr)
	if err := router.Run(*addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
