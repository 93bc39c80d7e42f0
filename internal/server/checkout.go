package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	checkoutdomain "github.com/smallbiznis/kasir/internal/checkout/domain"
)

// Checkout commits a cart. A fresh transaction answers 201, a replayed
// checkout session answers 200 with the stored transaction.
func (s *Server) Checkout(c *gin.Context) {
	var req checkoutdomain.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.CheckoutSessionID) == "" {
		req.CheckoutSessionID = strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey))
	}
	c.Set("checkout_session_id", req.CheckoutSessionID)

	resp, err := s.checkoutSvc.Checkout(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	status := http.StatusCreated
	if resp.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"data": resp})
}

func (s *Server) GetTransactionByID(c *gin.Context) {
	resp, err := s.checkoutSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}
