package server

import (
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/kasir/internal/observability/context"
	"github.com/smallbiznis/kasir/internal/observability/logger"
	"go.uber.org/zap"
)

const (
	HeaderOperatorID     = "X-Operator-Id"
	HeaderIdempotencyKey = "Idempotency-Key"

	contextOperatorIDKey = "operator_id"
)

// OperatorRequired reads the operator id set by the upstream auth layer and
// rejects requests without one.
func OperatorRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		operatorID := strings.TrimSpace(c.GetHeader(HeaderOperatorID))
		if operatorID == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Request = c.Request.WithContext(obscontext.WithOperatorID(c.Request.Context(), operatorID))
		c.Set(contextOperatorIDKey, operatorID)
		c.Next()
	}
}

// CheckoutRateLimit spends one token from the operator's bucket per checkout.
// A Redis failure lets the request through.
func (s *Server) CheckoutRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.checkoutLimiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		decision, err := s.checkoutLimiter.AllowOperator(ctx, obscontext.OperatorIDFromContext(ctx))
		if err != nil {
			logger.FromContext(ctx).Warn("checkout rate limit check failed", zap.Error(err))
			c.Next()
			return
		}
		if !decision.Allowed {
			if decision.RetryAfter > 0 {
				c.Header("Retry-After", strconv.Itoa(int(math.Ceil(decision.RetryAfter.Seconds()))))
			}
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}
