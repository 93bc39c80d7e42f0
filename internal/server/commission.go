package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/kasir/internal/clock"
	commissiondomain "github.com/smallbiznis/kasir/internal/commission/domain"
)

type therapistCommissionsQuery struct {
	StartAt string `form:"start_at"`
	EndAt   string `form:"end_at"`
}

// GetTherapistCommissions sums a therapist's commission rows in
// [start_at, end_at). Both bounds default to the current UTC day.
func (s *Server) GetTherapistCommissions(c *gin.Context) {
	therapistID, err := parseSnowflakeID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_therapist_id", "invalid therapist id"))
		return
	}

	var query therapistCommissionsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	startAt, endAt := utcDay(s.clock)
	if parsed, err := parseOptionalTime(query.StartAt, false); err != nil {
		AbortWithError(c, newValidationError("start_at", "invalid_start_at", "invalid start_at"))
		return
	} else if parsed != nil {
		startAt = *parsed
	}
	if parsed, err := parseOptionalTime(query.EndAt, true); err != nil {
		AbortWithError(c, newValidationError("end_at", "invalid_end_at", "invalid end_at"))
		return
	} else if parsed != nil {
		endAt = *parsed
	}

	resp, err := s.commissionSvc.Summary(c.Request.Context(), commissiondomain.SummaryRequest{
		TherapistID: therapistID,
		StartAt:     startAt,
		EndAt:       endAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// utcDay returns [00:00, next 00:00) of the clock's current UTC date.
func utcDay(clk clock.Clock) (time.Time, time.Time) {
	now := clk.Now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}
