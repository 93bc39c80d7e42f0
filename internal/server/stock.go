package server

import (
	"errors"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/smallbiznis/kasir/internal/catalog/domain"
	stockdomain "github.com/smallbiznis/kasir/internal/stock/domain"
)

func (s *Server) ListStocks(c *gin.Context) {
	balances, err := s.stockSvc.AllStocks(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	out := make([]stockdomain.Balance, 0, len(balances))
	for productID, qty := range balances {
		out = append(out, stockdomain.Balance{ProductID: productID, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })

	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (s *Server) GetStock(c *gin.Context) {
	productID, err := parseSnowflakeID(c.Param("product_id"))
	if err != nil {
		AbortWithError(c, newValidationError("product_id", "invalid_product_id", "invalid product_id"))
		return
	}

	qty, err := s.stockSvc.CurrentStock(c.Request.Context(), productID)
	if err != nil {
		if errors.Is(err, catalogdomain.ErrProductNotFound) {
			AbortWithError(c, ErrNotFound)
			return
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stockdomain.Balance{ProductID: productID, Quantity: qty}})
}

type listStockMovementsQuery struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size"`
	ProductID string `form:"product_id"`
	Kind      string `form:"kind"`
	StartAt   string `form:"start_at"`
	EndAt     string `form:"end_at"`
}

func (s *Server) ListStockMovements(c *gin.Context) {
	var query listStockMovementsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	startAt, err := parseOptionalTime(query.StartAt, false)
	if err != nil {
		AbortWithError(c, newValidationError("start_at", "invalid_start_at", "invalid start_at"))
		return
	}
	endAt, err := parseOptionalTime(query.EndAt, true)
	if err != nil {
		AbortWithError(c, newValidationError("end_at", "invalid_end_at", "invalid end_at"))
		return
	}

	req := stockdomain.ListMovementsRequest{
		ProductID: query.ProductID,
		Kind:      query.Kind,
		StartAt:   startAt,
		EndAt:     endAt,
	}
	req.PageToken = query.PageToken
	req.PageSize = query.PageSize

	resp, err := s.stockSvc.ListMovements(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Movements, "page_info": resp.PageInfo})
}

func (s *Server) AdjustStock(c *gin.Context) {
	var req stockdomain.AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.stockSvc.Adjust(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}
