package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// StatusResponse 상태 응답
type StatusResponse struct {
	UserID       string `json:"userId"`
	ExpenseCount int    `json:"expenseCount"` // 저장된 지출 건수
}

// GetStatus 사용자별 저장 현황
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	ownerID := strings.TrimSpace(c.GetHeader(UserHeader))
	if ownerID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "인증이 필요합니다."})
		return
	}

	n, err := h.store.CountExpenses(c.Request.Context(), ownerID)
	if err != nil {
		h.log.Error().Err(err).Str("owner", ownerID).Msg("지출 건수 조회 실패")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "상태를 조회할 수 없습니다."})
		return
	}

	c.JSON(http.StatusOK, StatusResponse{UserID: ownerID, ExpenseCount: n})
}
