package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/craftlink-lk/craftlink-api/config"
	"github.com/craftlink-lk/craftlink-api/models"
	"github.com/craftlink-lk/craftlink-api/services"
)

// ListCommissionEntries handles GET /api/v1/commissions (sellers only),
// returning the append-only ledger newest first
func ListCommissionEntries(c *gin.Context) {
	user := requireUser(c)
	if user == nil {
		return
	}
	if user.Role != models.RoleSeller {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "Only sellers have a commission ledger")
		return
	}

	entries, err := services.NewCommissionService(config.GetDB()).Entries(user.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch commission entries")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    entries,
	})
}

// GetPayoutBalance handles GET /api/v1/commissions/balance (sellers only)
func GetPayoutBalance(c *gin.Context) {
	user := requireUser(c)
	if user == nil {
		return
	}
	if user.Role != models.RoleSeller {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "Only sellers have a payout balance")
		return
	}

	balance, err := services.NewCommissionService(config.GetDB()).PayoutBalance(user.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to compute payout balance")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"payout_balance": balance,
		},
	})
}
