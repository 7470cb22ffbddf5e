package handlers

import (
	"net/http"

	"github.com/AlenaMolokova/bazario/internal/middleware"
	"github.com/AlenaMolokova/bazario/internal/utils"
	"github.com/sirupsen/logrus"
)

type BalanceHandler struct {
	ledger BalanceService
}

func NewBalanceHandler(ledger BalanceService) *BalanceHandler {
	return &BalanceHandler{ledger: ledger}
}

func (h *BalanceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		logrus.Warn("Unauthorized: userID not found in context")
		utils.WriteJSONError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	coins, err := h.ledger.GetBalance(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]int64{"coins": coins})
	logrus.WithFields(logrus.Fields{"user_id": userID, "coins": coins}).Debug("Returned balance")
}
