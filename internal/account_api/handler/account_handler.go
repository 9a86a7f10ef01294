package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/bancario/account-service/internal/account_api/middleware"
	"github.com/bancario/account-service/internal/lifecycle"
)

const defaultHistoryDays = 30

// AccountHandler handles HTTP requests for account operations
type AccountHandler struct {
	accountService lifecycle.Service
	logger         *slog.Logger
	now            func() time.Time
}

func NewAccountHandler(logger *slog.Logger, accountService lifecycle.Service) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
		now:            time.Now,
	}
}

func (h *AccountHandler) requestLogger(c *gin.Context) *slog.Logger {
	if id := middleware.GetCorrelationID(c); id != "" {
		return h.logger.With("correlation_id", id)
	}
	return h.logger
}

// Create opens a new account after eligibility checks
func (h *AccountHandler) Create(c *gin.Context) {
	logger := h.requestLogger(c)

	var body CreateAccountRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	req, err := body.toCreationRequest()
	if err != nil {
		RespondError(c, logger, err)
		return
	}

	acc, err := h.accountService.CreateAccount(c.Request.Context(), req)
	if err != nil {
		RespondError(c, logger, err)
		return
	}
	RespondCreated(c, mapAccountToResponse(acc))
}

func (h *AccountHandler) GetByID(c *gin.Context) {
	acc, err := h.accountService.GetAccountByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, h.requestLogger(c), err)
		return
	}
	RespondOK(c, mapAccountToResponse(acc))
}

func (h *AccountHandler) GetByNumber(c *gin.Context) {
	acc, err := h.accountService.GetAccountByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		RespondError(c, h.requestLogger(c), err)
		return
	}
	RespondOK(c, mapAccountToResponse(acc))
}

// ListByCustomer returns every account of the customer given by ?customerId=
func (h *AccountHandler) ListByCustomer(c *gin.Context) {
	accounts, err := h.accountService.ListAccountsByCustomer(c.Request.Context(), c.Query("customerId"))
	if err != nil {
		RespondError(c, h.requestLogger(c), err)
		return
	}
	RespondOK(c, mapAccountsToResponse(accounts))
}

// Close marks the account INACTIVE; nothing is deleted
func (h *AccountHandler) Close(c *gin.Context) {
	if err := h.accountService.CloseAccount(c.Request.Context(), c.Param("id")); err != nil {
		RespondError(c, h.requestLogger(c), err)
		return
	}
	RespondNoContent(c)
}

func (h *AccountHandler) UpdateBalance(c *gin.Context) {
	logger := h.requestLogger(c)

	var body UpdateBalanceRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		logger.Warn("Invalid balance update body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	amountUsed := decimal.Zero
	if body.AmountUsed != nil {
		amountUsed = *body.AmountUsed
	}

	acc, err := h.accountService.UpdateBalance(c.Request.Context(), c.Param("id"), *body.Balance, amountUsed)
	if err != nil {
		RespondError(c, logger, err)
		return
	}
	RespondOK(c, mapAccountToResponse(acc))
}

func (h *AccountHandler) GetTransactionStatus(c *gin.Context) {
	status, err := h.accountService.GetTransactionStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, h.requestLogger(c), err)
		return
	}
	RespondOK(c, TransactionStatusResponse{
		FreeTransactionLimit:       status.FreeTransactionLimit,
		CurrentMonthlyTransactions: status.CurrentMonthlyTransactions,
		TransactionFeeAmount:       status.TransactionFeeAmount,
	})
}

func (h *AccountHandler) IncrementTransactions(c *gin.Context) {
	id := c.Param("id")
	if err := h.accountService.IncrementTransactionCounter(c.Request.Context(), id); err != nil {
		RespondError(c, h.requestLogger(c), err)
		return
	}
	RespondOK(c, gin.H{"accountId": id})
}

// DailyBalances returns EOD snapshots for ?customerId between ?startDate and ?endDate
// inclusive; the range defaults to the last 30 days.
func (h *AccountHandler) DailyBalances(c *gin.Context) {
	end := h.now().UTC()
	if v := c.Query("endDate"); v != "" {
		parsed, err := parseDate(v)
		if err != nil {
			RespondBadRequest(c, "endDate must be a date (YYYY-MM-DD)")
			return
		}
		end = parsed
	}
	start := end.AddDate(0, 0, -defaultHistoryDays)
	if v := c.Query("startDate"); v != "" {
		parsed, err := parseDate(v)
		if err != nil {
			RespondBadRequest(c, "startDate must be a date (YYYY-MM-DD)")
			return
		}
		start = parsed
	}

	records, err := h.accountService.GetDailyBalances(c.Request.Context(), c.Query("customerId"), start, end)
	if err != nil {
		RespondError(c, h.requestLogger(c), err)
		return
	}
	RespondOK(c, records)
}
