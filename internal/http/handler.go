package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nurpe/negotiations-service/internal/http/middleware"
	"github.com/nurpe/negotiations-service/internal/service"
)

type Handler struct {
	ledger        *service.Ledger
	workflow      *service.Workflow
	requests      *service.RequestService
	notifications *service.NotificationService
	contracts     *service.ContractService
	log           zerolog.Logger
}

func NewHandler(
	ledger *service.Ledger,
	workflow *service.Workflow,
	requests *service.RequestService,
	notifications *service.NotificationService,
	contracts *service.ContractService,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		ledger:        ledger,
		workflow:      workflow,
		requests:      requests,
		notifications: notifications,
		contracts:     contracts,
		log:           log,
	}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(authMiddleware)

	protected.POST("/requests", h.registerRequest)
	protected.GET("/requests", h.searchRequests)
	protected.GET("/requests/:key", h.getRequest)
	protected.POST("/requests/:key/proposals", h.appendProposal)
	protected.GET("/requests/:key/proposals", h.listProposals)
	protected.GET("/requests/:key/profit", h.negotiatedProfit)
	protected.POST("/requests/:key/complete", h.markCompleted)
	protected.GET("/requests/:key/contract", h.getContract)

	protected.GET("/contracts", h.listContracts)
	protected.GET("/contracts/export", h.exportContracts)
	protected.GET("/contracts/export/pdf", h.exportContractsPDF)

	protected.GET("/notifications", h.listNotifications)
	protected.GET("/notifications/unread-count", h.unreadCount)
	protected.POST("/notifications/read-all", h.markAllRead)
	protected.POST("/notifications/:id/read", h.markRead)
	protected.DELETE("/notifications", h.deleteAllNotifications)
	protected.DELETE("/notifications/:id", h.deleteNotification)
}

type registerRequestRequest struct {
	RequestKey string `json:"request_key" binding:"required"`
	Summary    string `json:"summary"`
	Status     string `json:"status"`
}

func (h *Handler) registerRequest(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req registerRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	request, err := h.requests.Register(c.Request.Context(), service.RegisterRequestInput{
		RequestKey: req.RequestKey,
		Summary:    req.Summary,
		Status:     req.Status,
		Creator:    principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, request)
}

func (h *Handler) searchRequests(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	requests, err := h.requests.Search(c.Request.Context(), principal, c.Query("status"), c.Query("q"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, requests)
}

func (h *Handler) getRequest(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	request, err := h.requests.Get(c.Request.Context(), principal, c.Param("key"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

type appendProposalRequest struct {
	UnitPrice string `json:"unit_price" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
	Total     string `json:"total"`
	Note      string `json:"note"`
	IsFinal   bool   `json:"is_final"`
}

func (h *Handler) appendProposal(c *gin.Context) {
	if _, ok := middleware.MustPrincipal(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req appendProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	unitPrice, err := decimal.NewFromString(strings.TrimSpace(req.UnitPrice))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid unit_price"})
		return
	}

	input := service.AppendProposalInput{
		RequestKey: c.Param("key"),
		UnitPrice:  unitPrice,
		Quantity:   req.Quantity,
		Note:       req.Note,
		IsFinal:    req.IsFinal,
	}
	if req.Total != "" {
		total, err := decimal.NewFromString(strings.TrimSpace(req.Total))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid total"})
			return
		}
		input.Total = &total
	}

	proposal, err := h.ledger.Append(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, proposal)
}

func (h *Handler) listProposals(c *gin.Context) {
	if _, ok := middleware.MustPrincipal(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	proposals, err := h.ledger.List(c.Request.Context(), c.Param("key"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposals)
}

func (h *Handler) negotiatedProfit(c *gin.Context) {
	if _, ok := middleware.MustPrincipal(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	profit, err := h.ledger.NegotiatedProfit(c.Request.Context(), c.Param("key"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request_key": c.Param("key"), "profit": profit})
}

type markCompletedRequest struct {
	TransitionKey string `json:"transition_key" binding:"required"`
	Profit        string `json:"profit"`
	RenewalDate   string `json:"renewal_date"`
	Comment       string `json:"comment"`
}

func (h *Handler) markCompleted(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req markCompletedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := service.MarkCompletedInput{
		RequestKey:    c.Param("key"),
		TransitionKey: req.TransitionKey,
		Comment:       req.Comment,
		Actor:         principal,
	}
	if req.Profit != "" {
		profit, err := decimal.NewFromString(strings.TrimSpace(req.Profit))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profit"})
			return
		}
		input.Profit = &profit
	}
	if req.RenewalDate != "" {
		renewal, err := parseDate(req.RenewalDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid renewal_date"})
			return
		}
		input.RenewalDate = &renewal
	}

	snapshot, err := h.workflow.MarkCompleted(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) getContract(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	snapshot, err := h.contracts.Get(c.Request.Context(), principal, c.Param("key"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) listContracts(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	snapshots, err := h.contracts.List(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshots)
}

func (h *Handler) exportContracts(c *gin.Context) {
	h.export(c, service.ExportFormatExcel, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
}

func (h *Handler) exportContractsPDF(c *gin.Context) {
	h.export(c, service.ExportFormatPDF, "application/pdf")
}

func (h *Handler) export(c *gin.Context, format service.ExportFormat, contentType string) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	result, err := h.contracts.Export(c.Request.Context(), principal, format)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, contentType, result.Content)
}

func (h *Handler) listNotifications(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	onlyUnread := c.Query("unread") == "true"
	notifications, err := h.notifications.List(c.Request.Context(), principal, onlyUnread)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, notifications)
}

func (h *Handler) unreadCount(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	count, err := h.notifications.UnreadCount(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

func (h *Handler) markRead(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.notifications.MarkRead(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) markAllRead(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	if err := h.notifications.MarkAllRead(c.Request.Context(), principal); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) deleteNotification(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.notifications.Delete(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) deleteAllNotifications(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	if err := h.notifications.DeleteAll(c.Request.Context(), principal); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrInvalidTransitionKey):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrTransitionRejected):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrExternalTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrExternalUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}
