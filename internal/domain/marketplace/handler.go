package marketplace

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"smartcity/internal/middleware"
	"smartcity/internal/pkg/pagination"
	"smartcity/internal/pkg/response"
)

const defaultPageSize = 10

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type proposalStatusRequest struct {
	Status ProposalStatus `json:"status" binding:"required"`
}

// paramID parses the :id path parameter. A malformed id cannot exist, so it is
// reported as notFound.
func paramID(c *gin.Context, notFound error) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.FromError(c, notFound)
		return uuid.Nil, false
	}
	return id, true
}

// queryID parses an optional uuid query filter. Garbage yields uuid.Nil and
// ok=false.
func queryID(c *gin.Context, key string) (uuid.UUID, bool) {
	raw := c.Query(key)
	if raw == "" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		response.BindError(c, "Invalid "+key)
		return uuid.Nil, false
	}
	return id, true
}

func actorOrAbort(c *gin.Context) (uuid.UUID, bool) {
	actor, err := middleware.CurrentUser(c)
	if err != nil {
		response.FromError(c, err)
		return uuid.Nil, false
	}
	return actor, true
}

// Service requests

// ListRequests godoc
// @Summary		List service requests
// @Tags		ServiceRequests
// @Produce		json
// @Param		category	query	string	false	"Category"
// @Param		status		query	string	false	"Status"
// @Param		userId		query	string	false	"Owner"
// @Param		search		query	string	false	"Search"
// @Router		/service-requests [get]
func (h *Handler) ListRequests(c *gin.Context) {
	userID, ok := queryID(c, "userId")
	if !ok {
		return
	}
	p := pagination.FromQuery(c, defaultPageSize)
	f := RequestFilter{
		Category: c.Query("category"),
		Status:   RequestStatus(c.Query("status")),
		UserID:   userID,
		Search:   c.Query("search"),
	}

	items, total, err := h.service.ListRequests(c.Request.Context(), f, p)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Paginated(c, items, p, total)
}

func (h *Handler) GetRequest(c *gin.Context) {
	id, ok := paramID(c, ErrRequestNotFound)
	if !ok {
		return
	}
	req, err := h.service.GetRequest(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"request": req})
}

func (h *Handler) CreateRequest(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var in CreateRequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BindError(c, "Invalid request body")
		return
	}

	req, err := h.service.CreateRequest(c.Request.Context(), actor, in)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"request": req})
}

func (h *Handler) UpdateRequest(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := paramID(c, ErrRequestNotFound)
	if !ok {
		return
	}
	var in UpdateRequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BindError(c, "Invalid request body")
		return
	}

	req, err := h.service.UpdateRequest(c.Request.Context(), actor, id, in)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"request": req})
}

func (h *Handler) DeleteRequest(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := paramID(c, ErrRequestNotFound)
	if !ok {
		return
	}
	if err := h.service.DeleteRequest(c.Request.Context(), actor, id); err != nil {
		response.FromError(c, err)
		return
	}
	response.Message(c, "Service request deleted successfully")
}

// Service offerings

func (h *Handler) ListOfferings(c *gin.Context) {
	providerID, ok := queryID(c, "providerId")
	if !ok {
		return
	}
	p := pagination.FromQuery(c, defaultPageSize)
	f := OfferingFilter{
		Category:   c.Query("category"),
		ProviderID: providerID,
		Search:     c.Query("search"),
	}

	items, total, err := h.service.ListOfferings(c.Request.Context(), middleware.OptionalUser(c), f, p)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Paginated(c, items, p, total)
}

func (h *Handler) GetOffering(c *gin.Context) {
	id, ok := paramID(c, ErrOfferingNotFound)
	if !ok {
		return
	}
	o, err := h.service.GetOffering(c.Request.Context(), middleware.OptionalUser(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"offering": o})
}

func (h *Handler) CreateOffering(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var in CreateOfferingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BindError(c, "Invalid request body")
		return
	}

	o, err := h.service.CreateOffering(c.Request.Context(), actor, in)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"offering": o})
}

func (h *Handler) UpdateOffering(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := paramID(c, ErrOfferingNotFound)
	if !ok {
		return
	}
	var in UpdateOfferingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BindError(c, "Invalid request body")
		return
	}

	o, err := h.service.UpdateOffering(c.Request.Context(), actor, id, in)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"offering": o})
}

func (h *Handler) DeleteOffering(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := paramID(c, ErrOfferingNotFound)
	if !ok {
		return
	}
	if err := h.service.DeleteOffering(c.Request.Context(), actor, id); err != nil {
		response.FromError(c, err)
		return
	}
	response.Message(c, "Service offering deleted successfully")
}

// Proposals

// ListProposals godoc
// @Summary		List proposals the caller sent or received
// @Tags		Proposals
// @Security	BearerAuth
// @Router		/proposals [get]
func (h *Handler) ListProposals(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	requestID, ok := queryID(c, "requestId")
	if !ok {
		return
	}
	providerID, ok := queryID(c, "providerId")
	if !ok {
		return
	}
	p := pagination.FromQuery(c, defaultPageSize)
	f := ProposalFilter{
		RequestID:  requestID,
		ProviderID: providerID,
		Status:     ProposalStatus(c.Query("status")),
	}

	items, total, err := h.service.ListProposals(c.Request.Context(), actor, f, p)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Paginated(c, items, p, total)
}

func (h *Handler) GetProposal(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := paramID(c, ErrProposalNotFound)
	if !ok {
		return
	}
	prop, err := h.service.GetProposal(c.Request.Context(), actor, id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"proposal": prop})
}

// SubmitProposal godoc
// @Summary		Submit a proposal for an open request
// @Tags		Proposals
// @Security	BearerAuth
// @Param		body	body	SubmitProposalInput	true	"payload"
// @Router		/proposals [post]
func (h *Handler) SubmitProposal(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var in SubmitProposalInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BindError(c, "Invalid request body")
		return
	}

	prop, err := h.service.SubmitProposal(c.Request.Context(), actor, in)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"proposal": prop})
}

// UpdateProposalStatus godoc
// @Summary		Accept, reject or complete a proposal
// @Tags		Proposals
// @Security	BearerAuth
// @Router		/proposals/{id} [put]
func (h *Handler) UpdateProposalStatus(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := paramID(c, ErrProposalNotFound)
	if !ok {
		return
	}
	var req proposalStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, "Status is required")
		return
	}

	prop, err := h.service.UpdateProposalStatus(c.Request.Context(), actor, id, req.Status)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"proposal": prop})
}

func (h *Handler) DeleteProposal(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := paramID(c, ErrProposalNotFound)
	if !ok {
		return
	}
	if err := h.service.DeleteProposal(c.Request.Context(), actor, id); err != nil {
		response.FromError(c, err)
		return
	}
	response.Message(c, "Proposal deleted successfully")
}

// Transactions

func (h *Handler) ListTransactions(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	p := pagination.FromQuery(c, defaultPageSize)
	items, total, err := h.service.ListTransactions(c.Request.Context(), actor, c.Query("role"), TransactionStatus(c.Query("status")), p)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Paginated(c, items, p, total)
}

func (h *Handler) GetTransaction(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := paramID(c, ErrTransactionNotFound)
	if !ok {
		return
	}
	t, err := h.service.GetTransaction(c.Request.Context(), actor, id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"transaction": t})
}

// UpdateTransaction godoc
// @Summary		Change transaction status and/or leave a rating
// @Tags		Transactions
// @Security	BearerAuth
// @Param		body	body	UpdateTransactionInput	true	"payload"
// @Router		/transactions/{id} [put]
func (h *Handler) UpdateTransaction(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := paramID(c, ErrTransactionNotFound)
	if !ok {
		return
	}
	var in UpdateTransactionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BindError(c, "Invalid request body")
		return
	}

	t, err := h.service.UpdateTransaction(c.Request.Context(), actor, id, in)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"transaction": t})
}

func (h *Handler) Pay(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var in PayInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BindError(c, "Invalid request body")
		return
	}

	payment, err := h.service.Pay(c.Request.Context(), actor, in)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"payment": payment})
}

// AdminListTransactions lists every transaction for operators.
func (h *Handler) AdminListTransactions(c *gin.Context) {
	p := pagination.FromQuery(c, defaultPageSize)
	items, total, err := h.service.AdminListTransactions(c.Request.Context(), TransactionStatus(c.Query("status")), p)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Paginated(c, items, p, total)
}
