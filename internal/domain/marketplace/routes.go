package marketplace

import (
	"github.com/gin-gonic/gin"

	"smartcity/internal/middleware"
)

// RegisterPublicRoutes mounts the browse endpoints. v1 is expected to run
// OptionalJWTAuth so owners can see their own inactive offerings.
func (h *Handler) RegisterPublicRoutes(v1 *gin.RouterGroup) {
	requests := v1.Group("/service-requests")
	{
		requests.GET("", h.ListRequests)
		requests.GET("/:id", h.GetRequest)
	}
	offerings := v1.Group("/service-offerings")
	{
		offerings.GET("", h.ListOfferings)
		offerings.GET("/:id", h.GetOffering)
	}
}

func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	requests := protected.Group("/service-requests")
	{
		requests.POST("", h.CreateRequest)
		requests.PUT("/:id", h.UpdateRequest)
		requests.DELETE("/:id", h.DeleteRequest)
	}

	offerings := protected.Group("/service-offerings")
	{
		offerings.POST("", h.CreateOffering)
		offerings.PUT("/:id", h.UpdateOffering)
		offerings.DELETE("/:id", h.DeleteOffering)
	}

	proposals := protected.Group("/proposals")
	{
		proposals.GET("", h.ListProposals)
		proposals.GET("/:id", h.GetProposal)
		proposals.POST("", h.SubmitProposal)
		proposals.PUT("/:id", h.UpdateProposalStatus)
		proposals.DELETE("/:id", h.DeleteProposal)
	}

	transactions := protected.Group("/transactions")
	{
		transactions.GET("", h.ListTransactions)
		transactions.GET("/:id", h.GetTransaction)
		transactions.PUT("/:id", h.UpdateTransaction)
	}

	protected.POST("/payments", h.Pay)

	admin := protected.Group("/admin", middleware.AdminOnly())
	{
		admin.GET("/transactions", h.AdminListTransactions)
	}
}
