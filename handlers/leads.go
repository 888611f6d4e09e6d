package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/trackadmission/go-services/internal/apierr"
	"github.com/trackadmission/go-services/internal/leads"
)

type LeadsService interface {
	Submit(ctx context.Context, in leads.Submission) (*leads.Lead, error)
	List(ctx context.Context, status leads.Status, page, limit int) (*leads.Page, error)
	UpdateStatus(ctx context.Context, id string, status leads.Status) (*leads.Lead, error)
}

// RegisterLeadRoutes mounts the admission form. Submissions pass through
// limit; listing and status changes need auth followed by admin.
func RegisterLeadRoutes(r gin.IRouter, svc LeadsService, limit, auth, admin gin.HandlerFunc) {
	g := r.Group("/api/form")

	g.POST("", limit, func(c *gin.Context) {
		var in leads.Submission
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form data"})
			return
		}
		l, err := svc.Submit(c.Request.Context(), in)
		if err != nil {
			apierr.Write(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Form submitted successfully", "id": l.ID})
	})

	g.GET("", auth, admin, func(c *gin.Context) {
		page, _ := strconv.Atoi(c.Query("page"))
		size, _ := strconv.Atoi(c.Query("limit"))
		res, err := svc.List(c.Request.Context(), leads.Status(c.Query("status")), page, size)
		if err != nil {
			apierr.Write(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	})

	g.PATCH("/:id", auth, admin, func(c *gin.Context) {
		var req struct {
			Status leads.Status `json:"status"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
			return
		}
		l, err := svc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
		if err != nil {
			apierr.Write(c, err)
			return
		}
		c.JSON(http.StatusOK, l)
	})
}
