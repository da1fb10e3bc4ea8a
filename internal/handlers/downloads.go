package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avandyck/newsdock/internal/download"
	appErrors "github.com/avandyck/newsdock/pkg/errors"
	"github.com/avandyck/newsdock/pkg/response"
)

// DownloadHandler exposes bulk prefetching.
type DownloadHandler struct {
	controller *download.Controller
}

// NewDownloadHandler constructs a download handler.
func NewDownloadHandler(controller *download.Controller) (*DownloadHandler, error) {
	if controller == nil {
		return nil, appErrors.New("INVALID_HANDLER", "download controller must be provided", http.StatusInternalServerError)
	}
	return &DownloadHandler{controller: controller}, nil
}

// Auto triggers the gated once-per-session prefetch.
func (h *DownloadHandler) Auto(c *gin.Context) {
	summary, ran := h.controller.AutoDownload(c.Request.Context())
	response.Success(c, http.StatusOK, gin.H{"ran": ran, "summary": summary})
}

type manualDownloadInput struct {
	Pages   []int `json:"pages" validate:"required,min=1,dive,min=1"`
	Confirm bool  `json:"confirm"`
}

// Manual triggers a user-requested prefetch. The caller must confirm the
// estimated footprint first; an unconfirmed request gets the estimate back
// with a 428 instead of starting the download.
func (h *DownloadHandler) Manual(c *gin.Context) {
	var input manualDownloadInput
	if !bindAndValidate(c, &input) {
		return
	}

	ctx := c.Request.Context()
	if !input.Confirm {
		c.JSON(appErrors.ErrConfirmationRequired.StatusCode, response.Response{
			Success: false,
			Data:    gin.H{"estimated_bytes": h.controller.EstimateSize(ctx, input.Pages)},
			Error: &response.ErrorInfo{
				Code:    appErrors.ErrConfirmationRequired.Code,
				Message: appErrors.ErrConfirmationRequired.Message,
			},
		})
		return
	}

	summary, err := h.controller.ManualDownload(ctx, input.Pages, nil)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, summary)
}

// Estimate predicts the footprint of downloading the given pages.
func (h *DownloadHandler) Estimate(c *gin.Context) {
	pages, err := parsePagesQuery(c, "pages")
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"pages":           pages,
		"estimated_bytes": h.controller.EstimateSize(c.Request.Context(), pages),
	})
}
