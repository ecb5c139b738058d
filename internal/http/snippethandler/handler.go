package snippethandler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"livesharego/internal/core"
	"livesharego/internal/services/snippet"
)

type Handler struct {
	svc snippet.ISnippetService
}

func New(svc snippet.ISnippetService) *Handler { return &Handler{svc: svc} }

func (h *Handler) Register(r gin.IRoutes) {
	r.POST("/api/snippets", h.create)
	r.GET("/api/snippets/:shareId", h.info)
}

// @Summary		Create a snippet
// @Description	Stores a new snippet and returns the share id clients join with.
// @Tags			Snippets
// @Param			body	body		CreateSnippetBody	true	"Snippet payload"
// @Success		201		{object}	CreateSnippetResponse
// @Failure		400		{object}	ErrorResponse
// @Failure		503		{object}	ErrorResponse
// @Router			/api/snippets [post]
func (h *Handler) create(ginCtx *gin.Context) {
	var body CreateSnippetBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}

	snip, err := h.svc.Create(ginCtx.Request.Context(), body.Filename, body.Content, body.ExpiresIn)
	if err != nil {
		zap.L().Error("snippet.create", zap.Error(err))
		ginCtx.JSON(http.StatusServiceUnavailable, &ErrorResponse{Error: "could not store snippet"})
		return
	}
	ginCtx.JSON(http.StatusCreated, CreateSnippetResponse{ShareID: snip.ShareID, ExpiresAt: snip.ExpiresAt})
}

// @Summary		Get a snippet
// @Description	Returns the persisted snippet. Live edits show up here after the save debounce.
// @Tags			Snippets
// @Param			shareId	path		string	true	"Share ID"	default(abc12345)
// @Success		200		{object}	core.Snippet
// @Failure		404		{object}	ErrorResponse
// @Failure		503		{object}	ErrorResponse
// @Router			/api/snippets/{shareId} [get]
func (h *Handler) info(ginCtx *gin.Context) {
	var p ShareIDParam
	if err := ginCtx.ShouldBindUri(&p); err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}

	snip, err := h.svc.Get(ginCtx.Request.Context(), p.ShareID)
	if errors.Is(err, core.ErrNotFound) {
		ginCtx.JSON(http.StatusNotFound, &ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		zap.L().Error("snippet.get", zap.String("share_id", p.ShareID), zap.Error(err))
		ginCtx.JSON(http.StatusServiceUnavailable, &ErrorResponse{Error: "store unavailable"})
		return
	}
	ginCtx.JSON(http.StatusOK, snip)
}
