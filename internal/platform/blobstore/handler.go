package blobstore

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// BlobHandler serves stored files back by name.
type BlobHandler struct {
	store BlobStore
}

func NewBlobHandler(store BlobStore) *BlobHandler {
	return &BlobHandler{store: store}
}

// RegisterRoutes mounts GET /uploads/:filename on g.
func (h *BlobHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/uploads/:filename", h.handleDownload)
}

func (h *BlobHandler) handleDownload(c echo.Context) error {
	rc, meta, err := h.store.Open(c.Request().Context(), c.Param("filename"))
	if err != nil {
		if errors.Is(err, ErrBlobNotFound) {
			return c.String(http.StatusNotFound, "File not found on server")
		}
		return c.String(http.StatusInternalServerError, err.Error())
	}
	defer rc.Close()

	c.Response().Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, meta.Name))
	return c.Stream(http.StatusOK, meta.ContentType, rc)
}
