package vision

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/healthguard/assistant/internal/platform/auth"
	"github.com/healthguard/assistant/internal/platform/blobstore"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/disease/predict", h.PredictDisease)
	g.POST("/machine/predict", h.PredictFetal)
}

func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}

func (h *Handler) PredictDisease(c echo.Context) error {
	up, err := readUpload(c, "file")
	switch {
	case errors.Is(err, errMissingPart):
		return errorJSON(c, http.StatusBadRequest, "No file uploaded")
	case errors.Is(err, errEmptyFileName):
		return errorJSON(c, http.StatusBadRequest, "Empty filename")
	case err != nil:
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	res, err := h.svc.PredictDisease(c.Request().Context(), up)
	if err != nil {
		if errors.Is(err, ErrInvalidImage) || isUploadRejected(err) {
			return errorJSON(c, http.StatusBadRequest, err.Error())
		}
		return errorJSON(c, http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) PredictFetal(c echo.Context) error {
	up, err := readUpload(c, "image")
	switch {
	case errors.Is(err, errMissingPart), errors.Is(err, errEmptyFileName):
		return errorJSON(c, http.StatusBadRequest, "No image file provided")
	case err != nil:
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	res, err := h.svc.DetectFetal(c.Request().Context(), up)
	if err != nil {
		if errors.Is(err, ErrInvalidImage) || isUploadRejected(err) {
			return errorJSON(c, http.StatusBadRequest, err.Error())
		}
		return errorJSON(c, http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, res)
}

var (
	errMissingPart   = errors.New("missing file part")
	errEmptyFileName = errors.New("empty file name")
)

// readUpload reads the multipart file under field. A part sent with an empty
// filename is parsed as a plain value, which is how it is told apart from a
// missing part.
func readUpload(c echo.Context, field string) (Upload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			if form, ferr := c.MultipartForm(); ferr == nil {
				if _, ok := form.Value[field]; ok {
					return Upload{}, errEmptyFileName
				}
			}
			return Upload{}, errMissingPart
		}
		return Upload{}, fmt.Errorf("invalid multipart body: %w", err)
	}
	if strings.TrimSpace(fh.Filename) == "" {
		return Upload{}, errEmptyFileName
	}
	if fh.Size > blobstore.MaxFileSize {
		return Upload{}, blobstore.ErrFileTooLarge
	}

	data, err := readPart(fh)
	if err != nil {
		return Upload{}, err
	}

	patientID := strings.TrimSpace(c.FormValue("patientId"))
	if patientID == "" {
		patientID = auth.PatientIDFromContext(c.Request().Context())
	}
	return Upload{FileName: fh.Filename, PatientID: patientID, Data: data}, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, blobstore.MaxFileSize+1))
}

func isUploadRejected(err error) bool {
	return errors.Is(err, blobstore.ErrFileTooLarge) ||
		errors.Is(err, blobstore.ErrInvalidContentType) ||
		errors.Is(err, blobstore.ErrMissingFileName)
}
