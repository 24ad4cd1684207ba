package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/parastudy/parastudy-backend/internal/logger"
	"github.com/parastudy/parastudy-backend/internal/requestdata"
	"github.com/parastudy/parastudy-backend/internal/services"
)

const maxUploadBytes = 20 << 20 // per file

type MaterialHandler struct {
	log             *logger.Logger
	materialService services.MaterialService
}

func NewMaterialHandler(log *logger.Logger, materialService services.MaterialService) *MaterialHandler {
	return &MaterialHandler{
		log:             log.With("handler", "MaterialHandler"),
		materialService: materialService,
	}
}

// Upload accepts a multipart form with one or more "files" parts and an
// optional "category" field shared by the batch.
func (h *MaterialHandler) Upload(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("no request data"))
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_form", err)
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		RespondError(c, http.StatusBadRequest, "no_files", fmt.Errorf("no files in request"))
		return
	}
	category := c.PostForm("category")

	uploads := make([]services.MaterialUpload, 0, len(files))
	for _, fh := range files {
		if fh.Size > maxUploadBytes {
			uploads = append(uploads, services.MaterialUpload{Name: fh.Filename})
			continue
		}
		f, oErr := fh.Open()
		if oErr != nil {
			h.log.Warn("Failed to open multipart file", "name", fh.Filename, "error", oErr)
			uploads = append(uploads, services.MaterialUpload{Name: fh.Filename})
			continue
		}
		data, rErr := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
		_ = f.Close()
		if rErr != nil {
			uploads = append(uploads, services.MaterialUpload{Name: fh.Filename})
			continue
		}
		uploads = append(uploads, services.MaterialUpload{
			Name:     fh.Filename,
			Category: category,
			MIMEType: fh.Header.Get("Content-Type"),
			Data:     data,
		})
	}

	results, err := h.materialService.UploadSources(c.Request.Context(), rd.UserID, uploads)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "upload_failed", err)
		return
	}
	RespondOK(c, gin.H{"results": results})
}

func (h *MaterialHandler) List(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("no request data"))
		return
	}
	sources, err := h.materialService.ListSources(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"sources": sources})
}

func (h *MaterialHandler) Delete(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("no request data"))
		return
	}
	sourceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := h.materialService.DeleteSource(c.Request.Context(), rd.UserID, sourceID); err != nil {
		RespondError(c, http.StatusBadRequest, "delete_failed", err)
		return
	}
	RespondOK(c, gin.H{"status": "deleted"})
}
