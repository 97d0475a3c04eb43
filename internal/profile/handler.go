package profile

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pawelszalw/HireTree/internal/extract"
	"github.com/pawelszalw/HireTree/internal/shared/metrics"
	"github.com/pawelszalw/HireTree/internal/shared/server/middleware"
	"github.com/pawelszalw/HireTree/internal/shared/server/respond"
	"github.com/pawelszalw/HireTree/internal/shared/util"
)

const maxUploadBytes = 10 << 20 // 10 MiB

// Handler exposes the resume collection over HTTP.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/cv", h.uploadCV)
	rg.GET("/cv", h.getActive)
	rg.GET("/cv/resumes", h.listResumes)
	rg.POST("/cv/resumes/:id/activate", h.activateResume)
	rg.DELETE("/cv/resumes/:id", h.deleteResume)
	rg.PATCH("/cv/resumes/:id/skills/:name", h.patchSkill)
	rg.POST("/profile/manual", h.buildManual)
	rg.POST("/profile/refine", h.refine)
}

type uploadResponse struct {
	Resume
	Cached bool `json:"cached"`
}

func (h *Handler) uploadCV(c *gin.Context) {
	accountID := middleware.UserIDFromContext(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	if fileHeader.Size > maxUploadBytes {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file too large", nil)
		return
	}

	fileName, err := util.SanitizeFileName(fileHeader.Filename)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid file name", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to read upload", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to read upload", nil)
		return
	}

	rawText, err := extract.Text(data, fileName)
	if err != nil {
		if errors.Is(err, extract.ErrUnsupportedType) {
			respond.Error(c, http.StatusUnprocessableEntity, "unsupported_media", err.Error(), nil)
			return
		}
		respond.Error(c, http.StatusUnprocessableEntity, "extraction_failed", "failed to extract text from document", nil)
		return
	}
	metrics.IncExtraction()

	result, err := h.Svc.CreateFromDocument(c.Request.Context(), accountID, rawText, fileName)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	respond.JSON(c, http.StatusCreated, uploadResponse{Resume: result.Resume, Cached: result.Cached})
}

func (h *Handler) getActive(c *gin.Context) {
	accountID := middleware.UserIDFromContext(c)
	resume, err := h.Svc.Active(c.Request.Context(), accountID)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	respond.OK(c, resume)
}

func (h *Handler) listResumes(c *gin.Context) {
	accountID := middleware.UserIDFromContext(c)
	resumes, err := h.Svc.List(c.Request.Context(), accountID)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	respond.OK(c, gin.H{"resumes": resumes})
}

func (h *Handler) activateResume(c *gin.Context) {
	accountID := middleware.UserIDFromContext(c)
	resumeID, ok := resumeIDParam(c)
	if !ok {
		return
	}
	resume, err := h.Svc.SetActive(c.Request.Context(), accountID, resumeID)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	respond.OK(c, resume)
}

func (h *Handler) deleteResume(c *gin.Context) {
	accountID := middleware.UserIDFromContext(c)
	resumeID, ok := resumeIDParam(c)
	if !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), accountID, resumeID); err != nil {
		h.serviceError(c, err)
		return
	}
	respond.OK(c, gin.H{"deleted": true})
}

func (h *Handler) patchSkill(c *gin.Context) {
	accountID := middleware.UserIDFromContext(c)
	resumeID, ok := resumeIDParam(c)
	if !ok {
		return
	}

	var patch SkillPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid patch body", nil)
		return
	}

	skill, err := h.Svc.PatchSkill(c.Request.Context(), accountID, resumeID, c.Param("name"), patch)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	respond.OK(c, skill)
}

type entriesPayload struct {
	Entries []WorkEntry `json:"entries"`
	Name    string      `json:"name"`
}

func (h *Handler) buildManual(c *gin.Context) {
	accountID := middleware.UserIDFromContext(c)

	var payload entriesPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	resume, err := h.Svc.CreateFromNarrative(c.Request.Context(), accountID, payload.Entries, payload.Name)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	respond.JSON(c, http.StatusCreated, resume)
}

func (h *Handler) refine(c *gin.Context) {
	accountID := middleware.UserIDFromContext(c)

	var payload entriesPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	resume, err := h.Svc.Refine(c.Request.Context(), accountID, payload.Entries)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	respond.OK(c, resume)
}

func resumeIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid resume id", nil)
		return 0, false
	}
	return id, true
}

// serviceError maps the service's sentinel errors onto HTTP responses.
func (h *Handler) serviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, ErrAlreadyRefined):
		respond.Error(c, http.StatusConflict, "conflict", "profile already refined, edit skills individually", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "unexpected error", nil)
	}
}
