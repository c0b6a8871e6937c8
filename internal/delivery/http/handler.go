package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pharmaprocure/backend/internal/domain"
	"github.com/pharmaprocure/backend/internal/infrastructure/ingest"
	"github.com/pharmaprocure/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	procurement *usecase.ProcurementService
}

// NewHandler creates a new HTTP handler
func NewHandler(procurement *usecase.ProcurementService) *Handler {
	return &Handler{procurement: procurement}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "pharmaprocure-backend",
		"version": "1.0.0",
	})
}

// ImportCatalog ingests a master catalog spreadsheet (multipart "file").
func (h *Handler) ImportCatalog(c *gin.Context) {
	rows, ok := h.readUpload(c)
	if !ok {
		return
	}

	entries, err := ingest.MapCatalogRows(rows)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, skipped, err := h.procurement.ImportCatalog(c.Request.Context(), entries)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": created, "skipped": skipped})
}

// ImportOffers ingests a supplier price list (multipart "file" plus
// supplier_name and optional list_tag form fields).
func (h *Handler) ImportOffers(c *gin.Context) {
	supplier := c.PostForm("supplier_name")
	if supplier == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "supplier_name is required"})
		return
	}
	listTag := c.DefaultPostForm("list_tag", "General")

	rows, ok := h.readUpload(c)
	if !ok {
		return
	}

	inputs, err := ingest.MapOfferRows(rows)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := h.procurement.ImportOffers(c.Request.Context(), supplier, listTag, inputs)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// MatchPreview resolves and cost-normalizes one offer without persisting it.
func (h *Handler) MatchPreview(c *gin.Context) {
	var input domain.OfferInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	match, cost, err := h.procurement.MatchPreview(c.Request.Context(), input)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"match": match, "cost": cost})
}

// UnmatchedOffers lists offers awaiting manual linking.
func (h *Handler) UnmatchedOffers(c *gin.Context) {
	offers, err := h.procurement.UnmatchedOffers(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offers": offers})
}

// SearchCatalog finds catalog entries by display-name substring for manual
// linking.
func (h *Handler) SearchCatalog(c *gin.Context) {
	entries, err := h.procurement.SearchCatalog(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// CompareOffers lists offers for a catalog entry, cheapest first.
func (h *Handler) CompareOffers(c *gin.Context) {
	entryID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid catalog entry id"})
		return
	}

	offers, err := h.procurement.CompareOffers(c.Request.Context(), entryID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offers": offers})
}

type linkAliasRequest struct {
	OfferID        int64 `json:"offerId" binding:"required"`
	CatalogEntryID int64 `json:"catalogEntryId" binding:"required"`
}

// LinkAlias records a human-confirmed offer-to-entry match as an alias.
func (h *Handler) LinkAlias(c *gin.Context) {
	var req linkAliasRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	alias, err := h.procurement.LinkAlias(c.Request.Context(), req.OfferID, req.CatalogEntryID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, alias)
}

// readUpload pulls the "file" form upload and parses it into sheet rows.
func (h *Handler) readUpload(c *gin.Context) ([][]string, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file upload is required"})
		return nil, false
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot open upload"})
		return nil, false
	}
	defer f.Close()

	rows, err := ingest.ReadRows(f, fileHeader.Filename)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return rows, true
}

// writeError maps domain errors onto HTTP status codes.
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrNegativePrice),
		errors.Is(err, domain.ErrNoUsableColumns):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrEntryNotFound),
		errors.Is(err, domain.ErrOfferNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
