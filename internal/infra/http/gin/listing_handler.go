package ginserver

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/chrishamcode/marketplace-app-sub001/internal/app/dto"
	domainlistings "github.com/chrishamcode/marketplace-app-sub001/internal/domain/listings"
	"github.com/chrishamcode/marketplace-app-sub001/internal/infra/storage/s3"
)

// ListingHTTP exposes the listing catalog endpoints the messaging UI links to.
type ListingHTTP interface {
	Catalog(c *gin.Context)
	Get(c *gin.Context)
	UploadPhoto(c *gin.Context)
}

type ListingHandler struct {
	Listings domainlistings.Repository
	Uploader s3.Uploader
	Logger   *slog.Logger
}

func (h ListingHandler) Catalog(c *gin.Context) {
	if h.Listings == nil {
		respondError(c, http.StatusServiceUnavailable, codeStorageFailure, "listings unavailable")
		return
	}
	items, err := h.Listings.List(c.Request.Context())
	if err != nil {
		h.logError("listing catalog failed", err)
		respondError(c, http.StatusBadGateway, codeStorageFailure, "listings unavailable")
		return
	}
	c.JSON(http.StatusOK, dto.NewListingCollection(items))
}

func (h ListingHandler) Get(c *gin.Context) {
	if h.Listings == nil {
		respondError(c, http.StatusServiceUnavailable, codeStorageFailure, "listings unavailable")
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondError(c, http.StatusBadRequest, codeInvalidArgument, "listing id is required")
		return
	}
	listing, err := h.Listings.ByID(c.Request.Context(), domainlistings.ListingID(id))
	if err != nil {
		if errors.Is(err, domainlistings.ErrNotFound) {
			respondError(c, http.StatusNotFound, codeNotFound, "listing not found")
			return
		}
		h.logError("listing load failed", err)
		respondError(c, http.StatusBadGateway, codeStorageFailure, "listings unavailable")
		return
	}
	c.JSON(http.StatusOK, dto.NewListing(listing))
}

// UploadPhoto stores a photo for a listing the caller owns and appends its
// public URL to the listing.
func (h ListingHandler) UploadPhoto(c *gin.Context) {
	principal, ok := requireRole(c, "seller")
	if !ok {
		return
	}
	if h.Listings == nil || h.Uploader == nil {
		respondError(c, http.StatusServiceUnavailable, codeStorageFailure, "photo storage unavailable")
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondError(c, http.StatusBadRequest, codeInvalidArgument, "listing id is required")
		return
	}
	listing, err := h.Listings.ByID(c.Request.Context(), domainlistings.ListingID(id))
	if err != nil {
		if errors.Is(err, domainlistings.ErrNotFound) {
			respondError(c, http.StatusNotFound, codeNotFound, "listing not found")
			return
		}
		h.logError("listing load failed", err)
		respondError(c, http.StatusBadGateway, codeStorageFailure, "listings unavailable")
		return
	}
	if string(listing.Seller) != principal.ID {
		respondError(c, http.StatusForbidden, codePermissionDenied, "not the listing seller")
		return
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		respondError(c, http.StatusBadRequest, codeInvalidArgument, "photo file is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, codeInvalidArgument, "cannot read photo file")
		return
	}
	defer file.Close()

	key := fmt.Sprintf("listings/%s/%s%s", listing.ID, uuid.NewString(), strings.ToLower(filepath.Ext(fileHeader.Filename)))
	publicURL, err := h.Uploader.Upload(c.Request.Context(), key, file, photoContentType(fileHeader))
	if err != nil {
		h.logError("photo upload failed", err)
		respondError(c, http.StatusBadGateway, codeStorageFailure, "photo upload failed")
		return
	}

	listing.AddPhoto(publicURL, time.Now())
	if err := h.Listings.Save(c.Request.Context(), listing); err != nil {
		h.logError("listing save failed", err)
		respondError(c, http.StatusBadGateway, codeStorageFailure, "listings unavailable")
		return
	}
	c.JSON(http.StatusCreated, dto.NewListing(listing))
}

func (h ListingHandler) logError(msg string, err error) {
	if h.Logger != nil {
		h.Logger.Error(msg, "error", err)
	}
}

func photoContentType(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

var _ ListingHTTP = (*ListingHandler)(nil)
