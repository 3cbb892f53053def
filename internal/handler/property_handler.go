package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"studynest/internal/domain"
	"studynest/internal/middleware"
	"studynest/internal/models"
	"studynest/internal/repository"
	"studynest/pkg/cloudinary"
	"studynest/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const maxImageSize = 10 << 20

type PropertyHandler struct {
	repo     *repository.PropertyRepository
	payments *repository.RentPaymentRepository
	cloud    cloudinary.Client
	folder   string
}

func NewPropertyHandler(repo *repository.PropertyRepository, payments *repository.RentPaymentRepository, cloud cloudinary.Client, folder string) *PropertyHandler {
	return &PropertyHandler{repo: repo, payments: payments, cloud: cloud, folder: folder}
}

type propertyRequest struct {
	Title         string          `json:"title" binding:"required"`
	Description   string          `json:"description"`
	Rent          decimal.Decimal `json:"rent"`
	Location      string          `json:"location" binding:"required"`
	Bedrooms      int             `json:"bedrooms"`
	Bathrooms     int             `json:"bathrooms"`
	PropertyType  string          `json:"property_type" binding:"required"`
	Status        string          `json:"status"`
	Amenities     []string        `json:"amenities"`
	AvailableFrom *time.Time      `json:"available_from"`
}

func (r *propertyRequest) validate() string {
	switch {
	case strings.TrimSpace(r.Title) == "":
		return "title required"
	case strings.TrimSpace(r.Location) == "":
		return "location required"
	case !r.Rent.IsPositive():
		return "rent must be greater than zero"
	case r.Bedrooms < 0 || r.Bathrooms < 0:
		return "bedrooms and bathrooms must not be negative"
	case !domain.IsValidPropertyType(r.PropertyType):
		return "property_type must be one of " + strings.Join(domain.PropertyTypes, ", ")
	case r.Status != "" && r.Status != domain.PropertyStatusAvailable && r.Status != domain.PropertyStatusPending:
		return "status must be available or pending"
	}
	return ""
}

func (r *propertyRequest) apply(p *models.Property) {
	p.Title = strings.TrimSpace(r.Title)
	p.Description = r.Description
	p.Rent = r.Rent.Round(2)
	p.Location = strings.TrimSpace(r.Location)
	p.Bedrooms = r.Bedrooms
	p.Bathrooms = r.Bathrooms
	p.PropertyType = r.PropertyType
	p.Amenities = append(datatypes.JSONSlice[string]{}, r.Amenities...)
	p.AvailableFrom = r.AvailableFrom
	if r.Status != "" {
		p.Status = r.Status
	}
}

// Search lists properties matching the query string filters, newest first.
func (h *PropertyHandler) Search(c *gin.Context) {
	f := repository.PropertyFilters{
		Query:        strings.TrimSpace(c.Query("q")),
		Location:     strings.TrimSpace(c.Query("location")),
		PropertyType: c.Query("property_type"),
		Status:       c.DefaultQuery("status", domain.PropertyStatusAvailable),
	}
	if f.Status == "all" {
		f.Status = ""
	}
	var ok bool
	if f.MinRent, ok = decimalParam(c, "min_rent"); !ok {
		return
	}
	if f.MaxRent, ok = decimalParam(c, "max_rent"); !ok {
		return
	}
	if v := c.Query("bedrooms"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bedrooms"})
			return
		}
		f.MinBedrooms = n
	}
	f.Limit, f.Offset = pageParams(c, 20, 100)

	list, total, err := h.repo.Search(c.Request.Context(), f)
	if err != nil {
		logger.FromGin(c).Error("search properties", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"properties": list, "total": total})
}

func decimalParam(c *gin.Context, key string) (*decimal.Decimal, bool) {
	v := c.Query(key)
	if v == "" {
		return nil, true
	}
	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + key})
		return nil, false
	}
	return &d, true
}

func (h *PropertyHandler) Get(c *gin.Context) {
	p, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load property"})
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// ListMine returns the caller's own listings in every status.
func (h *PropertyHandler) ListMine(c *gin.Context) {
	limit, offset := pageParams(c, 50, 100)
	list, total, err := h.repo.Search(c.Request.Context(), repository.PropertyFilters{
		OwnerID: middleware.GetUserID(c),
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"properties": list, "total": total})
}

func (h *PropertyHandler) Create(c *gin.Context) {
	var req propertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if msg := req.validate(); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	p := &models.Property{
		OwnerID: middleware.GetUserID(c),
		Status:  domain.PropertyStatusAvailable,
		Images:  datatypes.JSONSlice[string]{},
	}
	req.apply(p)
	if err := h.repo.Create(c.Request.Context(), p); err != nil {
		logger.FromGin(c).Error("create property", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, p)
}

// Update replaces the editable fields of the caller's listing. A rented listing keeps
// its status while a subscription is active.
func (h *PropertyHandler) Update(c *gin.Context) {
	p, ok := h.loadOwned(c)
	if !ok {
		return
	}
	var req propertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if msg := req.validate(); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	ctx := c.Request.Context()
	// The loaded status may predate a webhook, so the subscription table decides.
	if req.Status != "" {
		active, err := h.payments.HasActiveForProperty(ctx, p.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check rent payments"})
			return
		}
		if active {
			c.JSON(http.StatusConflict, gin.H{"error": "property has an active rent subscription"})
			return
		}
	}
	req.apply(p)
	if err := h.repo.Update(ctx, p); err != nil {
		logger.FromGin(c).Error("update property", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if req.Status != "" {
		if _, err := h.repo.SetStatus(ctx, p.ID, req.Status); err != nil {
			logger.FromGin(c).Error("update property status", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
			return
		}
	}
	if fresh, err := h.repo.GetByID(ctx, p.ID); err == nil && fresh != nil {
		p = fresh
	}
	c.JSON(http.StatusOK, p)
}

func (h *PropertyHandler) Delete(c *gin.Context) {
	p, ok := h.loadOwned(c)
	if !ok {
		return
	}
	active, err := h.payments.HasActiveForProperty(c.Request.Context(), p.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check rent payments"})
		return
	}
	if active {
		c.JSON(http.StatusConflict, gin.H{"error": "property has an active rent subscription"})
		return
	}
	if err := h.repo.Delete(c.Request.Context(), p.ID); err != nil {
		logger.FromGin(c).Error("delete property", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	for _, url := range p.Images {
		h.deleteImage(c, url)
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// UploadImage stores a listing image in Cloudinary and appends its URL.
func (h *PropertyHandler) UploadImage(c *gin.Context) {
	p, ok := h.loadOwned(c)
	if !ok {
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	if file.Size > maxImageSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large"})
		return
	}
	if ct := file.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only images are allowed"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}
	defer f.Close()

	folder := h.folder + "/properties/" + p.ID
	publicID := "img_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
	url, _, err := h.cloud.UploadImage(c.Request.Context(), f, folder, publicID)
	if err != nil {
		logger.FromGin(c).Error("upload property image", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}
	p.Images = append(p.Images, url)
	if err := h.repo.Update(c.Request.Context(), p); err != nil {
		h.deleteImage(c, url)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url, "images": p.Images})
}

func (h *PropertyHandler) DeleteImage(c *gin.Context) {
	p, ok := h.loadOwned(c)
	if !ok {
		return
	}
	var req struct {
		URL string `json:"url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url required"})
		return
	}
	kept := make(datatypes.JSONSlice[string], 0, len(p.Images))
	for _, u := range p.Images {
		if u != req.URL {
			kept = append(kept, u)
		}
	}
	if len(kept) == len(p.Images) {
		c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
		return
	}
	p.Images = kept
	if err := h.repo.Update(c.Request.Context(), p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	h.deleteImage(c, req.URL)
	c.JSON(http.StatusOK, gin.H{"images": p.Images})
}

// deleteImage removes a stored image; failures leave an orphan and are only logged.
func (h *PropertyHandler) deleteImage(c *gin.Context, url string) {
	if err := h.cloud.DeleteByURL(c.Request.Context(), url); err != nil {
		logger.FromGin(c).Warn("delete image", zap.String("url", url), zap.Error(err))
	}
}

// loadOwned fetches the path property and checks the caller owns it, writing the
// error response otherwise.
func (h *PropertyHandler) loadOwned(c *gin.Context) (*models.Property, bool) {
	p, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load property"})
		return nil, false
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
		return nil, false
	}
	if p.OwnerID != middleware.GetUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your property"})
		return nil, false
	}
	return p, true
}
