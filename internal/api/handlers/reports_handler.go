package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/mizanhq/reports-backend/internal/api/middleware"
	"github.com/mizanhq/reports-backend/internal/domain"
	"github.com/mizanhq/reports-backend/internal/export"
	"github.com/mizanhq/reports-backend/internal/repository"
	"github.com/mizanhq/reports-backend/internal/service"
	"github.com/mizanhq/reports-backend/internal/storage"
	"github.com/mizanhq/reports-backend/internal/tenant"
)

type ReportsHandler struct {
	service *service.ReportService
	archive storage.ObjectStorage // nil when archiving is disabled
}

func NewReportsHandler(service *service.ReportService, archive storage.ObjectStorage) *ReportsHandler {
	return &ReportsHandler{service: service, archive: archive}
}

// RequiredItems runs the stock-coverage estimate against the caller's
// tenant database.
func (h *ReportsHandler) RequiredItems(c *gin.Context) {
	rows, err := h.service.RequiredItems(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		tenantErrorResponse(c, err, "failed to build required-items report")
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": rows, "total": len(rows)})
}

// LowStock lists products at or below their minimum stock level.
func (h *ReportsHandler) LowStock(c *gin.Context) {
	rows, err := h.service.LowStock(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		tenantErrorResponse(c, err, "failed to build low-stock report")
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": rows, "total": len(rows)})
}

// Debts lists customer payment appointments, optionally filtered.
func (h *ReportsHandler) Debts(c *gin.Context) {
	var filter domain.DebtsFilter
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&filter); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filter", "details": err.Error()})
			return
		}
	}
	if err := validateDebtsFilter(filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rows, err := h.service.Debts(c.Request.Context(), middleware.UserID(c), filter)
	if err != nil {
		tenantErrorResponse(c, err, "failed to build debts report")
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": rows, "total": len(rows)})
}

// Export streams a report as an xlsx attachment. When an archive bucket is
// configured a copy is uploaded there as well, best effort.
func (h *ReportsHandler) Export(c *gin.Context) {
	// Route params use hyphens, report keys use underscores.
	report := strings.ReplaceAll(c.Param("report"), "-", "_")
	userID := middleware.UserID(c)

	f, err := h.buildWorkbook(c, report, userID)
	if err != nil {
		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render export", "details": err.Error()})
		}
		return
	}

	data, err := export.Bytes(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render export", "details": err.Error()})
		return
	}

	filename := fmt.Sprintf("%s-%s.xlsx", strings.ReplaceAll(report, "_", "-"), time.Now().UTC().Format("20060102-150405"))

	if h.archive != nil {
		key := fmt.Sprintf("%s/%s", userID, filename)
		if err := h.archive.UploadObject(c.Request.Context(), key, data, export.ContentType); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("export archive upload failed")
		}
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, export.ContentType, data)
}

func (h *ReportsHandler) buildWorkbook(c *gin.Context, report, userID string) (*excelize.File, error) {
	ctx := c.Request.Context()

	switch report {
	case service.ReportRequiredItems:
		rows, err := h.service.RequiredItems(ctx, userID)
		if err != nil {
			tenantErrorResponse(c, err, "failed to build required-items report")
			return nil, err
		}
		return export.RequiredItemsWorkbook(rows)
	case service.ReportLowStock:
		rows, err := h.service.LowStock(ctx, userID)
		if err != nil {
			tenantErrorResponse(c, err, "failed to build low-stock report")
			return nil, err
		}
		return export.LowStockWorkbook(rows)
	case service.ReportDebts:
		filter := parseDebtsQuery(c)
		if err := validateDebtsFilter(filter); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return nil, err
		}
		rows, err := h.service.Debts(ctx, userID, filter)
		if err != nil {
			tenantErrorResponse(c, err, "failed to build debts report")
			return nil, err
		}
		return export.DebtsWorkbook(rows)
	default:
		err := fmt.Errorf("unknown report %q", report)
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, err
	}
}

func parseDebtsQuery(c *gin.Context) domain.DebtsFilter {
	parseBool := func(param string) bool {
		v, _ := strconv.ParseBool(strings.TrimSpace(c.Query(param)))
		return v
	}
	return domain.DebtsFilter{
		UnpaidOnly: parseBool("unpaid_only"),
		DueToday:   parseBool("due_today"),
		DateFrom:   strings.TrimSpace(c.Query("date_from")),
		DateTo:     strings.TrimSpace(c.Query("date_to")),
	}
}

func validateDebtsFilter(f domain.DebtsFilter) error {
	for _, d := range []string{f.DateFrom, f.DateTo} {
		if d == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", d)
		}
	}
	return nil
}

// tenantErrorResponse maps tenant database failures to HTTP statuses:
// a missing registration is the caller's problem, transient connectivity
// failures are retryable, everything else means the upstream rejected us.
func tenantErrorResponse(c *gin.Context, err error, message string) {
	if errors.Is(err, repository.ErrNoActiveConnection) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no active database connection, register one first"})
		return
	}

	switch tenant.Classify(err) {
	case tenant.ClassRetryable:
		log.Warn().Err(err).Msg(message)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": message, "details": err.Error(), "retryable": true})
	default:
		log.Error().Err(err).Msg(message)
		c.JSON(http.StatusBadGateway, gin.H{"error": message, "details": err.Error(), "retryable": false})
	}
}
