package handlers

import (
	"errors"
	"net/http"

	"heater_controller/internal/models"
	"heater_controller/internal/service"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK              = "ok"
	statusOverrideSet     = "override_set"
	statusOverrideCleared = "override_cleared"
	statusFaultReset      = "fault_reset"
	statusCommandDone     = "command_executed"

	errGetStatus       = "failed to load status"
	errConfigNotSaved  = "config applied but could not be saved"
	errInvalidBodyPref = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// httpStatusFor maps service errors caused by the request to 4xx codes.
func httpStatusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotLatched):
		return http.StatusConflict
	case errors.Is(err, service.ErrUnknownCommand),
		errors.Is(err, service.ErrUnhandledMessage),
		errors.Is(err, service.ErrInvalidTarget),
		errors.Is(err, service.ErrInvalidDuration),
		errors.Is(err, service.ErrUnknownEventType),
		errors.Is(err, service.ErrInvalidTimeRange),
		errors.Is(err, models.ErrInvalidTime):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Respond with a status and include the current heater status if available (best-effort).
func (h *Handler) respondWithStatus(c *gin.Context, status string, extra gin.H) {
	resp := gin.H{"status": status}
	for k, v := range extra {
		resp[k] = v
	}
	if doc, err := h.services.Monitoring.GetStatus(c.Request.Context()); err == nil {
		resp["heater"] = doc
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Get heater status
// @Description  Sensor readings, target, relay demand/applied bits, schedule and config in force.
// @Tags         heater
// @Produce      json
// @Success      200  {object}  models.StatusDocument
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/status [get]
func (h *Handler) getStatus(c *gin.Context) {
	doc, err := h.services.Monitoring.GetStatus(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetStatus, "heater_get_status_failed", err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// @Summary      Get heater config
// @Tags         config
// @Produce      json
// @Success      200  {object}  models.ConfigDocument
// @Router       /api/v1/config [get]
func (h *Handler) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Configuration.Get().Document())
}

// @Summary      Replace heater config
// @Description  Every field is taken from the body; values are clamped into range.
// @Tags         config
// @Accept       json
// @Produce      json
// @Param        body  body      models.ConfigDocument  true  "Full config"
// @Success      200   {object}  models.ConfigDocument
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/config [put]
// @Security     BearerAuth
func (h *Handler) putConfig(c *gin.Context) {
	var doc models.ConfigDocument
	if err := c.ShouldBindJSON(&doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	h.applyPatch(c, models.PatchFromDocument(doc))
}

// @Summary      Update schedule
// @Description  Partial update. Accepts the flat config fields, "HH:MM" or *_minutes times, and nested temps / preheat objects with the same keys.
// @Tags         config
// @Accept       json
// @Produce      json
// @Param        body  body      models.ConfigPatch  true  "Fields to change"
// @Success      200   {object}  models.ConfigDocument
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/config/schedule [post]
// @Security     BearerAuth
func (h *Handler) postSchedule(c *gin.Context) {
	var p models.ConfigPatch
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	h.applyPatch(c, p)
}

func (h *Handler) applyPatch(c *gin.Context, p models.ConfigPatch) {
	cfg, err := h.services.Configuration.ApplyPatch(c.Request.Context(), p)
	if err != nil {
		if code := httpStatusFor(err); code != http.StatusInternalServerError {
			c.JSON(code, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errConfigNotSaved, "config_apply_failed", err)
		return
	}
	c.JSON(http.StatusOK, cfg.Document())
}
