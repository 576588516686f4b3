package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// OverrideRequest is the body of POST /api/v1/override.
type OverrideRequest struct {
	// Target temperature in °C, bounded to [floor, 26]
	Target *float64 `json:"target" binding:"required" example:"22"`
	// Duration in minutes; omitted uses the configured default, capped at 480
	Minutes *int `json:"minutes,omitempty" example:"120"`
}

type overrideResponse struct {
	Active  bool      `json:"active"`
	Target  float64   `json:"target"`
	Expires time.Time `json:"expires"`
}

// @Summary      Start a temporary override
// @Tags         override
// @Accept       json
// @Produce      json
// @Param        body  body      OverrideRequest  true  "Override payload"
// @Success      200   {object}  map[string]interface{}  "status, override, heater"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/override [post]
// @Security     BearerAuth
func (h *Handler) postOverride(c *gin.Context) {
	var req OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	ov, err := h.services.Overrides.ActivateOverride(c.Request.Context(), *req.Target, req.Minutes)
	if err != nil {
		h.logAndJSONError(c, httpStatusFor(err), err.Error(), "override_set_failed", err, "target", *req.Target)
		return
	}
	h.respondWithStatus(c, statusOverrideSet, gin.H{
		"override": overrideResponse{Active: ov.Active, Target: ov.Target, Expires: ov.Expires},
	})
}

// @Summary      Cancel the override
// @Tags         override
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, was_active, heater"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/override [delete]
// @Security     BearerAuth
func (h *Handler) deleteOverride(c *gin.Context) {
	was := h.services.Overrides.ClearOverride(c.Request.Context())
	h.respondWithStatus(c, statusOverrideCleared, gin.H{"was_active": was})
}

// @Summary      Clear a latched safety fault
// @Tags         safety
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]string  "no latched fault"
// @Router       /api/v1/safety/reset [post]
// @Security     BearerAuth
func (h *Handler) resetFault(c *gin.Context) {
	if err := h.services.Safety.ResetFault(c.Request.Context()); err != nil {
		h.logAndJSONError(c, httpStatusFor(err), err.Error(), "safety_reset_failed", err)
		return
	}
	h.respondWithStatus(c, statusFaultReset, nil)
}

// @Summary      Run a text command
// @Description  Body is one of U, D (±0.1 °C), V, E (±0.5 °C), R (clear override) or a JSON message with "type" schedule, override, clear_override or reset_fault.
// @Tags         override
// @Accept       plain
// @Produce      json
// @Param        body  body      string  true  "Command"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/command [post]
// @Security     BearerAuth
func (h *Handler) postCommand(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxMsgSize))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	if err := h.services.Commands.Execute(c.Request.Context(), body); err != nil {
		code := httpStatusFor(err)
		if code == http.StatusInternalServerError {
			h.logAndJSONError(c, code, "command failed", "command_failed", err)
			return
		}
		c.JSON(code, gin.H{"error": err.Error()})
		return
	}
	h.respondWithStatus(c, statusCommandDone, nil)
}
