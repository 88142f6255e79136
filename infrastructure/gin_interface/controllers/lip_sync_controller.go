package controllers

import (
	"github.com/dzhechko/pu-3d-avatar/application/ports/outbound"
	"github.com/dzhechko/pu-3d-avatar/infrastructure/gin_interface/dto"
	"github.com/gin-gonic/gin"
	"net/http"
	"strconv"
)

type LipSyncController interface {
	Status(c *gin.Context)
	Voices(c *gin.Context)
	RegisterRoutes(g gin.IRoutes)
}

type lipSyncController struct {
	logger           outbound.LoggerPort
	capabilityProber outbound.CapabilityProberPort
	voiceCatalog     outbound.VoiceCatalogPort
}

func NewLipSyncController(
	logger outbound.LoggerPort,
	capabilityProber outbound.CapabilityProberPort,
	voiceCatalog outbound.VoiceCatalogPort,
) LipSyncController {
	return &lipSyncController{
		logger:           logger,
		capabilityProber: capabilityProber,
		voiceCatalog:     voiceCatalog,
	}
}

// Status reports the cached capability; ?recheck=true forces a fresh probe.
func (l *lipSyncController) Status(c *gin.Context) {
	if recheck, _ := strconv.ParseBool(c.Query("recheck")); recheck {
		l.capabilityProber.Invalidate()
	}

	c.JSON(http.StatusOK, dto.LipSyncStatusResponse{
		Status: l.capabilityProber.Probe(c.Request.Context()),
	})
}

func (l *lipSyncController) Voices(c *gin.Context) {
	voices, err := l.voiceCatalog.ListVoices(c.Request.Context())
	if err != nil {
		l.logger.Error(err, "Failed to list voices")
		c.AbortWithStatusJSON(http.StatusBadGateway, dto.ErrorResponse{Error: err.Error()})
		return
	}

	c.Data(http.StatusOK, "application/json", voices)
}

func (l *lipSyncController) RegisterRoutes(g gin.IRoutes) {
	g.GET("/lip-sync-status", l.Status)
	g.GET("/voices", l.Voices)
}
