package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"volur/cache"
	"volur/events"
	"volur/types"
)

type CacheControllerI interface {
	ClearCache(ctx *gin.Context)
}

type cacheController struct {
	cache cache.Cache
	bus   *events.Bus
}

// NewCacheController clears c on request. c may be nil when caching is disabled.
func NewCacheController(c cache.Cache, bus *events.Bus) CacheControllerI {
	return &cacheController{cache: c, bus: bus}
}

func (c *cacheController) ClearCache(ctx *gin.Context) {
	if c.cache == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "Cache is not configured"})
		return
	}
	if err := c.cache.Clear(ctx.Request.Context()); err != nil {
		zap.L().Error("Error clearing cache", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Error while clearing cache"})
		return
	}
	if c.bus != nil {
		c.bus.Publish(types.EventCacheCleared, "", "", nil)
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Cache cleared"})
}
