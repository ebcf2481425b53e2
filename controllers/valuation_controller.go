package controllers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"volur/config"
	"volur/services"
	"volur/sources"
	"volur/store"
	"volur/types"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ValuationControllerI interface {
	ListSources(ctx *gin.Context)
	GetValuation(ctx *gin.Context)
	AnalyzeBatch(ctx *gin.Context)
	ExportValuations(ctx *gin.Context)
	ListValuations(ctx *gin.Context)
	GetStoredValuation(ctx *gin.Context)
}

type valuationController struct {
	service       *services.ValuationService
	defaultSource string
	defaults      types.DCFParams
	weights       types.ScoringWeights
}

func NewValuationController(service *services.ValuationService, defaultSource string, defaults types.DCFParams, weights types.ScoringWeights) ValuationControllerI {
	return &valuationController{
		service:       service,
		defaultSource: defaultSource,
		defaults:      defaults,
		weights:       weights,
	}
}

type batchRequest struct {
	Source         string   `json:"source"`
	Tickers        []string `json:"tickers" binding:"required,min=1"`
	DiscountRate   *float64 `json:"discountRate"`
	LongTermGrowth *float64 `json:"longTermGrowth"`
	Years          *int     `json:"years"`
	TerminalGrowth *float64 `json:"terminalGrowth"`
}

func (v *valuationController) ListSources(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"sources": v.service.Sources()})
}

func (v *valuationController) GetValuation(ctx *gin.Context) {
	params, err := v.paramsFromQuery(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	source := ctx.DefaultQuery("source", v.defaultSource)

	analyzed, err := v.service.Analyze(ctx.Request.Context(), source, ctx.Param("ticker"), params, v.weights)
	if err != nil {
		ctx.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, analyzed)
}

func (v *valuationController) AnalyzeBatch(ctx *gin.Context) {
	var req batchRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	params := v.defaults
	if req.DiscountRate != nil {
		params.DiscountRate = *req.DiscountRate
	}
	if req.LongTermGrowth != nil {
		params.LongTermGrowth = *req.LongTermGrowth
	}
	if req.Years != nil {
		params.Years = *req.Years
	}
	if req.TerminalGrowth != nil {
		params.TerminalGrowth = types.Some(*req.TerminalGrowth)
	}
	if err := config.ValidateDCFParams(params); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	source := req.Source
	if source == "" {
		source = v.defaultSource
	}

	results, err := v.service.AnalyzeBatch(ctx.Request.Context(), source, req.Tickers, params, v.weights)
	if err != nil {
		ctx.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"source":  source,
		"results": results,
		"failed":  services.FailedTickers(results),
	})
}

func (v *valuationController) ExportValuations(ctx *gin.Context) {
	tickers := splitTickers(ctx.Query("tickers"))
	if len(tickers) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "At least one ticker is required"})
		return
	}
	params, err := v.paramsFromQuery(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	source := ctx.DefaultQuery("source", v.defaultSource)

	results, err := v.service.AnalyzeBatch(ctx.Request.Context(), source, tickers, params, v.weights)
	if err != nil {
		ctx.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := services.ExportValuations(&buf, services.Valuations(results)); err != nil {
		zap.L().Error("Error exporting valuations", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Error while exporting valuations"})
		return
	}
	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=volur_%s.xlsx", source))
	ctx.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (v *valuationController) ListValuations(ctx *gin.Context) {
	valuationStore := v.service.Store()
	if valuationStore == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "Valuation store is not configured"})
		return
	}

	pageNumberStr := ctx.DefaultQuery("pageNumber", "1")
	pageNumber, err := strconv.Atoi(pageNumberStr)
	if err != nil || pageNumber < 1 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page number"})
		return
	}

	valuations, err := valuationStore.List(ctx.Request.Context(), pageNumber, ctx.Query("interpretation"))
	if err != nil {
		zap.L().Error("Error while fetching valuations", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Error while fetching valuations"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"pageNumber": pageNumber,
		"pageSize":   store.PageSize,
		"valuations": valuations,
	})
}

// GetStoredValuation returns the last persisted result for a ticker and source
// without contacting the source.
func (v *valuationController) GetStoredValuation(ctx *gin.Context) {
	valuationStore := v.service.Store()
	if valuationStore == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "Valuation store is not configured"})
		return
	}

	ticker := strings.ToUpper(strings.TrimSpace(ctx.Param("ticker")))
	source := strings.ToLower(strings.TrimSpace(ctx.Param("source")))
	valuation, err := valuationStore.Get(ctx.Request.Context(), ticker, source)
	if errors.Is(err, store.ErrNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("No stored valuation for %s from %s", ticker, source)})
		return
	}
	if err != nil {
		zap.L().Error("Error while fetching valuation", zap.String("ticker", ticker), zap.String("source", source), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Error while fetching valuation"})
		return
	}
	ctx.JSON(http.StatusOK, valuation)
}

// paramsFromQuery overrides the default DCF parameters with discount, growth, years
// and terminal query values.
func (v *valuationController) paramsFromQuery(ctx *gin.Context) (types.DCFParams, error) {
	params := v.defaults

	floatParam := func(name string, dst *float64) error {
		raw, ok := ctx.GetQuery(name)
		if !ok {
			return nil
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("%w: %s must be a number", types.ErrInvalidParams, name)
		}
		*dst = f
		return nil
	}
	if err := floatParam("discount", &params.DiscountRate); err != nil {
		return params, err
	}
	if err := floatParam("growth", &params.LongTermGrowth); err != nil {
		return params, err
	}
	if raw, ok := ctx.GetQuery("years"); ok {
		years, err := strconv.Atoi(raw)
		if err != nil {
			return params, fmt.Errorf("%w: years must be an integer", types.ErrInvalidParams)
		}
		params.Years = years
	}
	if _, ok := ctx.GetQuery("terminal"); ok {
		var terminal float64
		if err := floatParam("terminal", &terminal); err != nil {
			return params, err
		}
		params.TerminalGrowth = types.Some(terminal)
	}
	return params, config.ValidateDCFParams(params)
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, sources.ErrUnknownSource):
		return http.StatusNotFound
	case errors.Is(err, types.ErrInvalidParams):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func splitTickers(raw string) []string {
	var tickers []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tickers = append(tickers, t)
		}
	}
	return tickers
}
