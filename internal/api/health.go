// Copyright (c) 2026 Atelier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/taibuivan/atelier/internal/bootstrap"
	"github.com/taibuivan/atelier/internal/platform/constants"
	"github.com/taibuivan/atelier/internal/platform/respond"
	"github.com/taibuivan/atelier/pkg/slice"
)

// readinessTimeout bounds all dependency probes of one /ready call.
const readinessTimeout = 3 * time.Second

type healthHandler struct {
	checks []bootstrap.Check
	logger *slog.Logger
}

type checkResult struct {
	Name  string `json:"name"`
	IsOK  bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// NewHealthHandlers creates the /health and /ready http.HandlerFuncs.
func NewHealthHandlers(checks []bootstrap.Check, logger *slog.Logger) (liveness, readiness http.HandlerFunc) {
	handler := &healthHandler{checks: checks, logger: logger}
	return handler.liveness, handler.readiness
}

// liveness handles GET /health (Liveness probe).
func (handler *healthHandler) liveness(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, map[string]string{constants.FieldStatus: "ok"})
}

// readiness handles GET /ready. Any failing dependency turns the response into a 503.
func (handler *healthHandler) readiness(writer http.ResponseWriter, request *http.Request) {
	probeCtx, cancel := context.WithTimeout(request.Context(), readinessTimeout)
	defer cancel()

	results := slice.Map(handler.checks, func(check bootstrap.Check) checkResult {
		if err := check.Ping(probeCtx); err != nil {
			handler.logger.Error("readiness_check_failed", slog.String("dependency", check.Name), slog.Any("error", err))
			return checkResult{Name: check.Name, Error: err.Error()}
		}
		return checkResult{Name: check.Name, IsOK: true}
	})
	isSystemReady := slice.Reduce(results, true, func(ready bool, result checkResult) bool {
		return ready && result.IsOK
	})

	responseStatus := "ready"
	httpStatus := http.StatusOK
	if !isSystemReady {
		responseStatus = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	respond.JSON(writer, httpStatus, respond.SuccessEnvelope{Data: map[string]any{
		constants.FieldStatus: responseStatus,
		constants.FieldChecks: results,
	}})
}
