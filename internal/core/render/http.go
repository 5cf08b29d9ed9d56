package render

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/atelier/internal/delivery"
	requestutil "github.com/taibuivan/atelier/internal/platform/request"
	"github.com/taibuivan/atelier/internal/platform/respond"
	"github.com/taibuivan/atelier/internal/platform/validate"
	"github.com/taibuivan/atelier/pkg/query"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the public render endpoints.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/zone", handler.renderZone)
	router.Get("/assets/{id}", handler.renderAsset)
}

// renderZone answers with data null for an empty slot.
func (handler *Handler) renderZone(writer http.ResponseWriter, request *http.Request) {
	values := request.URL.Query()

	validator := &validate.Validator{}
	validator.Required("zone", values.Get("zone"))
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	opts, err := parseOptions(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	view, err := handler.service.RenderZone(request.Context(), values.Get("page"), values.Get("zone"), opts)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, view)
}

func (handler *Handler) renderAsset(writer http.ResponseWriter, request *http.Request) {
	opts, err := parseOptions(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	purpose := delivery.ParsePurpose(request.URL.Query().Get("purpose"))
	view, err := handler.service.RenderAsset(request.Context(), requestutil.Param(request, "id"), purpose, opts)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, view)
}

// parseOptions reads w, h, sizes, priority and breakpoints (comma separated).
func parseOptions(request *http.Request) (Options, error) {
	width, err := requestutil.QueryInt(request, "w")
	if err != nil {
		return Options{}, err
	}
	height, err := requestutil.QueryInt(request, "h")
	if err != nil {
		return Options{}, err
	}

	validator := &validate.Validator{}
	validator.Range("w", width, 0, 10000).Range("h", height, 0, 10000)

	var breakpoints []int
	for _, raw := range query.StringSlice(request.URL.Query().Get("breakpoints")) {
		value, err := strconv.Atoi(raw)
		validator.Custom("breakpoints", err != nil || value <= 0 || value > 10000, "Must be positive pixel widths")
		breakpoints = append(breakpoints, value)
	}
	if err := validator.Err(); err != nil {
		return Options{}, err
	}

	return Options{
		Width:       width,
		Height:      height,
		Sizes:       request.URL.Query().Get("sizes"),
		Priority:    requestutil.QueryBool(request, "priority"),
		Breakpoints: breakpoints,
	}, nil
}
