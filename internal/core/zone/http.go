package zone

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/atelier/internal/delivery"
	"github.com/taibuivan/atelier/internal/platform/middleware"
	requestutil "github.com/taibuivan/atelier/internal/platform/request"
	"github.com/taibuivan/atelier/internal/platform/respond"
	"github.com/taibuivan/atelier/internal/platform/sec"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the zone editor. Every route is operator-only; the
// public site reads zones through the render endpoints instead.
func (handler *Handler) RegisterRoutes(router chi.Router, guard middleware.Guard) {
	router.Group(func(viewerRoute chi.Router) {
		viewerRoute.Use(guard(sec.RoleViewer))

		viewerRoute.Get("/", handler.listZones)
		viewerRoute.Get("/templates", handler.listTemplates)
		viewerRoute.Get("/{id}", handler.getZone)
	})

	router.Group(func(editorRoute chi.Router) {
		editorRoute.Use(guard(sec.RoleEditor))

		editorRoute.Post("/", handler.createZone)
		editorRoute.Post("/templates/{template}/apply", handler.applyTemplate)
		editorRoute.Put("/{id}/asset", handler.assignAsset)
		editorRoute.Delete("/{id}/asset", handler.unassignAsset)
		editorRoute.Patch("/{id}/overrides", handler.updateOverrides)
		editorRoute.Delete("/{id}", handler.deleteZone)
	})
}

func (handler *Handler) listZones(writer http.ResponseWriter, request *http.Request) {
	zones, err := handler.service.ListPage(request.Context(), request.URL.Query().Get("page"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, zones)
}

func (handler *Handler) getZone(writer http.ResponseWriter, request *http.Request) {
	zone, err := handler.service.Get(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, zone)
}

func (handler *Handler) createZone(writer http.ResponseWriter, request *http.Request) {
	var input CreateInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	zone, err := handler.service.CreateZone(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, zone)
}

func (handler *Handler) listTemplates(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, handler.service.Templates())
}

func (handler *Handler) applyTemplate(writer http.ResponseWriter, request *http.Request) {
	var body struct {
		PagePath string `json:"page_path"`
	}
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.service.ApplyTemplate(request.Context(), requestutil.Param(request, "template"), body.PagePath)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, result)
}

func (handler *Handler) assignAsset(writer http.ResponseWriter, request *http.Request) {
	var body struct {
		AssetID string `json:"asset_id"`
	}
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	zone, err := handler.service.Assign(request.Context(), requestutil.Param(request, "id"), body.AssetID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, zone)
}

func (handler *Handler) unassignAsset(writer http.ResponseWriter, request *http.Request) {
	zone, err := handler.service.Unassign(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, zone)
}

func (handler *Handler) updateOverrides(writer http.ResponseWriter, request *http.Request) {
	var overrides delivery.Overrides
	if err := requestutil.DecodeJSON(request, &overrides); err != nil {
		respond.Error(writer, request, err)
		return
	}

	zone, err := handler.service.UpdateOverrides(request.Context(), requestutil.Param(request, "id"), overrides)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, zone)
}

func (handler *Handler) deleteZone(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.DeleteZone(request.Context(), requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
