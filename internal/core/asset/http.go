package asset

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/atelier/internal/platform/apperr"
	"github.com/taibuivan/atelier/internal/platform/middleware"
	requestutil "github.com/taibuivan/atelier/internal/platform/request"
	"github.com/taibuivan/atelier/internal/platform/respond"
	"github.com/taibuivan/atelier/internal/platform/sec"
	"github.com/taibuivan/atelier/internal/platform/validate"
	"github.com/taibuivan/atelier/pkg/pagination"
	"github.com/taibuivan/atelier/pkg/query"
)

// multipartOverhead leaves room for form fields next to the file part.
const multipartOverhead = 1 << 20

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the catalog browser. Every route is operator-only:
// the listing includes private assets.
func (handler *Handler) RegisterRoutes(router chi.Router, guard middleware.Guard) {
	router.Group(func(viewerRoute chi.Router) {
		viewerRoute.Use(guard(sec.RoleViewer))

		viewerRoute.Get("/", handler.listAssets)
		viewerRoute.Get("/{id}", handler.getAsset)
	})

	router.Group(func(editorRoute chi.Router) {
		editorRoute.Use(guard(sec.RoleEditor))

		editorRoute.Post("/", handler.uploadAsset)
		editorRoute.Post("/external", handler.createExternalAsset)
		editorRoute.Patch("/{id}", handler.updateAsset)
		editorRoute.Delete("/{id}", handler.deleteAsset)
	})
}

func (handler *Handler) listAssets(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.FromRequest(request)
	values := request.URL.Query()

	filter := Filter{
		Category:   values.Get("category"),
		Visibility: Visibility(values.Get("visibility")),
		Tags:       query.StringSlice(values.Get("tags")),
	}

	assets, total, err := handler.service.List(request.Context(), filter, paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, assets, paginationParams.Meta(total))
}

func (handler *Handler) getAsset(writer http.ResponseWriter, request *http.Request) {
	asset, err := handler.service.Get(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, asset)
}

// uploadAsset accepts multipart/form-data with a "file" part and optional
// display_name, category, tags (comma separated), visibility and
// custom_metadata (JSON object) fields.
func (handler *Handler) uploadAsset(writer http.ResponseWriter, request *http.Request) {
	limit := handler.service.MaxUploadBytes()
	request.Body = http.MaxBytesReader(writer, request.Body, limit+multipartOverhead)

	if err := request.ParseMultipartForm(multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(writer, request, apperr.PayloadTooLarge(limit))
			return
		}
		respond.Error(writer, request, apperr.UnsupportedMediaType(request.Header.Get("Content-Type")))
		return
	}
	defer func() { _ = request.MultipartForm.RemoveAll() }()

	file, header, err := request.FormFile(FieldFile)
	if err != nil {
		respond.Error(writer, request, validate.RequiredError(FieldFile, "An image file is required"))
		return
	}
	defer file.Close()

	input := UploadInput{
		Metadata: Metadata{
			DisplayName: request.FormValue(FieldDisplayName),
			Category:    request.FormValue(FieldCategory),
			Tags:        query.StringSlice(request.FormValue(FieldTags)),
			Visibility:  Visibility(request.FormValue(FieldVisibility)),
		},
		Filename: header.Filename,
		Body:     file,
	}

	if raw := strings.TrimSpace(request.FormValue(FieldCustomMetadata)); raw != "" {
		if err := json.Unmarshal([]byte(raw), &input.CustomMetadata); err != nil {
			respond.Error(writer, request, validate.RequiredError(FieldCustomMetadata, "Must be a JSON object of strings"))
			return
		}
	}

	asset, err := handler.service.Upload(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, asset)
}

func (handler *Handler) createExternalAsset(writer http.ResponseWriter, request *http.Request) {
	var input ExternalInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	asset, err := handler.service.CreateExternal(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, asset)
}

func (handler *Handler) updateAsset(writer http.ResponseWriter, request *http.Request) {
	var patch Patch
	if err := requestutil.DecodeJSON(request, &patch); err != nil {
		respond.Error(writer, request, err)
		return
	}

	asset, err := handler.service.Update(request.Context(), requestutil.Param(request, "id"), patch)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, asset)
}

// deleteAsset soft-deletes by default; ?hard=true also releases the original
// and needs the admin role when operator tokens are enforced.
func (handler *Handler) deleteAsset(writer http.ResponseWriter, request *http.Request) {
	hard := requestutil.QueryBool(request, "hard")

	if claims := requestutil.Claims(request); hard && claims != nil && !claims.IsAdmin() {
		respond.Error(writer, request, apperr.Forbidden("Hard delete requires the admin role"))
		return
	}

	if err := handler.service.Delete(request.Context(), requestutil.Param(request, "id"), hard); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
