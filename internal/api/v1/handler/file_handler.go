package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/model"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

const maxUploadBytes = 50 << 20 // 50 MB

// FileHandler handles file registry endpoints
type FileHandler struct {
	fileService service.FileService
	validate    *validator.Validate
	logger      zerolog.Logger
}

// NewFileHandler creates a new FileHandler
func NewFileHandler(fileService service.FileService, validate *validator.Validate, logger zerolog.Logger) *FileHandler {
	return &FileHandler{fileService: fileService, validate: validate, logger: logger}
}

// RegisterRoutes mounts file routes
func (h *FileHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/files", authMw(http.HandlerFunc(h.handleFiles)))
	mux.Handle("/files/", authMw(http.HandlerFunc(h.handleFile)))
}

func (h *FileHandler) handleFiles(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.uploadFile(w, r)
	case http.MethodGet:
		h.listFiles(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *FileHandler) handleFile(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/files/")
	fileID, action, _ := strings.Cut(rest, "/")
	switch {
	case r.Method == http.MethodGet && action == "download":
		h.downloadFile(w, r, fileID)
	case r.Method == http.MethodGet && action == "":
		h.getFile(w, r, fileID)
	case (r.Method == http.MethodPut || r.Method == http.MethodPatch) && action == "permissions":
		h.updatePermissions(w, r, fileID)
	case r.Method == http.MethodDelete && action == "":
		h.deleteFile(w, r, fileID)
	default:
		http.NotFound(w, r)
	}
}

func (h *FileHandler) uploadFile(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: principal not found in context", http.StatusUnauthorized)
		return
	}
	// Reject large uploads early
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	fileReader, fileHeader, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "No file found in multipart upload: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer fileReader.Close()

	data, err := io.ReadAll(fileReader)
	if err != nil {
		http.Error(w, "Failed to read uploaded file: "+err.Error(), http.StatusRequestEntityTooLarge)
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	fileName := fileHeader.Filename
	extension := strings.TrimPrefix(filepath.Ext(fileName), ".")

	var grants []model.Grant
	if raw := r.FormValue("permissions"); raw != "" {
		var grantDTOs []dto.GrantDTO
		if err := json.Unmarshal([]byte(raw), &grantDTOs); err != nil {
			http.Error(w, "Invalid permissions payload: "+err.Error(), http.StatusBadRequest)
			return
		}
		grants = grantsFromDTO(grantDTOs)
	}

	f, err := h.fileService.Upload(r.Context(), p, fileName, extension, contentType, data, grants)
	if err != nil {
		writeServiceError(w, "Failed to upload file", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(fileResponse(f))
}

func (h *FileHandler) listFiles(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: principal not found in context", http.StatusUnauthorized)
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	result, err := h.fileService.ListPage(r.Context(), p, page, pageSize)
	if err != nil {
		writeServiceError(w, "Failed to list files", err)
		return
	}
	resp := dto.FilePageResponseDTO{
		Items:    make([]dto.FileResponseDTO, 0, len(result.Items)),
		Page:     result.Page,
		PageSize: result.PageSize,
		Total:    result.Total,
	}
	for i := range result.Items {
		resp.Items = append(resp.Items, *fileResponse(&result.Items[i]))
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *FileHandler) getFile(w http.ResponseWriter, r *http.Request, fileID string) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: principal not found in context", http.StatusUnauthorized)
		return
	}
	f, err := h.fileService.Metadata(r.Context(), p, fileID)
	if err != nil {
		writeServiceError(w, "Failed to retrieve file", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(fileResponse(f))
}

func (h *FileHandler) downloadFile(w http.ResponseWriter, r *http.Request, fileID string) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: principal not found in context", http.StatusUnauthorized)
		return
	}
	f, obj, err := h.fileService.Download(r.Context(), p, fileID)
	if err != nil {
		writeServiceError(w, "Failed to download file", err)
		return
	}
	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+f.FileName+`"`)
	w.Write(obj.Data)
}

func (h *FileHandler) updatePermissions(w http.ResponseWriter, r *http.Request, fileID string) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: principal not found in context", http.StatusUnauthorized)
		return
	}
	var req dto.FilePermissionsUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	f, err := h.fileService.UpdatePermissions(r.Context(), p, fileID, grantsFromDTO(req.Permissions))
	if err != nil {
		writeServiceError(w, "Failed to update permissions", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(fileResponse(f))
}

func (h *FileHandler) deleteFile(w http.ResponseWriter, r *http.Request, fileID string) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: principal not found in context", http.StatusUnauthorized)
		return
	}
	if err := h.fileService.Remove(r.Context(), p, fileID); err != nil {
		writeServiceError(w, "Failed to delete file", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func grantsFromDTO(in []dto.GrantDTO) []model.Grant {
	grants := make([]model.Grant, 0, len(in))
	for _, g := range in {
		grants = append(grants, model.Grant{GranteeUserID: g.UserID, GranteeEmail: g.Email})
	}
	return grants
}

func fileResponse(f *model.File) *dto.FileResponseDTO {
	perms := make([]dto.GrantDTO, 0, len(f.Permissions))
	for _, g := range f.Permissions {
		perms = append(perms, dto.GrantDTO{UserID: g.GranteeUserID, Email: g.GranteeEmail})
	}
	return &dto.FileResponseDTO{
		FileID:      f.ID,
		FileName:    f.FileName,
		Extension:   f.Extension,
		ContentType: f.ContentType,
		OwnerUserID: f.OwnerUserID,
		CompanyID:   f.OwnerCompanyID,
		Permissions: perms,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}
