package missingreports

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pet-identity-registry/internal/domain/pets"
	"pet-identity-registry/internal/middleware"
	"pet-identity-registry/internal/platform/sentinel"
	"pet-identity-registry/internal/platform/validation"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 64 << 10

func RegisterRoutes(r chi.Router, svc *Service, v *validation.Validator) {
	r.Post("/pets/{petID}/missing-reports", fileReportHandler(svc, v))
	r.Get("/pets/{petID}/missing-reports", listPetReportsHandler(svc))
	r.Get("/me/missing-reports", listMyReportsHandler(svc))

	r.Route("/missing-reports", func(mr chi.Router) {
		mr.Get("/", listOpenHandler(svc))
		mr.Get("/{reportID}", getReportHandler(svc))
		mr.Post("/{reportID}/resolve", resolveHandler(svc))
		mr.Post("/{reportID}/archive", archiveHandler(svc))
	})
}

type fileReportRequest struct {
	MissingDate     string `json:"missing_date"` // RFC3339 o YYYY-MM-DD
	MissingLocation string `json:"missing_location"`
	Description     string `json:"description"`
	ContactPhone    string `json:"contact_phone"`
}

type resolveRequest struct {
	Outcome string `json:"outcome" enums:"found,closed"`
}

// reportResponse representa un reporte de extravío devuelto por la API.
type reportResponse struct {
	ID              string     `json:"id"`
	PetID           string     `json:"pet_id"`
	ReporterUserID  string     `json:"reporter_user_id"`
	MissingDate     time.Time  `json:"missing_date"`
	MissingLocation string     `json:"missing_location"`
	Description     string     `json:"description,omitempty"`
	ContactPhone    string     `json:"contact_phone"`
	Status          Status     `json:"status"`
	FoundAt         *time.Time `json:"found_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// fileReportHandler godoc
// @Summary Reportar mascota extraviada
// @Description Abre un reporte y marca la mascota como missing. Una mascota no puede tener dos reportes abiertos.
// @Tags missing-reports
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param petID path string true "ID de la mascota"
// @Param payload body fileReportRequest true "Datos del extravío"
// @Success 201 {object} reportResponse
// @Failure 400 {string} string "payload inválido"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Failure 409 {string} string "pet is already reported missing"
// @Router /pets/{petID}/missing-reports [post]
func fileReportHandler(svc *Service, v *validation.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req fileReportRequest
		if err := v.DecodeRequest(w, r, validation.MissingReport, maxBodyBytes, &req); err != nil {
			writeError(w, err)
			return
		}

		md, err := parseMissingDate(req.MissingDate)
		if err != nil {
			http.Error(w, "missing_date must be RFC3339 or YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		rep, err := svc.FileReport(r.Context(), claims.UserID, chi.URLParam(r, "petID"), Details{
			MissingDate:     md,
			MissingLocation: req.MissingLocation,
			Description:     req.Description,
			ContactPhone:    req.ContactPhone,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toReportResponse(rep))
	}
}

// listPetReportsHandler godoc
// @Summary Historial de reportes de una mascota (solo dueño)
// @Tags missing-reports
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param limit query int false "Máximo de items (default 50, máx 200)"
// @Param offset query int false "Offset"
// @Success 200 {array} reportResponse
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Router /pets/{petID}/missing-reports [get]
func listPetReportsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		limit, offset, err := parsePage(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		items, err := svc.ListByPet(r.Context(), claims.UserID, chi.URLParam(r, "petID"), limit, offset)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toReportResponses(items))
	}
}

// listMyReportsHandler godoc
// @Summary Reportes que hice
// @Tags missing-reports
// @Produce json
// @Param limit query int false "Máximo de items"
// @Param offset query int false "Offset"
// @Success 200 {array} reportResponse
// @Failure 401 {string} string "unauthorized"
// @Router /me/missing-reports [get]
func listMyReportsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		limit, offset, err := parsePage(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		items, err := svc.ListByReporter(r.Context(), claims.UserID, limit, offset)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toReportResponses(items))
	}
}

// listOpenHandler godoc
// @Summary Feed de mascotas extraviadas
// @Description Reportes abiertos, más recientes primero.
// @Tags missing-reports
// @Produce json
// @Param limit query int false "Máximo de items"
// @Param offset query int false "Offset"
// @Success 200 {array} reportResponse
// @Failure 401 {string} string "unauthorized"
// @Router /missing-reports [get]
func listOpenHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetClaims(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		limit, offset, err := parsePage(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		items, err := svc.ListOpen(r.Context(), limit, offset)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toReportResponses(items))
	}
}

// getReportHandler godoc
// @Summary Ver un reporte
// @Tags missing-reports
// @Produce json
// @Param reportID path string true "ID del reporte"
// @Success 200 {object} reportResponse
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Router /missing-reports/{reportID} [get]
func getReportHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		rep, err := svc.Get(r.Context(), claims.UserID, chi.URLParam(r, "reportID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toReportResponse(rep))
	}
}

// resolveHandler godoc
// @Summary Resolver reporte (found | closed)
// @Description Solo reportes abiertos. found estampa found_at. Si no queda otro reporte abierto la mascota vuelve a registered.
// @Tags missing-reports
// @Accept json
// @Produce json
// @Param reportID path string true "ID del reporte"
// @Param payload body resolveRequest true "Outcome"
// @Success 200 {object} reportResponse
// @Failure 400 {string} string "outcome inválido"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Failure 409 {string} string "missing report is not open"
// @Router /missing-reports/{reportID}/resolve [post]
func resolveHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req resolveRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		rep, err := svc.Resolve(r.Context(), claims.UserID, chi.URLParam(r, "reportID"), Outcome(strings.TrimSpace(req.Outcome)))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toReportResponse(rep))
	}
}

// archiveHandler godoc
// @Summary Archivar reporte found
// @Tags missing-reports
// @Produce json
// @Param reportID path string true "ID del reporte"
// @Success 200 {object} reportResponse
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Failure 409 {string} string "invalid report status transition"
// @Router /missing-reports/{reportID}/archive [post]
func archiveHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		rep, err := svc.Archive(r.Context(), claims.UserID, chi.URLParam(r, "reportID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toReportResponse(rep))
	}
}

func writeError(w http.ResponseWriter, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		http.Error(w, verr.Error(), http.StatusBadRequest)
	case errors.Is(err, validation.ErrBodyTooLarge):
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound), errors.Is(err, pets.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrAlreadyMissing), errors.Is(err, ErrNotOpen), errors.Is(err, ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, sentinel.ErrStoreUnavailable):
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func parseMissingDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func parsePage(r *http.Request) (int, int, error) {
	q := r.URL.Query()
	limit, offset := 0, 0
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, 0, errors.New("limit must be a non-negative integer")
		}
		limit = n
	}
	if v := strings.TrimSpace(q.Get("offset")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, 0, errors.New("offset must be a non-negative integer")
		}
		offset = n
	}
	return limit, offset, nil
}

func toReportResponse(m MissingReport) reportResponse {
	return reportResponse{
		ID:              m.ID,
		PetID:           m.PetID,
		ReporterUserID:  m.ReporterUserID,
		MissingDate:     m.MissingDate,
		MissingLocation: m.MissingLocation,
		Description:     m.Description,
		ContactPhone:    m.ContactPhone,
		Status:          m.Status,
		FoundAt:         m.FoundAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func toReportResponses(items []MissingReport) []reportResponse {
	out := make([]reportResponse, 0, len(items))
	for _, m := range items {
		out = append(out, toReportResponse(m))
	}
	return out
}

// writeJSON está duplicado intencionalmente en los handlers de cada módulo
// para no crear un paquete de helpers compartidos antes de tiempo.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
