package records

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pet-identity-registry/internal/middleware"
	"pet-identity-registry/internal/platform/sentinel"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 64 << 10

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/pets/{petID}/records", func(rr chi.Router) {
		rr.Post("/", createRecordHandler(svc))
		rr.Get("/", listRecordsHandler(svc))
		rr.Get("/upcoming-vaccinations", upcomingVaccinationsHandler(svc))

		// Anular (void) registro (solo dueño)
		rr.Post("/{recordID}/void", voidRecordHandler(svc))
	})
}

// createRecordRequest es el cuerpo para registrar una entrada del historial.
type createRecordRequest struct {
	Type         RecordType `json:"type" enums:"VACCINATION,MEDICAL_VISIT,HEALTH,PHOTO,OTHER"`
	OccurredAt   string     `json:"occurred_at"` // RFC3339
	Title        string     `json:"title"`
	Notes        string     `json:"notes"`
	Clinic       string     `json:"clinic"`
	Veterinarian string     `json:"veterinarian"`
	Cost         *float64   `json:"cost"`
	WeightKg     *float64   `json:"weight_kg"`
	TemperatureC *float64   `json:"temperature_c"`
	NextDueDate  string     `json:"next_due_date"` // YYYY-MM-DD opcional
	ImageURL     string     `json:"image_url"`
	Source       Source     `json:"source"` // opcional
}

type voidRecordRequest struct {
	Reason string `json:"reason"`
}

// recordResponse representa una entrada del historial devuelta por la API.
type recordResponse struct {
	ID           string       `json:"id"`
	PetID        string       `json:"pet_id"`
	Type         RecordType   `json:"type"`
	OccurredAt   time.Time    `json:"occurred_at"`
	RecordedAt   time.Time    `json:"recorded_at"`
	Title        string       `json:"title"`
	Notes        string       `json:"notes,omitempty"`
	Clinic       string       `json:"clinic,omitempty"`
	Veterinarian string       `json:"veterinarian,omitempty"`
	Cost         *float64     `json:"cost,omitempty"`
	WeightKg     *float64     `json:"weight_kg,omitempty"`
	TemperatureC *float64     `json:"temperature_c,omitempty"`
	NextDueDate  *time.Time   `json:"next_due_date,omitempty"`
	ImageURL     string       `json:"image_url,omitempty"`
	CreatedBy    string       `json:"created_by"`
	Source       Source       `json:"source"`
	Status       RecordStatus `json:"status"`
	VoidReason   string       `json:"void_reason,omitempty"`
	VoidedAt     *time.Time   `json:"voided_at,omitempty"`
}

// createRecordHandler godoc
// @Summary Crear registro de cuidados
// @Description Vacunas, visitas médicas, controles de salud y fotos. Solo el dueño. Autenticación: 'X-Debug-User-ID' (dev) o 'Authorization: Bearer <token>' (prod).
// @Tags records
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param petID path string true "ID de la mascota"
// @Param payload body createRecordRequest true "Datos del registro; occurred_at en formato RFC3339"
// @Success 201 {object} recordResponse
// @Failure 400 {string} string "invalid json / occurred_at inválido / reglas de negocio"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID}/records [post]
func createRecordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createRecordRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		t, err := time.Parse(time.RFC3339, req.OccurredAt)
		if err != nil {
			http.Error(w, "occurred_at must be RFC3339", http.StatusBadRequest)
			return
		}

		var due *time.Time
		if v := strings.TrimSpace(req.NextDueDate); v != "" {
			d, err := time.Parse("2006-01-02", v)
			if err != nil {
				http.Error(w, "next_due_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			due = &d
		}

		rec, err := svc.Create(r.Context(), claims.UserID, chi.URLParam(r, "petID"), CreateInput{
			Type:         req.Type,
			OccurredAt:   t,
			Title:        req.Title,
			Notes:        req.Notes,
			Clinic:       req.Clinic,
			Veterinarian: req.Veterinarian,
			Cost:         req.Cost,
			WeightKg:     req.WeightKg,
			TemperatureC: req.TemperatureC,
			NextDueDate:  due,
			ImageURL:     req.ImageURL,
			Source:       req.Source,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toRecordResponse(rec))
	}
}

// listRecordsHandler godoc
// @Summary Listar historial de una mascota
// @Description Más recientes primero. Permite filtrar por tipos, rango de fechas y texto. Los anulados se omiten salvo include_voided=true.
// @Tags records
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param limit query int false "Máximo de registros a devolver (1-200). Por defecto 50"
// @Param types query string false "Lista CSV de tipos (ej: VACCINATION,HEALTH)"
// @Param from query string false "Fecha/hora mínima occurred_at (RFC3339)"
// @Param to query string false "Fecha/hora máxima occurred_at (RFC3339)"
// @Param q query string false "Texto de búsqueda libre en título/notas"
// @Param include_voided query bool false "Incluir anulados"
// @Success 200 {array} recordResponse
// @Failure 400 {string} string "Parámetros de filtro inválidos"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID}/records [get]
func listRecordsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		filter, err := parseListFilter(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		items, err := svc.ListByPet(r.Context(), claims.UserID, chi.URLParam(r, "petID"), filter)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRecordResponses(items))
	}
}

// upcomingVaccinationsHandler godoc
// @Summary Próximas vacunas
// @Tags records
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param days query int false "Ventana en días (1-365). Por defecto 30"
// @Success 200 {array} recordResponse
// @Failure 400 {string} string "days inválido"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID}/records/upcoming-vaccinations [get]
func upcomingVaccinationsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		days := 30
		if v := strings.TrimSpace(r.URL.Query().Get("days")); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				http.Error(w, "days must be an integer", http.StatusBadRequest)
				return
			}
			days = n
		}

		items, err := svc.UpcomingVaccinations(r.Context(), claims.UserID, chi.URLParam(r, "petID"), days)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRecordResponses(items))
	}
}

// voidRecordHandler godoc
// @Summary Anular (void) un registro
// @Tags records
// @Accept json
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param recordID path string true "ID del registro"
// @Param payload body voidRecordRequest false "Motivo"
// @Success 200 {object} recordResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "record not found"
// @Router /pets/{petID}/records/{recordID}/void [post]
func voidRecordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// El body es opcional.
		var req voidRecordRequest
		if r.ContentLength != 0 {
			if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
		}

		updated, err := svc.Void(r.Context(), claims.UserID, chi.URLParam(r, "petID"), chi.URLParam(r, "recordID"), req.Reason)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRecordResponse(updated))
	}
}

func parseListFilter(r *http.Request) (ListFilter, error) {
	q := r.URL.Query()

	limit := DefaultListLimit
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= MaxListLimit {
			limit = n
		}
	}

	filter := ListFilter{Limit: limit}

	// types=VACCINATION,HEALTH
	if v := strings.TrimSpace(q.Get("types")); v != "" {
		parts := strings.Split(v, ",")
		out := make([]RecordType, 0, len(parts))
		for _, p := range parts {
			t := RecordType(strings.ToUpper(strings.TrimSpace(p)))
			if t == "" {
				continue
			}
			if !t.Valid() {
				return ListFilter{}, errors.New("unknown record type: " + string(t))
			}
			out = append(out, t)
		}
		if len(out) > 0 {
			filter.Types = out
		}
	}

	// from/to RFC3339
	if v := strings.TrimSpace(q.Get("from")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return ListFilter{}, errors.New("from must be RFC3339")
		}
		filter.From = &t
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return ListFilter{}, errors.New("to must be RFC3339")
		}
		filter.To = &t
	}

	filter.Query = strings.TrimSpace(q.Get("q"))

	if v := strings.TrimSpace(q.Get("include_voided")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return ListFilter{}, errors.New("include_voided must be a boolean")
		}
		filter.IncludeVoided = b
	}

	return filter, nil
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "record not found", http.StatusNotFound)
	case IsNotFound(err):
		http.Error(w, "pet not found", http.StatusNotFound)
	case errors.Is(err, sentinel.ErrStoreUnavailable):
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toRecordResponse(rec Record) recordResponse {
	return recordResponse{
		ID:           rec.ID,
		PetID:        rec.PetID,
		Type:         rec.Type,
		OccurredAt:   rec.OccurredAt,
		RecordedAt:   rec.RecordedAt,
		Title:        rec.Title,
		Notes:        rec.Notes,
		Clinic:       rec.Clinic,
		Veterinarian: rec.Veterinarian,
		Cost:         rec.Cost,
		WeightKg:     rec.WeightKg,
		TemperatureC: rec.TemperatureC,
		NextDueDate:  rec.NextDueDate,
		ImageURL:     rec.ImageURL,
		CreatedBy:    rec.CreatedBy,
		Source:       rec.Source,
		Status:       rec.Status,
		VoidReason:   rec.VoidReason,
		VoidedAt:     rec.VoidedAt,
	}
}

func toRecordResponses(items []Record) []recordResponse {
	out := make([]recordResponse, 0, len(items))
	for _, rec := range items {
		out = append(out, toRecordResponse(rec))
	}
	return out
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
