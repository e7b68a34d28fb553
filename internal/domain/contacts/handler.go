package contacts

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pet-identity-registry/internal/middleware"
	"pet-identity-registry/internal/platform/sentinel"
	"pet-identity-registry/internal/platform/validation"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 16 << 10

func RegisterRoutes(r chi.Router, svc *Service, v *validation.Validator) {
	r.Route("/me/emergency-contacts", func(cr chi.Router) {
		cr.Get("/", listContactsHandler(svc))
		cr.Post("/", createContactHandler(svc, v))
		cr.Patch("/{contactID}", updateContactHandler(svc))
		cr.Delete("/{contactID}", deleteContactHandler(svc))
	})
}

type createContactRequest struct {
	ContactName  string `json:"contact_name"`
	PhoneNumber  string `json:"phone_number"`
	Relationship string `json:"relationship"`
	IsPrimary    bool   `json:"is_primary"`
}

type updateContactRequest struct {
	ContactName  *string `json:"contact_name"`
	PhoneNumber  *string `json:"phone_number"`
	Relationship *string `json:"relationship"`
	IsPrimary    *bool   `json:"is_primary"`
}

type contactResponse struct {
	ID           string    `json:"id"`
	ContactName  string    `json:"contact_name"`
	PhoneNumber  string    `json:"phone_number"`
	Relationship string    `json:"relationship,omitempty"`
	IsPrimary    bool      `json:"is_primary"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// listContactsHandler godoc
// @Summary Mis contactos de emergencia
// @Tags emergency-contacts
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Success 200 {array} contactResponse
// @Failure 401 {string} string "unauthorized"
// @Router /me/emergency-contacts [get]
func listContactsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.List(r.Context(), claims.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]contactResponse, 0, len(items))
		for _, c := range items {
			out = append(out, toContactResponse(c))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// createContactHandler godoc
// @Summary Crear contacto de emergencia
// @Description Si is_primary=true, el primary anterior deja de serlo.
// @Tags emergency-contacts
// @Accept json
// @Produce json
// @Param payload body createContactRequest true "Contacto"
// @Success 201 {object} contactResponse
// @Failure 400 {string} string "payload inválido"
// @Failure 401 {string} string "unauthorized"
// @Router /me/emergency-contacts [post]
func createContactHandler(svc *Service, v *validation.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createContactRequest
		if err := v.DecodeRequest(w, r, validation.EmergencyContact, maxBodyBytes, &req); err != nil {
			writeError(w, err)
			return
		}

		c, err := svc.Create(r.Context(), claims.UserID, Input{
			ContactName:  req.ContactName,
			PhoneNumber:  req.PhoneNumber,
			Relationship: req.Relationship,
			IsPrimary:    req.IsPrimary,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toContactResponse(c))
	}
}

// updateContactHandler godoc
// @Summary Actualizar contacto de emergencia
// @Tags emergency-contacts
// @Accept json
// @Produce json
// @Param contactID path string true "ID del contacto"
// @Param payload body updateContactRequest true "Campos a modificar"
// @Success 200 {object} contactResponse
// @Failure 400 {string} string "invalid json"
// @Failure 404 {string} string "not found"
// @Router /me/emergency-contacts/{contactID} [patch]
func updateContactHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req updateContactRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		c, err := svc.Update(r.Context(), claims.UserID, chi.URLParam(r, "contactID"), UpdateInput{
			ContactName:  req.ContactName,
			PhoneNumber:  req.PhoneNumber,
			Relationship: req.Relationship,
			IsPrimary:    req.IsPrimary,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toContactResponse(c))
	}
}

// deleteContactHandler godoc
// @Summary Borrar contacto de emergencia
// @Tags emergency-contacts
// @Param contactID path string true "ID del contacto"
// @Success 204
// @Failure 404 {string} string "not found"
// @Router /me/emergency-contacts/{contactID} [delete]
func deleteContactHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := svc.Delete(r.Context(), claims.UserID, chi.URLParam(r, "contactID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
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
	case errors.Is(err, ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, ErrDuplicatePrimary):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, sentinel.ErrStoreUnavailable):
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toContactResponse(c EmergencyContact) contactResponse {
	return contactResponse{
		ID:           c.ID,
		ContactName:  c.ContactName,
		PhoneNumber:  c.PhoneNumber,
		Relationship: c.Relationship,
		IsPrimary:    c.IsPrimary,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

// writeJSON está duplicado intencionalmente en los handlers de cada módulo
// para no crear un paquete de helpers compartidos antes de tiempo.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
