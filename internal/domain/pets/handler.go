package pets

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pet-identity-registry/internal/domain/noseprints"
	"pet-identity-registry/internal/middleware"
	"pet-identity-registry/internal/platform/sentinel"
	"pet-identity-registry/internal/platform/validation"

	"github.com/go-chi/chi/v5"
)

// Fotos en base64 ocupan ~4/3 del binario.
const maxBodyBytes = 8 << 20

func RegisterRoutes(r chi.Router, svc *Service, intake *noseprints.Intake, v *validation.Validator) {
	r.Route("/pets", func(pr chi.Router) {
		pr.Post("/", registerPetHandler(svc, intake, v))
		pr.Get("/", listPetsHandler(svc))

		pr.Get("/lookup/public/{publicID}", findByPublicIDHandler(svc))
		pr.Get("/lookup/registration/{number}", findByRegistrationNumberHandler(svc))

		pr.Get("/{petID}", getPetHandler(svc))
		pr.Patch("/{petID}", updatePetHandler(svc))
		pr.Delete("/{petID}", deletePetHandler(svc))

		pr.Post("/{petID}/nose-prints", addNosePrintHandler(svc, intake, v))
		pr.Get("/{petID}/nose-prints", listNosePrintsHandler(svc))
	})
}

// registerPetRequest: la foto llega como base64 (se procesa y sube) o como hash ya calculado.
type registerPetRequest struct {
	Name                         string `json:"name"`
	Gender                       string `json:"gender" enums:"male,female"`
	BirthDate                    string `json:"birth_date"` // YYYY-MM-DD opcional
	Breed                        string `json:"breed"`
	GovernmentRegistrationNumber string `json:"government_registration_number"`
	ProfileImageURL              string `json:"profile_image_url"`

	PhotoBase64 string `json:"photo_base64"`
	PhotoHash   string `json:"photo_hash"`
	ImageURL    string `json:"image_url"`
}

type nosePrintRequest struct {
	PhotoBase64 string `json:"photo_base64"`
	PhotoHash   string `json:"photo_hash"`
	ImageURL    string `json:"image_url"`
}

// petResponse representa una mascota registrada devuelta por la API.
type petResponse struct {
	ID                           string     `json:"id"`
	PublicID                     string     `json:"public_id"`
	OwnerUserID                  string     `json:"owner_user_id"`
	GovernmentRegistrationNumber string     `json:"government_registration_number,omitempty"`
	Name                         string     `json:"name"`
	BirthDate                    *time.Time `json:"birth_date,omitempty"`
	Gender                       Gender     `json:"gender"`
	Breed                        string     `json:"breed"`
	ProfileImageURL              string     `json:"profile_image_url,omitempty"`
	Status                       Status     `json:"status"`
	NosePrintVerified            bool       `json:"nose_print_verified"`
	CreatedAt                    time.Time  `json:"created_at"`
	UpdatedAt                    time.Time  `json:"updated_at"`
}

// publicPetResponse es la vista para quien no es dueño (lookups).
type publicPetResponse struct {
	PublicID          string `json:"public_id"`
	Name              string `json:"name"`
	Gender            Gender `json:"gender"`
	Breed             string `json:"breed"`
	ProfileImageURL   string `json:"profile_image_url,omitempty"`
	Status            Status `json:"status"`
	NosePrintVerified bool   `json:"nose_print_verified"`
}

type lookupResponse struct {
	Found bool               `json:"found"`
	Pet   *publicPetResponse `json:"pet,omitempty"`
}

type nosePrintResponse struct {
	ID           string    `json:"id"`
	PetID        string    `json:"pet_id"`
	ImageURL     string    `json:"image_url,omitempty"`
	ContentHash  string    `json:"content_hash"`
	RegisteredAt time.Time `json:"registered_at"`
}

type updatePetRequest struct {
	Name                         *string `json:"name"`
	Gender                       *string `json:"gender"`
	Breed                        *string `json:"breed"`
	ProfileImageURL              *string `json:"profile_image_url"`
	GovernmentRegistrationNumber *string `json:"government_registration_number"`

	// RawMessage distingue ausente (nil) de null ("null" = limpiar).
	BirthDate json.RawMessage `json:"birth_date" swaggertype:"string"`
	Status    json.RawMessage `json:"status" swaggerignore:"true"`
}

// registerPetHandler godoc
// @Summary Registrar mascota con huella de nariz
// @Description Crea la mascota y su primera huella en una sola transacción y le asigna el siguiente public_id (000-000-NNNNNNN). Si la huella o el número de registro ya pertenecen a otra mascota no se consume ningún ID.
// @Tags pets
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body registerPetRequest true "Perfil + photo_base64 o photo_hash"
// @Success 201 {object} petResponse
// @Failure 400 {string} string "payload inválido / foto inválida"
// @Failure 401 {string} string "unauthorized"
// @Failure 409 {string} string "huella o número de registro ya registrados"
// @Failure 503 {string} string "store unavailable"
// @Failure 507 {string} string "secuencia de IDs agotada"
// @Router /pets [post]
func registerPetHandler(svc *Service, intake *noseprints.Intake, v *validation.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req registerPetRequest
		if err := v.DecodeRequest(w, r, validation.PetRegistration, maxBodyBytes, &req); err != nil {
			writeError(w, err)
			return
		}

		bd, err := parseDate(req.BirthDate)
		if err != nil {
			http.Error(w, "birth_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		photo, err := intake.Resolve(r.Context(), req.PhotoBase64, req.PhotoHash, req.ImageURL)
		if err != nil {
			writeError(w, err)
			return
		}

		p, err := svc.Register(r.Context(), claims.UserID, Profile{
			Name:                         req.Name,
			BirthDate:                    bd,
			Gender:                       Gender(req.Gender),
			Breed:                        req.Breed,
			GovernmentRegistrationNumber: req.GovernmentRegistrationNumber,
			ProfileImageURL:              req.ProfileImageURL,
		}, photo)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toPetResponse(p))
	}
}

// listPetsHandler godoc
// @Summary Listar mis mascotas
// @Tags pets
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Success 200 {array} petResponse
// @Failure 401 {string} string "unauthorized"
// @Router /pets [get]
func listPetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByOwner(r.Context(), claims.UserID)
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]petResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPetResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// findByPublicIDHandler godoc
// @Summary Buscar mascota por public_id
// @Description "No encontrada" es una respuesta normal: 200 con found=false.
// @Tags pets
// @Produce json
// @Param publicID path string true "ID público (000-000-NNNNNNN)"
// @Success 200 {object} lookupResponse
// @Failure 400 {string} string "public_id inválido"
// @Failure 401 {string} string "unauthorized"
// @Router /pets/lookup/public/{publicID} [get]
func findByPublicIDHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetClaims(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		p, found, err := svc.FindByPublicID(r.Context(), chi.URLParam(r, "publicID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toLookupResponse(p, found))
	}
}

// findByRegistrationNumberHandler godoc
// @Summary Buscar mascota por número de registro gubernamental
// @Tags pets
// @Produce json
// @Param number path string true "Número de registro"
// @Success 200 {object} lookupResponse
// @Failure 401 {string} string "unauthorized"
// @Router /pets/lookup/registration/{number} [get]
func findByRegistrationNumberHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetClaims(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		p, found, err := svc.FindByGovernmentRegistrationNumber(r.Context(), chi.URLParam(r, "number"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toLookupResponse(p, found))
	}
}

// getPetHandler godoc
// @Summary Perfil de mascota (solo dueño)
// @Tags pets
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Success 200 {object} petResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID} [get]
func getPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		p, err := svc.Get(r.Context(), claims.UserID, chi.URLParam(r, "petID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPetResponse(p))
	}
}

// updatePetHandler godoc
// @Summary Actualizar perfil de mascota
// @Description PATCH real: campos ausentes no se tocan; "birth_date": null limpia la fecha. El status no se edita acá.
// @Tags pets
// @Accept json
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param payload body updatePetRequest true "Campos a modificar"
// @Success 200 {object} petResponse
// @Failure 400 {string} string "invalid json / reglas de negocio"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Failure 409 {string} string "número de registro ya registrado"
// @Router /pets/{petID} [patch]
func updatePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req updatePetRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Status != nil {
			http.Error(w, "status is managed by missing reports", http.StatusBadRequest)
			return
		}

		in := UpdateProfileInput{
			Name:                         req.Name,
			Gender:                       req.Gender,
			Breed:                        req.Breed,
			ProfileImageURL:              req.ProfileImageURL,
			GovernmentRegistrationNumber: req.GovernmentRegistrationNumber,
		}
		if req.BirthDate != nil {
			bd, err := parsePatchDate(req.BirthDate)
			if err != nil {
				http.Error(w, "birth_date must be YYYY-MM-DD or null", http.StatusBadRequest)
				return
			}
			in.BirthDate = bd
		}

		updated, err := svc.UpdateProfile(r.Context(), claims.UserID, chi.URLParam(r, "petID"), in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPetResponse(updated))
	}
}

// deletePetHandler godoc
// @Summary Borrar mascota
// @Description Bloqueado mientras algún reporte de extravío referencie a la mascota.
// @Tags pets
// @Param petID path string true "ID de la mascota"
// @Success 204
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Failure 409 {string} string "pet is referenced by missing reports"
// @Router /pets/{petID} [delete]
func deletePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := svc.Delete(r.Context(), claims.UserID, chi.URLParam(r, "petID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// addNosePrintHandler godoc
// @Summary Agregar huella de nariz
// @Tags pets
// @Accept json
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param payload body nosePrintRequest true "photo_base64 o photo_hash"
// @Success 201 {object} nosePrintResponse
// @Failure 400 {string} string "foto inválida"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Failure 409 {string} string "huella registrada a otra mascota"
// @Router /pets/{petID}/nose-prints [post]
func addNosePrintHandler(svc *Service, intake *noseprints.Intake, v *validation.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		petID := chi.URLParam(r, "petID")
		// Dueño primero: no subimos fotos de mascotas ajenas.
		if _, err := svc.Get(r.Context(), claims.UserID, petID); err != nil {
			writeError(w, err)
			return
		}

		var req nosePrintRequest
		if err := v.DecodeRequest(w, r, validation.NosePrint, maxBodyBytes, &req); err != nil {
			writeError(w, err)
			return
		}

		photo, err := intake.Resolve(r.Context(), req.PhotoBase64, req.PhotoHash, req.ImageURL)
		if err != nil {
			writeError(w, err)
			return
		}

		np, err := svc.AddNosePrint(r.Context(), claims.UserID, petID, photo)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toNosePrintResponse(np))
	}
}

// listNosePrintsHandler godoc
// @Summary Listar huellas de una mascota
// @Tags pets
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Success 200 {array} nosePrintResponse
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID}/nose-prints [get]
func listNosePrintsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListNosePrints(r.Context(), claims.UserID, chi.URLParam(r, "petID"))
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]nosePrintResponse, 0, len(items))
		for _, np := range items {
			out = append(out, toNosePrintResponse(np))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func writeError(w http.ResponseWriter, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		http.Error(w, verr.Error(), http.StatusBadRequest)
	case errors.Is(err, validation.ErrBodyTooLarge), errors.Is(err, noseprints.ErrPhotoTooLarge):
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, ErrInvalidInput), errors.Is(err, noseprints.ErrInvalidInput),
		errors.Is(err, noseprints.ErrInvalidPhoto), errors.Is(err, noseprints.ErrEmptyPhoto):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "pet not found", http.StatusNotFound)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrSequenceExhausted):
		http.Error(w, err.Error(), http.StatusInsufficientStorage)
	case errors.Is(err, noseprints.ErrDuplicateHash), errors.Is(err, ErrDuplicateGovernmentID),
		errors.Is(err, ErrHasReports):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, sentinel.ErrStoreUnavailable):
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func parseDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func toPetResponse(p Pet) petResponse {
	return petResponse{
		ID:                           p.ID,
		PublicID:                     p.PublicID.String(),
		OwnerUserID:                  p.OwnerUserID,
		GovernmentRegistrationNumber: p.GovernmentRegistrationNumber,
		Name:                         p.Name,
		BirthDate:                    p.BirthDate,
		Gender:                       p.Gender,
		Breed:                        p.Breed,
		ProfileImageURL:              p.ProfileImageURL,
		Status:                       p.Status,
		NosePrintVerified:            p.NosePrintVerified,
		CreatedAt:                    p.CreatedAt,
		UpdatedAt:                    p.UpdatedAt,
	}
}

// toPublicPetResponse omite los datos del dueño.
func toPublicPetResponse(p Pet) publicPetResponse {
	return publicPetResponse{
		PublicID:          p.PublicID.String(),
		Name:              p.Name,
		Gender:            p.Gender,
		Breed:             p.Breed,
		ProfileImageURL:   p.ProfileImageURL,
		Status:            p.Status,
		NosePrintVerified: p.NosePrintVerified,
	}
}

func toLookupResponse(p Pet, found bool) lookupResponse {
	if !found {
		return lookupResponse{Found: false}
	}
	pub := toPublicPetResponse(p)
	return lookupResponse{Found: true, Pet: &pub}
}

func toNosePrintResponse(np noseprints.NosePrint) nosePrintResponse {
	return nosePrintResponse{
		ID:           np.ID,
		PetID:        np.PetID,
		ImageURL:     np.ImageURL,
		ContentHash:  np.ContentHash,
		RegisteredAt: np.RegisteredAt,
	}
}

// writeJSON está duplicado intencionalmente en los handlers de cada módulo
// para no crear un paquete de helpers compartidos antes de tiempo.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// parsePatchDate: "null" limpia la fecha, un string YYYY-MM-DD la reemplaza.
func parsePatchDate(raw json.RawMessage) (PatchDate, error) {
	if string(raw) == "null" {
		return PatchDate{Present: true}, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return PatchDate{}, err
	}
	t, err := parseDate(s)
	if err != nil {
		return PatchDate{}, err
	}
	if t == nil {
		return PatchDate{}, errors.New("birth_date is empty")
	}
	return PatchDate{Present: true, Value: t}, nil
}
