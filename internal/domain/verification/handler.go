package verification

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"pet-identity-registry/internal/domain/noseprints"
	"pet-identity-registry/internal/domain/pets"
	"pet-identity-registry/internal/middleware"
	"pet-identity-registry/internal/platform/sentinel"
	"pet-identity-registry/internal/platform/validation"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 8 << 20

func RegisterRoutes(r chi.Router, svc *Service, intake *noseprints.Intake, v *validation.Validator) {
	r.Post("/verifications", verifyHandler(svc, intake, v))
}

type verifyRequest struct {
	Mode        string `json:"mode" enums:"identity,found_stray"`
	PhotoBase64 string `json:"photo_base64"`
	PhotoHash   string `json:"photo_hash"`
}

// verifiedPetResponse es lo que ve quien verifica: sin datos del dueño.
type verifiedPetResponse struct {
	PublicID          string      `json:"public_id"`
	Name              string      `json:"name"`
	Gender            pets.Gender `json:"gender"`
	Breed             string      `json:"breed"`
	BirthDate         *time.Time  `json:"birth_date,omitempty"`
	ProfileImageURL   string      `json:"profile_image_url,omitempty"`
	Status            pets.Status `json:"status"`
	NosePrintVerified bool        `json:"nose_print_verified"`
}

type missingInfoResponse struct {
	ReportID        string    `json:"report_id"`
	MissingDate     time.Time `json:"missing_date"`
	MissingLocation string    `json:"missing_location"`
	Description     string    `json:"description,omitempty"`
	ContactPhone    string    `json:"contact_phone"`
}

type ownerContactResponse struct {
	ContactName  string `json:"contact_name"`
	PhoneNumber  string `json:"phone_number"`
	Relationship string `json:"relationship,omitempty"`
}

type verifyResponse struct {
	Outcome          Outcome               `json:"outcome"`
	Mode             Mode                  `json:"mode"`
	Pet              *verifiedPetResponse  `json:"pet,omitempty"`
	CurrentlyMissing bool                  `json:"currently_missing"`
	MissingReport    *missingInfoResponse  `json:"missing_report,omitempty"`
	OwnerContact     *ownerContactResponse `json:"owner_contact,omitempty"`
}

// verifyHandler godoc
// @Summary Verificar identidad por huella de nariz
// @Description no_match es una respuesta normal (200). En found_stray con la mascota extraviada se adjunta el reporte abierto (teléfono y lugar); si no está reportada, el contacto primary del dueño.
// @Tags verifications
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body verifyRequest true "mode + photo_base64 o photo_hash"
// @Success 200 {object} verifyResponse
// @Failure 400 {string} string "payload inválido / foto inválida"
// @Failure 401 {string} string "unauthorized"
// @Failure 503 {string} string "store unavailable"
// @Router /verifications [post]
func verifyHandler(svc *Service, intake *noseprints.Intake, v *validation.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetClaims(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req verifyRequest
		if err := v.DecodeRequest(w, r, validation.Verification, maxBodyBytes, &req); err != nil {
			writeError(w, err)
			return
		}

		hash, err := intake.ResolveHash(req.PhotoBase64, req.PhotoHash)
		if err != nil {
			writeError(w, err)
			return
		}

		res, err := svc.Verify(r.Context(), hash, Mode(req.Mode))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toVerifyResponse(res))
	}
}

func writeError(w http.ResponseWriter, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		http.Error(w, verr.Error(), http.StatusBadRequest)
	case errors.Is(err, validation.ErrBodyTooLarge), errors.Is(err, noseprints.ErrPhotoTooLarge):
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, ErrInvalidMode), errors.Is(err, noseprints.ErrInvalidInput),
		errors.Is(err, noseprints.ErrInvalidPhoto), errors.Is(err, noseprints.ErrEmptyPhoto):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, sentinel.ErrStoreUnavailable):
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toVerifyResponse(res Result) verifyResponse {
	out := verifyResponse{
		Outcome:          res.Outcome,
		Mode:             res.Mode,
		CurrentlyMissing: res.CurrentlyMissing,
	}
	if res.Pet != nil {
		p := res.Pet
		out.Pet = &verifiedPetResponse{
			PublicID:          p.PublicID.String(),
			Name:              p.Name,
			Gender:            p.Gender,
			Breed:             p.Breed,
			BirthDate:         p.BirthDate,
			ProfileImageURL:   p.ProfileImageURL,
			Status:            p.Status,
			NosePrintVerified: p.NosePrintVerified,
		}
	}
	if rep := res.OpenReport; rep != nil {
		out.MissingReport = &missingInfoResponse{
			ReportID:        rep.ID,
			MissingDate:     rep.MissingDate,
			MissingLocation: rep.MissingLocation,
			Description:     rep.Description,
			ContactPhone:    rep.ContactPhone,
		}
	}
	if c := res.PrimaryContact; c != nil {
		out.OwnerContact = &ownerContactResponse{
			ContactName:  c.ContactName,
			PhoneNumber:  c.PhoneNumber,
			Relationship: c.Relationship,
		}
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
