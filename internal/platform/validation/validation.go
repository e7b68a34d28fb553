package validation

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Nombres de schema disponibles (archivo schemas/<name>.json).
const (
	PetRegistration  = "pet_registration"
	NosePrint        = "nose_print"
	MissingReport    = "missing_report"
	Verification     = "verification"
	EmergencyContact = "emergency_contact"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var ErrUnknownSchema = errors.New("unknown schema")

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error agrupa las violaciones de un payload.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "invalid payload: " + strings.Join(parts, "; ")
}

// Validator valida bodies JSON contra los schemas embebidos.
type Validator struct {
	schemas map[string]*gojsonschema.Schema
}

func New() (*Validator, error) {
	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return nil, fmt.Errorf("validation: read schemas: %w", err)
	}

	v := &Validator{schemas: make(map[string]*gojsonschema.Schema, len(entries))}
	for _, e := range entries {
		raw, err := schemaFS.ReadFile(path.Join("schemas", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("validation: read %s: %w", e.Name(), err)
		}
		s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
		if err != nil {
			return nil, fmt.Errorf("validation: compile %s: %w", e.Name(), err)
		}
		v.schemas[strings.TrimSuffix(e.Name(), ".json")] = s
	}
	return v, nil
}

// MustNew es para wiring: los schemas son embebidos, un error acá es de build.
func MustNew() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// Validate devuelve *Error si el body no cumple el schema.
func (v *Validator) Validate(schema string, body []byte) error {
	s, ok := v.schemas[schema]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSchema, schema)
	}

	res, err := s.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		// JSON mal formado
		return &Error{Fields: []FieldError{{Field: "(root)", Message: "invalid json"}}}
	}
	if res.Valid() {
		return nil
	}

	fields := make([]FieldError, 0, len(res.Errors()))
	for _, re := range res.Errors() {
		fields = append(fields, FieldError{Field: re.Field(), Message: re.Description()})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })
	return &Error{Fields: fields}
}

// ErrBodyTooLarge se devuelve cuando el body supera maxBytes.
var ErrBodyTooLarge = errors.New("request body too large")

// DecodeRequest lee el body (acotado), lo valida contra schema y lo decodifica en dst.
func (v *Validator) DecodeRequest(w http.ResponseWriter, r *http.Request, schema string, maxBytes int64, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return ErrBodyTooLarge
		}
		return &Error{Fields: []FieldError{{Field: "(root)", Message: "unreadable body"}}}
	}
	if err := v.Validate(schema, body); err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return &Error{Fields: []FieldError{{Field: "(root)", Message: "invalid json"}}}
	}
	return nil
}
