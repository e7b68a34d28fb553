package router_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pet-identity-registry/internal/router"
)

func TestHTTP_EndToEnd_MissingPetFoundByStranger(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	ownerID := "owner-1"
	finderID := "finder-1"

	// 1) Owner registra dos mascotas
	luna := registerPet(t, ts.URL, ownerID, map[string]any{
		"name":       "Luna",
		"gender":     "female",
		"photo_hash": "h1",
	})
	if luna.PublicID != "000-000-0000001" {
		t.Fatalf("expected first public id, got %s", luna.PublicID)
	}
	toby := registerPet(t, ts.URL, ownerID, map[string]any{
		"name":       "Toby",
		"gender":     "male",
		"photo_hash": "h2",
	})
	if toby.PublicID != "000-000-0000002" {
		t.Fatalf("expected second public id, got %s", toby.PublicID)
	}

	// 2) Misma huella: 409 y el siguiente registro no salta IDs
	{
		st, body := doReq(t, ts.URL, "POST", "/pets", "other-1", map[string]any{
			"name":       "Copia",
			"gender":     "male",
			"photo_hash": "H1",
		})
		if st != http.StatusConflict {
			t.Fatalf("expected 409 for duplicate nose print, got %d body=%s", st, string(body))
		}
	}
	nala := registerPet(t, ts.URL, "other-1", map[string]any{
		"name":       "Nala",
		"gender":     "female",
		"photo_hash": "h3",
	})
	if nala.PublicID != "000-000-0000003" {
		t.Fatalf("expected third public id, got %s", nala.PublicID)
	}

	// 3) Lookup por public id: no encontrado es 200 con found=false
	{
		st, body := doReq(t, ts.URL, "GET", "/pets/lookup/public/"+luna.PublicID, finderID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 lookup, got %d body=%s", st, string(body))
		}
		var resp struct {
			Found bool `json:"found"`
		}
		_ = json.Unmarshal(body, &resp)
		if !resp.Found {
			t.Fatalf("expected pet found body=%s", string(body))
		}

		st, body = doReq(t, ts.URL, "GET", "/pets/lookup/public/000-000-0009999", finderID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 lookup miss, got %d body=%s", st, string(body))
		}
		resp.Found = true
		_ = json.Unmarshal(body, &resp)
		if resp.Found {
			t.Fatalf("expected found=false body=%s", string(body))
		}
	}

	// 4) Owner reporta a Luna como extraviada
	reportID := fileReport(t, ts.URL, ownerID, luna.ID)
	{
		st, body := doReq(t, ts.URL, "POST", "/pets/"+luna.ID+"/missing-reports", ownerID, reportPayload())
		if st != http.StatusConflict {
			t.Fatalf("expected 409 for second open report, got %d body=%s", st, string(body))
		}
	}

	// 5) Un extraño verifica la huella en modo found_stray
	{
		st, body := doReq(t, ts.URL, "POST", "/verifications", finderID, map[string]any{
			"mode":       "found_stray",
			"photo_hash": "h1",
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 verify, got %d body=%s", st, string(body))
		}
		var resp struct {
			Outcome          string `json:"outcome"`
			CurrentlyMissing bool   `json:"currently_missing"`
			Pet              *struct {
				PublicID string `json:"public_id"`
			} `json:"pet"`
			MissingReport *struct {
				ReportID string `json:"report_id"`
			} `json:"missing_report"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Outcome != "match" || !resp.CurrentlyMissing {
			t.Fatalf("expected missing match, body=%s", string(body))
		}
		if resp.Pet == nil || resp.Pet.PublicID != luna.PublicID {
			t.Fatalf("expected matched pet %s, body=%s", luna.PublicID, string(body))
		}
		if resp.MissingReport == nil || resp.MissingReport.ReportID != reportID {
			t.Fatalf("expected open report attached, body=%s", string(body))
		}
	}

	// 6) Huella desconocida: no_match es un resultado normal
	{
		st, body := doReq(t, ts.URL, "POST", "/verifications", finderID, map[string]any{
			"mode":       "identity",
			"photo_hash": "unknown",
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 verify no match, got %d body=%s", st, string(body))
		}
		var resp struct {
			Outcome string `json:"outcome"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Outcome != "no_match" {
			t.Fatalf("expected no_match, body=%s", string(body))
		}
	}

	// 7) El extraño no puede resolver el reporte; el owner sí
	{
		st, _ := doReq(t, ts.URL, "POST", "/missing-reports/"+reportID+"/resolve", finderID, map[string]any{"outcome": "found"})
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 resolve by stranger, got %d", st)
		}

		st, body := doReq(t, ts.URL, "POST", "/missing-reports/"+reportID+"/resolve", ownerID, map[string]any{"outcome": "found"})
		if st != http.StatusOK {
			t.Fatalf("expected 200 resolve, got %d body=%s", st, string(body))
		}
		var resp struct {
			Status  string     `json:"status"`
			FoundAt *time.Time `json:"found_at"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Status != "found" || resp.FoundAt == nil {
			t.Fatalf("expected found with found_at, body=%s", string(body))
		}

		st, _ = doReq(t, ts.URL, "POST", "/missing-reports/"+reportID+"/resolve", ownerID, map[string]any{"outcome": "closed"})
		if st != http.StatusConflict {
			t.Fatalf("expected 409 resolving a non-open report, got %d", st)
		}
	}

	// 8) Luna vuelve a registered
	{
		st, body := doReq(t, ts.URL, "GET", "/pets/"+luna.ID, ownerID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get pet, got %d body=%s", st, string(body))
		}
		var resp struct {
			Status string `json:"status"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Status != "registered" {
			t.Fatalf("expected registered after resolve, body=%s", string(body))
		}
	}
}

func TestHTTP_RegisterWithPhoto(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	photo := base64.StdEncoding.EncodeToString(testPNG(t))
	pet := registerPet(t, ts.URL, "owner-1", map[string]any{
		"name":         "Milo",
		"gender":       "male",
		"photo_base64": photo,
	})

	// misma foto: misma huella perceptual
	st, body := doReq(t, ts.URL, "POST", "/pets", "owner-2", map[string]any{
		"name":         "Otro",
		"gender":       "male",
		"photo_base64": photo,
	})
	if st != http.StatusConflict {
		t.Fatalf("expected 409 for same photo, got %d body=%s", st, string(body))
	}

	st, body = doReq(t, ts.URL, "GET", "/pets/"+pet.ID+"/nose-prints", "owner-1", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 listing nose prints, got %d body=%s", st, string(body))
	}
	var prints []struct {
		ImageURL string `json:"image_url"`
	}
	_ = json.Unmarshal(body, &prints)
	if len(prints) != 1 || prints[0].ImageURL == "" {
		t.Fatalf("expected one uploaded nose print, body=%s", string(body))
	}
}

func TestHTTP_UpdatePet(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	pet := registerPet(t, ts.URL, "owner-1", map[string]any{
		"name":       "Luna",
		"gender":     "female",
		"birth_date": "2020-01-02",
		"photo_hash": "h1",
	})

	// status solo lo cambia el workflow de reportes
	st, _ := doReq(t, ts.URL, "PATCH", "/pets/"+pet.ID, "owner-1", map[string]any{"status": "missing"})
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400 patching status, got %d", st)
	}

	st, _ = doReq(t, ts.URL, "PATCH", "/pets/"+pet.ID, "owner-1", map[string]any{"birth_date": "02/01/2020"})
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad birth_date, got %d", st)
	}

	st, body := doReq(t, ts.URL, "PATCH", "/pets/"+pet.ID, "owner-1", map[string]any{
		"name":       "Luna II",
		"birth_date": nil,
	})
	if st != http.StatusOK {
		t.Fatalf("expected 200 patch, got %d body=%s", st, string(body))
	}
	var resp struct {
		Name      string     `json:"name"`
		BirthDate *time.Time `json:"birth_date"`
		Status    string     `json:"status"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.Name != "Luna II" || resp.BirthDate != nil || resp.Status != "registered" {
		t.Fatalf("unexpected patched pet body=%s", string(body))
	}
}

func TestHTTP_RequiresUser(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	st, _ := doReq(t, ts.URL, "POST", "/pets", "", map[string]any{
		"name":       "Luna",
		"gender":     "female",
		"photo_hash": "h1",
	})
	if st != http.StatusUnauthorized {
		t.Fatalf("expected 401 without user, got %d", st)
	}
}

func TestHTTP_Health(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	st, body := doReq(t, ts.URL, "GET", "/health", "", nil)
	if st != http.StatusOK || string(body) != "ok" {
		t.Fatalf("expected 200 ok, got %d body=%s", st, string(body))
	}
}

type petRef struct {
	ID       string `json:"id"`
	PublicID string `json:"public_id"`
}

func registerPet(t *testing.T, baseURL, userID string, payload map[string]any) petRef {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/pets", userID, payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 register pet, got %d body=%s", st, string(body))
	}

	var resp petRef
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" || resp.PublicID == "" {
		t.Fatalf("register pet: missing ids body=%s", string(body))
	}
	return resp
}

func reportPayload() map[string]any {
	return map[string]any{
		"missing_date":     time.Now().Add(-2 * time.Hour).UTC().Format(time.RFC3339),
		"missing_location": "Plaza Italia",
		"description":      "collar rojo",
		"contact_phone":    "+54 11 5555-0000",
	}
}

func fileReport(t *testing.T, baseURL, userID, petID string) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/pets/"+petID+"/missing-reports", userID, reportPayload())
	if st != http.StatusCreated {
		t.Fatalf("expected 201 file report, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("file report: missing id body=%s", string(body))
	}
	return resp.ID
}

func testPNG(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 4), B: uint8((x + y) * 2), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func doReq(t *testing.T, baseURL, method, path, debugUserID string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if debugUserID != "" {
		req.Header.Set("X-Debug-User-ID", debugUserID)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b
}
