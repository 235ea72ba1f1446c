package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/msomdec/lensart-api/internal/service"
)

// jpegBytes is enough of a JPEG for the upload path, which does not decode.
var jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'}

func (ts *testServer) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, ts.srv.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (ts *testServer) doJSON(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(b)
	}
	return ts.do(t, method, path, token, r, "application/json")
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return v
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s: expected %d, got %d: %s", resp.Request.Method, resp.Request.URL.Path, want, resp.StatusCode, body)
	}
}

type uploadForm struct {
	fields      map[string]string
	filename    string
	contentType string
	data        []byte
}

func multipartBody(t *testing.T, f uploadForm) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range f.fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if f.filename != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="photo"; filename="`+f.filename+`"`)
		h.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		part.Write(f.data)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func (ts *testServer) upload(t *testing.T, token string, f uploadForm) *http.Response {
	t.Helper()
	body, contentType := multipartBody(t, f)
	return ts.do(t, http.MethodPost, "/api/photos/upload", token, body, contentType)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/api/health", "", nil, "")
	expectStatus(t, resp, http.StatusOK)

	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected Content-Type application/json, got %s", ct)
	}
	body := decode[map[string]string](t, resp)
	if body["status"] != "OK" {
		t.Fatalf("expected status=OK, got %s", body["status"])
	}
	if _, err := time.Parse(time.RFC3339Nano, body["timestamp"]); err != nil {
		t.Fatalf("timestamp %q not RFC3339: %v", body["timestamp"], err)
	}
}

func TestLoginAndVerify(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{"password": testPassword})
	expectStatus(t, resp, http.StatusOK)
	body := decode[map[string]string](t, resp)
	if body["message"] != "Login successful" || body["token"] == "" {
		t.Fatalf("unexpected login body: %v", body)
	}

	resp = ts.do(t, http.MethodPost, "/api/auth/verify", body["token"], nil, "")
	expectStatus(t, resp, http.StatusOK)
	if v := decode[map[string]bool](t, resp); !v["valid"] {
		t.Fatal("expected valid=true")
	}

	resp = ts.do(t, http.MethodPost, "/api/auth/verify", "tampered."+body["token"], nil, "")
	expectStatus(t, resp, http.StatusUnauthorized)
	if v := decode[map[string]bool](t, resp); v["valid"] {
		t.Fatal("expected valid=false")
	}

	resp = ts.do(t, http.MethodPost, "/api/auth/verify", "", nil, "")
	expectStatus(t, resp, http.StatusUnauthorized)
}

func TestLogin_Errors(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{})
	expectStatus(t, resp, http.StatusBadRequest)
	if msg := decode[map[string]string](t, resp)["message"]; msg != "Password is required" {
		t.Fatalf("unexpected message %q", msg)
	}

	resp = ts.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{"password": "wrong"})
	expectStatus(t, resp, http.StatusUnauthorized)
	if msg := decode[map[string]string](t, resp)["message"]; msg != "Invalid credentials" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestLogin_RateLimited(t *testing.T) {
	ts := newTestServerWithLimits(t, 3, 1000)

	for i := 0; i < 3; i++ {
		resp := ts.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{"password": "wrong"})
		expectStatus(t, resp, http.StatusUnauthorized)
	}

	resp := ts.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{"password": testPassword})
	expectStatus(t, resp, http.StatusTooManyRequests)
	if msg := decode[map[string]string](t, resp)["message"]; msg != "Too many login attempts, please try again later" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func (ts *testServer) loginFrom(t *testing.T, ip, password string) *http.Response {
	t.Helper()
	body, err := json.Marshal(map[string]string{"password": password})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, ts.srv.URL+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Real-IP", ip)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestLogin_RateLimitIsPerClientIP(t *testing.T) {
	ts := newTestServerWithLimits(t, 2, 1000)

	expectStatus(t, ts.loginFrom(t, "203.0.113.7", "wrong"), http.StatusUnauthorized)
	expectStatus(t, ts.loginFrom(t, "203.0.113.7", testPassword), http.StatusOK)
	expectStatus(t, ts.loginFrom(t, "203.0.113.7", testPassword), http.StatusTooManyRequests)

	expectStatus(t, ts.loginFrom(t, "198.51.100.2", testPassword), http.StatusOK)
}

func TestGlobalRateLimit(t *testing.T) {
	ts := newTestServerWithLimits(t, 5, 2)

	expectStatus(t, ts.do(t, http.MethodGet, "/api/health", "", nil, ""), http.StatusOK)
	expectStatus(t, ts.do(t, http.MethodGet, "/api/collections", "", nil, ""), http.StatusOK)
	expectStatus(t, ts.do(t, http.MethodGet, "/api/health", "", nil, ""), http.StatusTooManyRequests)

	// Auth routes are outside the global limiter.
	resp := ts.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{"password": testPassword})
	expectStatus(t, resp, http.StatusOK)
}

func TestMutationsRequireToken(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	c, err := ts.collections.Create(ctx, service.CollectionInput{Name: "Existing"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	body, contentType := multipartBody(t, uploadForm{
		fields:   map[string]string{"collection": c.ID},
		filename: "a.jpg", contentType: "image/jpeg", data: jpegBytes,
	})

	requests := []struct {
		method, path string
		body         io.Reader
		contentType  string
	}{
		{http.MethodGet, "/api/collections/admin", nil, ""},
		{http.MethodPost, "/api/collections", strings.NewReader(`{"name":"New"}`), "application/json"},
		{http.MethodPut, "/api/collections/" + c.ID, strings.NewReader(`{"name":"Renamed"}`), "application/json"},
		{http.MethodDelete, "/api/collections/" + c.ID, nil, ""},
		{http.MethodGet, "/api/photos/admin", nil, ""},
		{http.MethodPost, "/api/photos/upload", body, contentType},
		{http.MethodPut, "/api/photos/some-id", strings.NewReader(`{"title":"x"}`), "application/json"},
		{http.MethodDelete, "/api/photos/some-id", nil, ""},
	}
	for _, r := range requests {
		resp := ts.do(t, r.method, r.path, "", r.body, r.contentType)
		expectStatus(t, resp, http.StatusUnauthorized)
	}

	all, err := ts.collections.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 1 || all[0].Name != "Existing" {
		t.Fatalf("unauthorized requests must not mutate state, got %+v", all)
	}
	photos, _ := ts.photos.ListAll(ctx)
	if len(photos) != 0 {
		t.Fatalf("expected no photos, got %d", len(photos))
	}
}

func TestCollectionCRUD(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t)

	resp := ts.doJSON(t, http.MethodPost, "/api/collections", token, map[string]any{"name": "  Portraits  ", "description": "People"})
	expectStatus(t, resp, http.StatusCreated)
	created := decode[map[string]any](t, resp)
	id, _ := created["_id"].(string)
	if id == "" || created["name"] != "Portraits" || created["isPublished"] != true {
		t.Fatalf("unexpected create body: %v", created)
	}

	resp = ts.doJSON(t, http.MethodPost, "/api/collections", token, map[string]any{"name": "Drafts", "isPublished": false})
	expectStatus(t, resp, http.StatusCreated)

	resp = ts.do(t, http.MethodGet, "/api/collections", "", nil, "")
	expectStatus(t, resp, http.StatusOK)
	public := decode[[]map[string]any](t, resp)
	if len(public) != 1 || public[0]["_id"] != id {
		t.Fatalf("expected only the published collection, got %v", public)
	}

	resp = ts.do(t, http.MethodGet, "/api/collections/admin", token, nil, "")
	expectStatus(t, resp, http.StatusOK)
	if all := decode[[]map[string]any](t, resp); len(all) != 2 {
		t.Fatalf("expected 2 collections for admin, got %d", len(all))
	}

	resp = ts.doJSON(t, http.MethodPut, "/api/collections/"+id, token, map[string]any{"sortOrder": 3})
	expectStatus(t, resp, http.StatusOK)
	updated := decode[map[string]any](t, resp)
	if updated["sortOrder"] != float64(3) || updated["name"] != "Portraits" || updated["description"] != "People" {
		t.Fatalf("partial update changed other fields: %v", updated)
	}

	resp = ts.doJSON(t, http.MethodPut, "/api/collections/"+id, token, map[string]any{"name": ""})
	expectStatus(t, resp, http.StatusBadRequest)

	resp = ts.doJSON(t, http.MethodPost, "/api/collections", token, map[string]any{"description": "no name"})
	expectStatus(t, resp, http.StatusBadRequest)
	if msg := decode[map[string]string](t, resp)["message"]; msg != "name is required" {
		t.Fatalf("unexpected validation message %q", msg)
	}

	resp = ts.doJSON(t, http.MethodPut, "/api/collections/missing", token, map[string]any{"name": "x"})
	expectStatus(t, resp, http.StatusNotFound)
	if msg := decode[map[string]string](t, resp)["message"]; msg != "Collection not found" {
		t.Fatalf("unexpected message %q", msg)
	}

	resp = ts.do(t, http.MethodDelete, "/api/collections/"+id, token, nil, "")
	expectStatus(t, resp, http.StatusOK)
	if msg := decode[map[string]any](t, resp)["message"]; msg != "Collection and associated photos deleted" {
		t.Fatalf("unexpected message %v", msg)
	}

	resp = ts.do(t, http.MethodDelete, "/api/collections/"+id, token, nil, "")
	expectStatus(t, resp, http.StatusNotFound)
}

func TestCollectionCreate_BodyTooLarge(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t)

	body := `{"name":"Huge","description":"` + strings.Repeat("a", 1<<20) + `"}`
	resp := ts.do(t, http.MethodPost, "/api/collections", token, strings.NewReader(body), "application/json")
	expectStatus(t, resp, http.StatusBadRequest)
	if msg := decode[map[string]string](t, resp)["message"]; msg != "Invalid request body" {
		t.Fatalf("unexpected message %q", msg)
	}

	all, err := ts.collections.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("oversized body must not create a collection, got %d", len(all))
	}
}

func TestPhotoUploadServeAndDelete(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t)
	c, err := ts.collections.Create(context.Background(), service.CollectionInput{Name: "Street"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	resp := ts.upload(t, token, uploadForm{
		fields: map[string]string{
			"collection": c.ID,
			"tags":       "night, rain ,",
			"camera":     "X100V",
			"aperture":   "f/2",
		},
		filename:    "tram.jpg",
		contentType: "image/jpeg",
		data:        jpegBytes,
	})
	expectStatus(t, resp, http.StatusCreated)
	photo := decode[map[string]any](t, resp)

	filename, _ := photo["filename"].(string)
	photoID, _ := photo["_id"].(string)
	if photo["title"] != "tram.jpg" || photo["originalName"] != "tram.jpg" || photo["collectionName"] != c.ID {
		t.Fatalf("unexpected upload body: %v", photo)
	}
	if !strings.HasSuffix(filename, ".jpg") || filename == "tram.jpg" {
		t.Fatalf("expected generated filename with .jpg extension, got %q", filename)
	}
	tags, _ := photo["tags"].([]any)
	if len(tags) != 2 || tags[0] != "night" || tags[1] != "rain" {
		t.Fatalf("unexpected tags: %v", photo["tags"])
	}
	if settings, _ := photo["settings"].(map[string]any); settings["aperture"] != "f/2" || settings["iso"] != "" {
		t.Fatalf("unexpected settings: %v", photo["settings"])
	}

	resp = ts.do(t, http.MethodGet, "/api/uploads/"+filename, "", nil, "")
	expectStatus(t, resp, http.StatusOK)
	served, _ := io.ReadAll(resp.Body)
	if !bytes.Equal(served, jpegBytes) {
		t.Fatal("served bytes differ from upload")
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Fatalf("expected image/jpeg, got %q", ct)
	}

	resp = ts.do(t, http.MethodGet, "/api/photos/collection/"+c.ID, "", nil, "")
	expectStatus(t, resp, http.StatusOK)
	listed := decode[[]map[string]any](t, resp)
	if len(listed) != 1 {
		t.Fatalf("expected 1 photo, got %d", len(listed))
	}
	ref, _ := listed[0]["collectionName"].(map[string]any)
	if ref["_id"] != c.ID || ref["name"] != "Street" {
		t.Fatalf("expected populated collection ref, got %v", listed[0]["collectionName"])
	}

	resp = ts.do(t, http.MethodGet, "/api/collections", "", nil, "")
	if cols := decode[[]map[string]any](t, resp); cols[0]["coverImage"] != filename {
		t.Fatalf("expected cover image %q, got %v", filename, cols[0]["coverImage"])
	}

	resp = ts.doJSON(t, http.MethodPut, "/api/photos/"+photoID, token, map[string]any{"isPublished": false, "filename": "hijack.jpg"})
	expectStatus(t, resp, http.StatusOK)
	if upd := decode[map[string]any](t, resp); upd["isPublished"] != false || upd["filename"] != filename {
		t.Fatalf("unexpected update body: %v", upd)
	}

	resp = ts.do(t, http.MethodGet, "/api/photos/collection/"+c.ID, "", nil, "")
	if listed := decode[[]map[string]any](t, resp); len(listed) != 0 {
		t.Fatalf("unpublished photo must not be listed publicly, got %d", len(listed))
	}

	resp = ts.do(t, http.MethodDelete, "/api/photos/"+photoID, token, nil, "")
	expectStatus(t, resp, http.StatusOK)
	if msg := decode[map[string]string](t, resp)["message"]; msg != "Photo deleted successfully" {
		t.Fatalf("unexpected message %q", msg)
	}

	expectStatus(t, ts.do(t, http.MethodGet, "/api/uploads/"+filename, "", nil, ""), http.StatusNotFound)
	expectStatus(t, ts.do(t, http.MethodDelete, "/api/photos/"+photoID, token, nil, ""), http.StatusNotFound)
}

func TestPhotoUpload_Rejected(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t)
	c, err := ts.collections.Create(context.Background(), service.CollectionInput{Name: "Street"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	tests := []struct {
		name string
		form uploadForm
	}{
		{"no file", uploadForm{fields: map[string]string{"collection": c.ID}}},
		{"pdf", uploadForm{fields: map[string]string{"collection": c.ID}, filename: "a.png", contentType: "application/pdf", data: jpegBytes}},
		{"unknown collection", uploadForm{fields: map[string]string{"collection": "nope"}, filename: "a.jpg", contentType: "image/jpeg", data: jpegBytes}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.upload(t, token, tt.form)
			expectStatus(t, resp, http.StatusBadRequest)
		})
	}

	photos, _ := ts.photos.ListAll(context.Background())
	if len(photos) != 0 {
		t.Fatalf("rejected uploads must not create records, got %d", len(photos))
	}
}

func TestUploads_NotFound(t *testing.T) {
	ts := newTestServer(t)
	expectStatus(t, ts.do(t, http.MethodGet, "/api/uploads/missing.jpg", "", nil, ""), http.StatusNotFound)
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t)

	req, _ := http.NewRequest(http.MethodOptions, ts.srv.URL+"/api/collections", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("expected allowed origin, got %q", got)
	}
	if got := resp.Header.Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Fatalf("expected credentials allowed, got %q", got)
	}

	req, _ = http.NewRequest(http.MethodGet, ts.srv.URL+"/api/collections", nil)
	req.Header.Set("Origin", "https://evil.example")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no CORS header for foreign origin, got %q", got)
	}
}
