package render

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"schoolportal/internal/middleware"
	"schoolportal/internal/models"
	"schoolportal/internal/session"
)

// helperSession returns a session.Data suitable for rendering admin templates.
func helperSession(role models.Role) *session.Data {
	return &session.Data{
		UserID:      uuid.New(),
		Email:       "test@schoolportal.local",
		DisplayName: "Test User",
		Role:        role,
		TwoFADone:   true,
	}
}

// helperRequest builds a request whose context carries a session.
func helperRequest(method, target string, sess *session.Data) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	if sess != nil {
		req = req.WithContext(context.WithValue(req.Context(), middleware.SessionKey, sess))
	}
	return req
}

func newRenderer(t *testing.T, devMode bool) *Renderer {
	t.Helper()
	rn, err := New(devMode)
	if err != nil {
		t.Fatalf("New(devMode=%v) returned error: %v", devMode, err)
	}
	return rn
}

func dashboardData() map[string]any {
	return map[string]any{
		"PublishedCount": 12, "DraftCount": 3, "DocumentCount": 7,
		"BlockCount": 5, "VisibleBlocks": 4,
		"Stats": &models.VisitorStats{Total: 1500, Today: 42, Month: 300, Online: 3},
	}
}

func TestNew(t *testing.T) {
	for _, devMode := range []bool{true, false} {
		rn := newRenderer(t, devMode)
		for _, name := range []string{"dashboard", "login", "2fa_setup", "2fa_verify", "blocks_list", "block_form", "settings"} {
			if _, ok := rn.templates[name]; !ok {
				t.Errorf("devMode=%v: expected template %q to be parsed", devMode, name)
			}
		}
		if _, ok := rn.templates["base"]; ok {
			t.Error("base.html should not be registered as a separate template")
		}
	}
}

func TestAssetsByMode(t *testing.T) {
	tests := []struct {
		name    string
		devMode bool
		want    string
		notWant string
	}{
		{"dev uses CDN", true, "cdn.tailwindcss.com", "/static/css/admin.css"},
		{"prod uses static", false, "/static/css/admin.css", "cdn.tailwindcss.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rn := newRenderer(t, tt.devMode)
			sess := helperSession(models.RoleAdmin)
			w := httptest.NewRecorder()
			rn.Page(w, helperRequest(http.MethodGet, "/admin", sess), "dashboard", &PageData{
				Title: "Tổng quan", Section: "dashboard", Data: dashboardData(),
			})

			body := w.Body.String()
			if !strings.Contains(body, tt.want) {
				t.Errorf("body missing %q", tt.want)
			}
			if strings.Contains(body, tt.notWant) {
				t.Errorf("body should not contain %q", tt.notWant)
			}
		})
	}
}

func TestPageRendering(t *testing.T) {
	rn := newRenderer(t, true)
	sess := helperSession(models.RoleAdmin)
	w := httptest.NewRecorder()

	rn.Page(w, helperRequest(http.MethodGet, "/admin", sess), "dashboard", &PageData{
		Title:   "Tổng quan",
		Section: "dashboard",
		Data:    dashboardData(),
		Flashes: []Flash{{Type: "success", Message: "Đã lưu khối"}},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"<!DOCTYPE html>", "Xin chào, Test User", "1500", "Đã lưu khối", "/admin/settings"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type: got %q", ct)
	}
}

func TestEditorDoesNotSeeSettingsLink(t *testing.T) {
	rn := newRenderer(t, true)
	w := httptest.NewRecorder()
	rn.Page(w, helperRequest(http.MethodGet, "/admin", helperSession(models.RoleEditor)), "dashboard", &PageData{
		Section: "dashboard", Data: dashboardData(),
	})
	if strings.Contains(w.Body.String(), "/admin/settings") {
		t.Error("editors should not see the settings link")
	}
}

func TestHTMXPartialRendering(t *testing.T) {
	rn := newRenderer(t, true)
	req := helperRequest(http.MethodGet, "/admin", helperSession(models.RoleAdmin))
	req.Header.Set("HX-Request", "true")

	w := httptest.NewRecorder()
	rn.Page(w, req, "dashboard", &PageData{Section: "dashboard", Data: dashboardData()})

	body := w.Body.String()
	if strings.Contains(body, "<!DOCTYPE html>") || strings.Contains(body, "<head>") {
		t.Error("HTMX partial should NOT contain the layout")
	}
	if !strings.Contains(body, "Xin chào") {
		t.Error("HTMX partial should contain dashboard content")
	}
}

func TestStandaloneTemplates(t *testing.T) {
	rn := newRenderer(t, true)

	for _, name := range []string{"login", "2fa_setup", "2fa_verify"} {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			rn.Page(w, helperRequest(http.MethodGet, "/admin/"+name, nil), name, &PageData{
				Data: map[string]any{"Error": "Mã không đúng"},
			})

			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", w.Code)
			}
			body := w.Body.String()
			if !strings.Contains(body, "<!DOCTYPE html>") {
				t.Error("expected a standalone HTML document")
			}
			if strings.Contains(body, "lg:flex-shrink-0") {
				t.Error("should NOT contain base layout sidebar")
			}
			if !strings.Contains(body, "Mã không đúng") {
				t.Error("error message not rendered")
			}
		})
	}
}

func TestPageStatus(t *testing.T) {
	rn := newRenderer(t, true)
	w := httptest.NewRecorder()
	rn.PageStatus(w, helperRequest(http.MethodPost, "/admin/blocks", helperSession(models.RoleEditor)),
		http.StatusUnprocessableEntity, "block_form", &PageData{
			Section: "blocks",
			Data: map[string]any{
				"IsNew":     true,
				"Block":     models.DisplayBlock{Type: models.BlockGrid, Position: models.PositionMain, TargetPage: models.TargetAll, Source: models.SourceAll},
				"Errors":    map[string]string{"name": "Tên khối không được để trống"},
				"Types":     models.BlockTypes,
				"Positions": models.Positions,
				"Targets":   models.TargetPages,
				"Preview":   struct{ HTML, Error string }{},
			},
		})

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"Tên khối không được để trống", "Lưới bài viết", "Cột phải", `value="featured"`} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestMissingTemplate(t *testing.T) {
	rn := newRenderer(t, true)
	w := httptest.NewRecorder()
	rn.Page(w, helperRequest(http.MethodGet, "/admin/x", nil), "nonexistent_template", &PageData{})

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "not found") {
		t.Error("error response should mention template not found")
	}
}

func TestCSRFTokenInjection(t *testing.T) {
	rn := newRenderer(t, true)

	var captured *http.Request
	middleware.CSRF(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/admin/login", nil))

	token := middleware.CSRFToken(captured)
	if token == "" {
		t.Fatal("CSRF token not found in context")
	}

	w := httptest.NewRecorder()
	data := &PageData{}
	rn.Page(w, captured, "login", data)

	if !strings.Contains(w.Body.String(), token) {
		t.Error("rendered output should contain the CSRF token")
	}
	if data.CSRFToken != token {
		t.Errorf("PageData.CSRFToken: got %q, want %q", data.CSRFToken, token)
	}
}

func TestSessionInjectionFromContext(t *testing.T) {
	rn := newRenderer(t, true)
	data := &PageData{Section: "dashboard", Data: dashboardData()}
	w := httptest.NewRecorder()
	rn.Page(w, helperRequest(http.MethodGet, "/admin", helperSession(models.RoleAdmin)), "dashboard", data)

	if data.Session == nil || data.Session.DisplayName != "Test User" {
		t.Errorf("expected session injected from context, got %+v", data.Session)
	}
}

func TestFragment(t *testing.T) {
	rn := newRenderer(t, true)
	w := httptest.NewRecorder()
	rn.Fragment(w, "block_form", "preview", struct {
		HTML  string
		Error string
	}{Error: "Chuyên mục không tồn tại"})

	body := w.Body.String()
	if strings.Contains(body, "<form") {
		t.Error("fragment should not include the form")
	}
	if !strings.Contains(body, "Chuyên mục không tồn tại") {
		t.Errorf("fragment body = %q", body)
	}
}

func TestIsHTMX(t *testing.T) {
	tests := []struct {
		header string
		want   bool
	}{
		{"", false}, {"true", true}, {"false", false}, {"yes", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("HX-Request", tt.header)
		}
		if got := isHTMX(req); got != tt.want {
			t.Errorf("isHTMX(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}
}
