package sites

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bnema/sitehost/internal/boundaries/in/mocks"
	"github.com/bnema/sitehost/internal/domain"
)

const testSecret = "s3cret"

func newTestServer(t *testing.T, cfg ServerConfig) (*echo.Echo, *mocks.MockProvisioningService) {
	t.Helper()
	svc := new(mocks.MockProvisioningService)
	h := NewHandler(svc, zerolog.Nop())
	h.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }
	if cfg.APISecret == "" {
		cfg.APISecret = testSecret
	}
	return NewServer(cfg, h, nil, zerolog.Nop()), svc
}

func do(e *echo.Echo, method, path, body string, secret bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if secret {
		req.Header.Set("X-API-Secret", testSecret)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func TestHandler_Health(t *testing.T) {
	e, _ := newTestServer(t, ServerConfig{})

	rec := do(e, http.MethodGet, "/health", "", false)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","timestamp":"2024-05-01T10:00:00Z"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestHandler_Deploy(t *testing.T) {
	e, svc := newTestServer(t, ServerConfig{})

	expected := domain.DeploymentRequest{
		ProjectID: "p1",
		Subdomain: "Demo",
		Files: []domain.FileEntry{
			{Path: "index.html", Content: []byte("<html></html>"), MimeType: "text/html"},
			{Path: "js/app.js", Content: []byte("alert(1)"), MimeType: "text/javascript"},
		},
		Backend: &domain.BackendProxy{URL: "https://api.example.com", PathPrefix: "/api"},
	}
	svc.On("Deploy", mock.Anything, expected).Return(&domain.DeployResult{
		RunID: "run-1",
		URL:   "https://demo.digitel.site",
	}, nil).Once()

	body := fmt.Sprintf(`{
		"projectId": "p1",
		"subdomain": "Demo",
		"files": [
			{"name": "index.html", "content": %q, "type": "text/html"},
			{"name": "js/app.js", "content": %q, "type": "text/javascript"}
		],
		"backend": {"url": " https://api.example.com ", "pathPrefix": "/api"}
	}`, b64("<html></html>"), "data:text/javascript;base64,"+b64("alert(1)"))

	rec := do(e, http.MethodPost, "/deploy", body, true)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{
		"success": true,
		"message": "Project deployed successfully",
		"url": "https://demo.digitel.site",
		"runId": "run-1"
	}`, rec.Body.String())
	svc.AssertExpectations(t)
}

func TestHandler_Deploy_RequiresSecret(t *testing.T) {
	e, svc := newTestServer(t, ServerConfig{})

	rec := do(e, http.MethodPost, "/deploy", `{}`, false)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	svc.AssertNotCalled(t, "Deploy", mock.Anything, mock.Anything)
}

func TestHandler_Deploy_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"projectId":`},
		{"missing files", `{"projectId":"p1","subdomain":"demo"}`},
		{"missing project", `{"subdomain":"demo","files":[]}`},
		{"bad base64", `{"projectId":"p1","subdomain":"demo","files":[{"name":"index.html","content":"***"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, svc := newTestServer(t, ServerConfig{})

			rec := do(e, http.MethodPost, "/deploy", tt.body, true)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"kind":"InvalidInput"`)
			svc.AssertNotCalled(t, "Deploy", mock.Anything, mock.Anything)
		})
	}
}

func TestHandler_Deploy_ErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: bad", domain.ErrInvalidFormat), http.StatusBadRequest},
		{fmt.Errorf("%w: admin", domain.ErrReservedName), http.StatusBadRequest},
		{fmt.Errorf("%w: ../x", domain.ErrPathTraversal), http.StatusBadRequest},
		{fmt.Errorf("%w: no index", domain.ErrMissingIndex), http.StatusBadRequest},
		{fmt.Errorf("%w: demo", domain.ErrAlreadyExists), http.StatusConflict},
		{fmt.Errorf("%w: busy", domain.ErrLockContention), http.StatusConflict},
		{fmt.Errorf("%w: reload", domain.ErrExternalTimeout), http.StatusGatewayTimeout},
		{fmt.Errorf("%w: syntax", domain.ErrConfigValidationFailed), http.StatusInternalServerError},
		{errors.New("something else"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			e, svc := newTestServer(t, ServerConfig{})
			svc.On("Deploy", mock.Anything, mock.Anything).Return(nil, tt.err).Once()

			body := fmt.Sprintf(`{"projectId":"p1","subdomain":"demo","files":[{"name":"index.html","content":%q}]}`, b64("x"))
			rec := do(e, http.MethodPost, "/deploy", body, true)

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), `"success":false`)
			assert.Contains(t, rec.Body.String(), string(domain.KindOf(tt.err)))
		})
	}
}

func TestHandler_Deploy_BodyLimit(t *testing.T) {
	e, svc := newTestServer(t, ServerConfig{MaxUploadSize: "1K"})

	body := fmt.Sprintf(`{"projectId":"p1","subdomain":"demo","files":[{"name":"index.html","content":%q}]}`,
		b64(strings.Repeat("a", 4096)))
	rec := do(e, http.MethodPost, "/deploy", body, true)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	svc.AssertNotCalled(t, "Deploy", mock.Anything, mock.Anything)
}

func TestHandler_Delete(t *testing.T) {
	e, svc := newTestServer(t, ServerConfig{})
	svc.On("Delete", mock.Anything, "demo").Return(nil).Once()

	rec := do(e, http.MethodPost, "/delete", `{"subdomain":"demo"}`, true)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"Project deleted successfully"}`, rec.Body.String())
	svc.AssertExpectations(t)
}

func TestHandler_Delete_Errors(t *testing.T) {
	e, svc := newTestServer(t, ServerConfig{})

	rec := do(e, http.MethodPost, "/delete", `{}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc.On("Delete", mock.Anything, "demo").
		Return(errors.Join(fmt.Errorf("%w: disable", domain.ErrActivationFailed), domain.ErrIO)).Once()
	rec = do(e, http.MethodPost, "/delete", `{"subdomain":"demo"}`, true)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "disable")
}

func TestHandler_Check(t *testing.T) {
	e, svc := newTestServer(t, ServerConfig{})
	svc.On("Check", mock.Anything, "demo").Return(&domain.Availability{
		Subdomain: "demo",
		Available: false,
		Reason:    "a site is already deployed at this subdomain",
	}, nil).Once()
	svc.On("Check", mock.Anything, "www").Return(nil, fmt.Errorf("%w: www", domain.ErrReservedName)).Once()

	rec := do(e, http.MethodGet, "/check/demo", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"subdomain":"demo","available":false,"reason":"a site is already deployed at this subdomain"}`, rec.Body.String())

	rec = do(e, http.MethodGet, "/check/www", "", false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"ReservedName"`)
}

func TestHandler_AllowedCIDRs(t *testing.T) {
	e, svc := newTestServer(t, ServerConfig{AllowedCIDRs: []string{"10.0.0.0/8"}})

	req := httptest.NewRequest(http.MethodPost, "/delete", strings.NewReader(`{"subdomain":"demo"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("X-API-Secret", testSecret)
	req.RemoteAddr = "203.0.113.5:4000"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	svc.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestHandler_UnknownRoute(t *testing.T) {
	e, _ := newTestServer(t, ServerConfig{})

	rec := do(e, http.MethodGet, "/nope", "", false)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusFor(domain.KindProjectNotFound))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(domain.KindInternal))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(domain.KindRegistryUpdateFailed))
}
