package echoapi_test

import (
	"bytes"
	"encoding/base64"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/convocatorias/core/report"
	emailsvc "github.com/trezcool/convocatorias/services/email"
)

const (
	year2025   = "start=2025-01-01&end=2025-12-31"
	isoDateErr = "must be an ISO date (YYYY-MM-DD) or date-time (RFC 3339)"
)

func TestHealth(t *testing.T) {
	app, _, _ := setup(t)
	runHTTPTests(t, app, []httpTest{
		{name: "ok", path: "/api/health", wantCode: http.StatusOK, wantData: []byte(`{"status":"ok"}`)},
	})
}

func TestReportAPI_auth(t *testing.T) {
	app, fx, _ := setup(t)
	path := "/api/reportes/estadisticas-cantidad"

	runHTTPTests(t, app, []httpTest{
		{name: "no token", path: path, wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{name: "invalid token", path: path, token: "not.a.jwt", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errInvalidToken)},
		{name: "student", path: path, token: getToken(t, fx.student), wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden)},
		{name: "teacher: pdf", path: "/api/reportes/pdf?" + year2025, token: getToken(t, fx.teacher), wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden)},
		{name: "teacher: pdf email", method: http.MethodPost, path: "/api/reportes/pdf/email?" + year2025, token: getToken(t, fx.teacher), wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden)},
		{name: "teacher", path: path, token: getToken(t, fx.teacher), wantCode: http.StatusOK, wantData: []byte(`{"users":3,"convocatorias":3,"projects":4}`)},
		{name: "admin", path: path, token: getToken(t, fx.admin), wantCode: http.StatusOK, wantData: []byte(`{"users":3,"convocatorias":3,"projects":4}`)},
	})
}

func TestReportAPI_periodValidation(t *testing.T) {
	app, fx, _ := setup(t)
	token := getToken(t, fx.teacher)
	path := "/api/reportes/estado-evaluaciones?"

	runHTTPTests(t, app, []httpTest{
		{name: "start without end", path: path + "start=2025-01-01", token: token, wantCode: http.StatusBadRequest, wantData: []byte(`{"end":"this field is required"}`)},
		{name: "end without start", path: path + "end=2025-01-01", token: token, wantCode: http.StatusBadRequest, wantData: []byte(`{"start":"this field is required"}`)},
		{name: "invalid start", path: path + "start=2025-13-01&end=2025-12-31", token: token, wantCode: http.StatusBadRequest, wantData: []byte(`{"start":"start ` + isoDateErr + `"}`)},
		{name: "invalid end", path: path + "start=2025-01-01&end=yesterday", token: token, wantCode: http.StatusBadRequest, wantData: []byte(`{"end":"end ` + isoDateErr + `"}`)},
		{name: "end before start", path: path + "start=2025-12-31&end=2025-01-01", token: token, wantCode: http.StatusBadRequest, wantData: []byte(`{"end":"end must not precede start"}`)},
		{name: "same day", path: path + "start=2025-02-01&end=2025-02-01", token: token, wantCode: http.StatusOK, wantData: []byte(`{"graded":1,"ungraded":0}`)},
		{name: "date-times", path: path + "start=2025-01-01T00:00:00Z&end=2025-02-01T00:00:00Z", token: token, wantCode: http.StatusOK, wantData: []byte(`{"graded":1,"ungraded":0}`)},
		{name: "year", path: path + year2025, token: token, wantCode: http.StatusOK, wantData: []byte(`{"graded":2,"ungraded":1}`)},
		{name: "all time", path: path, token: token, wantCode: http.StatusOK, wantData: []byte(`{"graded":3,"ungraded":1}`)},
	})
}

func TestReportAPI_views(t *testing.T) {
	app, fx, _ := setup(t)
	token := getToken(t, fx.teacher)

	runHTTPTests(t, app, []httpTest{
		{
			name:     "counts",
			path:     "/api/reportes/estadisticas-cantidad?" + year2025,
			token:    token,
			wantCode: http.StatusOK,
			wantData: []byte(`{"users":2,"convocatorias":2,"projects":3}`),
		},
		{
			name:     "projects by kind",
			path:     "/api/reportes/proyectos-tipo?" + year2025,
			token:    token,
			wantCode: http.StatusOK,
			wantData: []byte(`{"aula":2,"semillero":1}`),
		},
		{
			name:     "projects per convocatoria",
			path:     "/api/reportes/proyectos-por-convocatoria?" + year2025,
			token:    token,
			wantCode: http.StatusOK,
			wantData: []byte(`[{"name":"Convocatoria Emprendimiento 2025","value":1},{"name":"Convocatoria Innovación 2025","value":2}]`),
		},
		{
			name:     "projects per convocatoria, most projects first",
			path:     "/api/reportes/proyectos-por-convocatoria?ordering=-value&" + year2025,
			token:    token,
			wantCode: http.StatusOK,
			wantData: []byte(`[{"name":"Convocatoria Innovación 2025","value":2},{"name":"Convocatoria Emprendimiento 2025","value":1}]`),
		},
		{
			name:     "projects per convocatoria, empty period",
			path:     "/api/reportes/proyectos-por-convocatoria?start=2030-01-01&end=2030-12-31",
			token:    token,
			wantCode: http.StatusOK,
			wantData: []byte(`[]`),
		},
		{
			name:     "projects per convocatoria, unknown ordering field",
			path:     "/api/reportes/proyectos-por-convocatoria?ordering=titulo",
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"ordering":"unknown field \"titulo\""}`),
		},
		{
			name:     "projects per convocatoria, malformed ordering",
			path:     "/api/reportes/proyectos-por-convocatoria?ordering=Value!",
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"ordering":"ordering must be a comma separated list of fields, optionally prefixed with '-'"}`),
		},
		{
			name:     "average scores",
			path:     "/api/reportes/promedio-evaluaciones?" + year2025,
			token:    token,
			wantCode: http.StatusOK,
			wantData: []byte(`[{"convocatoria":"Convocatoria Innovación 2025","evaluated":2,"average":52.75},{"convocatoria":"Convocatoria Emprendimiento 2025","evaluated":0,"average":null}]`),
		},
	})
}

func TestReportAPI_exportPDF(t *testing.T) {
	app, fx, logger := setup(t)
	token := getToken(t, fx.admin)

	runHTTPTests(t, app, []httpTest{
		{name: "no period", path: "/api/reportes/pdf", token: token, wantCode: http.StatusBadRequest, wantData: []byte(`{"start":"this field is required","end":"this field is required"}`)},
		{name: "no end", path: "/api/reportes/pdf?start=2025-01-01", token: token, wantCode: http.StatusBadRequest, wantData: []byte(`{"end":"this field is required"}`)},
	})

	req, rec := newAuthRequest(http.MethodGet, "/api/reportes/pdf?"+year2025, token)
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; wantCode %v (%s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	assert.Equal(t, report.ContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=reporte.pdf", rec.Header().Get("Content-Disposition"))
	assert.Equal(t, strconv.Itoa(rec.Body.Len()), rec.Header().Get("Content-Length"))
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")) {
		t.Errorf("failed! body is not a PDF: %q", rec.Body.Bytes()[:16])
	}
	if warns := logger.Get("warn"); len(warns) != 0 {
		t.Errorf("failed! warnings = %v", warns)
	}

	// same period, same clock: same bytes
	req2, rec2 := newAuthRequest(http.MethodGet, "/api/reportes/pdf?"+year2025, token)
	app.ServeHTTP(rec2, req2)
	if !bytes.Equal(rec.Body.Bytes(), rec2.Body.Bytes()) {
		t.Error("failed! rendering twice gave different documents")
	}
}

func TestReportAPI_emailPDF(t *testing.T) {
	app, fx, _ := setup(t)
	path := "/api/reportes/pdf/email?" + year2025

	runHTTPTests(t, app, []httpTest{
		{name: "invalid period", method: http.MethodPost, path: "/api/reportes/pdf/email?start=2025-12-31&end=2025-01-01", token: getToken(t, fx.admin), wantCode: http.StatusBadRequest, wantData: []byte(`{"end":"end must not precede start"}`)},
		{name: "sent", method: http.MethodPost, path: path, token: getToken(t, fx.admin), wantCode: http.StatusAccepted, wantData: []byte(`{"success":"El reporte será enviado a admin@email.com"}`)},
	})

	sent := emailsvc.GetSentMessages()
	if len(sent) != 1 {
		t.Fatalf("failed! sent = %d; want 1", len(sent))
	}
	msg := sent[0]
	if len(msg.To) != 1 || msg.To[0].Address != "admin@email.com" || msg.To[0].Name != "Admin General" {
		t.Errorf("failed! to = %v", msg.To)
	}
	assert.Contains(t, msg.TextContent, "01/01/2025 - 31/12/2025")
	if len(msg.Attachments) != 1 {
		t.Fatalf("failed! attachments = %d; want 1", len(msg.Attachments))
	}

	content, err := base64.StdEncoding.DecodeString(msg.Attachments[0].Content.String())
	if err != nil {
		t.Fatalf("failed! attachment is not base64: %v", err)
	}
	req, rec := newAuthRequest(http.MethodGet, "/api/reportes/pdf?"+year2025, getToken(t, fx.admin))
	app.ServeHTTP(rec, req)
	if !bytes.Equal(content, rec.Body.Bytes()) {
		t.Error("failed! emailed report differs from the exported one")
	}
}
