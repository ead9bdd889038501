package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	. "github.com/trezcool/convocatorias/apps/api/echo"
	"github.com/trezcool/convocatorias/core"
	"github.com/trezcool/convocatorias/core/report"
	"github.com/trezcool/convocatorias/core/report/reporttest"
	"github.com/trezcool/convocatorias/core/user"
	emailsvc "github.com/trezcool/convocatorias/services/email"
	pdfsvc "github.com/trezcool/convocatorias/services/pdf"
	"github.com/trezcool/convocatorias/storage/database/dbtest"
	sqlxrepos "github.com/trezcool/convocatorias/storage/database/sqlx"
)

var (
	conf = core.NewTestConfig()

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errInvalidToken = httpErr{Error: "invalid or expired jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

type fixtures struct {
	admin, teacher, student user.User
}

// setup serves the API over a fresh database holding 2024 & 2025 data.
func setup(t *testing.T) (Server, fixtures, *reporttest.Logger) {
	db := dbtest.Open(t)

	var fx fixtures
	fx.admin = dbtest.CreateUser(t, db, "Admin General", "admin@email.com", []string{user.RoleAdmin}, dbtest.Date(2025, 1, 10))
	fx.teacher = dbtest.CreateUser(t, db, "Docente Ejemplo", "docente@email.com", []string{user.RoleTeacher}, dbtest.Date(2025, 2, 1))
	fx.student = dbtest.CreateUser(t, db, "Estudiante 1", "estudiante1@email.com", []string{user.RoleStudent}, dbtest.Date(2024, 8, 1))

	c0 := dbtest.CreateConvocatoria(t, db, "Convocatoria 2024", dbtest.Date(2024, 9, 1))
	c1 := dbtest.CreateConvocatoria(t, db, "Convocatoria Innovación 2025", dbtest.Date(2025, 1, 5))
	c2 := dbtest.CreateConvocatoria(t, db, "Convocatoria Emprendimiento 2025", dbtest.Date(2025, 2, 10))
	dbtest.CreateProject(t, db, c0, "Inventario de Aves", report.KindAula, null.Float64From(60), dbtest.Date(2024, 10, 1))
	dbtest.CreateProject(t, db, c1, "Sistema de Energía Solar", report.KindAula, null.Float64From(18), dbtest.Date(2025, 2, 1))
	dbtest.CreateProject(t, db, c1, "Huerta Escolar", report.KindAula, null.Float64From(87.5), dbtest.Date(2025, 4, 1))
	dbtest.CreateProject(t, db, c2, "App de Salud Mental", report.KindSemillero, null.Float64{}, dbtest.Date(2025, 3, 15))

	logger := reporttest.NewLogger()
	repo := sqlxrepos.NewReportRepository(db)
	renderer, err := report.NewRenderer(repo, pdfsvc.New, logger,
		report.WithClock(func() time.Time { return time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC) }),
	)
	if err != nil {
		t.Fatalf("NewRenderer() failed: %v", err)
	}

	core.ParseEmailTemplates(logger, true)
	emailsvc.ResetSentMessages()
	notifier := emailsvc.NewNotifier(emailsvc.NewConsoleServiceMock(conf, logger))

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	app := NewServer(
		ServerDeps{
			Conf:       conf,
			Logger:     logger,
			ReportSvc:  report.NewService(repo, renderer, notifier),
			Validate:   validate,
			Translator: translator,
		},
	)
	return app, fx, logger
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func getToken(t *testing.T, usr user.User) string {
	token, err := GenerateToken(GetUserClaims(usr, conf), conf)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(bytes.TrimSpace(rec.Body.Bytes()), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app Server, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req, rec := newAuthRequest(method, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
