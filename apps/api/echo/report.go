package echoapi

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/convocatorias/core"
	"github.com/trezcool/convocatorias/core/report"
	"github.com/trezcool/convocatorias/core/user"
)

type reportApi struct {
	svc      *report.Service
	conf     *core.Config
	validate *validator.Validate
}

func registerReportAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := reportApi{
		svc:      deps.ReportSvc,
		conf:     deps.Conf,
		validate: deps.Validate,
	}

	rg := g.Group("/reportes", jwt)
	admin := roleMiddleware(user.RoleAdmin)
	viewer := roleMiddleware(user.ReportRoles...)

	// PDF export
	rg.GET("/pdf", api.exportPDF, admin)
	rg.POST("/pdf/email", api.emailPDF, admin)

	// dashboard views
	rg.GET("/proyectos-por-convocatoria", api.projectsPerConvocatoria, viewer)
	rg.GET("/promedio-evaluaciones", api.averageScores, viewer)
	rg.GET("/estadisticas-cantidad", api.countStatistics, viewer)
	rg.GET("/estado-evaluaciones", api.evaluationStatus, viewer)
	rg.GET("/proyectos-tipo", api.projectsByKind, viewer)
}

// reportContext bounds the time spent rendering a report.
func (api *reportApi) reportContext(ctx echo.Context) (context.Context, context.CancelFunc) {
	if api.conf.Server.ReportTimeout <= 0 {
		return context.WithCancel(ctx.Request().Context())
	}
	return context.WithTimeout(ctx.Request().Context(), api.conf.Server.ReportTimeout)
}

// Handlers

func (api *reportApi) exportPDF(ctx echo.Context) error {
	period, err := bindPeriod(ctx, api.validate, new(PDFQuery))
	if err != nil {
		return err
	}

	c, cancel := api.reportContext(ctx)
	defer cancel()

	pdf, err := api.svc.Render(c, period)
	if err != nil {
		return errors.Wrap(err, "rendering report")
	}

	header := ctx.Response().Header()
	header.Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", report.Filename))
	header.Set(echo.HeaderContentLength, strconv.Itoa(len(pdf)))
	return ctx.Blob(http.StatusOK, report.ContentType, pdf)
}

func (api *reportApi) emailPDF(ctx echo.Context) error {
	period, err := bindPeriod(ctx, api.validate, new(PDFQuery))
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if usr.Email == "" {
		return errNoEmail
	}

	c, cancel := api.reportContext(ctx)
	defer cancel()

	to := mail.Address{Name: usr.Name, Address: usr.Email}
	if err = api.svc.SendReport(c, period, to); err != nil {
		return errors.Wrap(err, "sending report")
	}
	return ctx.JSON(http.StatusAccepted, echo.Map{"success": fmt.Sprintf("El reporte será enviado a %s", usr.Email)})
}

func (api *reportApi) projectsPerConvocatoria(ctx echo.Context) error {
	period, err := bindPeriod(ctx, api.validate, new(PeriodQuery))
	if err != nil {
		return err
	}
	var ord Ordering
	ord.Bind(ctx)

	res, err := api.svc.ProjectsPerConvocatoria(ctx.Request().Context(), period, ord.Orderings...)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *reportApi) averageScores(ctx echo.Context) error {
	period, err := bindPeriod(ctx, api.validate, new(PeriodQuery))
	if err != nil {
		return err
	}
	res, err := api.svc.AverageScores(ctx.Request().Context(), period)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *reportApi) countStatistics(ctx echo.Context) error {
	period, err := bindPeriod(ctx, api.validate, new(PeriodQuery))
	if err != nil {
		return err
	}
	res, err := api.svc.CountStatistics(ctx.Request().Context(), period)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *reportApi) evaluationStatus(ctx echo.Context) error {
	period, err := bindPeriod(ctx, api.validate, new(PeriodQuery))
	if err != nil {
		return err
	}
	res, err := api.svc.EvaluationStatus(ctx.Request().Context(), period)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *reportApi) projectsByKind(ctx echo.Context) error {
	period, err := bindPeriod(ctx, api.validate, new(PeriodQuery))
	if err != nil {
		return err
	}
	res, err := api.svc.ProjectsByKind(ctx.Request().Context(), period)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}
