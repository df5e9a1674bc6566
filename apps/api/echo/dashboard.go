package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edulane/lms/core/dashboard"
)

type dashboardApi struct {
	svc *dashboard.Service
}

func registerDashboardAPI(admin, faculty, student *echo.Group, api *dashboardApi) {
	admin.GET("/stats", api.admin)
	faculty.GET("/dashboard", api.faculty)
	student.GET("/dashboard", api.student)
}

func (api *dashboardApi) admin(ctx echo.Context) error {
	stats, err := api.svc.Admin(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "computing admin stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *dashboardApi) faculty(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	stats, err := api.svc.Faculty(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "computing faculty stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *dashboardApi) student(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	stats, err := api.svc.Student(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "computing student stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}
