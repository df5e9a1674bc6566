package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edulane/lms/core"
	"github.com/edulane/lms/core/course"
)

type courseApi struct {
	svc    *course.Service
	logger core.Logger
}

func registerCourseAPI(courses, faculty, student *echo.Group, api *courseApi) {
	courses.POST("/save", api.save)

	faculty.GET("/courses", api.instructorCourses)
	faculty.GET("/courses/:id", api.instructorDetails)

	student.GET("/courses", api.catalog)
	student.GET("/course-details", api.details)
}

// save stores a whole course draft at once. Invalid drafts are rejected with field errors;
// any other failure leaves nothing behind and is reported as {success: false, error}.
func (api *courseApi) save(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var draft course.Draft
	if err = ctx.Bind(&draft); err != nil {
		return errors.Wrap(err, "binding to Draft")
	}

	crs, err := api.svc.Save(ctx.Request().Context(), claims.Subject, draft)
	if err != nil {
		switch errors.Cause(err).(type) {
		case validator.ValidationErrors, *core.ValidationError:
			return err
		}
		api.logger.Error("saving course", err, contextUserInfo(ctx))
		return failure(ctx, http.StatusInternalServerError, "Failed to save course. "+errors.Cause(err).Error())
	}
	return ctx.JSON(http.StatusCreated, SaveCourseResponse{Success: true, CourseID: crs.ID})
}

func (api *courseApi) instructorCourses(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	courses, err := api.svc.ListByInstructor(ctx.Request().Context(), claims.Subject, 0)
	if err != nil {
		return errors.Wrap(err, "listing instructor courses")
	}
	return ctx.JSON(http.StatusOK, nonNilCourses(courses))
}

func (api *courseApi) instructorDetails(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	id, err := idParam(ctx.Param("id"), "course ID", "ID required")
	if err != nil {
		return err
	}
	details, err := api.svc.InstructorDetails(ctx.Request().Context(), claims.Subject, id)
	if err != nil {
		return errors.Wrap(err, "getting course details")
	}
	return ctx.JSON(http.StatusOK, details)
}

func (api *courseApi) catalog(ctx echo.Context) error {
	courses, err := api.svc.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing courses")
	}
	return ctx.JSON(http.StatusOK, nonNilCourses(courses))
}

func (api *courseApi) details(ctx echo.Context) error {
	id, err := idParam(ctx.QueryParam("id"), "course ID", "ID required")
	if err != nil {
		return err
	}
	details, err := api.svc.Details(ctx.Request().Context(), id, true /* forStudent */)
	if err != nil {
		return errors.Wrap(err, "getting course details")
	}
	return ctx.JSON(http.StatusOK, details)
}

func nonNilCourses(courses []course.Course) []course.Course {
	if courses == nil {
		return []course.Course{}
	}
	return courses
}

type SaveCourseResponse struct {
	Success  bool `json:"success"`
	CourseID int  `json:"courseId"`
}
