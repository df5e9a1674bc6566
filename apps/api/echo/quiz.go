package echoapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edulane/lms/core/quiz"
)

type quizApi struct {
	svc *quiz.Service
}

func registerQuizAPI(student *echo.Group, api *quizApi) {
	student.POST("/quiz/submit", api.submit)
	student.GET("/quiz/results", api.results)
}

func (api *quizApi) submit(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var sub quiz.Submission
	if err = ctx.Bind(&sub); err != nil {
		return errors.Wrap(err, "binding to Submission")
	}

	res, err := api.svc.Submit(ctx.Request().Context(), claims.Subject, sub)
	if err != nil {
		return errors.Wrap(err, "submitting quiz")
	}
	return ctx.JSON(http.StatusOK, SubmitQuizResponse{
		Success:    true,
		Score:      res.Score,
		TotalMarks: res.TotalMarks,
		Passed:     res.Passed,
	})
}

// results lists the student's attempts, at the quiz given by quiz_id or at all quizzes.
func (api *quizApi) results(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var quizID int
	if strings.TrimSpace(ctx.QueryParam("quiz_id")) != "" {
		if quizID, err = idParam(ctx.QueryParam("quiz_id"), "quiz ID", ""); err != nil {
			return err
		}
	}

	results, err := api.svc.Results(ctx.Request().Context(), claims.Subject, quizID)
	if err != nil {
		return errors.Wrap(err, "querying quiz results")
	}
	if results == nil {
		results = []quiz.Result{}
	}
	return ctx.JSON(http.StatusOK, results)
}

type SubmitQuizResponse struct {
	Success    bool `json:"success"`
	Score      int  `json:"score"`
	TotalMarks int  `json:"totalMarks"`
	Passed     bool `json:"passed"`
}
