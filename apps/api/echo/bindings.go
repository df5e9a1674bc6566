package echoapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/edulane/lms/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	ord.Orderings = core.ParseOrdering(ctx.QueryParam(orderingParam))
}

// boolQueryParam returns nil when the param is missing or is not a boolean.
func boolQueryParam(ctx echo.Context, name string) *bool {
	val := strings.TrimSpace(ctx.QueryParam(name))
	if val == "" {
		return nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return nil
	}
	return &b
}

// idParam parses the positive integer ID found in the path param or query param name.
// A missing ID is reported with missingMsg.
func idParam(val, name, missingMsg string) (int, error) {
	val = strings.TrimSpace(val)
	if val == "" {
		return 0, echo.NewHTTPError(http.StatusBadRequest, missingMsg)
	}
	id, err := strconv.Atoi(val)
	if err != nil || id < 1 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}
