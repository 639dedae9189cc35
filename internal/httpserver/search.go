package httpserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/catalogue/internal/logging"
	"github.com/Skotchmaster/catalogue/internal/models"
	"github.com/Skotchmaster/catalogue/internal/transport"
	"github.com/Skotchmaster/catalogue/internal/util"
)

type Searcher interface {
	Search(ctx context.Context, query string, from, size int) (int64, []models.Product, error)
}

type SearchHTTP struct {
	Svc Searcher
}

func (h *SearchHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "search.search")

	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		l.Warn("search_error", "status", 400, "reason", "empty query")
		return echo.NewHTTPError(http.StatusBadRequest, echo.Map{
			"message": "Incorrect query parameters",
			"errors":  map[string]string{"q": "this field is required"},
		})
	}

	page, size, errs := util.ParsePage(c.QueryParam("page"), c.QueryParam("page_size"))
	if len(errs) > 0 {
		l.Warn("search_error", "status", 400, "reason", "bad paging")
		return echo.NewHTTPError(http.StatusBadRequest, echo.Map{
			"message": "Incorrect query parameters",
			"errors":  errs,
		})
	}
	from, limit := util.Calculate(page, size)

	total, prods, err := h.Svc.Search(ctx, q, from, limit)
	if err != nil {
		l.Error("search_error", "status", 502, "reason", "search backend failed", "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "search is unavailable")
	}

	return c.JSON(http.StatusOK, transport.SearchResponse{
		Total:    total,
		Products: transport.NewProductResponses(prods),
	})
}
