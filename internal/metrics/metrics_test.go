package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ProductViewed()
		m.EventPublished("product_created", nil)
		m.NotificationSent(errors.New("boom"))
	})
}

func TestDomainCounters(t *testing.T) {
	m := New()

	m.ProductViewed()
	m.ProductViewed()
	m.EventPublished("product_updated", nil)
	m.EventPublished("product_updated", errors.New("broker down"))
	m.NotificationSent(nil)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.ProductViews))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ProductEvents.WithLabelValues("product_updated", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ProductEvents.WithLabelValues("product_updated", "failed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Notifications.WithLabelValues("success")))
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New()
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/product/:sku", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "Product not found")
	})
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	for _, sku := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/product/"+sku, nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(m.RequestTotal.WithLabelValues(http.MethodGet, "/product/:sku", "404")))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "catalogue_http_requests_total")
}
