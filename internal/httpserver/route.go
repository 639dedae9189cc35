package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/catalogue/internal/metrics"
	"github.com/Skotchmaster/catalogue/internal/middleware/auth"
)

type Deps struct {
	CatalogHandler *CatalogHTTP
	AuthHandler    *AuthHTTP
	AdminHandler   *AdminHTTP
	SearchHandler  *SearchHTTP
	Auth           *auth.Auth
	Metrics        *metrics.Metrics
	Ready          func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "not ready")
			}
		}
		return c.NoContent(http.StatusOK)
	})
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	e.POST("/login", d.AuthHandler.Login)
	e.POST("/signup", d.AuthHandler.Signup)
	e.POST("/refresh_token", d.AuthHandler.RefreshToken)
	e.GET("/test_token", d.AuthHandler.TestToken, d.Auth.RequireAuth)

	e.GET("/catalogue", d.CatalogHandler.GetProducts)
	e.GET("/product/:sku", d.CatalogHandler.GetProduct, d.Auth.Optional)
	e.POST("/newproduct", d.CatalogHandler.CreateProduct, d.Auth.RequireAuth)
	e.PUT("/updateproduct/:sku", d.CatalogHandler.UpdateProduct, d.Auth.RequireAuth)
	e.DELETE("/deleteproduct/:sku", d.CatalogHandler.DeleteProduct, d.Auth.RequireAuth)

	e.POST("/newadmin", d.AdminHandler.CreateAdmin, d.Auth.RequireStaff)
	e.GET("/admins", d.AdminHandler.ListAdmins, d.Auth.RequireStaff)
	e.PUT("/updateadmin/:id", d.AdminHandler.UpdateAdmin, d.Auth.RequireStaff)
	e.DELETE("/deleteadmin/:id", d.AdminHandler.DeleteAdmin, d.Auth.RequireStaff)

	if d.SearchHandler != nil {
		e.GET("/search", d.SearchHandler.Search)
	}
}
