package httpserver

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/catalogue/internal/logging"
	"github.com/Skotchmaster/catalogue/internal/middleware/auth"
	"github.com/Skotchmaster/catalogue/internal/service"
	"github.com/Skotchmaster/catalogue/internal/transport"
)

const productNotFound = "Product not found"

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	prod, err := h.Svc.GetProduct(ctx, c.Param("sku"), auth.UserFrom(c) != nil)
	if err != nil {
		return serviceError(l, "get_product_error", err, productNotFound)
	}

	return c.JSON(http.StatusOK, transport.NewProductResponse(prod))
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	page, err := h.Svc.ListProducts(ctx, c.QueryParam("page"), c.QueryParam("page_size"))
	if err != nil {
		return serviceError(l, "get_products_error", err, productNotFound)
	}

	resp := transport.PageResponse{
		Count:   page.Total,
		Results: transport.NewProductResponses(page.Items),
	}
	if page.HasNext() {
		resp.Next = pageURL(c, page.Page+1)
	}
	if page.HasPrev() {
		resp.Previous = pageURL(c, page.Page-1)
	}

	l.Info("get_products_success", "page", page.Page, "size", page.Size)
	return c.JSON(http.StatusOK, resp)
}

// pageURL rebuilds the request URL pointing at page. Page 1 drops the
// parameter altogether.
func pageURL(c echo.Context, page int) *string {
	req := c.Request()
	q := req.URL.Query()
	if page <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u := url.URL{
		Scheme:   c.Scheme(),
		Host:     req.Host,
		Path:     req.URL.Path,
		RawQuery: q.Encode(),
	}
	s := u.String()
	return &s
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create_product")

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return bindError(l, "create_product_error", "invalid product", err)
	}

	prod, err := h.Svc.CreateProduct(ctx, req)
	if err != nil {
		return serviceError(l, "create_product_error", err, productNotFound)
	}

	l.Info("create_product_success", "sku", prod.SKU)
	return c.JSON(http.StatusCreated, transport.ProductEnvelope{
		Message: "Product created successfully",
		Product: transport.NewProductResponse(prod),
	})
}

func (h *CatalogHTTP) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.update_product")

	// an unknown sku wins over whatever the body holds
	if _, err := h.Svc.FindProduct(ctx, c.Param("sku")); err != nil {
		return serviceError(l, "update_product_error", err, productNotFound)
	}

	var req transport.PatchProductRequest
	if err := c.Bind(&req); err != nil {
		return bindError(l, "update_product_error", "invalid product", err)
	}

	prod, err := h.Svc.UpdateProduct(ctx, c.Param("sku"), req)
	if err != nil {
		return serviceError(l, "update_product_error", err, productNotFound)
	}

	l.Info("update_product_success", "sku", prod.SKU)
	return c.JSON(http.StatusOK, transport.ProductEnvelope{
		Message: "Product updated successfully",
		Product: transport.NewProductResponse(prod),
	})
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete_product")

	if err := h.Svc.DeleteProduct(ctx, c.Param("sku")); err != nil {
		return serviceError(l, "delete_product_error", err, productNotFound)
	}

	l.Info("delete_product_success")
	return c.NoContent(http.StatusNoContent)
}
