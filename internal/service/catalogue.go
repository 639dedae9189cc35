package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/Skotchmaster/catalogue/internal/logging"
	"github.com/Skotchmaster/catalogue/internal/metrics"
	"github.com/Skotchmaster/catalogue/internal/models"
	"github.com/Skotchmaster/catalogue/internal/transport"
	"github.com/Skotchmaster/catalogue/internal/util"
)

const (
	EventProductCreated = "product_created"
	EventProductUpdated = "product_updated"
	EventProductDeleted = "product_deleted"

	UpdateSubject = "Product Updated"

	defaultSyncTimeout = 2 * time.Second
)

type ProductStore interface {
	CreateProduct(ctx context.Context, prod *models.Product) error
	GetProduct(ctx context.Context, sku string) (*models.Product, error)
	IncrementViews(ctx context.Context, sku string) (*models.Product, error)
	UpdateProduct(ctx context.Context, sku string, changes map[string]any, after func(*models.Product) error) (*models.Product, error)
	DeleteProduct(ctx context.Context, sku string) error
	ListProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error)
}

type RecipientSource interface {
	ListEmails(ctx context.Context) ([]string, error)
}

type Notifier interface {
	Send(ctx context.Context, subject, body string, recipients []string) error
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type Indexer interface {
	IndexProduct(ctx context.Context, prod *models.Product) error
	DeleteProduct(ctx context.Context, sku string) error
}

type ProductEvent struct {
	Type  string `json:"type"`
	SKU   string `json:"sku"`
	Name  string `json:"name,omitempty"`
	Brand string `json:"brand,omitempty"`
	Price string `json:"price,omitempty"`
}

type ProductPage struct {
	Items    []models.Product
	Total    int64
	Page     int
	Size     int
	LastPage int
}

func (p *ProductPage) HasNext() bool { return p.Page < p.LastPage }
func (p *ProductPage) HasPrev() bool { return p.Page > 1 }

// CatalogService owns the product rules. Events and Index are optional;
// Notifier must be set.
type CatalogService struct {
	Repo     ProductStore
	Users    RecipientSource
	Notifier Notifier
	Events   EventPublisher
	Index    Indexer
	Metrics  *metrics.Metrics

	Topic           string
	NotifyFailFatal bool
	NotifyTimeout   time.Duration
	// SyncTimeout bounds event publishing and index updates together.
	// Zero means two seconds.
	SyncTimeout time.Duration
}

// normalizeSKU returns the canonical form of a sku, or ErrNotFound when the
// value can not name any product.
func normalizeSKU(raw string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: product %q", ErrNotFound, raw)
	}
	return id.String(), nil
}

func notFound(err error, sku string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: product %s", ErrNotFound, sku)
	}
	return err
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, invalid("invalid product", errs)
	}
	price, _ := req.Price.Parse()

	prod := &models.Product{
		Name:  req.Name,
		Brand: req.Brand,
		Price: price,
	}
	if err := s.Repo.CreateProduct(ctx, prod); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.sync(ctx, EventProductCreated, prod)
	return prod, nil
}

// FindProduct looks a product up without counting a view.
func (s *CatalogService) FindProduct(ctx context.Context, rawSKU string) (*models.Product, error) {
	sku, err := normalizeSKU(rawSKU)
	if err != nil {
		return nil, err
	}
	prod, err := s.Repo.GetProduct(ctx, sku)
	if err != nil {
		return nil, notFound(err, sku)
	}
	return prod, nil
}

// GetProduct returns a product. Anonymous reads count as a view and get the
// incremented record back.
func (s *CatalogService) GetProduct(ctx context.Context, rawSKU string, authenticated bool) (*models.Product, error) {
	if authenticated {
		return s.FindProduct(ctx, rawSKU)
	}

	sku, err := normalizeSKU(rawSKU)
	if err != nil {
		return nil, err
	}
	prod, err := s.Repo.IncrementViews(ctx, sku)
	if err != nil {
		return nil, notFound(err, sku)
	}
	s.Metrics.ProductViewed()
	return prod, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, rawSKU string, req transport.PatchProductRequest) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalogue.update_product")

	current, err := s.FindProduct(ctx, rawSKU)
	if err != nil {
		return nil, err
	}
	sku := current.SKU

	if errs := req.Validate(); len(errs) > 0 {
		return nil, invalid("invalid product", errs)
	}

	changes := map[string]any{}
	if req.Name != nil {
		changes["name"] = *req.Name
	}
	if req.Brand != nil {
		changes["brand"] = *req.Brand
	}
	if req.Price.Set {
		price, _ := req.Price.Parse()
		changes["price"] = price
	}
	if req.Views != nil {
		changes["views"] = max(*req.Views, 0)
	}

	// Read before the transaction opens; sqlite runs on a single connection.
	recipients, err := s.Users.ListEmails(ctx)
	if err != nil {
		err = fmt.Errorf("%w: list recipients: %w", ErrNotification, err)
		if s.NotifyFailFatal {
			return nil, err
		}
		l.Warn("notify_update_failed", "sku", sku, "error", err)
	}

	var after func(*models.Product) error
	if s.NotifyFailFatal {
		after = func(p *models.Product) error {
			return s.notifyUpdate(ctx, p, recipients)
		}
	}

	prod, err := s.Repo.UpdateProduct(ctx, sku, changes, after)
	if err != nil {
		return nil, notFound(err, sku)
	}

	if !s.NotifyFailFatal {
		if err := s.notifyUpdate(ctx, prod, recipients); err != nil {
			l.Warn("notify_update_failed", "sku", sku, "error", err)
		}
	}

	s.sync(ctx, EventProductUpdated, prod)
	return prod, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, rawSKU string) error {
	sku, err := normalizeSKU(rawSKU)
	if err != nil {
		return err
	}
	if err := s.Repo.DeleteProduct(ctx, sku); err != nil {
		return notFound(err, sku)
	}

	s.sync(ctx, EventProductDeleted, &models.Product{SKU: sku})
	return nil
}

// ListProducts validates the raw query values and returns one page ordered
// by creation time.
func (s *CatalogService) ListProducts(ctx context.Context, pageRaw, sizeRaw string) (*ProductPage, error) {
	page, size, errs := util.ParsePage(pageRaw, sizeRaw)
	if len(errs) > 0 {
		return nil, invalid("Incorrect query parameters", errs)
	}

	offset, limit := util.Calculate(page, size)
	total, items, err := s.Repo.ListProducts(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	last := util.LastPage(total, size)
	if page > last {
		return nil, invalid("Incorrect query parameters", map[string]string{"page": "Invalid page."})
	}

	return &ProductPage{
		Items:    items,
		Total:    total,
		Page:     page,
		Size:     size,
		LastPage: last,
	}, nil
}

func updateBody(p *models.Product) string {
	return fmt.Sprintf(
		"The product %s has been updated. New details: sku=%s name=%s brand=%s price=%s views=%d",
		p.Name, p.SKU, p.Name, p.Brand, p.Price.StringFixed(2), p.Views,
	)
}

// notifyUpdate makes a single delivery attempt to every recipient.
func (s *CatalogService) notifyUpdate(ctx context.Context, p *models.Product, recipients []string) error {
	if len(recipients) == 0 {
		return nil
	}

	if s.NotifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.NotifyTimeout)
		defer cancel()
	}

	err := s.Notifier.Send(ctx, UpdateSubject, updateBody(p), recipients)
	s.Metrics.NotificationSent(err)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotification, err)
	}
	return nil
}

// sync publishes the product event and mirrors the change into the search
// index. Both are best-effort and run side by side under one deadline, so a
// dead broker or cluster delays the response by at most SyncTimeout.
func (s *CatalogService) sync(ctx context.Context, eventType string, p *models.Product) {
	if s.Events == nil && s.Index == nil {
		return
	}
	l := logging.FromContext(ctx).With("svc", "catalogue.sync", "event", eventType, "sku", p.SKU)

	timeout := s.SyncTimeout
	if timeout <= 0 {
		timeout = defaultSyncTimeout
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	var g errgroup.Group
	if s.Events != nil {
		g.Go(func() error {
			ev := ProductEvent{Type: eventType, SKU: p.SKU}
			if eventType != EventProductDeleted {
				ev.Name = p.Name
				ev.Brand = p.Brand
				ev.Price = p.Price.StringFixed(2)
			}
			err := s.Events.PublishEvent(ctx, s.Topic, p.SKU, ev)
			s.Metrics.EventPublished(eventType, err)
			if err != nil {
				l.Warn("publish_event_failed", "error", err)
			}
			return nil
		})
	}
	if s.Index != nil {
		g.Go(func() error {
			var err error
			if eventType == EventProductDeleted {
				err = s.Index.DeleteProduct(ctx, p.SKU)
			} else {
				err = s.Index.IndexProduct(ctx, p)
			}
			if err != nil {
				l.Warn("search_index_failed", "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}
