package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/catalogue/internal/db/dbtest"
	"github.com/Skotchmaster/catalogue/internal/hash"
	"github.com/Skotchmaster/catalogue/internal/models"
	"github.com/Skotchmaster/catalogue/internal/repo"
	"github.com/Skotchmaster/catalogue/internal/tokens"
)

type sentMail struct {
	Subject    string
	Body       string
	Recipients []string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (n *fakeNotifier) Send(_ context.Context, subject, body string, recipients []string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMail{Subject: subject, Body: body, Recipients: recipients})
	return nil
}

type publishedEvent struct {
	Topic string
	Key   string
	Event ProductEvent
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	// hang blocks every publish until the context gives up.
	hang bool
}

func (p *fakePublisher) PublishEvent(ctx context.Context, topic, key string, event any) error {
	if p.hang {
		<-ctx.Done()
		return ctx.Err()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	ev, ok := event.(ProductEvent)
	if !ok {
		return errors.New("unexpected event type")
	}
	p.events = append(p.events, publishedEvent{Topic: topic, Key: key, Event: ev})
	return nil
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Event.Type)
	}
	return out
}

type fakeIndex struct {
	mu      sync.Mutex
	docs    map[string]models.Product
	indexed int
}

func (f *fakeIndex) IndexProduct(_ context.Context, prod *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.docs == nil {
		f.docs = map[string]models.Product{}
	}
	f.docs[prod.SKU] = *prod
	f.indexed++
	return nil
}

func (f *fakeIndex) DeleteProduct(_ context.Context, sku string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, sku)
	return nil
}

type catalogueEnv struct {
	Repo     *repo.GormRepo
	Svc      *CatalogService
	Notifier *fakeNotifier
	Events   *fakePublisher
	Index    *fakeIndex
}

func newCatalogueEnv(t *testing.T) *catalogueEnv {
	t.Helper()

	r := repo.New(dbtest.New(t))
	env := &catalogueEnv{
		Repo:     r,
		Notifier: &fakeNotifier{},
		Events:   &fakePublisher{},
		Index:    &fakeIndex{},
	}
	env.Svc = &CatalogService{
		Repo:          r,
		Users:         r,
		Notifier:      env.Notifier,
		Events:        env.Events,
		Index:         env.Index,
		Topic:         "product_events",
		NotifyTimeout: time.Second,
	}
	return env
}

func newUserService(t *testing.T) (*UserService, *repo.GormRepo) {
	t.Helper()

	r := repo.New(dbtest.New(t))
	svc := &UserService{
		Repo:      r,
		Tokens:    tokens.NewService("access-secret", "refresh-secret", 5*time.Minute, time.Hour),
		Passwords: hash.New(hash.MinCost),
	}
	return svc, r
}

func seedUser(t *testing.T, r *repo.GormRepo, username, email string, staff bool) *models.User {
	t.Helper()

	u := &models.User{Username: username, Email: email, PasswordHash: "x", IsStaff: staff}
	require.NoError(t, r.CreateUser(context.Background(), u))
	return u
}
