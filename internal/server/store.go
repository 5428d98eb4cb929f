// Package server exposes stored sessions over HTTP.
package server

import (
	"context"

	"github.com/codewalk-dev/codewalk/internal/session"
)

// Store is the session storage surface the HTTP handlers run against. The
// disk adapter wraps the CLI's local store; the redis store serves deployments
// where several instances share one backend. Both report absence with
// session.ErrNotFound and duplicates with session.ErrExists.
type Store interface {
	Save(ctx context.Context, r *session.Recording) error
	Load(ctx context.Context, id string) (*session.Recording, error)
	List(ctx context.Context) ([]session.Meta, error)
	Delete(ctx context.Context, id string) error
}

// DiskStore adapts the local session store to the server interface.
type DiskStore struct {
	Local session.Store
}

func (d *DiskStore) Save(_ context.Context, r *session.Recording) error {
	return d.Local.Save(r)
}

func (d *DiskStore) Load(_ context.Context, id string) (*session.Recording, error) {
	return d.Local.Load(id)
}

func (d *DiskStore) List(_ context.Context) ([]session.Meta, error) {
	return d.Local.List()
}

func (d *DiskStore) Delete(_ context.Context, id string) error {
	return d.Local.Delete(id)
}
