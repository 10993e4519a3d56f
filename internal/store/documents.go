package store

import (
	"context"

	"github.com/longkidkoolstar/jsonviewer/internal/domain"
)

// Documents is the typed view of a Store used by the session controller.
// Missing keys load as empty values.
type Documents struct {
	store Store
}

func NewDocuments(s Store) *Documents {
	return &Documents{store: s}
}

// Store returns the underlying backend.
func (d *Documents) Store() Store { return d.store }

func (d *Documents) LoadSettings(ctx context.Context) (domain.Settings, error) {
	var s domain.Settings
	if _, err := d.store.Load(ctx, KeySettings, &s); err != nil {
		return domain.Settings{}, err
	}
	return s, nil
}

func (d *Documents) SaveSettings(ctx context.Context, s domain.Settings) error {
	return d.store.Save(ctx, KeySettings, s)
}

func (d *Documents) LoadStorages(ctx context.Context) (domain.Registry, error) {
	var r domain.Registry
	if _, err := d.store.Load(ctx, KeySavedStorages, &r); err != nil {
		return domain.Registry{}, err
	}
	return r, nil
}

// UpdateStorages applies fn to the stored registry and saves the result.
// Errors from fn are returned unchanged and nothing is written.
func (d *Documents) UpdateStorages(ctx context.Context, fn func(domain.Registry) (domain.Registry, error)) (domain.Registry, error) {
	var next domain.Registry
	err := d.store.Update(ctx, KeySavedStorages, func(load LoadFunc) (any, error) {
		var stored domain.Registry
		if _, err := load(&stored); err != nil {
			return nil, err
		}
		r, err := fn(stored)
		if err != nil {
			return nil, err
		}
		next = r
		return r, nil
	})
	if err != nil {
		return domain.Registry{}, err
	}
	return next, nil
}

func (d *Documents) LoadVersions(ctx context.Context) (domain.VersionsByURL, error) {
	var v domain.VersionsByURL
	if _, err := d.store.Load(ctx, KeyVersionsByURL, &v); err != nil {
		return nil, err
	}
	if v == nil {
		v = domain.VersionsByURL{}
	}
	return v, nil
}

// UpdateVersions applies fn to the stored history and returns the history
// fn produced. It is saved only when fn reports a change, so versions
// written by another process are picked up rather than overwritten.
func (d *Documents) UpdateVersions(ctx context.Context, fn func(domain.VersionsByURL) (domain.VersionsByURL, bool)) (domain.VersionsByURL, error) {
	var next domain.VersionsByURL
	err := d.store.Update(ctx, KeyVersionsByURL, func(load LoadFunc) (any, error) {
		stored := domain.VersionsByURL{}
		if _, err := load(&stored); err != nil {
			return nil, err
		}
		v, changed := fn(stored)
		next = v
		if !changed {
			return nil, nil
		}
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	if next == nil {
		next = domain.VersionsByURL{}
	}
	return next, nil
}
