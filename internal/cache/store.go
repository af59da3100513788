package cache

import (
	"context"

	"ca-backoffice/internal/license"
)

// CachedStore wraps a license.Store and serves the hot enforcement reads
// from Redis when available. License writes pass through and invalidate the
// status key, so a license swap is visible immediately on the writing node.
// Staff mutations happen outside this wrapper; the route layer invalidates
// the seat-count key, and the short TTL bounds staleness elsewhere.
type CachedStore struct {
	license.Store
	cache *Service
}

// activeLicenseEntry caches the active-license lookup, including the
// "none active" answer so an unlicensed install does not hit the
// database on every request.
type activeLicenseEntry struct {
	Found  bool            `json:"found"`
	Record *license.Record `json:"record,omitempty"`
}

// NewCachedStore wraps store with the cache service. A nil service returns
// the store unchanged.
func NewCachedStore(store license.Store, cache *Service) license.Store {
	if cache == nil {
		return store
	}
	return &CachedStore{Store: store, cache: cache}
}

func (c *CachedStore) GetActiveLicense(ctx context.Context) (*license.Record, error) {
	var entry activeLicenseEntry
	if err := c.cache.GetJSON(ctx, KeyLicenseStatus, &entry); err == nil {
		if !entry.Found {
			return nil, nil
		}
		return entry.Record, nil
	}
	rec, err := c.Store.GetActiveLicense(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.SetJSON(ctx, KeyLicenseStatus, activeLicenseEntry{Found: rec != nil, Record: rec}, LicenseStatusTTL)
	return rec, nil
}

func (c *CachedStore) CountActiveStaff(ctx context.Context) (int, error) {
	if n, err := c.cache.GetInt(ctx, KeyActiveStaffCount); err == nil {
		return n, nil
	}
	n, err := c.Store.CountActiveStaff(ctx)
	if err != nil {
		return 0, err
	}
	c.cache.SetInt(ctx, KeyActiveStaffCount, n, ActiveStaffTTL)
	return n, nil
}

func (c *CachedStore) ReplaceActiveLicense(ctx context.Context, rec *license.Record) (int64, error) {
	id, err := c.Store.ReplaceActiveLicense(ctx, rec)
	if err != nil {
		return 0, err
	}
	c.cache.Invalidate(ctx, KeyLicenseStatus)
	return id, nil
}

func (c *CachedStore) SetLicenseStatus(ctx context.Context, id int64, status string) error {
	if err := c.Store.SetLicenseStatus(ctx, id, status); err != nil {
		return err
	}
	c.cache.Invalidate(ctx, KeyLicenseStatus)
	return nil
}

func (c *CachedStore) ExpireActiveLicenses(ctx context.Context) (int64, error) {
	n, err := c.Store.ExpireActiveLicenses(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		c.cache.Invalidate(ctx, KeyLicenseStatus)
	}
	return n, nil
}
