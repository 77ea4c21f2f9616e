package fixtures_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainlistings "rentgate/internal/domain/listings"
	domainuser "rentgate/internal/domain/user"
	"rentgate/internal/infra/fixtures"
	"rentgate/internal/infra/security"
	"rentgate/internal/infra/storage/memory"
)

const sample = `{
  "users": [
    {"id": "host-1", "email": "Fatou@Example.com", "name": "Fatou", "password": "host-password", "roles": ["host"]},
    {"id": "bad", "email": "", "name": "No Mail", "password": "whatever-pass"}
  ],
  "listings": [
    {"id": "lst-1", "host": "host-1", "title": "Studio", "rental_mode": "short_term", "nightly_price": 20000},
    {"id": "lst-2", "host": "host-1", "title": "Villa", "rental_mode": "monthly", "monthly_price": 300000, "currency": "eur"},
    {"id": "lst-3", "host": "host-1", "title": "Broken", "rental_mode": "weekly", "nightly_price": 1}
  ]
}`

func newLoader() (fixtures.Loader, *memory.UserRepository, *memory.ListingRepository) {
	users := memory.NewUserRepository()
	listings := memory.NewListingRepository()
	return fixtures.Loader{
		Users:     users,
		Listings:  listings,
		Passwords: security.BcryptHasher{Cost: 4},
		Currency:  "XOF",
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, users, listings
}

func TestLoadImportsValidEntries(t *testing.T) {
	loader, users, listings := newLoader()
	ctx := context.Background()

	sum, err := loader.Load(ctx, strings.NewReader(sample))
	require.NoError(t, err)
	assert.Equal(t, fixtures.Summary{Users: 1, Listings: 2, Skipped: 2}, sum)

	host, err := users.ByEmail(ctx, "fatou@example.com")
	require.NoError(t, err)
	assert.True(t, host.HasRole(domainuser.RoleHost))
	require.NoError(t, security.BcryptHasher{}.Compare(host.PasswordHash, "host-password"))

	studio, err := listings.ByID(ctx, "lst-1")
	require.NoError(t, err)
	assert.Equal(t, "XOF", studio.NightlyPrice.Currency)
	villa, err := listings.ByID(ctx, "lst-2")
	require.NoError(t, err)
	assert.Equal(t, domainlistings.ModeMonthly, villa.RentalMode)
	assert.Equal(t, "EUR", villa.MonthlyPrice.Currency)
}

func TestLoadKeepsExistingUsers(t *testing.T) {
	loader, users, _ := newLoader()
	ctx := context.Background()

	_, err := loader.Load(ctx, strings.NewReader(sample))
	require.NoError(t, err)
	before, err := users.ByID(ctx, "host-1")
	require.NoError(t, err)

	sum, err := loader.Load(ctx, strings.NewReader(sample))
	require.NoError(t, err)
	assert.Zero(t, sum.Users)
	after, err := users.ByID(ctx, "host-1")
	require.NoError(t, err)
	assert.Equal(t, before.PasswordHash, after.PasswordHash)
}

func TestLoadFile(t *testing.T) {
	loader, _, listings := newLoader()
	ctx := context.Background()

	sum, err := loader.LoadFile(ctx, filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Zero(t, sum)

	path := filepath.Join(t.TempDir(), "sample.json")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))
	sum, err = loader.LoadFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Listings)
	_, err = listings.ByID(ctx, "lst-2")
	assert.NoError(t, err)

	_, err = loader.Load(ctx, strings.NewReader("{not json"))
	assert.Error(t, err)
}
