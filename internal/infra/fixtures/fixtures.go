// Package fixtures seeds users and listings at start-up. Listing management and
// sign-up live in other services, so a JSON file is the only way in.
package fixtures

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	domainlistings "rentgate/internal/domain/listings"
	"rentgate/internal/domain/shared/money"
	domainuser "rentgate/internal/domain/user"
)

var ErrRepositoriesRequired = errors.New("fixtures: user and listing repositories required")

type PasswordHasher interface {
	Hash(password string) (string, error)
}

type Loader struct {
	Users     domainuser.Repository
	Listings  domainlistings.Repository
	Passwords PasswordHasher
	Currency  string
	Now       func() time.Time
	Logger    *slog.Logger
}

type Summary struct {
	Users    int
	Listings int
	Skipped  int
}

type document struct {
	Users    []userFixture    `json:"users"`
	Listings []listingFixture `json:"listings"`
}

type userFixture struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	Phone    string   `json:"phone"`
	Password string   `json:"password"`
	Roles    []string `json:"roles"`
}

type listingFixture struct {
	ID           string `json:"id"`
	Host         string `json:"host"`
	Title        string `json:"title"`
	City         string `json:"city"`
	RentalMode   string `json:"rental_mode"`
	NightlyPrice int64  `json:"nightly_price"`
	MonthlyPrice int64  `json:"monthly_price"`
	Currency     string `json:"currency"`
}

// LoadFile reads path; a missing file is not an error.
func (l Loader) LoadFile(ctx context.Context, path string) (Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			l.logger().Info("fixtures file not found, skipping", "path", path)
			return Summary{}, nil
		}
		return Summary{}, fmt.Errorf("open fixtures: %w", err)
	}
	defer f.Close()
	return l.Load(ctx, f)
}

// Load imports every fixture it can. Invalid entries are logged and skipped; users
// that already exist keep their stored password hash.
func (l Loader) Load(ctx context.Context, r io.Reader) (Summary, error) {
	if l.Users == nil || l.Listings == nil {
		return Summary{}, ErrRepositoriesRequired
	}
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return Summary{}, nil
		}
		return Summary{}, fmt.Errorf("decode fixtures: %w", err)
	}
	logger := l.logger()
	now := l.now()

	var sum Summary
	for _, fx := range doc.Users {
		created, err := l.importUser(ctx, fx, now)
		if err != nil {
			logger.Error("user fixture rejected", "user_id", fx.ID, "error", err)
			sum.Skipped++
			continue
		}
		if created {
			sum.Users++
		}
	}
	for _, fx := range doc.Listings {
		if err := l.importListing(ctx, fx, now); err != nil {
			logger.Error("listing fixture rejected", "listing_id", fx.ID, "error", err)
			sum.Skipped++
			continue
		}
		sum.Listings++
	}
	logger.Info("fixtures imported", "users", sum.Users, "listings", sum.Listings, "skipped", sum.Skipped)
	return sum, nil
}

func (l Loader) importUser(ctx context.Context, fx userFixture, now time.Time) (bool, error) {
	_, err := l.Users.ByID(ctx, domainuser.ID(strings.TrimSpace(fx.ID)))
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, domainuser.ErrNotFound) {
		return false, err
	}
	if l.Passwords == nil {
		return false, errors.New("fixtures: password hasher required")
	}
	hash, err := l.Passwords.Hash(fx.Password)
	if err != nil {
		return false, err
	}
	roles := make([]domainuser.Role, 0, len(fx.Roles))
	for _, r := range fx.Roles {
		roles = append(roles, domainuser.Role(r))
	}
	user, err := domainuser.NewUser(domainuser.CreateParams{
		ID:           domainuser.ID(fx.ID),
		Email:        fx.Email,
		Name:         fx.Name,
		Phone:        fx.Phone,
		PasswordHash: hash,
		Roles:        roles,
		CreatedAt:    now,
	})
	if err != nil {
		return false, err
	}
	if err := l.Users.Save(ctx, user); err != nil {
		return false, err
	}
	return true, nil
}

func (l Loader) importListing(ctx context.Context, fx listingFixture, now time.Time) error {
	mode, err := domainlistings.ParseRentalMode(fx.RentalMode)
	if err != nil {
		return err
	}
	currency := strings.ToUpper(strings.TrimSpace(fx.Currency))
	if currency == "" {
		currency = l.Currency
	}
	params := domainlistings.CreateParams{
		ID:         domainlistings.ListingID(fx.ID),
		Host:       domainlistings.HostID(fx.Host),
		Title:      fx.Title,
		City:       fx.City,
		RentalMode: mode,
		Now:        now,
	}
	if fx.NightlyPrice > 0 {
		if params.NightlyPrice, err = money.New(fx.NightlyPrice, currency); err != nil {
			return err
		}
	}
	if fx.MonthlyPrice > 0 {
		if params.MonthlyPrice, err = money.New(fx.MonthlyPrice, currency); err != nil {
			return err
		}
	}
	listing, err := domainlistings.NewListing(params)
	if err != nil {
		return err
	}
	return l.Listings.Save(ctx, listing)
}

func (l Loader) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

func (l Loader) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}
