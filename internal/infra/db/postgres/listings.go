package postgres

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainauth "rentgate/internal/domain/auth"
	domainlistings "rentgate/internal/domain/listings"
	"rentgate/internal/domain/shared/money"
	domainuser "rentgate/internal/domain/user"
)

type ListingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var m listingModel
	if err := conn(ctx, r.db).Where("id = ?", string(id)).Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainlistings.ErrNotFound
		}
		return nil, classify(err)
	}
	return m.toDomain(), nil
}

func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	m := newListingModel(listing)
	return classify(conn(ctx, r.db).Clauses(clause.OnConflict{UpdateAll: true}).Create(&m).Error)
}

func (r *ListingRepository) ListByHost(ctx context.Context, host domainlistings.HostID) ([]*domainlistings.Listing, error) {
	var rows []listingModel
	if err := conn(ctx, r.db).Where("host_id = ?", string(host)).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	out := make([]*domainlistings.Listing, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

func newListingModel(l *domainlistings.Listing) listingModel {
	return listingModel{
		ID:              string(l.ID),
		HostID:          string(l.Host),
		Title:           l.Title,
		City:            l.City,
		NightlyAmount:   l.NightlyPrice.Amount,
		NightlyCurrency: l.NightlyPrice.Currency,
		MonthlyAmount:   l.MonthlyPrice.Amount,
		MonthlyCurrency: l.MonthlyPrice.Currency,
		RentalMode:      string(l.RentalMode),
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}

func (m listingModel) toDomain() *domainlistings.Listing {
	return &domainlistings.Listing{
		ID:           domainlistings.ListingID(m.ID),
		Host:         domainlistings.HostID(m.HostID),
		Title:        m.Title,
		City:         m.City,
		NightlyPrice: money.Money{Amount: m.NightlyAmount, Currency: m.NightlyCurrency},
		MonthlyPrice: money.Money{Amount: m.MonthlyAmount, Currency: m.MonthlyCurrency},
		RentalMode:   domainlistings.RentalMode(m.RentalMode),
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) ByID(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	return r.take(ctx, "id = ?", string(id))
}

func (r *UserRepository) ByEmail(ctx context.Context, email string) (*domainuser.User, error) {
	return r.take(ctx, "email = ?", domainuser.NormalizeEmail(email))
}

func (r *UserRepository) take(ctx context.Context, query string, arg string) (*domainuser.User, error) {
	var m userModel
	if err := conn(ctx, r.db).Where(query, arg).Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainuser.ErrNotFound
		}
		return nil, classify(err)
	}
	return m.toDomain(), nil
}

func (r *UserRepository) Save(ctx context.Context, user *domainuser.User) error {
	if user == nil || strings.TrimSpace(string(user.ID)) == "" {
		return domainuser.ErrIDRequired
	}
	m := newUserModel(user)
	if m.Email == "" {
		return domainuser.ErrEmailRequired
	}
	err := conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&m).Error
	if uniqueViolationOn(err, "users_email_key") {
		return domainuser.ErrEmailTaken
	}
	return classify(err)
}

func newUserModel(u *domainuser.User) userModel {
	roles := make([]string, 0, len(u.Roles))
	for _, role := range u.Roles {
		roles = append(roles, string(role))
	}
	return userModel{
		ID:           string(u.ID),
		Email:        domainuser.NormalizeEmail(u.Email),
		Name:         u.Name,
		Phone:        u.Phone,
		PasswordHash: u.PasswordHash,
		Roles:        strings.Join(roles, ","),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (m userModel) toDomain() *domainuser.User {
	var roles []domainuser.Role
	for _, role := range strings.Split(m.Roles, ",") {
		if role = strings.TrimSpace(role); role != "" {
			roles = append(roles, domainuser.Role(role))
		}
	}
	return &domainuser.User{
		ID:           domainuser.ID(m.ID),
		Email:        m.Email,
		Name:         m.Name,
		Phone:        m.Phone,
		PasswordHash: m.PasswordHash,
		Roles:        roles,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

type SessionStore struct {
	db *gorm.DB
}

func NewSessionStore(db *gorm.DB) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) Save(ctx context.Context, session *domainauth.Session) error {
	if session == nil {
		return domainauth.ErrTokenRequired
	}
	m := sessionModel{
		Token:     string(session.Token),
		UserID:    string(session.UserID),
		CreatedAt: session.CreatedAt,
		ExpiresAt: session.ExpiresAt,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&m).Error
}

func (s *SessionStore) Get(ctx context.Context, token domainauth.Token) (*domainauth.Session, error) {
	var m sessionModel
	if err := s.db.WithContext(ctx).Where("token = ?", string(token)).Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainauth.ErrSessionNotFound
		}
		return nil, err
	}
	return &domainauth.Session{
		Token:     domainauth.Token(m.Token),
		UserID:    domainuser.ID(m.UserID),
		CreatedAt: m.CreatedAt.UTC(),
		ExpiresAt: m.ExpiresAt.UTC(),
	}, nil
}

func (s *SessionStore) Delete(ctx context.Context, token domainauth.Token) error {
	return s.db.WithContext(ctx).Where("token = ?", string(token)).Delete(&sessionModel{}).Error
}

var (
	_ domainlistings.Repository = (*ListingRepository)(nil)
	_ domainuser.Repository     = (*UserRepository)(nil)
	_ domainauth.SessionStore   = (*SessionStore)(nil)
)
