package ginserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authsvc "rentgate/internal/app/services/auth"
	"rentgate/internal/app/wiring"
	domainlistings "rentgate/internal/domain/listings"
	domainpricing "rentgate/internal/domain/pricing"
	"rentgate/internal/domain/shared/money"
	domainuser "rentgate/internal/domain/user"
	ginserver "rentgate/internal/infra/http/gin"
	"rentgate/internal/infra/obs"
	"rentgate/internal/infra/security"
	"rentgate/internal/infra/storage/memory"
	"rentgate/internal/infra/validation"
)

const password = "correct-horse"

func init() {
	gin.SetMode(gin.TestMode)
}

type server struct {
	router *gin.Engine
}

func newServer(t *testing.T) *server {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	factory := memory.NewFactory()
	hasher := security.BcryptHasher{Cost: 4}

	require.NoError(t, factory.ListingsRepo.Save(ctx, &domainlistings.Listing{
		ID:           "lst-1",
		Host:         "host-1",
		Title:        "Studio Plateau",
		NightlyPrice: money.Must(20000, "XOF"),
		RentalMode:   domainlistings.ModeShortTerm,
	}))
	hash, err := hasher.Hash(password)
	require.NoError(t, err)
	for _, u := range []struct {
		id, email string
		roles     []domainuser.Role
	}{
		{"guest-1", "awa@example.com", nil},
		{"guest-2", "moussa@example.com", nil},
		{"host-1", "fatou@example.com", []domainuser.Role{domainuser.RoleHost}},
		{"admin-1", "ops@example.com", []domainuser.Role{domainuser.RoleAdmin}},
	} {
		user, err := domainuser.NewUser(domainuser.CreateParams{
			ID: domainuser.ID(u.id), Name: u.id, Email: u.email, Phone: "+221700000000", PasswordHash: hash, Roles: u.roles,
		})
		require.NoError(t, err)
		require.NoError(t, factory.UsersRepo.Save(ctx, user))
	}

	receipts := memory.NewReceiptStore()
	buses, err := wiring.Build(wiring.Deps{
		UoW:         factory,
		Outbox:      factory.Outbox,
		Idempotency: memory.NewIdempotencyStore(time.Hour),
		Validator:   validation.New(),
		Pricing:     domainpricing.DefaultEngine(),
		Receipts:    receipts,
		Clock:       func() time.Time { return time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC) },
		Logger:      logger,
	})
	require.NoError(t, err)

	service := &authsvc.Service{
		Users:     factory.UsersRepo,
		Sessions:  memory.NewSessionStore(),
		Passwords: hasher,
		Tokens:    security.RandomTokenGenerator{},
		Logger:    logger,
	}
	router := ginserver.NewRouter(obs.Middleware{Logger: logger}, obs.HealthHandlers{}, ginserver.Handlers{
		Auth:           ginserver.AuthHandler{Service: service, Logger: logger},
		Reservations:   ginserver.ReservationHandler{Commands: buses.Commands, Queries: buses.Queries, Logger: logger},
		Transactions:   ginserver.TransactionHandler{Commands: buses.Commands, Queries: buses.Queries, Receipts: receipts, Logger: logger},
		Availability:   ginserver.AvailabilityHandler{Commands: buses.Commands, Queries: buses.Queries, Logger: logger},
		Quotes:         ginserver.QuoteHandler{Queries: buses.Queries, Logger: logger},
		AuthMiddleware: ginserver.AuthMiddleware{Service: service, Logger: logger}.Handle,
	})
	return &server{router: router}
}

func (s *server) do(t *testing.T, method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *server) login(t *testing.T, email string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func booking(start, end string, total int64) gin.H {
	return gin.H{"listing_id": "lst-1", "start_date": start, "end_date": end, "quoted_total": total}
}

func TestLoginMeAndLogout(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "awa@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := s.login(t, "Awa@Example.com")
	rec = s.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "awa@example.com", decode(t, rec)["email"])

	rec = s.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/reservations", "", booking("2025-06-01", "2025-06-04", 63000))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/v1/me/reservations", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateReservationMapsRejections(t *testing.T) {
	s := newServer(t)
	guest := s.login(t, "awa@example.com")
	other := s.login(t, "moussa@example.com")

	rec := s.do(t, http.MethodPost, "/api/v1/reservations", guest, booking("2025-06-01", "2025-06-04", 63000), "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode(t, rec)
	assert.Equal(t, "pending", created["status"])
	assert.True(t, strings.HasPrefix(created["code"].(string), "RS-"))

	replay := s.do(t, http.MethodPost, "/api/v1/reservations", guest, booking("2025-06-01", "2025-06-04", 63000), "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, created["id"], decode(t, replay)["id"])

	rec = s.do(t, http.MethodPost, "/api/v1/reservations", other, booking("2025-06-03", "2025-06-05", 42000))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "DATES_UNAVAILABLE", decode(t, rec)["reason"])

	rec = s.do(t, http.MethodPost, "/api/v1/reservations", other, booking("2025-06-04", "2025-06-06", 1))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "PRICE_MISMATCH", decode(t, rec)["reason"])

	rec = s.do(t, http.MethodPost, "/api/v1/reservations", other, booking("2025-06-06", "2025-06-04", 42000))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_RANGE", decode(t, rec)["reason"])

	rec = s.do(t, http.MethodPost, "/api/v1/reservations", other, gin.H{"listing_id": "missing", "start_date": "2025-06-04", "end_date": "2025-06-06", "quoted_total": 42000})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/reservations", other, booking("2025-06-04", "2025-06-06", 42000))
	assert.Equal(t, http.StatusCreated, rec.Code, "checkout day stays bookable")
}

func TestReservationLifecycleOverHTTP(t *testing.T) {
	s := newServer(t)
	guest := s.login(t, "awa@example.com")
	host := s.login(t, "fatou@example.com")
	admin := s.login(t, "ops@example.com")

	rec := s.do(t, http.MethodPost, "/api/v1/reservations", guest, booking("2025-06-01", "2025-06-04", 63000))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode(t, rec)["id"].(string)
	base := "/api/v1/reservations/" + id

	rec = s.do(t, http.MethodPatch, base, guest, gin.H{"status": "confirmed"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decode(t, rec)["reason"])

	rec = s.do(t, http.MethodPatch, base, host, gin.H{"status": "confirmed"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "confirmed", decode(t, rec)["status"])

	rec = s.do(t, http.MethodPatch, base, host, gin.H{"status": "confirmed"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ALREADY_IN_TARGET_STATE", decode(t, rec)["reason"])

	rec = s.do(t, http.MethodPatch, base+"/validate-arrival", guest, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "MISSING_SUCCESSFUL_TRANSACTION", decode(t, rec)["reason"])

	rec = s.do(t, http.MethodGet, base+"/contact", guest, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, base+"/transactions", guest, gin.H{"method": "momo", "reference": "OM-1", "payer_number": "+221700000001"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	txID := decode(t, rec)["id"].(string)

	rec = s.do(t, http.MethodPatch, "/api/v1/transactions/"+txID, host, gin.H{"processing_status": "succeeded"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPatch, "/api/v1/transactions/"+txID, admin, gin.H{"processing_status": "succeeded", "settlement_status": "paid"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, base+"/transactions", host, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	latest := decode(t, rec)["latest"].(map[string]any)
	assert.Equal(t, "paid", latest["settlement_status"])

	rec = s.do(t, http.MethodGet, base+"/contact", guest, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "fatou@example.com", decode(t, rec)["email"])

	rec = s.do(t, http.MethodPatch, base+"/validate-arrival", guest, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "validated", decode(t, rec)["client_arrival_status"])

	rec = s.do(t, http.MethodPatch, base+"/confirm-payment", host, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/v1/host/reservations?status=confirmed", host, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["items"], 1)

	rec = s.do(t, http.MethodGet, "/api/v1/host/reservations?status=bogus", host, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelArchiveAndListing(t *testing.T) {
	s := newServer(t)
	guest := s.login(t, "awa@example.com")
	host := s.login(t, "fatou@example.com")

	rec := s.do(t, http.MethodPost, "/api/v1/reservations", guest, booking("2025-06-01", "2025-06-04", 63000))
	require.Equal(t, http.StatusCreated, rec.Code)
	base := "/api/v1/reservations/" + decode(t, rec)["id"].(string)

	rec = s.do(t, http.MethodPatch, base+"/archive", host, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPatch, base+"/cancel", guest, gin.H{"reason": "plans changed"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "cancelled", decode(t, rec)["status"])

	rec = s.do(t, http.MethodGet, "/api/v1/availability/lst-1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(t, rec)["unavailable_dates"])

	rec = s.do(t, http.MethodPatch, base+"/archive", guest, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(t, http.MethodPatch, base+"/archive", host, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["archived"])
	rec = s.do(t, http.MethodPatch, base+"/archive", host, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/me/reservations", guest, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(t, rec)["items"])
	rec = s.do(t, http.MethodGet, "/api/v1/me/reservations?archived=true", guest, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["items"], 1)

	rec = s.do(t, http.MethodGet, "/api/v1/reservations/unknown", guest, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAvailabilityOverridesAndCalendar(t *testing.T) {
	s := newServer(t)
	host := s.login(t, "fatou@example.com")
	guest := s.login(t, "awa@example.com")

	update := gin.H{"listing_id": "lst-1", "dates": []string{"2025-07-01", "2025-07-02"}, "is_available": false}
	rec := s.do(t, http.MethodPost, "/api/v1/availability/update", guest, update)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/availability/update", host, gin.H{"listing_id": "lst-1", "dates": []string{"2025-07-01"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/availability/update", host, update)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/v1/availability/lst-1?from=2025-07-01&to=2025-07-31", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, []any{"2025-07-01", "2025-07-02"}, body["unavailable_dates"])
	assert.Nil(t, body["blocks"], "anonymous viewers do not see block sources")

	rec = s.do(t, http.MethodGet, "/api/v1/availability/lst-1", host, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["blocks"])

	rec = s.do(t, http.MethodPost, "/api/v1/reservations", guest, booking("2025-06-30", "2025-07-02", 42000))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/availability/lst-1?from=07/01/2025", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuotePreview(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/listings/lst-1/quote?start=2025-06-01&end=2025-06-04", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	total := decode(t, rec)["total_price"].(map[string]any)
	assert.EqualValues(t, 63000, total["amount"])

	rec = s.do(t, http.MethodGet, "/api/v1/listings/missing/quote?start=2025-06-01&end=2025-06-04", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReceiptUploadIsServedToAdmins(t *testing.T) {
	s := newServer(t)
	guest := s.login(t, "awa@example.com")
	admin := s.login(t, "ops@example.com")

	rec := s.do(t, http.MethodPost, "/api/v1/reservations", guest, booking("2025-06-01", "2025-06-04", 63000))
	require.Equal(t, http.StatusCreated, rec.Code)
	resID := decode(t, rec)["id"].(string)
	rec = s.do(t, http.MethodPost, "/api/v1/reservations/"+resID+"/transactions", guest, gin.H{"method": "momo"})
	require.Equal(t, http.StatusCreated, rec.Code)
	txID := decode(t, rec)["id"].(string)

	image := []byte("\x89PNG\r\n\x1a\nproof")
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="proof.png"`)
	header.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(image)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/"+txID+"/receipt", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+guest)
	upload := httptest.NewRecorder()
	s.router.ServeHTTP(upload, req)
	require.Equal(t, http.StatusOK, upload.Code, upload.Body.String())
	url := decode(t, upload)["receipt_url"].(string)
	require.True(t, strings.HasPrefix(url, "memory://"))
	key := strings.TrimPrefix(url, "memory://")

	rec = s.do(t, http.MethodGet, "/api/v1/receipts/"+key, guest, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/receipts/"+key, admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, image, rec.Body.Bytes())

	rec = s.do(t, http.MethodGet, "/api/v1/receipts/receipts/none.png", admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndRequestID(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodGet, "/livez", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(obs.RequestIDHeader))

	rec = s.do(t, http.MethodGet, "/readyz", "", nil, obs.RequestIDHeader, "req-42")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-42", rec.Header().Get(obs.RequestIDHeader))
}
