package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"gym-backoffice/internal/data/entity"
	"gym-backoffice/internal/data/repository"
	"gym-backoffice/pkg/denylist"
	"gym-backoffice/pkg/notify"
	"gym-backoffice/pkg/token"
	"gym-backoffice/pkg/utils"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memStore backs both fake repositories so credential writes are visible to
// identity reads the way two tables in one database would be.
type memStore struct {
	mu         sync.Mutex
	nextID     int64
	identities map[int64]*entity.Identity
	creds      map[int64]*entity.Credentials
	clock      clockwork.Clock
}

func newMemStore(clock clockwork.Clock) *memStore {
	return &memStore{
		identities: make(map[int64]*entity.Identity),
		creds:      make(map[int64]*entity.Credentials),
		clock:      clock,
	}
}

func (m *memStore) snapshot() map[int64]entity.Credentials {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int64]entity.Credentials, len(m.creds))
	for id, c := range m.creds {
		out[id] = *c
	}
	return out
}

func (m *memStore) credentials(id int64) entity.Credentials {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.creds[id]
}

func (m *memStore) mutate(id int64, fn func(c *entity.Credentials)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.creds[id])
}

func sameContact(a, b *string) bool {
	return a != nil && b != nil && *a == *b
}

// ---- identity repository ----

type fakeIdentityRepo struct{ *memStore }

func (f fakeIdentityRepo) Create(_ context.Context, identity *entity.Identity, creds *entity.Credentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, other := range f.identities {
		if other.Track != identity.Track {
			continue
		}
		if sameContact(other.Email, identity.Email) || sameContact(other.Phone, identity.Phone) {
			return repository.ErrDuplicate
		}
	}

	f.nextID++
	identity.ID = f.nextID
	identity.PublicID = entity.PublicIDFor(identity.Track, identity.ID)
	identity.CreatedAt = f.clock.Now()
	identity.UpdatedAt = identity.CreatedAt
	creds.IdentityID = identity.ID

	stored := *identity
	f.identities[identity.ID] = &stored
	storedCreds := *creds
	f.creds[identity.ID] = &storedCreds
	return nil
}

func (f fakeIdentityRepo) find(match func(*entity.Identity) bool) *entity.Identity {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, identity := range f.identities {
		if match(identity) {
			cp := *identity
			return &cp
		}
	}
	return nil
}

func (f fakeIdentityRepo) FindByID(_ context.Context, id int64) (*entity.Identity, error) {
	return f.find(func(i *entity.Identity) bool { return i.ID == id }), nil
}

func (f fakeIdentityRepo) FindByPublicID(_ context.Context, track entity.Track, publicID string) (*entity.Identity, error) {
	return f.find(func(i *entity.Identity) bool { return i.Track == track && i.PublicID == publicID }), nil
}

func (f fakeIdentityRepo) FindByEmail(_ context.Context, track entity.Track, email string) (*entity.Identity, error) {
	return f.find(func(i *entity.Identity) bool { return i.Track == track && sameContact(i.Email, &email) }), nil
}

func (f fakeIdentityRepo) FindByPhone(_ context.Context, track entity.Track, phone string) (*entity.Identity, error) {
	return f.find(func(i *entity.Identity) bool { return i.Track == track && sameContact(i.Phone, &phone) }), nil
}

func (f fakeIdentityRepo) matches(filter repository.ListFilter, i *entity.Identity) bool {
	if i.Track != filter.Track {
		return false
	}
	if filter.GymOwnerID != nil && (i.GymOwnerID == nil || *i.GymOwnerID != *filter.GymOwnerID) {
		return false
	}
	if filter.AdminID != nil && (i.AdminID == nil || *i.AdminID != *filter.AdminID) {
		return false
	}
	return true
}

func (f fakeIdentityRepo) List(_ context.Context, filter repository.ListFilter, limit, offset int) ([]*entity.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*entity.Identity
	for id := int64(1); id <= f.nextID; id++ {
		i, ok := f.identities[id]
		if !ok || !f.matches(filter, i) {
			continue
		}
		cp := *i
		out = append(out, &cp)
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f fakeIdentityRepo) Count(_ context.Context, filter repository.ListFilter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var n int64
	for _, i := range f.identities {
		if f.matches(filter, i) {
			n++
		}
	}
	return n, nil
}

func (f fakeIdentityRepo) SetActive(_ context.Context, id int64, active bool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.identities[id]
	if !ok {
		return false, nil
	}
	i.Active = active
	return true, nil
}

// ---- credential repository ----

type fakeCredentialRepo struct{ *memStore }

func (f fakeCredentialRepo) Get(_ context.Context, id int64) (*entity.Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.creds[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f fakeCredentialRepo) update(id int64, fn func(c *entity.Credentials) bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.creds[id]
	if !ok {
		return false
	}
	return fn(c)
}

func (f fakeCredentialRepo) StoreSession(_ context.Context, id int64, tok, refreshDigest string, deviceToken *string) error {
	f.update(id, func(c *entity.Credentials) bool {
		c.SessionToken, c.RefreshDigest = &tok, &refreshDigest
		if deviceToken != nil {
			c.DeviceToken = deviceToken
		}
		return true
	})
	return nil
}

func (f fakeCredentialRepo) RotateSession(_ context.Context, id int64, refreshDigest, tok string) (bool, error) {
	return f.update(id, func(c *entity.Credentials) bool {
		if c.RefreshDigest == nil || *c.RefreshDigest != refreshDigest {
			return false
		}
		c.SessionToken = &tok
		return true
	}), nil
}

func (f fakeCredentialRepo) ClearSession(_ context.Context, id int64, tok string) (bool, error) {
	return f.update(id, func(c *entity.Credentials) bool {
		if c.SessionToken == nil || *c.SessionToken != tok {
			return false
		}
		c.SessionToken, c.RefreshDigest = nil, nil
		return true
	}), nil
}

func (f fakeCredentialRepo) RevokeSession(_ context.Context, id int64) (*string, error) {
	var prev *string
	f.update(id, func(c *entity.Credentials) bool {
		prev, c.SessionToken, c.RefreshDigest = c.SessionToken, nil, nil
		return true
	})
	return prev, nil
}

func (f fakeCredentialRepo) SetOTP(_ context.Context, id int64, code string, issuedAt time.Time, deviceToken *string) error {
	f.update(id, func(c *entity.Credentials) bool {
		c.OTPCode, c.OTPIssuedAt = &code, &issuedAt
		if deviceToken != nil {
			c.DeviceToken = deviceToken
		}
		return true
	})
	return nil
}

func (f fakeCredentialRepo) ConsumeOTP(_ context.Context, id int64, code string, notBefore time.Time) (bool, error) {
	return f.update(id, func(c *entity.Credentials) bool {
		if c.OTPCode == nil || *c.OTPCode != code || c.OTPIssuedAt.Before(notBefore) {
			return false
		}
		c.OTPCode, c.OTPIssuedAt = nil, nil
		return true
	}), nil
}

func (f fakeCredentialRepo) SetResetToken(_ context.Context, id int64, tok string, expiresAt time.Time) error {
	f.update(id, func(c *entity.Credentials) bool {
		c.ResetToken, c.ResetExpiresAt = &tok, &expiresAt
		return true
	})
	return nil
}

func (f fakeCredentialRepo) RedeemResetToken(_ context.Context, id int64, tok, hash string, now time.Time) (bool, error) {
	return f.update(id, func(c *entity.Credentials) bool {
		if c.ResetToken == nil || *c.ResetToken != tok || now.After(*c.ResetExpiresAt) {
			return false
		}
		c.PasswordHash = &hash
		c.ResetToken, c.ResetExpiresAt = nil, nil
		c.MustChangePassword = false
		return true
	}), nil
}

func (f fakeCredentialRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	f.update(id, func(c *entity.Credentials) bool {
		c.PasswordHash = &hash
		c.ResetToken, c.ResetExpiresAt = nil, nil
		c.MustChangePassword = false
		return true
	})
	return nil
}

// ---- notifier ----

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (f *fakeNotifier) Send(_ context.Context, msg notify.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeNotifier) last() notify.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

// ---- harness ----

type harness struct {
	clock    *clockwork.FakeClock
	store    *memStore
	notifier *fakeNotifier
	config   *utils.Config
	issuer   *token.Issuer
	svc      *Service
}

func testConfig() *utils.Config {
	return &utils.Config{
		App: utils.AppConfig{Env: "development", PublicBaseURL: "https://gym.test"},
		JWT: utils.JWTConfig{
			AccessSecret:  "access-secret",
			RefreshSecret: "refresh-secret",
			Issuer:        "gym-backoffice",
			AdminTTL:      24 * time.Hour,
			GymOwnerTTL:   24 * time.Hour,
			UserTTL:       24 * time.Hour,
			RefreshTTL:    30 * 24 * time.Hour,
		},
		OTP:      utils.OTPConfig{ExpiryMinutes: 5, Length: 4},
		Password: utils.PasswordConfig{MinLength: 6, InviteTTLHours: 48, BcryptCost: 4},
		SMS:      utils.SMSConfig{DefaultCountryCode: "+91"},
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	clock := clockwork.NewFakeClockAt(time.Now().Truncate(time.Second))
	store := newMemStore(clock)
	config := testConfig()

	issuer, err := token.NewIssuer(token.Config{
		AccessSecret:  config.JWT.AccessSecret,
		RefreshSecret: config.JWT.RefreshSecret,
		Issuer:        config.JWT.Issuer,
		RefreshTTL:    config.JWT.RefreshTTL,
	})
	require.NoError(t, err)
	issuer.WithClock(clock.Now)

	deny := denylist.NewMemory()
	t.Cleanup(deny.Stop)

	notifier := &fakeNotifier{}
	deps := Deps{
		Repo: &repository.Repository{
			Identity:   fakeIdentityRepo{store},
			Credential: fakeCredentialRepo{store},
		},
		Issuer:   issuer,
		Notifier: notifier,
		DenyList: deny,
		Clock:    clock,
	}

	return &harness{
		clock:    clock,
		store:    store,
		notifier: notifier,
		config:   config,
		issuer:   issuer,
		svc:      NewService(deps, config, zap.NewNop()),
	}
}

// seed inserts an identity directly, with an optional password.
func (h *harness) seed(t *testing.T, role entity.Role, email, phone, password string) *entity.Identity {
	t.Helper()

	identity := &entity.Identity{Track: role.Track(), Role: role, Name: "Test " + string(role), Active: true}
	if email != "" {
		identity.Email = &email
	}
	if phone != "" {
		identity.Phone = &phone
	}
	creds := &entity.Credentials{}
	if password != "" {
		hash, err := utils.HashPassword(password, 4)
		require.NoError(t, err)
		creds.PasswordHash = &hash
	}

	require.NoError(t, fakeIdentityRepo{h.store}.Create(context.Background(), identity, creds))
	return identity
}
