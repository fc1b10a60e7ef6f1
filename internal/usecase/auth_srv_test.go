package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gym-backoffice/internal/data/entity"
	"gym-backoffice/internal/dto/request"
	"gym-backoffice/pkg/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const memberPhone = "+919876543210"

// plantOTP stores code as if it had been issued now.
func (h *harness) plantOTP(id int64, code string) {
	issuedAt := h.clock.Now()
	h.store.mutate(id, func(c *entity.Credentials) {
		c.OTPCode, c.OTPIssuedAt = &code, &issuedAt
	})
}

func TestVerifyOTPWithinWindow(t *testing.T) {
	h := newHarness(t)
	member := h.seed(t, entity.RoleUser, "", memberPhone, "")
	h.plantOTP(member.ID, "4821")

	h.clock.Advance(4 * time.Minute)
	resp, err := h.svc.Auth.VerifyOTP(context.Background(), &request.VerifyOTPRequest{Phone: memberPhone, OTP: "4821"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "RTU-01", resp.Identity.UniqueID)

	creds := h.store.credentials(member.ID)
	assert.Nil(t, creds.OTPCode)
	assert.Nil(t, creds.OTPIssuedAt)
	require.NotNil(t, creds.SessionToken)
	assert.Equal(t, resp.Token, *creds.SessionToken)

	_, err = h.svc.Auth.VerifyOTP(context.Background(), &request.VerifyOTPRequest{Phone: memberPhone, OTP: "4821"})
	assert.ErrorIs(t, err, ErrOTPMismatch, "replay of a consumed code")
}

func TestVerifyOTPExpired(t *testing.T) {
	h := newHarness(t)
	member := h.seed(t, entity.RoleUser, "", memberPhone, "")
	h.plantOTP(member.ID, "4821")

	h.clock.Advance(6 * time.Minute)
	_, err := h.svc.Auth.VerifyOTP(context.Background(), &request.VerifyOTPRequest{Phone: memberPhone, OTP: "4821"})
	assert.ErrorIs(t, err, ErrOTPExpired)
	assert.Nil(t, h.store.credentials(member.ID).SessionToken)
}

func TestVerifyOTPWrongCode(t *testing.T) {
	h := newHarness(t)
	member := h.seed(t, entity.RoleUser, "", memberPhone, "")
	h.plantOTP(member.ID, "4821")

	h.clock.Advance(time.Minute)
	_, err := h.svc.Auth.VerifyOTP(context.Background(), &request.VerifyOTPRequest{Phone: memberPhone, OTP: "0000"})
	assert.ErrorIs(t, err, ErrOTPMismatch)
	require.NotNil(t, h.store.credentials(member.ID).OTPCode, "wrong guess keeps the code")
}

func TestVerifyOTPUnknownPhone(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Auth.VerifyOTP(context.Background(), &request.VerifyOTPRequest{Phone: memberPhone, OTP: "1234"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVerifyOTPConcurrentDuplicatesIssueOneSession(t *testing.T) {
	h := newHarness(t)
	member := h.seed(t, entity.RoleUser, "", memberPhone, "")
	h.plantOTP(member.ID, "4821")

	const attempts = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		tokens  []string
		replays int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := h.svc.Auth.VerifyOTP(context.Background(), &request.VerifyOTPRequest{Phone: memberPhone, OTP: "4821"})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if errors.Is(err, ErrOTPMismatch) {
					replays++
				}
				return
			}
			tokens = append(tokens, resp.Token)
		}()
	}
	wg.Wait()

	require.Len(t, tokens, 1)
	assert.Equal(t, attempts-1, replays)
	assert.Equal(t, tokens[0], *h.store.credentials(member.ID).SessionToken)
}

func TestRequestOTPSendsCode(t *testing.T) {
	h := newHarness(t)
	member := h.seed(t, entity.RoleUser, "", memberPhone, "")
	device := "push-1"

	resp, err := h.svc.Auth.RequestOTP(context.Background(), &request.OTPRequest{
		UniqueID:    "rtu-01",
		Phone:       "9876543210",
		DeviceToken: &device,
	})
	require.NoError(t, err)
	assert.True(t, resp.OTPSent)
	assert.Empty(t, resp.OTP)

	creds := h.store.credentials(member.ID)
	require.NotNil(t, creds.OTPCode)
	require.NotNil(t, creds.DeviceToken)
	assert.Equal(t, device, *creds.DeviceToken)

	msg := h.notifier.last()
	assert.Equal(t, notify.ChannelSMS, msg.Channel)
	assert.Equal(t, memberPhone, msg.To)
	assert.Contains(t, msg.Body, *creds.OTPCode)

	_, err = h.svc.Auth.VerifyOTP(context.Background(), &request.VerifyOTPRequest{Phone: memberPhone, OTP: *creds.OTPCode})
	assert.NoError(t, err)
}

func TestRequestOTPRejectsPublicIDWithOtherPhone(t *testing.T) {
	h := newHarness(t)
	h.seed(t, entity.RoleUser, "", memberPhone, "")

	_, err := h.svc.Auth.RequestOTP(context.Background(), &request.OTPRequest{UniqueID: "RTU-01", Phone: "+911111111111"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRequestOTPDeactivated(t *testing.T) {
	h := newHarness(t)
	member := h.seed(t, entity.RoleUser, "", memberPhone, "")
	_, err := fakeIdentityRepo{h.store}.SetActive(context.Background(), member.ID, false)
	require.NoError(t, err)

	_, err = h.svc.Auth.RequestOTP(context.Background(), &request.OTPRequest{Phone: memberPhone})
	assert.ErrorIs(t, err, ErrDeactivated)
}

func TestRequestOTPDispatchFailure(t *testing.T) {
	t.Run("development echoes the code", func(t *testing.T) {
		h := newHarness(t)
		member := h.seed(t, entity.RoleUser, "", memberPhone, "")
		h.notifier.err = errors.New("twilio down")

		resp, err := h.svc.Auth.RequestOTP(context.Background(), &request.OTPRequest{Phone: memberPhone})
		require.NoError(t, err)
		assert.False(t, resp.OTPSent)
		assert.Equal(t, *h.store.credentials(member.ID).OTPCode, resp.OTP)
	})

	t.Run("production surfaces dispatch error", func(t *testing.T) {
		h := newHarness(t)
		h.config.App.Env = "production"
		member := h.seed(t, entity.RoleUser, "", memberPhone, "")
		h.notifier.err = errors.New("twilio down")

		resp, err := h.svc.Auth.RequestOTP(context.Background(), &request.OTPRequest{Phone: memberPhone})
		assert.ErrorIs(t, err, ErrDispatchFailed)
		assert.Nil(t, resp)
		assert.NotNil(t, h.store.credentials(member.ID).OTPCode, "code stays valid for resend")
	})
}

func TestResendOTPReplacesCode(t *testing.T) {
	h := newHarness(t)
	member := h.seed(t, entity.RoleUser, "", memberPhone, "")
	h.plantOTP(member.ID, "4821")
	h.clock.Advance(6 * time.Minute)

	_, err := h.svc.Auth.ResendOTP(context.Background(), &request.ResendOTPRequest{Phone: memberPhone})
	require.NoError(t, err)

	code := *h.store.credentials(member.ID).OTPCode
	_, err = h.svc.Auth.VerifyOTP(context.Background(), &request.VerifyOTPRequest{Phone: memberPhone, OTP: code})
	assert.NoError(t, err)
}

func TestLoginWithPassword(t *testing.T) {
	h := newHarness(t)
	owner := h.seed(t, entity.RoleGymOwner, "owner@gym.test", "", "s3cret!")
	ctx := context.Background()

	for _, identifier := range []string{"owner@gym.test", "OWNER@gym.test", "RT-01", "rt-01"} {
		resp, err := h.svc.Auth.LoginWithPassword(ctx, entity.TrackGymOwner, &request.PasswordLoginRequest{Identifier: identifier, Password: "s3cret!"})
		require.NoError(t, err, identifier)
		assert.Equal(t, owner.ID, resp.Identity.ID)
		assert.NotEmpty(t, resp.RefreshToken)

		claims, err := h.issuer.VerifyAccessToken(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, owner.ID, claims.IdentityID)
		assert.Equal(t, string(entity.RoleGymOwner), claims.Role)
	}
}

func TestLoginWithPasswordFailuresAreIndistinguishable(t *testing.T) {
	h := newHarness(t)
	h.seed(t, entity.RoleGymOwner, "owner@gym.test", "", "s3cret!")
	h.seed(t, entity.RoleGymOwner, "nopass@gym.test", "", "")
	ctx := context.Background()

	cases := []request.PasswordLoginRequest{
		{Identifier: "owner@gym.test", Password: "wrong"},
		{Identifier: "ghost@gym.test", Password: "s3cret!"},
		{Identifier: "nopass@gym.test", Password: "anything"},
	}
	for _, req := range cases {
		_, err := h.svc.Auth.LoginWithPassword(ctx, entity.TrackGymOwner, &req)
		assert.ErrorIs(t, err, ErrInvalidCredentials, req.Identifier)
		assert.Equal(t, ErrInvalidCredentials.Error(), err.Error())
	}

	_, err := h.svc.Auth.LoginWithPassword(ctx, entity.TrackAdmin, &request.PasswordLoginRequest{Identifier: "owner@gym.test", Password: "s3cret!"})
	assert.ErrorIs(t, err, ErrInvalidCredentials, "tracks do not share identities")
}

func TestLoginWithPasswordDeactivated(t *testing.T) {
	h := newHarness(t)
	owner := h.seed(t, entity.RoleGymOwner, "owner@gym.test", "", "s3cret!")
	_, err := fakeIdentityRepo{h.store}.SetActive(context.Background(), owner.ID, false)
	require.NoError(t, err)

	_, err = h.svc.Auth.LoginWithPassword(context.Background(), entity.TrackGymOwner, &request.PasswordLoginRequest{Identifier: "owner@gym.test", Password: "s3cret!"})
	assert.ErrorIs(t, err, ErrDeactivated)
}

func TestRefresh(t *testing.T) {
	h := newHarness(t)
	h.seed(t, entity.RoleAdmin, "admin@gym.test", "", "s3cret!")
	ctx := context.Background()

	login, err := h.svc.Auth.LoginWithPassword(ctx, entity.TrackAdmin, &request.PasswordLoginRequest{Identifier: "admin@gym.test", Password: "s3cret!"})
	require.NoError(t, err)

	h.clock.Advance(time.Hour)
	refreshed, err := h.svc.Auth.Refresh(ctx, entity.TrackAdmin, &request.RefreshRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.Token, refreshed.Token)
	assert.Empty(t, refreshed.RefreshToken)

	_, err = h.svc.Session.Authorize(ctx, login.Token, ModeDBBacked)
	assert.ErrorIs(t, err, ErrTokenRevoked)
	_, err = h.svc.Session.Authorize(ctx, refreshed.Token, ModeDBBacked)
	assert.NoError(t, err)

	_, err = h.svc.Auth.Refresh(ctx, entity.TrackAdmin, &request.RefreshRequest{RefreshToken: login.Token})
	assert.ErrorIs(t, err, ErrTokenInvalid, "access token is not a refresh token")

	_, err = h.svc.Auth.Refresh(ctx, entity.TrackGymOwner, &request.RefreshRequest{RefreshToken: login.RefreshToken})
	assert.ErrorIs(t, err, ErrTokenInvalid, "refresh token from another track")

	h.clock.Advance(31 * 24 * time.Hour)
	_, err = h.svc.Auth.Refresh(ctx, entity.TrackAdmin, &request.RefreshRequest{RefreshToken: login.RefreshToken})
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestRefreshAfterLogoutIsRevoked(t *testing.T) {
	h := newHarness(t)
	admin := h.seed(t, entity.RoleAdmin, "admin@gym.test", "", "s3cret!")
	ctx := context.Background()

	login, err := h.svc.Auth.LoginWithPassword(ctx, entity.TrackAdmin, &request.PasswordLoginRequest{Identifier: "admin@gym.test", Password: "s3cret!"})
	require.NoError(t, err)
	claims, err := h.svc.Session.Authorize(ctx, login.Token, ModeDBBacked)
	require.NoError(t, err)
	require.NoError(t, h.svc.Session.Logout(ctx, login.Token, claims))

	_, err = h.svc.Auth.Refresh(ctx, entity.TrackAdmin, &request.RefreshRequest{RefreshToken: login.RefreshToken})
	assert.ErrorIs(t, err, ErrTokenRevoked)
	assert.Nil(t, h.store.credentials(admin.ID).SessionToken, "no session is recreated")
}

func TestRefreshAfterRevokeIsRevoked(t *testing.T) {
	h := newHarness(t)
	owner := h.seed(t, entity.RoleGymOwner, "owner@gym.test", "", "s3cret!")
	ctx := context.Background()

	login, err := h.svc.Auth.LoginWithPassword(ctx, entity.TrackGymOwner, &request.PasswordLoginRequest{Identifier: "owner@gym.test", Password: "s3cret!"})
	require.NoError(t, err)
	require.NoError(t, h.svc.Session.Revoke(ctx, owner.ID))

	_, err = h.svc.Auth.Refresh(ctx, entity.TrackGymOwner, &request.RefreshRequest{RefreshToken: login.RefreshToken})
	assert.ErrorIs(t, err, ErrTokenRevoked)
	assert.Nil(t, h.store.credentials(owner.ID).SessionToken)
}

func TestRefreshAfterDeactivationAndReactivationIsRevoked(t *testing.T) {
	h := newHarness(t)
	owner := h.seed(t, entity.RoleGymOwner, "owner@gym.test", "", "s3cret!")
	ctx := context.Background()
	_, err := h.svc.Identity.CreateUser(ctx, owner.ID, &request.CreateUserRequest{Name: "Sam", Phone: memberPhone})
	require.NoError(t, err)
	member := int64(2)

	_, err = h.svc.Auth.RequestOTP(ctx, &request.OTPRequest{Phone: memberPhone})
	require.NoError(t, err)
	login, err := h.svc.Auth.VerifyOTP(ctx, &request.VerifyOTPRequest{Phone: memberPhone, OTP: *h.store.credentials(member).OTPCode})
	require.NoError(t, err)

	scope := Scope{Track: entity.TrackUser, GymOwnerID: &owner.ID}
	_, err = h.svc.Identity.SetActive(ctx, scope, member, false)
	require.NoError(t, err)

	_, err = h.svc.Auth.Refresh(ctx, entity.TrackUser, &request.RefreshRequest{RefreshToken: login.RefreshToken})
	assert.ErrorIs(t, err, ErrDeactivated)

	_, err = h.svc.Identity.SetActive(ctx, scope, member, true)
	require.NoError(t, err)

	_, err = h.svc.Auth.Refresh(ctx, entity.TrackUser, &request.RefreshRequest{RefreshToken: login.RefreshToken})
	assert.ErrorIs(t, err, ErrTokenRevoked, "reactivation does not revive the old login")
}

func TestRefreshOfSupersededLoginIsRevoked(t *testing.T) {
	h := newHarness(t)
	h.seed(t, entity.RoleAdmin, "admin@gym.test", "", "s3cret!")
	ctx := context.Background()
	creds := &request.PasswordLoginRequest{Identifier: "admin@gym.test", Password: "s3cret!"}

	first, err := h.svc.Auth.LoginWithPassword(ctx, entity.TrackAdmin, creds)
	require.NoError(t, err)
	h.clock.Advance(time.Second)
	second, err := h.svc.Auth.LoginWithPassword(ctx, entity.TrackAdmin, creds)
	require.NoError(t, err)

	_, err = h.svc.Auth.Refresh(ctx, entity.TrackAdmin, &request.RefreshRequest{RefreshToken: first.RefreshToken})
	assert.ErrorIs(t, err, ErrTokenRevoked)

	refreshed, err := h.svc.Auth.Refresh(ctx, entity.TrackAdmin, &request.RefreshRequest{RefreshToken: second.RefreshToken})
	require.NoError(t, err)
	_, err = h.svc.Session.Authorize(ctx, refreshed.Token, ModeDBBacked)
	assert.NoError(t, err)
}
