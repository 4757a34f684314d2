package authflow

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/securevault/securevault/internal/client/api"
	"github.com/securevault/securevault/internal/client/session"
	"github.com/securevault/securevault/internal/logging"
)

// ---- fakes ----

// fakeAPI implements API for flow tests; each call records its request and
// returns the configured result.
type fakeAPI struct {
	signupResp *api.SignupResponse
	signupErr  error
	signupReq  api.SignupRequest
	signupN    int

	resendErr   error
	resendEmail string
	resendN     int

	confirmResp *api.ChallengeResponse
	confirmErr  error
	confirmReq  api.ConfirmSignupRequest

	setupStartResp *api.MfaSetupStartResponse
	setupStartErr  error
	setupStartReq  api.MfaSetupStartRequest

	setupVerifyResp *api.ChallengeResponse
	setupVerifyErr  error
	setupVerifyReq  api.MfaSetupVerifyRequest

	loginResp *api.LoginResponse
	loginErr  error
	loginReq  api.LoginRequest

	loginMFAResp *api.LoginMFAResponse
	loginMFAErr  error
	loginMFAReq  api.LoginMFARequest
}

func (f *fakeAPI) Signup(_ context.Context, req api.SignupRequest) (*api.SignupResponse, error) {
	f.signupN++
	f.signupReq = req
	return f.signupResp, f.signupErr
}

func (f *fakeAPI) ResendConfirmation(_ context.Context, email string) error {
	f.resendN++
	f.resendEmail = email
	return f.resendErr
}

func (f *fakeAPI) ConfirmSignup(_ context.Context, req api.ConfirmSignupRequest) (*api.ChallengeResponse, error) {
	f.confirmReq = req
	return f.confirmResp, f.confirmErr
}

func (f *fakeAPI) MfaSetupStart(_ context.Context, req api.MfaSetupStartRequest) (*api.MfaSetupStartResponse, error) {
	f.setupStartReq = req
	return f.setupStartResp, f.setupStartErr
}

func (f *fakeAPI) MfaSetupVerify(_ context.Context, req api.MfaSetupVerifyRequest) (*api.ChallengeResponse, error) {
	f.setupVerifyReq = req
	return f.setupVerifyResp, f.setupVerifyErr
}

func (f *fakeAPI) Login(_ context.Context, req api.LoginRequest) (*api.LoginResponse, error) {
	f.loginReq = req
	return f.loginResp, f.loginErr
}

func (f *fakeAPI) LoginMFA(_ context.Context, req api.LoginMFARequest) (*api.LoginMFAResponse, error) {
	f.loginMFAReq = req
	return f.loginMFAResp, f.loginMFAErr
}

type fakeSession struct {
	token   string
	user    *session.User
	setN    int
	cleared bool
}

func (f *fakeSession) Set(token string, user *session.User) error {
	f.setN++
	f.token = token
	f.user = user
	return nil
}

func (f *fakeSession) Clear() error {
	f.token = ""
	f.user = nil
	f.cleared = true
	return nil
}

func newFlow(fa *fakeAPI, fs *fakeSession) *Flow {
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewFlow(fa, fs, log)
}

// ---- signup / confirmation ----

func TestSignUp_Success(t *testing.T) {
	fa := &fakeAPI{signupResp: &api.SignupResponse{RequiresConfirmation: true}}
	f := newFlow(fa, &fakeSession{})

	err := f.SignUp(context.Background(), " Alice ", "Alice@Example.ORG", "Abcdef1!", "Abcdef1!")
	require.NoError(t, err)

	assert.Equal(t, StatePendingConfirmation, f.State())
	assert.Equal(t, "alice@example.org", f.Email())
	assert.Equal(t, "Alice", fa.signupReq.Name)
	assert.Equal(t, "alice@example.org", fa.signupReq.Email)
	assert.NotEmpty(t, f.Notice())
}

func TestSignUp_PasswordPolicyBlocksBeforeNetwork(t *testing.T) {
	tests := []struct {
		name     string
		password string
		confirm  string
	}{
		{"too short", "Ab1!", "Ab1!"},
		{"no upper", "abcdef1!", "abcdef1!"},
		{"no lower", "ABCDEF1!", "ABCDEF1!"},
		{"no digit", "Abcdefg!", "Abcdefg!"},
		{"no symbol", "Abcdefg1", "Abcdefg1"},
		{"mismatch", "Abcdef1!", "Abcdef2!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fa := &fakeAPI{}
			f := newFlow(fa, &fakeSession{})

			err := f.SignUp(context.Background(), "A", "a@b.c", tt.password, tt.confirm)
			require.Error(t, err)
			assert.True(t, IsValidation(err))
			assert.Zero(t, fa.signupN, "validation failures must not reach the network")
			assert.Equal(t, StateLoggedOut, f.State())
		})
	}
}

func TestEmailFrozenAfterSignup(t *testing.T) {
	fa := &fakeAPI{signupResp: &api.SignupResponse{}}
	f := newFlow(fa, &fakeSession{})

	require.NoError(t, f.SignUp(context.Background(), "A", "a@b.c", "Abcdef1!", "Abcdef1!"))
	require.Equal(t, StatePendingConfirmation, f.State())

	// Another signup attempt must be rejected: the email is pinned now.
	err := f.SignUp(context.Background(), "A", "other@b.c", "Abcdef1!", "Abcdef1!")
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, "a@b.c", f.Email())
}

func TestResendCode_OnlyWhilePending(t *testing.T) {
	fa := &fakeAPI{}
	f := newFlow(fa, &fakeSession{})

	err := f.ResendCode(context.Background())
	assert.ErrorIs(t, err, ErrInvalidState)

	require.NoError(t, f.SignUp(context.Background(), "A", "a@b.c", "Abcdef1!", "Abcdef1!"))
	require.NoError(t, f.ResendCode(context.Background()))
	assert.Equal(t, "a@b.c", fa.resendEmail)
	assert.Equal(t, StatePendingConfirmation, f.State(), "resend does not change state")
}

func TestConfirmEmail_MfaSetupChallenge(t *testing.T) {
	fa := &fakeAPI{
		signupResp:  &api.SignupResponse{},
		confirmResp: &api.ChallengeResponse{ChallengeName: api.ChallengeMFASetup, Session: "s-confirm"},
		setupStartResp: &api.MfaSetupStartResponse{
			SecretCode: "SECRET",
			Otpauth:    "otpauth://totp/SecureVault:a@b.c?secret=SECRET",
			Session:    "s-start",
		},
	}
	f := newFlow(fa, &fakeSession{})
	require.NoError(t, f.SignUp(context.Background(), "A", "a@b.c", "Abcdef1!", "Abcdef1!"))

	require.NoError(t, f.ConfirmEmail(context.Background(), " 123456 ", "Abcdef1!"))

	assert.Equal(t, StateMfaSetup, f.State())
	assert.Equal(t, "123456", fa.confirmReq.Code)
	assert.Equal(t, "s-confirm", fa.setupStartReq.Session, "provisioning uses the session the challenge issued")
	assert.Equal(t, "s-start", f.ChallengeSession(), "fresh session supersedes the old one")
	assert.Equal(t, "SECRET", f.TOTPSecret())
	assert.NotEmpty(t, f.TOTPURI())
}

func TestConfirmEmail_NoChallengeMeansSignIn(t *testing.T) {
	fa := &fakeAPI{
		signupResp:  &api.SignupResponse{},
		confirmResp: &api.ChallengeResponse{},
	}
	f := newFlow(fa, &fakeSession{})
	require.NoError(t, f.SignUp(context.Background(), "A", "a@b.c", "Abcdef1!", "Abcdef1!"))

	require.NoError(t, f.ConfirmEmail(context.Background(), "123456", "Abcdef1!"))
	assert.Equal(t, StateLoggedOut, f.State())
	assert.Contains(t, f.Notice(), "sign in")
	assert.Equal(t, "a@b.c", f.Email(), "email survives the return to logged out")
}

// ---- MFA enrollment ----

func TestVerifySetup_CompletesEvenOnFurtherChallenge(t *testing.T) {
	fa := &fakeAPI{
		signupResp:     &api.SignupResponse{},
		confirmResp:    &api.ChallengeResponse{ChallengeName: api.ChallengeMFASetup, Session: "s1"},
		setupStartResp: &api.MfaSetupStartResponse{SecretCode: "S", Otpauth: "otpauth://x", Session: "s2"},
		// Pool immediately demands TOTP again; enrollment is still done client-side.
		setupVerifyResp: &api.ChallengeResponse{ChallengeName: api.ChallengeSoftwareTokenMFA, Session: "s3"},
	}
	f := newFlow(fa, &fakeSession{})
	require.NoError(t, f.SignUp(context.Background(), "A", "a@b.c", "Abcdef1!", "Abcdef1!"))
	require.NoError(t, f.ConfirmEmail(context.Background(), "111111", "Abcdef1!"))

	require.NoError(t, f.VerifySetup(context.Background(), "222222"))

	assert.Equal(t, "s2", fa.setupVerifyReq.Session, "verify must send the freshest session")
	assert.Equal(t, StateLoggedOut, f.State())
	assert.Empty(t, f.TOTPSecret(), "provisioning material is discarded")
	assert.Empty(t, f.TOTPURI())
	assert.Empty(t, f.ChallengeSession())
	assert.Contains(t, f.Notice(), "sign in")
}

// ---- login ----

func TestLogIn_SoftwareTokenChallenge_ScenarioB(t *testing.T) {
	fa := &fakeAPI{
		loginResp:    &api.LoginResponse{ChallengeName: api.ChallengeSoftwareTokenMFA, Session: "s1"},
		loginMFAResp: &api.LoginMFAResponse{AccessToken: "t1", User: &session.User{Name: "A", Email: "a@b.c"}},
	}
	fs := &fakeSession{}
	f := newFlow(fa, fs)

	require.NoError(t, f.LogIn(context.Background(), "A@B.C", "pw"))
	assert.Equal(t, StateMfaChallenge, f.State())
	assert.Equal(t, ChallengeSoftwareToken, f.ChallengeKind())
	assert.Equal(t, "s1", f.ChallengeSession())
	assert.Equal(t, "a@b.c", f.Email())

	require.NoError(t, f.SubmitChallenge(context.Background(), "654321"))
	assert.Equal(t, "s1", fa.loginMFAReq.Session)
	assert.Equal(t, string(ChallengeSoftwareToken), fa.loginMFAReq.ChallengeName)
	assert.Equal(t, "a@b.c", fa.loginMFAReq.Email)

	assert.Equal(t, StateAuthenticated, f.State())
	assert.Equal(t, "t1", fs.token)
	require.NotNil(t, fs.user)
	assert.Equal(t, "a@b.c", fs.user.Email)
	assert.Empty(t, f.ChallengeSession(), "transient state cleared on success")
}

func TestLogIn_SMSChallenge(t *testing.T) {
	fa := &fakeAPI{loginResp: &api.LoginResponse{ChallengeName: api.ChallengeSMSMFA, Session: "s9"}}
	f := newFlow(fa, &fakeSession{})

	require.NoError(t, f.LogIn(context.Background(), "a@b.c", "pw"))
	assert.Equal(t, StateMfaChallenge, f.State())
	assert.Equal(t, ChallengeSMS, f.ChallengeKind())
	assert.Contains(t, f.Notice(), "SMS")
}

func TestLogIn_MfaSetupChallenge(t *testing.T) {
	fa := &fakeAPI{
		loginResp:      &api.LoginResponse{ChallengeName: api.ChallengeMFASetup, Session: "s1"},
		setupStartResp: &api.MfaSetupStartResponse{SecretCode: "S", Otpauth: "otpauth://x"},
	}
	f := newFlow(fa, &fakeSession{})

	require.NoError(t, f.LogIn(context.Background(), "a@b.c", "pw"))
	assert.Equal(t, StateMfaSetup, f.State())
	// Start returned no session, so the login-issued one is still current.
	assert.Equal(t, "s1", f.ChallengeSession())
}

func TestLogIn_DirectToken(t *testing.T) {
	fs := &fakeSession{}
	fa := &fakeAPI{loginResp: &api.LoginResponse{
		AccessToken: "tok",
		User:        &session.User{Name: "A", Email: "a@b.c", Role: "member"},
	}}
	f := newFlow(fa, fs)

	require.NoError(t, f.LogIn(context.Background(), "a@b.c", "pw"))
	assert.Equal(t, StateAuthenticated, f.State())
	assert.Equal(t, "tok", fs.token)
	assert.Equal(t, "member", fs.user.Role)
}

func TestLogIn_UnconfirmedAccountRoutesToConfirmation(t *testing.T) {
	fa := &fakeAPI{loginErr: &api.Error{
		Status:  403,
		Message: "confirm your email",
		Payload: map[string]any{"code": "USER_NOT_CONFIRMED"},
	}}
	f := newFlow(fa, &fakeSession{})

	require.NoError(t, f.LogIn(context.Background(), "a@b.c", "pw"))
	assert.Equal(t, StatePendingConfirmation, f.State())
	assert.Equal(t, "a@b.c", f.Email())
}

func TestLogIn_Plain403StillFails(t *testing.T) {
	fa := &fakeAPI{loginErr: &api.Error{Status: 403, Message: "forbidden"}}
	f := newFlow(fa, &fakeSession{})

	err := f.LogIn(context.Background(), "a@b.c", "pw")
	require.Error(t, err)
	assert.Equal(t, StateLoggedOut, f.State())
}

func TestLogIn_EmptyResponseIsProtocolError(t *testing.T) {
	fa := &fakeAPI{loginResp: &api.LoginResponse{}}
	f := newFlow(fa, &fakeSession{})

	err := f.LogIn(context.Background(), "a@b.c", "pw")
	assert.ErrorIs(t, err, ErrProtocol)
	assert.Equal(t, StateLoggedOut, f.State(), "protocol errors do not advance state")
}

func TestSubmitChallenge_TokenlessSuccessIsProtocolError(t *testing.T) {
	fa := &fakeAPI{
		loginResp:    &api.LoginResponse{ChallengeName: api.ChallengeSoftwareTokenMFA, Session: "s1"},
		loginMFAResp: &api.LoginMFAResponse{},
	}
	fs := &fakeSession{}
	f := newFlow(fa, fs)
	require.NoError(t, f.LogIn(context.Background(), "a@b.c", "pw"))

	err := f.SubmitChallenge(context.Background(), "000000")
	assert.ErrorIs(t, err, ErrProtocol)
	assert.Equal(t, StateMfaChallenge, f.State(), "user may restart the step")
	assert.Zero(t, fs.setN)
}

// ---- cancel / logout ----

func TestCancel_ClearsTransientKeepsEmail(t *testing.T) {
	fa := &fakeAPI{loginResp: &api.LoginResponse{ChallengeName: api.ChallengeSoftwareTokenMFA, Session: "s1"}}
	f := newFlow(fa, &fakeSession{})
	require.NoError(t, f.LogIn(context.Background(), "a@b.c", "pw"))

	f.Cancel()

	assert.Equal(t, StateLoggedOut, f.State())
	assert.Empty(t, f.ChallengeSession())
	assert.Empty(t, string(f.ChallengeKind()))
	assert.Empty(t, f.TOTPSecret())
	assert.Equal(t, "a@b.c", f.Email(), "email kept for retry")
}

func TestLogout_ClearsSession(t *testing.T) {
	fs := &fakeSession{}
	fa := &fakeAPI{loginResp: &api.LoginResponse{AccessToken: "tok"}}
	f := newFlow(fa, fs)
	require.NoError(t, f.LogIn(context.Background(), "a@b.c", "pw"))

	require.NoError(t, f.Logout())
	assert.True(t, fs.cleared)
	assert.Equal(t, StateLoggedOut, f.State())
}
