// Package authflow drives signup, email confirmation, MFA enrollment,
// login, and MFA challenge as one finite-state flow over the API transport.
package authflow

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/securevault/securevault/internal/client/api"
	"github.com/securevault/securevault/internal/client/session"
	"github.com/securevault/securevault/internal/logging"
)

// API is the slice of the transport the flow needs; *api.Client satisfies it.
type API interface {
	Signup(ctx context.Context, req api.SignupRequest) (*api.SignupResponse, error)
	ResendConfirmation(ctx context.Context, email string) error
	ConfirmSignup(ctx context.Context, req api.ConfirmSignupRequest) (*api.ChallengeResponse, error)
	MfaSetupStart(ctx context.Context, req api.MfaSetupStartRequest) (*api.MfaSetupStartResponse, error)
	MfaSetupVerify(ctx context.Context, req api.MfaSetupVerifyRequest) (*api.ChallengeResponse, error)
	Login(ctx context.Context, req api.LoginRequest) (*api.LoginResponse, error)
	LoginMFA(ctx context.Context, req api.LoginMFARequest) (*api.LoginMFAResponse, error)
}

// SessionWriter is the write side of the session store.
type SessionWriter interface {
	Set(token string, user *session.User) error
	Clear() error
}

// Flow is the authentication state machine. It is not safe for concurrent
// use: the interactive surface drives it from a single logical thread, the
// same discipline the session store is written under.
//
// Invariants:
//   - email is pinned on entering PendingConfirmation/MfaSetup/MfaChallenge
//     and only editable again after returning to LoggedOut;
//   - challengeSession always holds the most recently issued session value;
//     a response carrying a new session supersedes the old one immediately;
//   - provisioning material exists only during MfaSetup.
type Flow struct {
	api  API
	sess SessionWriter
	log  logging.Logger

	state            State
	email            string
	challengeKind    ChallengeKind
	challengeSession string
	totpSecret       string
	totpURI          string
	notice           string
}

func NewFlow(apiClient API, sess SessionWriter, log logging.Logger) *Flow {
	return &Flow{
		api:   apiClient,
		sess:  sess,
		log:   log.With("component", "authflow"),
		state: StateLoggedOut,
	}
}

func (f *Flow) State() State                 { return f.state }
func (f *Flow) Email() string                { return f.email }
func (f *Flow) ChallengeKind() ChallengeKind { return f.challengeKind }
func (f *Flow) ChallengeSession() string     { return f.challengeSession }
func (f *Flow) TOTPSecret() string           { return f.totpSecret }
func (f *Flow) TOTPURI() string              { return f.totpURI }

// Notice is the guidance text produced by the last transition ("check your
// email", "now sign in", ...), for the UI to show near the active step.
func (f *Flow) Notice() string { return f.notice }

func (f *Flow) require(states ...State) error {
	for _, s := range states {
		if f.state == s {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidState, f.state)
}

// absorbSession overwrites the held challenge session whenever the server
// issued a fresh one. Sessions are single-use; the latest always wins.
func (f *Flow) absorbSession(session string) {
	if session != "" {
		f.challengeSession = session
	}
}

// StartSignup switches the logged-out form into signup mode.
func (f *Flow) StartSignup() error {
	if err := f.require(StateLoggedOut, StateSignup); err != nil {
		return err
	}
	f.state = StateSignup
	return nil
}

// SignUp validates the password policy locally, creates the account, pins
// the email, and moves to PendingConfirmation. The password is not retained.
func (f *Flow) SignUp(ctx context.Context, name, email, password, confirm string) error {
	if err := f.require(StateLoggedOut, StateSignup); err != nil {
		return err
	}
	if err := validatePassword(password, confirm); err != nil {
		return err
	}
	email = normalizeEmail(email)

	if _, err := f.api.Signup(ctx, api.SignupRequest{
		Name:     strings.TrimSpace(name),
		Email:    email,
		Password: password,
	}); err != nil {
		return err
	}

	f.email = email
	f.state = StatePendingConfirmation
	f.notice = "We've sent a confirmation code to your email."
	f.log.Info(ctx, "signup accepted", "email", email)
	return nil
}

// ResendCode re-sends the confirmation code to the pinned email. Only
// available while waiting for confirmation; state does not change.
func (f *Flow) ResendCode(ctx context.Context) error {
	if err := f.require(StatePendingConfirmation); err != nil {
		return err
	}
	if err := f.api.ResendConfirmation(ctx, f.email); err != nil {
		return err
	}
	f.notice = "Confirmation code resent. Check your inbox."
	return nil
}

// ConfirmEmail submits the emailed code together with the password (the
// identity provider needs re-authentication context). An MFA_SETUP
// challenge in the response flows straight into enrollment; anything else
// means confirmation is done and the user should sign in.
func (f *Flow) ConfirmEmail(ctx context.Context, code, password string) error {
	if err := f.require(StatePendingConfirmation); err != nil {
		return err
	}

	resp, err := f.api.ConfirmSignup(ctx, api.ConfirmSignupRequest{
		Email:    f.email,
		Code:     strings.TrimSpace(code),
		Password: password,
	})
	if err != nil {
		return err
	}

	if resp.ChallengeName == api.ChallengeMFASetup && resp.Session != "" {
		return f.startMfaSetup(ctx, resp.Session)
	}

	f.state = StateLoggedOut
	f.notice = "Email confirmed. Please sign in."
	return nil
}

// startMfaSetup fetches TOTP provisioning material using the given
// challenge session and enters MfaSetup. The session returned by the
// provisioning call supersedes the one it was given.
func (f *Flow) startMfaSetup(ctx context.Context, challengeSession string) error {
	start, err := f.api.MfaSetupStart(ctx, api.MfaSetupStartRequest{
		Session: challengeSession,
		Email:   f.email,
	})
	if err != nil {
		return err
	}

	f.challengeSession = challengeSession
	f.absorbSession(start.Session)
	f.challengeKind = ChallengeMfaSetup
	f.totpSecret = start.SecretCode
	f.totpURI = start.Otpauth
	f.state = StateMfaSetup
	f.notice = "Scan the QR with your authenticator app, then enter the 6-digit code."
	f.log.Info(ctx, "mfa enrollment started", "email", f.email)
	return nil
}

// VerifySetup submits the 6-digit enrollment code with the current
// challenge session. Any success response completes enrollment client-side:
// provisioning material is discarded and the user is sent back to sign in,
// even if the server signals a further challenge.
func (f *Flow) VerifySetup(ctx context.Context, code string) error {
	if err := f.require(StateMfaSetup); err != nil {
		return err
	}

	// Any session in the response is dropped with the rest of the
	// transient material: enrollment is complete and nothing consumes it.
	if _, err := f.api.MfaSetupVerify(ctx, api.MfaSetupVerifyRequest{
		Email:   f.email,
		Code:    strings.TrimSpace(code),
		Session: f.challengeSession,
	}); err != nil {
		return err
	}

	f.clearTransient()
	f.state = StateLoggedOut
	f.notice = "MFA set. Please sign in."
	return nil
}

// LogIn submits email/password and follows whatever the response demands:
// an MFA challenge, MFA enrollment, or a straight token. A login rejected
// only because the account is unconfirmed routes to PendingConfirmation
// instead of surfacing an error.
func (f *Flow) LogIn(ctx context.Context, email, password string) error {
	if err := f.require(StateLoggedOut, StateSignup); err != nil {
		return err
	}
	email = normalizeEmail(email)

	resp, err := f.api.Login(ctx, api.LoginRequest{Email: email, Password: password})
	if err != nil {
		if api.IsStatus(err, http.StatusForbidden) && api.PayloadCode(err) == "USER_NOT_CONFIRMED" {
			f.email = email
			f.state = StatePendingConfirmation
			f.notice = "Please confirm your email with the 6-digit code we sent."
			return nil
		}
		return err
	}

	switch resp.ChallengeName {
	case api.ChallengeSoftwareTokenMFA, api.ChallengeSMSMFA:
		f.email = email
		f.challengeKind = ChallengeKind(resp.ChallengeName)
		f.challengeSession = resp.Session
		f.state = StateMfaChallenge
		if f.challengeKind == ChallengeSoftwareToken {
			f.notice = "Enter the code from your authenticator app."
		} else {
			f.notice = "Enter the SMS code sent to your phone."
		}
		return nil

	case api.ChallengeMFASetup:
		f.email = email
		return f.startMfaSetup(ctx, resp.Session)
	}

	if resp.AccessToken != "" {
		if err := f.sess.Set(resp.AccessToken, resp.User); err != nil {
			return fmt.Errorf("store session: %w", err)
		}
		f.email = email
		f.clearTransient()
		f.state = StateAuthenticated
		f.notice = ""
		f.log.Info(ctx, "login successful", "email", email)
		return nil
	}

	return fmt.Errorf("%w: login response carried neither a token nor a challenge", ErrProtocol)
}

// SubmitChallenge answers the pending MFA challenge with the pinned email,
// kind, and the most recently issued session. Success without an access
// token is a protocol error: there is nothing further the client could do
// with such a response.
func (f *Flow) SubmitChallenge(ctx context.Context, code string) error {
	if err := f.require(StateMfaChallenge); err != nil {
		return err
	}

	resp, err := f.api.LoginMFA(ctx, api.LoginMFARequest{
		Email:         f.email,
		Code:          strings.TrimSpace(code),
		Session:       f.challengeSession,
		ChallengeName: string(f.challengeKind),
	})
	if err != nil {
		return err
	}

	if resp.AccessToken == "" {
		return fmt.Errorf("%w: MFA response carried no access token", ErrProtocol)
	}

	if err := f.sess.Set(resp.AccessToken, resp.User); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	f.clearTransient()
	f.state = StateAuthenticated
	f.notice = ""
	f.log.Info(ctx, "mfa challenge passed", "email", f.email)
	return nil
}

// Cancel abandons the current flow attempt and returns to LoggedOut.
// Transient material (challenge session, provisioning secret, kind) is
// cleared; the email is kept for a smoother retry.
func (f *Flow) Cancel() {
	f.clearTransient()
	f.state = StateLoggedOut
	f.notice = ""
}

// Logout clears the stored session and resets the flow.
func (f *Flow) Logout() error {
	if err := f.sess.Clear(); err != nil {
		return err
	}
	f.clearTransient()
	f.state = StateLoggedOut
	f.notice = ""
	return nil
}

func (f *Flow) clearTransient() {
	f.challengeKind = ""
	f.challengeSession = ""
	f.totpSecret = ""
	f.totpURI = ""
}
