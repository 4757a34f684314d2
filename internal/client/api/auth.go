package api

import (
	"context"
	"net/http"

	"github.com/securevault/securevault/internal/client/session"
)

// Challenge names issued by the identity provider.
const (
	ChallengeSoftwareTokenMFA = "SOFTWARE_TOKEN_MFA"
	ChallengeSMSMFA           = "SMS_MFA"
	ChallengeMFASetup         = "MFA_SETUP"
)

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupResponse struct {
	AccessToken          string        `json:"accessToken,omitempty"`
	User                 *session.User `json:"user,omitempty"`
	RequiresConfirmation bool          `json:"requiresConfirmation,omitempty"`
}

type ConfirmSignupRequest struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	Password string `json:"password"`
}

// ChallengeResponse is the generic continuation shape: a challenge name
// plus the single-use session token to forward to the next step.
type ChallengeResponse struct {
	ChallengeName string `json:"challengeName,omitempty"`
	Session       string `json:"session,omitempty"`
}

type MfaSetupStartRequest struct {
	Session string `json:"session"`
	Email   string `json:"email"`
}

type MfaSetupStartResponse struct {
	SecretCode string `json:"secretCode"`
	Otpauth    string `json:"otpauth"`
	Session    string `json:"session,omitempty"`
}

type MfaSetupVerifyRequest struct {
	Email   string `json:"email"`
	Code    string `json:"code"`
	Session string `json:"session"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken   string        `json:"accessToken,omitempty"`
	User          *session.User `json:"user,omitempty"`
	ChallengeName string        `json:"challengeName,omitempty"`
	Session       string        `json:"session,omitempty"`
}

type LoginMFARequest struct {
	Email         string `json:"email"`
	Code          string `json:"code"`
	Session       string `json:"session"`
	ChallengeName string `json:"challengeName"`
}

type LoginMFAResponse struct {
	AccessToken string        `json:"accessToken,omitempty"`
	User        *session.User `json:"user,omitempty"`
}

// Signup creates an account. Unauthenticated by design: there is no token yet.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (*SignupResponse, error) {
	var resp SignupResponse
	if err := c.do(ctx, http.MethodPost, "/signup", RequestOptions{Body: req, NoAuth: true}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ResendConfirmation re-sends the email confirmation code.
func (c *Client) ResendConfirmation(ctx context.Context, email string) error {
	body := struct {
		Email string `json:"email"`
	}{Email: email}
	return c.do(ctx, http.MethodPost, "/resend-confirmation", RequestOptions{Body: body, NoAuth: true}, nil)
}

// ConfirmSignup submits the emailed code. The password is included because
// the identity provider needs re-authentication context to open the next
// challenge (typically MFA_SETUP).
func (c *Client) ConfirmSignup(ctx context.Context, req ConfirmSignupRequest) (*ChallengeResponse, error) {
	var resp ChallengeResponse
	if err := c.do(ctx, http.MethodPost, "/confirm-signup", RequestOptions{Body: req, NoAuth: true}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MfaSetupStart exchanges a challenge session for TOTP provisioning
// material (secret + enrollment URI) and a fresh session.
func (c *Client) MfaSetupStart(ctx context.Context, req MfaSetupStartRequest) (*MfaSetupStartResponse, error) {
	var resp MfaSetupStartResponse
	if err := c.do(ctx, http.MethodPost, "/mfa/setup/start", RequestOptions{Body: req, NoAuth: true}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MfaSetupVerify submits the 6-digit enrollment code with the current
// challenge session.
func (c *Client) MfaSetupVerify(ctx context.Context, req MfaSetupVerifyRequest) (*ChallengeResponse, error) {
	var resp ChallengeResponse
	if err := c.do(ctx, http.MethodPost, "/mfa/setup/verify", RequestOptions{Body: req, NoAuth: true}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login authenticates with email/password. The response either carries an
// access token or a challenge to continue with.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, "/login", RequestOptions{Body: req, NoAuth: true}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LoginMFA answers an MFA challenge issued by Login.
func (c *Client) LoginMFA(ctx context.Context, req LoginMFARequest) (*LoginMFAResponse, error) {
	var resp LoginMFAResponse
	if err := c.do(ctx, http.MethodPost, "/login/mfa", RequestOptions{Body: req, NoAuth: true}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health probes service liveness without auth.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", RequestOptions{NoAuth: true}, nil)
}
