package authflow

// State is the single tag describing where the authentication flow is.
// Fields on Flow are only meaningful in the states that set them, and
// transitions are owned exclusively by Flow methods.
type State int

const (
	StateLoggedOut State = iota
	StateSignup
	StatePendingConfirmation
	StateMfaSetup
	StateMfaChallenge
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateLoggedOut:
		return "logged_out"
	case StateSignup:
		return "signup"
	case StatePendingConfirmation:
		return "pending_confirmation"
	case StateMfaSetup:
		return "mfa_setup"
	case StateMfaChallenge:
		return "mfa_challenge"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// ChallengeKind mirrors the identity provider's challenge names.
type ChallengeKind string

const (
	ChallengeSoftwareToken ChallengeKind = "SOFTWARE_TOKEN_MFA"
	ChallengeSMS           ChallengeKind = "SMS_MFA"
	ChallengeMfaSetup      ChallengeKind = "MFA_SETUP"
)
