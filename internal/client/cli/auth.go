package cli

import (
	"context"
	"fmt"

	"github.com/securevault/securevault/internal/client/authflow"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// printNotice shows the guidance text produced by the last flow transition.
func (a *App) printNotice() {
	if n := a.flow.Notice(); n != "" {
		fmt.Fprintln(a.out, n)
	}
}

// printEnrollment shows the TOTP provisioning material while enrollment is
// pending, so the user can add the account to an authenticator app.
func (a *App) printEnrollment() {
	if a.flow.State() != authflow.StateMfaSetup {
		return
	}
	fmt.Fprintf(a.out, "Authenticator secret: %s\n", a.flow.TOTPSecret())
	if uri := a.flow.TOTPURI(); uri != "" {
		fmt.Fprintf(a.out, "Provisioning URI: %s\n", uri)
	}
	fmt.Fprintln(a.out, "Run 'verify' once the app shows a code.")
}

// Signup prompts for account details and creates the account. The flow
// validates the password policy before anything leaves the machine.
func (a *App) Signup(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	confirm, err := getPassword("Confirm password", a.out)
	if err != nil {
		return err
	}

	if err := a.flow.SignUp(ctx, name, email, password, confirm); err != nil {
		return err
	}
	a.printNotice()
	return nil
}

// Confirm submits the emailed confirmation code. The password is asked again
// because the identity provider needs re-authentication context. When the
// server pushes straight into MFA enrollment, the provisioning material is
// shown immediately.
func (a *App) Confirm(ctx context.Context) error {
	code, err := getSimpleText(a.reader, "Enter confirmation code", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}

	if err := a.flow.ConfirmEmail(ctx, code, password); err != nil {
		return err
	}
	a.printNotice()
	a.printEnrollment()
	return nil
}

// Resend re-sends the confirmation code to the pinned email.
func (a *App) Resend(ctx context.Context) error {
	if err := a.flow.ResendCode(ctx); err != nil {
		return err
	}
	a.printNotice()
	return nil
}

// Verify submits the 6-digit MFA enrollment code.
func (a *App) Verify(ctx context.Context) error {
	code, err := getSimpleText(a.reader, "Enter the 6-digit code from your authenticator app", a.out)
	if err != nil {
		return err
	}
	if err := a.flow.VerifySetup(ctx, code); err != nil {
		return err
	}
	a.printNotice()
	return nil
}

// Login prompts for credentials and follows whatever the server demands:
// a straight token, an MFA challenge (answered via 'mfa'), or enrollment.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}

	if err := a.flow.LogIn(ctx, email, password); err != nil {
		return err
	}

	switch a.flow.State() {
	case authflow.StateAuthenticated:
		fmt.Fprintf(a.out, "Logged in as %s\n", a.flow.Email())
	case authflow.StateMfaChallenge:
		a.printNotice()
		fmt.Fprintln(a.out, "Run 'mfa' to submit the code.")
	default:
		a.printNotice()
		a.printEnrollment()
	}
	return nil
}

// Mfa answers the pending MFA challenge.
func (a *App) Mfa(ctx context.Context) error {
	code, err := getSimpleText(a.reader, "Enter MFA code", a.out)
	if err != nil {
		return err
	}
	if err := a.flow.SubmitChallenge(ctx, code); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", a.flow.Email())
	return nil
}

// CancelFlow abandons the current auth attempt and returns to the start.
func (a *App) CancelFlow() error {
	a.flow.Cancel()
	fmt.Fprintln(a.out, "Cancelled.")
	return nil
}

// Whoami prints the stored user profile.
func (a *App) Whoami(ctx context.Context) error {
	u := a.session.User()
	if u == nil {
		fmt.Fprintln(a.out, "Not logged in.")
		return nil
	}
	fmt.Fprintf(a.out, "%s <%s>", u.Name, u.Email)
	if u.Role != "" {
		fmt.Fprintf(a.out, " (%s)", u.Role)
	}
	fmt.Fprintln(a.out)
	return nil
}

// Logout clears the stored session and resets the flow.
func (a *App) Logout(ctx context.Context) error {
	if err := a.flow.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}
