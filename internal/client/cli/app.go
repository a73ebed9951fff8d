// Package cli implements the interactive console. It drives the auth
// and secret services directly and keeps the derived vault key in
// process memory only for the lifetime of the session.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/anfelyns/Password-Guardian-sub000/internal/common"
	"github.com/anfelyns/Password-Guardian-sub000/internal/keyderiv"
	"github.com/anfelyns/Password-Guardian-sub000/internal/server/services"
)

type App struct {
	auth    *services.AuthService
	secrets *services.SecretService

	reader *bufio.Reader
	out    io.Writer

	// Session state. pendingEmail and pendingPassword bridge the gap
	// between Authenticate and VerifyLoginCode; the password is wiped
	// as soon as the vault key is derived.
	pendingEmail    string
	pendingPassword []byte
	pendingSalt     keyderiv.Salt

	session  *services.Session
	vaultKey []byte
}

func NewApp(auth *services.AuthService, secrets *services.SecretService) *App {
	return &App{
		auth:    auth,
		secrets: secrets,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}
}

func (a *App) isLoggedIn() bool {
	return a.vaultKey != nil
}

func (a *App) showLogin() string {
	if a.session != nil {
		return a.session.UserName
	}
	return "guest"
}

func (a *App) Run(ctx context.Context) {

	fmt.Fprintln(a.out, "Password Guardian console (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Fprintf(a.out, "guardian %s > ", a.showLogin())
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(a.out, "Available commands: list, put <name>, get <name>, del <name>, stepup, logout, exit")
			} else {
				fmt.Fprintln(a.out, "Available commands: register, verify, login, code, reset, newpass, exit")
			}

		case "register":
			a.register(ctx)
		case "verify":
			a.verifyRegistration(ctx)
		case "login":
			a.login(ctx)
		case "code":
			a.verifyLoginCode(ctx)
		case "reset":
			a.requestReset(ctx)
		case "newpass":
			a.completeReset(ctx)

		case "list":
			a.list(ctx)
		case "put":
			if len(args) == 0 {
				fmt.Fprintln(a.out, "Usage: put <name>")
				continue
			}
			a.put(ctx, args[0])
		case "get":
			if len(args) == 0 {
				fmt.Fprintln(a.out, "Usage: get <name>")
				continue
			}
			a.get(ctx, args[0])
		case "del":
			if len(args) == 0 {
				fmt.Fprintln(a.out, "Usage: del <name>")
				continue
			}
			a.del(ctx, args[0])
		case "stepup":
			a.stepUp(ctx)
		case "logout":
			a.logout()

		case "exit", "quit":
			a.logout()
			fmt.Fprintln(a.out, "Bye!")
			return

		default:
			fmt.Fprintln(a.out, "Unknown command:", cmd)
		}
	}
}

func (a *App) register(ctx context.Context) {
	username, err := GetSimpleText(a.reader, "Choose a username", a.out)
	if err != nil {
		return
	}
	email, err := GetSimpleText(a.reader, "Your email address", a.out)
	if err != nil {
		return
	}
	password, err := GetPassword("Choose a master password", a.out)
	if err != nil {
		return
	}
	defer common.WipeByteArray(password)

	res, err := a.auth.Register(ctx, username, email, string(password))
	if err != nil {
		a.report(err)
		return
	}
	if res.Delivered {
		fmt.Fprintln(a.out, "A confirmation code was sent to your email. Run 'verify' to finish.")
	} else {
		fmt.Fprintln(a.out, "Could not send the confirmation code. Run 'register' again to retry.")
	}
}

func (a *App) verifyRegistration(ctx context.Context) {
	email, err := GetSimpleText(a.reader, "Your email address", a.out)
	if err != nil {
		return
	}
	code, err := GetCode(a.reader, a.out)
	if err != nil {
		return
	}
	if err := a.auth.VerifyRegistration(ctx, email, code); err != nil {
		a.report(err)
		return
	}
	fmt.Fprintln(a.out, "Email verified. You can now log in.")
}

func (a *App) login(ctx context.Context) {
	email, err := GetSimpleText(a.reader, "Your email address", a.out)
	if err != nil {
		return
	}
	password, err := GetPassword("Master password", a.out)
	if err != nil {
		return
	}

	pending, err := a.auth.Authenticate(ctx, email, string(password))
	if err != nil {
		common.WipeByteArray(password)
		a.report(err)
		return
	}

	// Kept until the 2FA code checks out; the vault key is derived
	// client side from this password and the returned salt.
	a.pendingEmail = pending.Email
	a.pendingPassword = password
	a.pendingSalt = pending.VaultSalt

	if pending.Delivered {
		fmt.Fprintln(a.out, "A login code was sent to your email. Run 'code' to finish.")
	} else {
		fmt.Fprintln(a.out, "Could not send the login code. Run 'login' again to retry.")
	}
}

func (a *App) verifyLoginCode(ctx context.Context) {
	if a.pendingPassword == nil {
		fmt.Fprintln(a.out, "Run 'login' first.")
		return
	}
	code, err := GetCode(a.reader, a.out)
	if err != nil {
		return
	}

	session, err := a.auth.VerifyLoginCode(ctx, a.pendingEmail, code)
	if err != nil {
		a.report(err)
		return
	}

	a.session = session
	a.vaultKey = keyderiv.DeriveVaultKey(a.pendingPassword, session.VaultSalt, keyderiv.DefaultParams())
	common.WipeByteArray(a.pendingPassword)
	a.pendingPassword = nil

	fmt.Fprintf(a.out, "Welcome back, %s!\n", session.UserName)
}

func (a *App) requestReset(ctx context.Context) {
	email, err := GetSimpleText(a.reader, "Your email address", a.out)
	if err != nil {
		return
	}
	ch, err := a.auth.SendResetCode(ctx, email)
	if err != nil {
		a.report(err)
		return
	}
	a.pendingEmail = services.NormalizeEmail(email)
	if ch.Delivered {
		fmt.Fprintln(a.out, "A reset code was sent to your email. Run 'newpass' to set a new password.")
	} else {
		fmt.Fprintln(a.out, "Could not send the reset code. Run 'reset' again to retry.")
	}
}

func (a *App) completeReset(ctx context.Context) {
	if a.pendingEmail == "" {
		fmt.Fprintln(a.out, "Run 'reset' first.")
		return
	}
	code, err := GetCode(a.reader, a.out)
	if err != nil {
		return
	}

	// Peek before asking for the new password so a typo in the code
	// does not burn it.
	if err := a.auth.VerifyResetCode(ctx, a.pendingEmail, code); err != nil {
		a.report(err)
		return
	}

	password, err := GetPassword("New master password", a.out)
	if err != nil {
		return
	}
	defer common.WipeByteArray(password)

	if err := a.auth.UpdatePasswordWithCode(ctx, a.pendingEmail, code, string(password)); err != nil {
		a.report(err)
		return
	}
	fmt.Fprintln(a.out, "Password updated. Secrets stored earlier still need your old vault key.")
}

// guardLoggedIn gates commands that dereference session state. Handlers
// must call it before touching a.session or a.vaultKey.
func (a *App) guardLoggedIn() bool {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "Run 'login' first.")
		return false
	}
	return true
}

func (a *App) put(ctx context.Context, name string) {
	if !a.guardLoggedIn() {
		return
	}
	value, err := GetPassword("Secret value", a.out)
	if err != nil {
		return
	}
	defer common.WipeByteArray(value)

	if err := a.secrets.StoreSecret(ctx, a.session.UserID, name, string(value), a.vaultKey); err != nil {
		a.report(err)
		return
	}
	fmt.Fprintln(a.out, "Stored.")
}

func (a *App) get(ctx context.Context, name string) {
	if !a.guardLoggedIn() {
		return
	}
	value, err := a.secrets.RevealSecret(ctx, a.session.UserID, name, a.vaultKey)
	if err != nil {
		a.report(err)
		return
	}
	fmt.Fprintln(a.out, value)
}

func (a *App) list(ctx context.Context) {
	if !a.guardLoggedIn() {
		return
	}
	names, err := a.secrets.ListSecretNames(ctx, a.session.UserID)
	if err != nil {
		a.report(err)
		return
	}
	if len(names) == 0 {
		fmt.Fprintln(a.out, "No secrets stored yet.")
		return
	}
	for _, name := range names {
		fmt.Fprintln(a.out, name)
	}
}

func (a *App) del(ctx context.Context, name string) {
	if !a.guardLoggedIn() {
		return
	}
	if err := a.secrets.DeleteSecret(ctx, a.session.UserID, name); err != nil {
		a.report(err)
		return
	}
	fmt.Fprintln(a.out, "Deleted.")
}

func (a *App) stepUp(ctx context.Context) {
	if !a.guardLoggedIn() {
		return
	}
	ch, err := a.auth.SendStepUpCode(ctx, a.session.Email)
	if err != nil {
		a.report(err)
		return
	}
	if !ch.Delivered {
		fmt.Fprintln(a.out, "Could not send the confirmation code.")
		return
	}
	code, err := GetCode(a.reader, a.out)
	if err != nil {
		return
	}
	if err := a.auth.VerifyStepUpCode(ctx, a.session.Email, code); err != nil {
		a.report(err)
		return
	}
	fmt.Fprintln(a.out, "Confirmed.")
}

func (a *App) logout() {
	common.WipeByteArray(a.vaultKey)
	common.WipeByteArray(a.pendingPassword)
	a.vaultKey = nil
	a.pendingPassword = nil
	a.session = nil
	a.pendingEmail = ""
	a.pendingSalt = nil
}

// report translates taxonomy sentinels into console messages.
func (a *App) report(err error) {
	switch {
	case errors.Is(err, common.ErrEmailTaken):
		fmt.Fprintln(a.out, "That email is already registered.")
	case errors.Is(err, common.ErrAlreadyVerified):
		fmt.Fprintln(a.out, "That email is already verified. Just log in.")
	case errors.Is(err, common.ErrEmailNotVerified):
		fmt.Fprintln(a.out, "Verify your email first (run 'verify').")
	case errors.Is(err, common.ErrBadCredential):
		fmt.Fprintln(a.out, "Wrong email or password.")
	case errors.Is(err, common.ErrNoPendingCode):
		fmt.Fprintln(a.out, "No code is pending. Request a new one.")
	case errors.Is(err, common.ErrCodeExpired):
		fmt.Fprintln(a.out, "That code has expired. Request a new one.")
	case errors.Is(err, common.ErrCodeMismatch):
		fmt.Fprintln(a.out, "Wrong code, try again.")
	case errors.Is(err, common.ErrorNotFound):
		fmt.Fprintln(a.out, "Not found.")
	case errors.Is(err, common.ErrAuthenticationFailed):
		fmt.Fprintln(a.out, "Could not decrypt: wrong vault key or corrupted data.")
	case errors.Is(err, common.ErrInvalidInput):
		fmt.Fprintln(a.out, "Invalid input:", err)
	default:
		fmt.Fprintln(a.out, "Error:", err)
	}
}
