package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Signup(ctx context.Context) error
	Confirm(ctx context.Context) error
	Resend(ctx context.Context) error
	Verify(ctx context.Context) error
	Login(ctx context.Context) error
	Mfa(ctx context.Context) error
	CancelFlow() error
	Health(ctx context.Context) error
	Upload(ctx context.Context, paths []string) error
	List(ctx context.Context) error
	Stats(ctx context.Context, args []string) error
	View(ctx context.Context) error
	Download(ctx context.Context) error
	Delete(ctx context.Context) error
	Whoami(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL starts a read-eval-print loop for the SecureVault CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help           — show available commands
//	  - signup         — create an account
//	  - confirm        — submit the emailed confirmation code
//	  - resend         — re-send the confirmation code
//	  - verify         — submit the MFA enrollment code
//	  - login          — authenticate
//	  - mfa            — answer a pending MFA challenge
//	  - cancel         — abandon the current auth attempt
//	  - health         — probe the API
//	  - exit | quit    — leave the program
//
//	Logged in:
//	  - help           — show available commands
//	  - upload <p...>  — upload one or more local files
//	  - list | l       — list stored files
//	  - stats [scope]  — show aggregate stats
//	  - view           — print a short-lived inline view URL
//	  - download       — print a short-lived download URL
//	  - delete         — delete a stored file
//	  - whoami         — show the current user
//	  - health         — probe the API
//	  - logout         — log out
//	  - exit | quit    — leave the program
//
// Command errors are printed here; handlers print their own success output.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("sv %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: upload <path...>, (l)ist, stats [scope], view, download, delete, whoami, health, logout, exit")
			} else {
				printlnFn("Available commands: signup, confirm, resend, verify, login, mfa, cancel, health, exit")
			}

		case "signup":
			err = a.Signup(ctx)

		case "confirm":
			err = a.Confirm(ctx)

		case "resend":
			err = a.Resend(ctx)

		case "verify":
			err = a.Verify(ctx)

		case "login":
			err = a.Login(ctx)

		case "mfa":
			err = a.Mfa(ctx)

		case "cancel":
			err = a.CancelFlow()

		case "health":
			err = a.Health(ctx)

		case "upload":
			if len(args) == 0 {
				printlnFn("Usage: upload <path> [path...]")
				continue
			}
			err = a.Upload(ctx, args)

		case "l", "list":
			err = a.List(ctx)

		case "stats":
			err = a.Stats(ctx, args)

		case "view":
			err = a.View(ctx)

		case "download":
			err = a.Download(ctx)

		case "delete":
			err = a.Delete(ctx)

		case "whoami":
			err = a.Whoami(ctx)

		case "logout":
			err = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err.Error())
		}
	}
}
