package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	isPending() bool
	Login(ctx context.Context) error
	Signup(ctx context.Context) error
	Forgot(ctx context.Context) error
	Verify(ctx context.Context) error
	Resend(ctx context.Context) error
	Dashboard(ctx context.Context) error
	EditProfile(ctx context.Context) error
	ChangePassword(ctx context.Context) error
	Logout(ctx context.Context) error
	Status(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the SWPA CLI.
//
// Output goes through printlnFn; the App passes its console so prompts never
// interleave with notices from the session timer. It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. Prompts inside commands read from the same
// reader. Unknown commands are reported back to the user. The loop exits on
// EOF, on context cancellation, or when the user types "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help           show available commands
//	  - status         show the authentication state
//	  - login          authenticate
//	  - signup         create an account
//	  - forgot         request a password reset link
//	  - exit | quit    leave the program
//
//	Awaiting email verification:
//	  - verify         enter the emailed OTP
//	  - resend         request a new OTP
//	  - logout         abandon the verification
//
//	Logged in:
//	  - dashboard      show the profile and session time left
//	  - editprofile    change name / phone
//	  - passwd         change the password
//	  - logout         log out
//	  - exit | quit    leave the program
//
// Any errors returned by command handlers are ignored here; handlers report
// their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, printlnFn func(a ...any) (int, error)) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("swpa %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			if err != nil {
				return
			}
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			switch {
			case a.isLoggedIn():
				printlnFn("Available commands: dashboard, editprofile, passwd, logout, exit")
			case a.isPending():
				printlnFn("Available commands: verify, resend, logout, exit")
			default:
				printlnFn("Available commands: login, signup, forgot, exit")
			}

		case "login":
			_ = a.Login(ctx)

		case "signup", "register":
			_ = a.Signup(ctx)

		case "forgot":
			_ = a.Forgot(ctx)

		case "verify":
			_ = a.Verify(ctx)

		case "resend":
			_ = a.Resend(ctx)

		case "dashboard", "profile":
			_ = a.Dashboard(ctx)

		case "editprofile":
			_ = a.EditProfile(ctx)

		case "passwd":
			_ = a.ChangePassword(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "status":
			_ = a.Status(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			return
		}
	}
}
