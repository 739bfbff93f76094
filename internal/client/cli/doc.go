// Package cli provides the interactive SWPA command-line client.
//
// It wires configuration, the local session database, the identity API
// client and the auth manager, then runs a REPL over them. Typical flow:
// restore a saved session, log in or sign up, confirm the emailed OTP and
// open the dashboard until logout or session expiry.
//
// Commands:
//   - login / signup / forgot
//   - verify / resend (email OTP)
//   - dashboard, editprofile, passwd
//   - logout
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, runREPL and guard.Watch for details.
package cli
