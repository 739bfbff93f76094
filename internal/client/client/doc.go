// Package client contains the client-side plumbing of the SWPA CLI.
//
// # Overview
//
// The package provides:
//  1. The Client interface, the contract of the remote identity API:
//     Login, Signup, VerifyOTP, ResendOTP, ForgotPassword, ChangePassword
//     and UpdateProfile.
//  2. HTTPClient, its JSON-over-HTTP implementation. Every request is a
//     POST carrying an X-Request-ID header.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) that opens
//     the SQLite database and applies the embedded goose migrations.
//
// # Error Handling
//
// A reply with status >= 400 becomes *APIError whose Message is the server's
// own text; ServerMessage extracts it. Transport failures wrap ErrUnavailable
// and can be matched with errors.Is.
//
// HTTPClient is safe for concurrent use. All calls honor context cancellation.
package client
