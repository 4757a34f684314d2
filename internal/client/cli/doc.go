// Package cli provides the interactive SecureVault command-line client.
//
// It wires configuration, the persisted session, the API transport, the
// authentication flow, the upload orchestrator, and the files facade into an
// interactive REPL with a background connectivity watcher.
//
// Key features:
//   - Signup / email confirmation / MFA enrollment / login / MFA challenge
//   - Concurrent file uploads through presigned storage URLs
//   - List / stats / view / download / delete on stored files
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
