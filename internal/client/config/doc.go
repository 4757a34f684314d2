// Package config loads runtime settings for the SecureVault CLI.
//
// Sources are applied in order, later ones overriding earlier ones:
//
//  1. Built-in defaults (Config.LoadDefaults).
//  2. Environment variables, including a .env file in the working
//     directory (SV_API_BASE, SV_SESSION_FILE, ...).
//  3. A JSON config file named by -c/-config.
//  4. Command-line flags (-a, -t, -i, -s, -u, -l).
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// duration strings ("5s") or integer nanoseconds.
package config
