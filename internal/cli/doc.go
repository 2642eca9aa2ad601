// Package cli implements the adminctl subcommands: schema migrations and
// admin account maintenance.
//
// Usage:
//
//	adminctl migrate up|down [--steps N]|version
//	adminctl admin create --name NAME --email EMAIL [--password PASS]
//	adminctl admin rehash
package cli
