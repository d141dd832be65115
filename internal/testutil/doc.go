// Package testutil contains helpers used across tests to reduce boilerplate
// when consuming streamed turns. These helpers are intentionally minimal and
// avoid adding third-party dependencies. They are not intended for production
// usage.
package testutil
