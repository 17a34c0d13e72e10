// Package config loads, normalizes, and validates podpipe configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours environment fallbacks for the service credentials
// (YOUTUBE_API_KEY, GROQ_API_KEY, PODBEAN_CLIENT_ID, PODBEAN_CLIENT_SECRET).
// Credentials are optional at load time; commands that talk to a service call
// the matching Require* method so a missing key is reported only where it
// matters.
package config
