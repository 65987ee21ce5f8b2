// Package app wires the module kernel to a loader, a handler registry and
// an optional health-check server, and runs one require/release cycle. It
// is decoupled from any specific entrypoint like a CLI or server.
package app
