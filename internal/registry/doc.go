// Package registry provides the central "glue" between manifests and Go code.
//
// Manifests refer to lifecycle handlers by name (e.g., "OnInitPrint"); Go
// modules register the functions behind those names. The Registry collects
// the Go side from every core module and can check a directory of manifests
// against it at startup, so a typo in a handler name is reported before any
// module is loaded instead of when the kernel gets to it.
package registry
