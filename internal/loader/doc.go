// Package loader provides the kernel.Loader implementations used by the
// application.
//
// Every loader follows the same three steps: fetch the manifest source for
// a module key, parse it with package manifest, and Evaluate it. Evaluate
// declares the manifest's includes through kernel.Include and binds its
// lifecycle handler names to Go functions from package handlers, producing
// the kernel.Descriptor the kernel runs.
//
// FileLoader serves manifests from a directory tree; SocketIOLoader asks a
// remote module server for them over socket.io.
package loader
