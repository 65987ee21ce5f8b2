// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the model for a module's lifecycle event hooks.
//
// Why a lifecycle model?
//
// This struct is the bridge between the declarative manifest and the Go code
// that brings a module up and down. It maps an event name in HCL (`on_init`,
// `on_uninit`) to a handler name the loader looks up at evaluation time.
package manifest

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
)

// Lifecycle maps a module's events to Go handler names. Either may be empty.
type Lifecycle struct {
	OnInit   string `hcl:"on_init,optional"`
	OnUninit string `hcl:"on_uninit,optional"`
}

// parseLifecycle finds and decodes the unique 'lifecycle' block.
func parseLifecycle(blocks hcl.Blocks) (Lifecycle, hcl.Diagnostics) {
	var lifecycle Lifecycle
	var diags hcl.Diagnostics

	block, blockDiags := findUniqueBlock(blocks, "lifecycle")
	diags = append(diags, blockDiags...)
	if diags.HasErrors() {
		return lifecycle, diags
	}

	// It's not an error for the lifecycle block to be absent.
	if block == nil {
		return lifecycle, diags
	}

	diags = append(diags, gohcl.DecodeBody(block.Body, nil, &lifecycle)...)
	return lifecycle, diags
}

// findUniqueBlock returns the single block of the given type, reporting a
// diagnostic for every duplicate.
func findUniqueBlock(blocks hcl.Blocks, name string) (*hcl.Block, hcl.Diagnostics) {
	var found *hcl.Block
	var diags hcl.Diagnostics

	for _, block := range blocks {
		if block.Type != name {
			continue
		}
		if found != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate \"" + name + "\" block",
				Detail:   "Only one \"" + name + "\" block is allowed.",
				Subject:  &block.DefRange,
			})
		}
		found = block
	}

	return found, diags
}
