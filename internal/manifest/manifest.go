// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the Manifest, the declarative body of a module.
//
// Why a declarative manifest?
//
// A module has to tell the kernel two things while it is being evaluated:
// which other modules it depends on, and what to run when it comes up and
// goes down. Expressing both as data instead of code keeps evaluation
// side-effect free apart from the `include` calls themselves, and lets the
// same module be served from disk or over the network without shipping any
// executable code.
//
// A manifest looks like this:
//
//	description = "HTTP API"
//	include     = ["./db.hcl", "../shared/log.hcl"]
//
//	lifecycle {
//	  on_init   = "OnInitPrint"
//	  on_uninit = "OnUninitPrint"
//	}
//
//	config = {
//	  message = "api is up"
//	}
//
// The lifecycle names are resolved against the Go handlers registered at
// startup; see package handlers.
package manifest

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/modkernel/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Manifest is the parsed form of one module source.
type Manifest struct {
	Path        string
	Description string
	Includes    []string
	Lifecycle   Lifecycle
	Config      map[string]string
}

// rootSchema is the top-level layout of a manifest file.
var rootSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "description"},
		{Name: "include"},
		{Name: "config"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "lifecycle"},
	},
}

// Parse decodes a manifest from src. filename is used for diagnostics and
// recorded as the manifest path.
func Parse(ctx context.Context, src []byte, filename string) (*Manifest, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Parsing module manifest", "file_path", filename)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", filename, diags)
	}

	m, diags := decode(file.Body, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid manifest %s: %w", filename, diags)
	}

	logger.Debug("Parsed module manifest", "file_path", filename, "includes", len(m.Includes))
	return m, nil
}

func decode(body hcl.Body, filename string) (*Manifest, hcl.Diagnostics) {
	var allDiags hcl.Diagnostics

	content, diags := body.Content(rootSchema)
	allDiags = append(allDiags, diags...)
	if diags.HasErrors() {
		return nil, allDiags
	}

	m := &Manifest{Path: filename}

	if attr, ok := content.Attributes["description"]; ok {
		allDiags = append(allDiags, gohcl.DecodeExpression(attr.Expr, nil, &m.Description)...)
	}

	if attr, ok := content.Attributes["include"]; ok {
		includes, diags := decodeIncludes(attr)
		allDiags = append(allDiags, diags...)
		m.Includes = includes
	}

	if attr, ok := content.Attributes["config"]; ok {
		cfg, diags := decodeConfig(attr)
		allDiags = append(allDiags, diags...)
		m.Config = cfg
	}

	var lifecycleDiags hcl.Diagnostics
	m.Lifecycle, lifecycleDiags = parseLifecycle(content.Blocks)
	allDiags = append(allDiags, lifecycleDiags...)

	return m, allDiags
}

// decodeIncludes accepts a list or tuple of strings.
func decodeIncludes(attr *hcl.Attribute) ([]string, hcl.Diagnostics) {
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}

	list, err := convert.Convert(val, cty.List(cty.String))
	if err != nil {
		return nil, append(diags, attributeError(attr, "Invalid include list", err))
	}
	if list.IsNull() {
		return nil, diags
	}
	if !list.IsWhollyKnown() {
		return nil, append(diags, attributeError(attr, "Invalid include list", fmt.Errorf("value must be known")))
	}

	var includes []string
	if err := gocty.FromCtyValue(list, &includes); err != nil {
		return nil, append(diags, attributeError(attr, "Invalid include list", err))
	}
	for i, inc := range includes {
		if inc == "" {
			return nil, append(diags, attributeError(attr, "Invalid include list", fmt.Errorf("element %d is empty", i)))
		}
	}
	return includes, diags
}

// decodeConfig accepts an object or map whose values convert to strings.
func decodeConfig(attr *hcl.Attribute) (map[string]string, hcl.Diagnostics) {
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}

	m, err := convert.Convert(val, cty.Map(cty.String))
	if err != nil {
		return nil, append(diags, attributeError(attr, "Invalid config", err))
	}
	if m.IsNull() || m.LengthInt() == 0 {
		return map[string]string{}, diags
	}

	cfg := make(map[string]string, m.LengthInt())
	if err := gocty.FromCtyValue(m, &cfg); err != nil {
		return nil, append(diags, attributeError(attr, "Invalid config", err))
	}
	return cfg, diags
}

func attributeError(attr *hcl.Attribute, summary string, err error) *hcl.Diagnostic {
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  summary,
		Detail:   fmt.Sprintf("The %q attribute: %s.", attr.Name, err),
		Subject:  attr.Expr.Range().Ptr(),
	}
}
