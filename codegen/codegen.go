// Package codegen renders planned dialects into source units for a target
// language.
//
// # Architecture
//
// The compile pipeline is split in two layers:
//  1. Language-agnostic stages (schema, model, layout, binder) produce planned
//     dialects and an aggregate
//  2. Language-specific generators (golang/, markdown/) format them
//
// Generators see only the planned model, never definition text, so adding a
// target never touches parsing, validation or layout.
//
// # Implementing a New Generator
//
//  1. Create package: codegen/<lang>/generator.go
//  2. Implement the Generator interface
//  3. Register it in compiler.Generators
//  4. Accept the language in am.Config.Validate
//
// Output must be deterministic: the same dialects produce byte-identical
// units, so regenerating into a clean tree is a no-op and `mavgen check`
// can diff.
package codegen

import (
	"github.com/teranos/mavgen/binder"
	"github.com/teranos/mavgen/layout"
)

// Generator renders dialects for one target language.
type Generator interface {
	// Language returns the language name (e.g., "go", "markdown")
	Language() string

	// FileExtension returns the file extension for this language (e.g., "go", "md")
	FileExtension() string

	// GenerateUnit renders one dialect
	GenerateUnit(d *layout.Dialect) (*Unit, error)

	// GenerateAggregate renders the unit binding every dialect
	GenerateAggregate(agg *binder.Aggregate) (*Unit, error)
}

// Unit is one generated file.
type Unit struct {
	// Path is slash-separated and relative to the output directory.
	Path string
	// Dialect is the dialect rendered, empty for the aggregate unit.
	Dialect string
	Content []byte
}

// Header is the first line of every generated source file.
const Header = "Code generated by mavgen. DO NOT EDIT."
