// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command jsonschema-validate compiles a JSON Schema document and
// evaluates an instance document against it, printing the result in one
// of the four standard output formats.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/dmorawetz/jsonschema-go/jsonschema"
)

var cli struct {
	Schema   string `arg:"" help:"Path to the JSON Schema document (JSON or YAML)."`
	Instance string `arg:"" help:"Path to the instance document to validate (JSON or YAML)."`

	BaseURI string `help:"Base URI to resolve the schema's internal references against." default:""`
	Output  string `help:"Output format: flag, basic, detailed, or verbose." default:"basic" enum:"flag,basic,detailed,verbose"`
	Draft   string `help:"Force a specific draft instead of inferring it from \"$schema\"." enum:",6,7,2019-09,2020-12,next" default:""`
	Format  bool   `help:"Set RequireFormatValidation. This tool registers no format checkers, so \"format\" remains an annotation." default:"false"`
}

func main() {
	kong.Parse(&cli,
		kong.Name("jsonschema-validate"),
		kong.Description("Validate a JSON instance document against a JSON Schema."),
		kong.UsageOnError(),
	)
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	schema, err := loadSchema(cli.Schema)
	if err != nil {
		return fmt.Errorf("loading schema: %w", err)
	}
	instance, err := loadInstance(cli.Instance)
	if err != nil {
		return fmt.Errorf("loading instance: %w", err)
	}

	opts := &jsonschema.Options{
		RequireFormatValidation: cli.Format,
	}
	if d, ok := draftFlagValues[cli.Draft]; ok {
		opts.EvaluatingAs = d
	}

	rs, err := jsonschema.Compile(schema, cli.BaseURI, opts)
	if err != nil {
		return fmt.Errorf("compiling schema: %w", err)
	}
	res, err := rs.Evaluate(instance, opts)
	if err != nil {
		var iv *jsonschema.InternalInvariantViolation
		if errors.As(err, &iv) {
			log.Printf("run %s hit an internal invariant violation", iv.RunID)
		}
		return fmt.Errorf("evaluating instance: %w", err)
	}

	format, ok := outputFlagValues[cli.Output]
	if !ok {
		return fmt.Errorf("unrecognized output format %q", cli.Output)
	}
	out, err := json.MarshalIndent(res.Output(format), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling output: %w", err)
	}
	fmt.Println(string(out))

	if !res.Valid {
		os.Exit(1)
	}
	return nil
}

var draftFlagValues = map[string]jsonschema.Draft{
	"6":       jsonschema.Draft6,
	"7":       jsonschema.Draft7,
	"2019-09": jsonschema.Draft2019_09,
	"2020-12": jsonschema.Draft2020_12,
	"next":    jsonschema.DraftNext,
}

var outputFlagValues = map[string]jsonschema.OutputFormat{
	"flag":     jsonschema.Flag,
	"basic":    jsonschema.Basic,
	"detailed": jsonschema.Detailed,
	"verbose":  jsonschema.Verbose,
}

// loadSchema reads path, which may be JSON or YAML (a superset of JSON),
// and unmarshals it into a *jsonschema.Schema.
func loadSchema(path string) (*jsonschema.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, err
	}
	var s *jsonschema.Schema
	if err := json.Unmarshal(jsonData, &s); err != nil {
		return nil, err
	}
	return s, nil
}

// loadInstance reads path, which may be JSON or YAML, decoding numbers as
// json.Number so the instance round-trips exactly the way the engine's
// value model requires.
func loadInstance(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(jsonData))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
