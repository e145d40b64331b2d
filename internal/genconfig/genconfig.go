// Package genconfig loads the optional HCL configuration file for the
// tabula-gen tool. CLI flags override anything set here.
//
//	generate {
//	  packages = ["./model"]
//	  output   = "gamedata/data_gen.go"
//	  package  = "gamedata"
//	  context  = "GameData"
//	}
package genconfig

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Generate holds the settings of the generate block.
type Generate struct {
	// Packages are the go/packages patterns scanned for models.
	Packages []string `hcl:"packages"`
	// Output is the generated file path.
	Output string `hcl:"output,optional"`
	// Package is the generated package name.
	Package string `hcl:"package,optional"`
	// Context is the aggregator type name.
	Context string `hcl:"context,optional"`
}

type file struct {
	Generate *Generate `hcl:"generate,block"`
}

// Load parses and decodes the config file at path.
func Load(path string) (*Generate, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse config %s: %w", path, diags)
	}

	var f file
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &f); diags.HasErrors() {
		return nil, fmt.Errorf("decode config %s: %w", path, diags)
	}
	if f.Generate == nil {
		return nil, fmt.Errorf("config %s has no generate block", path)
	}
	return f.Generate, nil
}
