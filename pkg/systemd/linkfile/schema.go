// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package linkfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/alecthomas/jsonschema"
	validator "github.com/santhosh-tekuri/jsonschema"
	"gopkg.in/yaml.v3"
)

var ESchema = errors.New("rules do not match schema")

// only used as a key; nothing is fetched
const schemaURL = "https://schemas.truenas.local/link-rules.json"

var (
	compileOnce sync.Once
	compiled    *validator.Schema
	compileErr  error
)

// Schema describes a rules file: a list of Rule objects with no unknown
// keys. Semantic checks (file name, match conditions, MAC syntax) are left
// to Parse.
func Schema() *jsonschema.Schema { return jsonschema.Reflect(&[]Rule{}) }

func ruleSchema() (*validator.Schema, error) {
	compileOnce.Do(func() {
		var data []byte
		data, compileErr = json.Marshal(Schema())
		if compileErr != nil {
			return
		}
		c := validator.NewCompiler()
		if compileErr = c.AddResource(schemaURL, bytes.NewReader(data)); compileErr != nil {
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
	})
	return compiled, compileErr
}

// checkSchema catches misspelled keys, which yaml.Unmarshal ignores.
func checkSchema(data []byte) error {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc == nil {
		return nil
	}
	j, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	s, err := ruleSchema()
	if err != nil {
		return err
	}
	if err = s.Validate(bytes.NewReader(j)); err != nil {
		return fmt.Errorf("%w: %s", ESchema, err)
	}
	return nil
}
