/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// projectSchema describes the on-disk project document. Validation issues
// are advisory: a non-conforming but parseable document is still loaded
// and then repaired.
const projectSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "ProjectData",
  "type": "object",
  "required": ["name", "pages", "pageContents"],
  "properties": {
    "name": {"type": "string"},
    "description": {"type": "string"},
    "pages": {"type": "array", "items": {"type": "string"}},
    "currentPage": {"type": "string"},
    "pageContents": {
      "type": "object",
      "additionalProperties": {"$ref": "#/definitions/page"}
    },
    "createdTime": {"type": "integer"},
    "lastModifiedTime": {"type": "integer"},
    "version": {"type": "string"},
    "editResolution": {"type": "string", "pattern": "^[0-9]+x[0-9]+$"}
  },
  "definitions": {
    "page": {
      "type": "object",
      "required": ["name"],
      "properties": {
        "name": {"type": "string"},
        "components": {"type": "array", "items": {"$ref": "#/definitions/component"}},
        "createdTime": {"type": "integer"},
        "lastModifiedTime": {"type": "integer"},
        "backgroundImage": {"type": "string"},
        "backgroundColor": {"type": "string"}
      }
    },
    "component": {
      "type": "object",
      "required": ["functionType"],
      "properties": {
        "x": {"type": "integer"},
        "y": {"type": "integer"},
        "width": {"type": "integer"},
        "height": {"type": "integer"},
        "originalWidth": {"type": "integer"},
        "originalHeight": {"type": "integer"},
        "relativePosition": {"$ref": "#/definitions/relativePosition"},
        "positionMode": {"type": "string", "enum": ["ABSOLUTE", "RELATIVE"]},
        "functionType": {"type": "string"},
        "labelData": {"type": "object"},
        "componentId": {"type": "string"},
        "visible": {"type": "boolean"},
        "enabled": {"type": "boolean"},
        "tooltip": {"type": "string"},
        "cssClass": {"type": "string"}
      }
    },
    "relativePosition": {
      "type": "object",
      "properties": {
        "relativeX": {"type": "number", "minimum": 0, "maximum": 1},
        "relativeY": {"type": "number", "minimum": 0, "maximum": 1},
        "relativeWidth": {"type": "number", "minimum": 0, "maximum": 1},
        "relativeHeight": {"type": "number", "minimum": 0, "maximum": 1},
        "minWidth": {"type": "integer"},
        "minHeight": {"type": "integer"},
        "maxWidth": {"type": "integer"},
        "maxHeight": {"type": "integer"}
      }
    }
  }
}`

var compiledSchema *gojsonschema.Schema

func init() {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(projectSchema))
	if err != nil {
		panic(fmt.Sprintf("invalid embedded project schema: %v", err))
	}
	compiledSchema = s
}

// ValidateDocument checks raw JSON against the project schema. It returns
// the list of conformance issues; an error means the input is not valid
// JSON at all.
func ValidateDocument(data []byte) ([]string, error) {
	res, err := compiledSchema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}
	if res.Valid() {
		return nil, nil
	}
	issues := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		issues = append(issues, e.String())
	}
	return issues, nil
}
