/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"testing"
)

func TestSchemaAcceptsSavedDocument(t *testing.T) {
	data := mustMarshal(t, sampleProject())
	issues, err := ValidateDocument(data)
	if err != nil {
		t.Fatalf("ValidateDocument error: %v", err)
	}
	if len(issues) != 0 {
		t.Fatalf("saved document must conform to schema, issues: %v", issues)
	}
}

func TestSchemaFlagsWrongTypes(t *testing.T) {
	doc := `{"name":"p","pages":"not-a-list","pageContents":{}}`
	issues, err := ValidateDocument([]byte(doc))
	if err != nil {
		t.Fatalf("ValidateDocument error: %v", err)
	}
	if len(issues) == 0 {
		t.Fatalf("wrong-typed pages must be flagged")
	}
}

func TestSchemaFlagsBadResolution(t *testing.T) {
	doc := `{"name":"p","pages":[],"pageContents":{},"editResolution":"huge"}`
	issues, err := ValidateDocument([]byte(doc))
	if err != nil {
		t.Fatalf("ValidateDocument error: %v", err)
	}
	if len(issues) == 0 {
		t.Fatalf("malformed editResolution must be flagged")
	}
}

func TestSchemaRejectsNonJSON(t *testing.T) {
	if _, err := ValidateDocument([]byte("{broken")); err == nil {
		t.Fatalf("non-JSON input must error")
	}
}
