package testutil

import (
	"fmt"

	"github.com/roach88/formic/internal/compiler"
	"github.com/roach88/formic/internal/config"
)

// registrationJSON is a small but complete configuration exercising
// every rule kind except custom: required, pattern, length, range,
// crossField, plus visibility driven by another element's value.
//
// guardian is only visible while age is under 18; age declares the
// reverse dependency edge so edits to age recompute guardian.
const registrationJSON = `{
  "id": "registration",
  "pages": [
    {
      "id": "main",
      "title": "Registration",
      "order": 1,
      "sections": [
        {
          "id": "personal",
          "order": 1,
          "components": [
            {
              "id": "name",
              "type": "text",
              "order": 1,
              "label": "Full name",
              "rules": [
                {"type": "required", "message": "name is required"},
                {"type": "length", "minLength": 2, "maxLength": 50}
              ]
            },
            {
              "id": "email",
              "type": "text",
              "order": 2,
              "label": "Email",
              "rules": [
                {"type": "required"},
                {"type": "pattern", "pattern": "^[^@\\s]+@[^@\\s]+\\.[^@\\s]+$", "message": "not an email address"}
              ]
            },
            {
              "id": "age",
              "type": "number",
              "order": 3,
              "label": "Age",
              "dependentIds": ["guardian"],
              "rules": [
                {"type": "range", "minValue": 0, "maxValue": 120}
              ]
            },
            {
              "id": "guardian",
              "type": "text",
              "order": 4,
              "label": "Guardian name",
              "visibleWhen": {"<": [{"var": "age"}, 18]},
              "rules": [
                {"type": "required", "message": "guardian required for minors"}
              ]
            }
          ]
        },
        {
          "id": "credentials",
          "order": 2,
          "components": [
            {
              "id": "password",
              "type": "password",
              "order": 1,
              "dependentIds": ["confirm"],
              "rules": [
                {"type": "required"},
                {"type": "length", "minLength": 8, "maxLength": 64}
              ]
            },
            {
              "id": "confirm",
              "type": "password",
              "order": 2,
              "rules": [
                {"type": "crossField", "relatedField": "password", "relation": "eq", "message": "passwords do not match"}
              ]
            }
          ]
        },
        {
          "id": "controls",
          "order": 3,
          "components": [
            {
              "id": "submitBtn",
              "type": "button",
              "order": 1,
              "label": "Submit",
              "action": {"id": "submit", "kind": "submit"}
            },
            {
              "id": "resetBtn",
              "type": "button",
              "order": 2,
              "label": "Reset",
              "action": {"id": "reset", "kind": "reset"}
            }
          ]
        }
      ]
    }
  ],
  "journeys": [
    {"id": "signup", "pages": ["main"], "allowBack": true, "allowForward": false}
  ]
}`

// RegistrationConfig compiles the canned registration configuration.
// Panics on compile errors: the fixture is static, a failure means the
// fixture itself is broken.
func RegistrationConfig() *config.Config {
	return MustCompile(registrationJSON)
}

// RegistrationJSON returns the raw fixture document for loader tests.
func RegistrationJSON() []byte {
	return []byte(registrationJSON)
}

// MustCompile compiles a configuration document or panics.
func MustCompile(doc string) *config.Config {
	cfg, errs := compiler.Compile([]byte(doc))
	if len(errs) > 0 {
		panic(fmt.Sprintf("fixture configuration invalid: %v", errs))
	}
	return cfg
}

// MustExpr parses a raw expression or panics. For building
// configurations programmatically in tests.
func MustExpr(raw any) config.Node {
	n, err := config.ParseExpr(raw)
	if err != nil {
		panic(fmt.Sprintf("fixture expression invalid: %v", err))
	}
	return n
}
