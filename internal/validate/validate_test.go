package validate

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type sample struct {
	Name    string `json:"name" validate:"required"`
	Retries int    `envconfig:"RETRIES" validate:"gte=0"`
	Method  string `flag:"method" validate:"oneof=GET POST"`
	Plain   int    `validate:"lte=5"`
}

func TestStruct(t *testing.T) {
	testCases := map[string]struct {
		val       sample
		expFields map[string]string
	}{
		"valid": {
			val: sample{Name: "a", Method: "GET"},
		},
		"allInvalid": {
			val: sample{Retries: -1, Method: "PUT", Plain: 9},
			expFields: map[string]string{
				"name":    "This field is required",
				"RETRIES": "RETRIES must be 0 or greater",
				"method":  "method must be one of [GET POST]",
				"Plain":   "Plain must be 5 or less",
			},
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			err := Struct(tc.val)
			if tc.expFields == nil {
				if err != nil {
					t.Fatalf("exp nil err, got: %v", err)
				}
				return
			}

			var fields FieldErrors
			if !errors.As(err, &fields) {
				t.Fatalf("exp FieldErrors, got: %v", err)
			}
			if diff := cmp.Diff(tc.expFields, fields.Fields()); diff != "" {
				t.Errorf("field errors mismatch (-exp +got):\n%s", diff)
			}
		})
	}
}

func TestFieldErrors_Error(t *testing.T) {
	fe := FieldErrors{{Field: "a", Err: "bad"}}

	if got := fe.Error(); got != `[{"field":"a","error":"bad"}]` {
		t.Errorf("unexpected error string %s", got)
	}
}
