package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"subject":"Hi","body":"Welcome"}`, false},
		{"missing body", `{"subject":"Hi"}`, true},
		{"empty subject", `{"subject":"","body":"x"}`, true},
		{"wrong type", `{"subject":1,"body":"x"}`, true},
		{"extra property", `{"subject":"Hi","body":"x","ps":"y"}`, true},
		{"malformed", `{not json}`, true},
		{"empty", ``, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(welcomeSchema(), json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var inv *ErrInvalidResponse
				if !errors.As(err, &inv) {
					t.Fatalf("expected ErrInvalidResponse, got %T", err)
				}
			}
		})
	}
}

func TestValidateResponse_NilSchema(t *testing.T) {
	if err := validateResponse(nil, json.RawMessage(`anything`)); err != nil {
		t.Fatalf("expected no error with nil schema, got: %v", err)
	}
}

func TestValidateResponse_NestedArray(t *testing.T) {
	schema := &Schema{
		Name: "test-path-summary",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"capsules": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
			},
			"required": []any{"capsules"},
		},
	}

	if err := validateResponse(schema, json.RawMessage(`{"capsules":["intro","sensors"]}`)); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if err := validateResponse(schema, json.RawMessage(`{"capsules":[1,2]}`)); err == nil {
		t.Fatal("expected error for wrong item type")
	}
}
