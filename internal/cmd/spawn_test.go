package cmd

import (
	"reflect"
	"testing"

	"github.com/ppgdev/ppg/internal/errs"
)

func TestParseVars(t *testing.T) {
	tests := []struct {
		name  string
		pairs []string
		want  map[string]string
		ok    bool
	}{
		{"empty", nil, nil, true},
		{"single", []string{"file=auth.go"}, map[string]string{"file": "auth.go"}, true},
		{
			"multiple with equals in value",
			[]string{"a=1", "expr=x=y"},
			map[string]string{"a": "1", "expr": "x=y"},
			true,
		},
		{"empty value", []string{"flag="}, map[string]string{"flag": ""}, true},
		{"no equals", []string{"broken"}, nil, false},
		{"empty key", []string{"=v"}, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseVars(tt.pairs)
			if !tt.ok {
				if !errs.HasCode(err, errs.InvalidArgs) {
					t.Errorf("parseVars() = %v, want INVALID_ARGS", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseVars() = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseVars() = %v, want %v", got, tt.want)
			}
		})
	}
}
