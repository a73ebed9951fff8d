package flagx

import (
	"reflect"
	"testing"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate value",
			args:    []string{"-d", "dsn", "-x", "other"},
			allowed: []string{"-d"},
			want:    []string{"-d", "dsn"},
		},
		{
			name:    "equals form",
			args:    []string{"--config=conf.json", "-d=dsn", "-z=nope"},
			allowed: []string{"--config", "-d"},
			want:    []string{"--config=conf.json", "-d=dsn"},
		},
		{
			name:    "flag without value followed by another flag",
			args:    []string{"-v", "-d", "dsn"},
			allowed: []string{"-v", "-d"},
			want:    []string{"-v", "-d", "dsn"},
		},
		{
			name:    "nothing allowed",
			args:    []string{"-a", "1", "-b", "2"},
			allowed: nil,
			want:    []string{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := FilterArgs(tc.args, tc.allowed)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("FilterArgs() = %v, want %v", got, tc.want)
			}
		})
	}
}
