package ireporter

import (
	"errors"
	"testing"
)

func TestBuild(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		base    string
		machine string
		id      string
		want    string
		wantErr error
	}{
		{
			name:    "default base",
			machine: "AB1-Press",
			id:      "1-1",
			want:    "http://10.1.30.90:3000/api/v1/getvalue/KIM_Interface?machine_name=AB1-Press&mapping_config=1-1",
		},
		{
			name:    "spaces become underscores",
			base:    "https://reporter.local/api",
			machine: "AB1 Press Line 2",
			id:      "7",
			want:    "https://reporter.local/api?machine_name=AB1_Press_Line_2&mapping_config=7",
		},
		{
			name:    "no machine",
			id:      "1",
			wantErr: ErrNoMachine,
		},
		{
			name:    "no config",
			machine: "AB1-Press",
			id:      "  ",
			wantErr: ErrNoConfig,
		},
		{
			name:    "machine checked first",
			wantErr: ErrNoMachine,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Build(tt.base, tt.machine, tt.id)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Build() error = %v, want %v", err, tt.wantErr)
				}
				if got != "" {
					t.Errorf("Build() = %q on error, want empty", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Build() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Build() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSelectionMessages(t *testing.T) {
	t.Parallel()

	if ErrNoMachine.Error() != "Please select a Machine to generate a URL." {
		t.Errorf("ErrNoMachine = %q", ErrNoMachine)
	}
	if ErrNoConfig.Error() != "Please select a Mapping Configuration to generate a URL." {
		t.Errorf("ErrNoConfig = %q", ErrNoConfig)
	}
}
