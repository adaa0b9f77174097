package detection

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseClassNames(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		want    ClassNames
		wantErr bool
	}{
		{
			name: "list form",
			yaml: "path: data\nnames:\n  - induration\n  - fiducial\n",
			want: ClassNames{0: "induration", 1: "fiducial"},
		},
		{
			name: "map form",
			yaml: "names:\n  0: induration\n  1: fiducial\n  5: ruler\n",
			want: ClassNames{0: "induration", 1: "fiducial", 5: "ruler"},
		},
		{
			name:    "missing names",
			yaml:    "nc: 2\n",
			wantErr: true,
		},
		{
			name:    "empty list",
			yaml:    "names: []\n",
			wantErr: true,
		},
		{
			name:    "not yaml",
			yaml:    "names: [unterminated",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseClassNames([]byte(tc.yaml))
			if tc.wantErr {
				if err == nil {
					t.Errorf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseClassNames: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for id, name := range tc.want {
				if got[id] != name {
					t.Errorf("id %d: got %q, want %q", id, got[id], name)
				}
			}
		})
	}
}

func TestLoadClassNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.yaml")
	if err := os.WriteFile(path, []byte("names: [induration, fiducial]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	names, err := LoadClassNames(path)
	if err != nil {
		t.Fatalf("LoadClassNames: %v", err)
	}
	if label, _ := names.Label(1); label != LabelFiducial {
		t.Errorf("class 1: got %q, want %q", label, LabelFiducial)
	}

	if _, err := LoadClassNames(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
