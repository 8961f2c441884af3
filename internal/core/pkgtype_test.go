package core

import (
	"errors"
	"testing"
)

func TestTypeFromFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     PackageType
		wantErr  bool
	}{
		{"tool-1.0-1.el7.x86_64.rpm", RPM, false},
		{"/tmp/pkgs/tool_1.0-1_amd64.deb", DEB, false},
		{"hello_2.10-2.dsc", DSC, false},
		{"tool-1.0.gem", "", true},
		{"README", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got, err := TypeFromFilename(tt.filename)
			if (err != nil) != tt.wantErr {
				t.Fatalf("TypeFromFilename(%q) error = %v, wantErr %v", tt.filename, err, tt.wantErr)
			}
			if tt.wantErr {
				var ute *UnsupportedTypeError
				if !errors.As(err, &ute) {
					t.Errorf("error = %T, want *UnsupportedTypeError", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("TypeFromFilename(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}

func TestPackageTypeKinds(t *testing.T) {
	if !RPM.IsBinary() || !DEB.IsBinary() || DSC.IsBinary() {
		t.Error("IsBinary wrong for rpm/deb/dsc")
	}
	if !DSC.IsSource() || RPM.IsSource() {
		t.Error("IsSource wrong for dsc/rpm")
	}
	if DSC.ContentType() != "application/x-dsc" {
		t.Errorf("ContentType() = %q, want application/x-dsc", DSC.ContentType())
	}
}

func TestNotFoundError(t *testing.T) {
	err := error(&NotFoundError{Kind: "distribution", Name: "el/9"})
	if !errors.Is(err, ErrNotFound) {
		t.Error("NotFoundError does not unwrap to ErrNotFound")
	}
	if err.Error() != "no distribution id found for: el/9" {
		t.Errorf("Error() = %q", err.Error())
	}

	err = &NotFoundError{Kind: "master token", Name: "ci"}
	if err.Error() != "master token ci not found" {
		t.Errorf("Error() = %q", err.Error())
	}
}
