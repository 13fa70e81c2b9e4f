// ABOUTME: Tests for version constants
// ABOUTME: Ensures version information is properly defined
package version

import "testing"

func TestVersionDefined(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if len(Version) > 100 {
		t.Error("Version string is unreasonably long")
	}
}

func TestProductDefined(t *testing.T) {
	if Product == "" {
		t.Error("Product should not be empty")
	}
	if len(Product) > 100 {
		t.Error("Product name is unreasonably long")
	}
}
