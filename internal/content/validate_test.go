package content

import (
	"testing"
	"testing/fstest"
)

func TestValidateSnapshot(t *testing.T) {
	good, err := LoadSeed(testSiteOptions())
	if err != nil {
		t.Fatal(err)
	}

	missingIndex := *good
	rendered := fstest.MapFS{}
	for _, name := range []string{"projects/index.html", "404.html", "sitemap.xml"} {
		rendered[name] = &fstest.MapFile{Data: []byte("x")}
	}
	missingIndex.FS = rendered

	emptyIndex := *good
	emptyIndex.FS = fstest.MapFS{
		"index.html":          {Data: nil},
		"projects/index.html": {Data: []byte("x")},
		"404.html":            {Data: []byte("x")},
		"sitemap.xml":         {Data: []byte("x")},
	}

	tests := []struct {
		name    string
		snap    *Snapshot
		opts    ValidationOptions
		wantErr bool
	}{
		{"seed passes", good, DefaultValidationOptions(), false},
		{"nil", nil, DefaultValidationOptions(), true},
		{"unrendered", &Snapshot{}, DefaultValidationOptions(), true},
		{"missing index", &missingIndex, DefaultValidationOptions(), true},
		{"empty index", &emptyIndex, DefaultValidationOptions(), true},
		{"too few projects", good, ValidationOptions{MinProjects: 1000}, true},
		{"checks disabled", &missingIndex, ValidationOptions{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSnapshot(tt.snap, tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
