package models

import (
	"reflect"
	"testing"
)

func TestCategoryInput_Validate(t *testing.T) {
	tests := []struct {
		name     string
		in       CategoryInput
		wantErr  bool
		wantSlug string
		wantName string
	}{
		{"empty slug", CategoryInput{}, true, "", ""},
		{"slug with spaces", CategoryInput{Slug: "verse bloemen"}, true, "", ""},
		{"double dash", CategoryInput{Slug: "verse--bloemen"}, true, "", ""},
		{"normalizes slug", CategoryInput{Slug: "  Verse-Bloemen "}, false, "verse-bloemen", "verse-bloemen"},
		{"keeps name", CategoryInput{Slug: "rozen", Name: " Rozen "}, false, "rozen", "Rozen"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.in
			err := in.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if in.Slug != tt.wantSlug || in.Name != tt.wantName {
				t.Errorf("got slug=%q name=%q, want slug=%q name=%q", in.Slug, in.Name, tt.wantSlug, tt.wantName)
			}
		})
	}
}

func TestNormalizeKeywords(t *testing.T) {
	got := NormalizeKeywords([]string{" rozen ", "", "Rozen", "verse bloemen", "  ", "ROZEN", "tulpen"})
	want := []string{"rozen", "verse bloemen", "tulpen"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeKeywords = %q, want %q", got, want)
	}
}
