package errors

import (
	"strings"
	"testing"
)

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "RESPONSE", false},
		{"with dash", "choice-A", false},
		{"with dot", "item.1", false},
		{"leading underscore", "_x", false},
		{"unicode letter", "réponse", false},

		{"empty", "", true},
		{"leading digit", "1abc", true},
		{"space", "a b", true},
		{"colon", "a:b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIdentifier(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateIdentifier(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURI(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"absolute", "http://www.imsglobal.org/xsd/imsqti_v2p1", false},
		{"relative", "images/sign.png", false},
		{"empty", "", false},

		{"space", "images/my sign.png", true},
		{"newline", "a\nb", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURI(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURI(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative", "items/choice.xml", false},
		{"absolute", "/tmp/choice.xml", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 5000), true},
		{"null byte", "foo\x00bar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateDocumentID(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"3f1c6b1e-6f0e-4d4b-9a59-0d0b7b5b8a11", false},
		{"", true},
		{"../etc", true},
		{"a/b", true},
	}

	for _, tt := range tests {
		if err := ValidateDocumentID(tt.input); (err != nil) != tt.wantErr {
			t.Errorf("ValidateDocumentID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}
