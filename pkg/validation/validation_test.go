package validation

import (
	"testing"
)

func TestValidateThreadCount(t *testing.T) {
	tests := []struct {
		name    string
		threads int
		wantErr bool
	}{
		{"valid minimum", 1, false},
		{"valid middle", 4, false},
		{"valid maximum", 8, false},
		{"too low", 0, true},
		{"negative", -1, true},
		{"too high", 9, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateThreadCount(tt.threads)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateThreadCount(%d) error = %v, wantErr %v", tt.threads, err, tt.wantErr)
			}
		})
	}
}

func TestValidateGameID(t *testing.T) {
	tests := []struct {
		name    string
		id      int
		wantErr bool
	}{
		{"valid positive", 123, false},
		{"valid large", 999999, false},
		{"zero", 0, true},
		{"negative", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGameID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateGameID(%d) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestValidateNonEmptyString(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"valid string", "Hades", false},
		{"empty", "", true},
		{"only whitespace", " \t ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNonEmptyString("title", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateNonEmptyString(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestValidateArchiveFilename(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		wantErr  bool
	}{
		{"plain rar", "Left_4_Dead.rar", false},
		{"no extension", "Hades", false},
		{"empty", "", true},
		{"dot", ".", true},
		{"parent", "..", true},
		{"unix separator", "../evil.rar", true},
		{"windows separator", `dir\game.rar`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateArchiveFilename(tt.filename)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateArchiveFilename(%q) error = %v, wantErr %v", tt.filename, err, tt.wantErr)
			}
		})
	}
}

func TestValidateDownloadURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"https", "https://cdn.example.com/game.rar", false},
		{"http", "http://localhost:8787/game.rar", false},
		{"ftp", "ftp://example.com/game.rar", true},
		{"relative", "/game.rar", true},
		{"garbage", "://", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDownloadURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDownloadURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestValidateRateLimit(t *testing.T) {
	if err := ValidateRateLimit(0); err != nil {
		t.Errorf("zero disables the limit, got %v", err)
	}
	if err := ValidateRateLimit(-5); err == nil {
		t.Error("expected error for negative rate")
	}
}
