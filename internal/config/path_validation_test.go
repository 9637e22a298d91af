package config

import (
	"path/filepath"
	"testing"
)

func TestValidateConfigPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	userDir := filepath.Join(home, ".config", "fixd")

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"user config", filepath.Join(userDir, "config.yaml"), false},
		{"user subdir", filepath.Join(userDir, "prod", "config.yaml"), false},
		{"tilde path", "~/.config/fixd/config.yaml", false},
		{"system config", "/etc/fixd/config.yaml", false},
		{"system subdir", "/etc/fixd/staging/config.yaml", false},
		{"missing file in allowed dir", filepath.Join(userDir, "absent.yaml"), false},

		{"escape through dotdot", "~/.config/fixd/../../../../etc/passwd", true},
		{"sibling with shared prefix", "/etc/fixd../etc/passwd", true},
		{"other system file", "/etc/passwd", true},
		{"tmp", "/tmp/config.yaml", true},
		{"state dir", "/var/lib/fixd/config.yaml", true},
		{"other user dir", filepath.Join(home, ".config", "fixd-old", "config.yaml"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateConfigPath(tt.path)
			if tt.wantErr && err == nil {
				t.Errorf("validateConfigPath(%q) succeeded, want error", tt.path)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("validateConfigPath(%q) error = %v", tt.path, err)
			}
		})
	}
}
