package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateArgument(t *testing.T) {
	tests := []struct {
		name    string
		arg     string
		wantErr bool
	}{
		{"plain flag", "--watch", false},
		{"relative script", ".fymo/driver-123.mjs", false},
		{"semicolon injection", "foo;rm -rf /", true},
		{"pipe injection", "foo|cat", true},
		{"backtick injection", "foo`id`", true},
		{"subshell", "$(id)", true},
		{"traversal", "../../etc/passwd", true},
		{"quotes", `foo"bar`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateArgument(tt.arg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateCommand(t *testing.T) {
	allowed := map[string]bool{"node": true}

	assert.NoError(t, ValidateCommand("node", allowed))
	assert.NoError(t, ValidateCommand("/usr/local/bin/node", allowed))
	assert.Error(t, ValidateCommand("", allowed))
	assert.Error(t, ValidateCommand("python3", allowed))
	assert.Error(t, ValidateCommand("/opt/../bin/node", allowed))
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"relative asset", "css/index.css", false},
		{"nested", "components/todo/index.js", false},
		{"empty", "", true},
		{"traversal", "../secrets.yml", true},
		{"hidden traversal", "css/../../secrets.yml", true},
		{"system file", "/etc/passwd", true},
		{"proc", "/proc/self/environ", true},
		{"shell chars", "css;id.css", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateOrigin(t *testing.T) {
	allowed := []string{"localhost:3000", "127.0.0.1:3000"}

	assert.NoError(t, ValidateOrigin("http://localhost:3000", allowed))
	assert.NoError(t, ValidateOrigin("https://127.0.0.1:3000", allowed))
	assert.Error(t, ValidateOrigin("", allowed))
	assert.Error(t, ValidateOrigin("http://evil.example", allowed))
	assert.Error(t, ValidateOrigin("file:///etc/passwd", allowed))
}

func TestValidateFileExtension(t *testing.T) {
	allowed := []string{".css", ".js", ".svg"}

	assert.NoError(t, ValidateFileExtension("site.css", allowed))
	assert.NoError(t, ValidateFileExtension("logo.SVG", allowed))
	assert.Error(t, ValidateFileExtension("", allowed))
	assert.Error(t, ValidateFileExtension("noext", allowed))
	assert.Error(t, ValidateFileExtension("shell.sh", allowed))
}
