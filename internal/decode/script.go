package decode

import (
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// renderScript evaluates an executable-script configuration file. Scripts are
// Go templates with the sprig function map; the rendered output must be an
// equivalent declarative mapping (or empty for no config).
func renderScript(path string, data []byte) (string, error) {
	tmpl, err := template.New(filepath.Base(path)).
		Funcs(sprig.FuncMap()).
		Parse(string(data))
	if err != nil {
		return "", fmt.Errorf("invalid script %s: %w", path, err)
	}

	var out strings.Builder
	if err := tmpl.Execute(&out, nil); err != nil {
		return "", fmt.Errorf("script %s failed: %w", path, err)
	}
	return out.String(), nil
}
