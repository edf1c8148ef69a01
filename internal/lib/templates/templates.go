// Package templates renders the embedded HTML email bodies.
package templates

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed *.html
var files embed.FS

var tmpl = template.Must(template.ParseFS(files, "*.html"))

const (
	EmailVerification = "email_verification.html"
	Welcome           = "welcome.html"
	PasswordReset     = "password_reset.html"
)

func Render(name string, data any) (string, error) {
	const op = "templates.Render"

	var sb strings.Builder

	if err := tmpl.ExecuteTemplate(&sb, name, data); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return sb.String(), nil
}
