package notify

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/reset_email.html
var templates embed.FS

var resetTemplate = template.Must(template.ParseFS(templates, "templates/reset_email.html"))

// ResetEmailSubject is the subject line of password-reset mail.
const ResetEmailSubject = "Password Reset Instructions"

// RenderResetEmail produces the plain-text and HTML bodies of a reset
// message. The greeting uses the local part of the address as a username.
func RenderResetEmail(email, resetURL string) (plainText, html string, err error) {
	username := email
	if i := strings.Index(email, "@"); i > 0 {
		username = email[:i]
	}

	var sb strings.Builder
	if err := resetTemplate.Execute(&sb, struct {
		Username string
		ResetURL string
	}{Username: username, ResetURL: resetURL}); err != nil {
		return "", "", err
	}

	plainText = fmt.Sprintf(`Hello %s,

You have requested to reset your password. Please use the following link to reset your password:

%s

If you did not request a password reset, please ignore this email.

Best regards,
The accounts team
`, username, resetURL)

	return plainText, sb.String(), nil
}
