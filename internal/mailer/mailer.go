// Package mailer turns contact submissions into emails and sends them.
//
// Rendering and sending are separate: Composer builds a Message from a
// submission using the embedded HTML template, and a Transport delivers
// it. The contact service depends only on the Transport interface, so
// tests substitute a fake and never open a socket.
package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/sudeepta/portfolio/internal/model"
)

//go:embed templates/contact.html
var templateFS embed.FS

// markup neutralises the two characters that can open or close a tag.
// Every other character, including '+', '&' and quotes, reaches the email
// exactly as the visitor typed it.
var markup = strings.NewReplacer("<", "&lt;", ">", "&gt;")

// contactTemplate is parsed once at package init. A parse failure is a
// programming error, so Must is appropriate here.
var contactTemplate = template.Must(
	template.New("contact.html").
		Funcs(template.FuncMap{"text": markup.Replace}).
		ParseFS(templateFS, "templates/contact.html"),
)

// Message is a fully rendered email ready for a Transport.
type Message struct {
	From     string
	To       string
	ReplyTo  string
	Subject  string
	HTMLBody string
}

// Transport delivers a rendered Message. Implementations make exactly one
// delivery attempt per call; retrying is the caller's decision.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// Composer renders submissions into Messages addressed from From to To.
type Composer struct {
	From string
	To   string
}

// Subject returns the subject line for a submission.
func Subject(sub model.ContactSubmission) string {
	return "New Contact Form Submission from " + sub.FullName()
}

// Compose renders sub into a Message. Field values are substituted
// verbatim except for '<' and '>', which become entities.
func (c Composer) Compose(sub model.ContactSubmission) (Message, error) {
	var buf bytes.Buffer
	if err := contactTemplate.Execute(&buf, sub); err != nil {
		return Message{}, fmt.Errorf("mailer: rendering contact email: %w", err)
	}

	return Message{
		From:     c.From,
		To:       c.To,
		ReplyTo:  sub.Email,
		Subject:  Subject(sub),
		HTMLBody: buf.String(),
	}, nil
}
