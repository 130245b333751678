package mailer

import (
	"bytes"
	"fmt"
	htmpl "html/template"
	"strings"
	texttpl "text/template"
)

// Notification is a rendered email ready to send.
type Notification struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// EngagementNotice is what the recipient of an engagement email needs to know.
type EngagementNotice struct {
	Kind          string // hired, completed, denied, reviewed
	AppName       string
	RecipientName string
	RecipientTo   string
	ActorName     string
	Project       string
	Rating        int
}

var subjects = map[string]string{
	"hired":     "{{.ActorName}} hired you for {{.Project}}",
	"completed": "{{.ActorName}} completed {{.Project}}",
	"denied":    "{{.ActorName}} declined {{.Project}}",
	"reviewed":  "{{.ActorName}} reviewed your work on {{.Project}}",
}

var bodies = map[string]string{
	"hired":     "{{.ActorName}} hired you for \"{{.Project}}\". Reply from your messages to get started.",
	"completed": "{{.ActorName}} marked \"{{.Project}}\" as completed. You can now leave a review.",
	"denied":    "{{.ActorName}} declined \"{{.Project}}\".",
	"reviewed":  "{{.ActorName}} left a {{.Rating}}-star review on \"{{.Project}}\".",
}

const textLayout = `Hi {{.RecipientName}},

{{.Body}}

- {{.AppName}}
`

const htmlLayout = `<!doctype html>
<html><body style="font-family:sans-serif">
<p>Hi {{.RecipientName}},</p>
<p>{{.Body}}</p>
<p style="color:#888">{{.AppName}}</p>
</body></html>`

var (
	textTpl = texttpl.Must(texttpl.New("text").Parse(textLayout))
	htmlTpl = htmpl.Must(htmpl.New("html").Parse(htmlLayout))
)

// RenderEngagement renders the email for n. Unknown kinds are an error.
func RenderEngagement(n EngagementNotice) (Notification, error) {
	subjectSrc, ok := subjects[n.Kind]
	if !ok {
		return Notification{}, fmt.Errorf("mailer: unknown engagement notice %q", n.Kind)
	}
	if strings.TrimSpace(n.RecipientTo) == "" {
		return Notification{}, fmt.Errorf("mailer: notice %q has no recipient", n.Kind)
	}
	subject, err := execText(subjectSrc, n)
	if err != nil {
		return Notification{}, err
	}
	body, err := execText(bodies[n.Kind], n)
	if err != nil {
		return Notification{}, err
	}

	view := struct {
		EngagementNotice
		Body string
	}{n, body}
	var text, html bytes.Buffer
	if err := textTpl.Execute(&text, view); err != nil {
		return Notification{}, err
	}
	if err := htmlTpl.Execute(&html, view); err != nil {
		return Notification{}, err
	}
	return Notification{To: n.RecipientTo, Subject: subject, Text: text.String(), HTML: html.String()}, nil
}

func execText(src string, data any) (string, error) {
	t, err := texttpl.New("").Parse(src)
	if err != nil {
		return "", err
	}
	var b bytes.Buffer
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
