package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	htmpl "html/template"
	"reflect"
	"strings"
	texttpl "text/template"
	"time"
)

//go:embed *.tmpl
var FS embed.FS

const (
	Welcome           = "welcome"
	LoginNotification = "login_notification"
)

// EmailData is the data every auth email template renders from.
type EmailData struct {
	Name        string `json:"Name"`
	Email       string `json:"Email"`
	Type        string `json:"Type"`
	AppName     string `json:"AppName"`
	CompanyName string `json:"CompanyName"`

	IP        string    `json:"IP"`
	UserAgent string    `json:"UserAgent"`
	Time      string    `json:"Time"`
	TimeAt    time.Time `json:"TimeAt"`
}

// ToMap converts EmailData to the map carried in EmailJob.Data.
func ToMap(d EmailData) map[string]any {
	b, _ := json.Marshal(d)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

// defaultFn supports pipe usage: {{ .Value | default "Fallback" }}
func defaultFn(fallback any, value any) any {
	switch x := value.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return fallback
		}
		return x
	case nil:
		return fallback
	default:
		rv := reflect.ValueOf(value)
		if !rv.IsValid() || rv.IsZero() {
			return fallback
		}
		return value
	}
}

// truncate keeps long user agents from dominating the email body.
func truncate(n int, s string) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func funcs() map[string]any {
	return map[string]any{
		"upper":    strings.ToUpper,
		"default":  defaultFn,
		"truncate": truncate,
	}
}

type set struct {
	subject *texttpl.Template
	text    *texttpl.Template
	html    *htmpl.Template
}

// sets is parsed once; a broken embedded template fails at init, not at send time.
var sets = map[string]set{
	Welcome:           mustParse(Welcome),
	LoginNotification: mustParse(LoginNotification),
}

func mustParse(name string) set {
	parseText := func(file string) *texttpl.Template {
		return texttpl.Must(texttpl.New(file).Funcs(funcs()).ParseFS(FS, file))
	}
	return set{
		subject: parseText(name + ".subject.tmpl"),
		text:    parseText(name + ".text.tmpl"),
		html:    htmpl.Must(htmpl.New(name + ".html.tmpl").Funcs(funcs()).ParseFS(FS, name+".html.tmpl")),
	}
}

// Known reports whether name has a full subject/text/html template set.
func Known(name string) bool {
	_, ok := sets[name]
	return ok
}

// Render executes the subject, text and html templates registered under name.
func Render(name string, data any) (subject, text, html string, err error) {
	s, ok := sets[name]
	if !ok {
		return "", "", "", fmt.Errorf("unknown template %q", name)
	}
	var sb, tb, hb bytes.Buffer
	if err = s.subject.Execute(&sb, data); err != nil {
		return "", "", "", fmt.Errorf("exec %s subject: %w", name, err)
	}
	if err = s.text.Execute(&tb, data); err != nil {
		return "", "", "", fmt.Errorf("exec %s text: %w", name, err)
	}
	if err = s.html.Execute(&hb, data); err != nil {
		return "", "", "", fmt.Errorf("exec %s html: %w", name, err)
	}
	return strings.TrimSpace(sb.String()), tb.String(), hb.String(), nil
}
