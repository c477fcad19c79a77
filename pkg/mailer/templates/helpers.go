package templates

import (
	"strings"
	"time"
)

// Option pattern
type Option func(*EmailData)

func WithIP(ip string) Option        { return func(d *EmailData) { d.IP = strings.TrimSpace(ip) } }
func WithUserAgent(ua string) Option { return func(d *EmailData) { d.UserAgent = ua } }
func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format("02 January 2006, 15:04 MST")
	}
}
func WithCompany(name string) Option { return func(d *EmailData) { d.CompanyName = name } }

func newBase(appName, typ, name, email string, opts ...Option) EmailData {
	d := EmailData{Name: name, Email: email, Type: typ, AppName: appName}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewWelcomeData(appName, name, email string, opts ...Option) map[string]any {
	return ToMap(newBase(appName, Welcome, name, email, opts...))
}

func NewLoginNotificationData(appName, name, email string, opts ...Option) map[string]any {
	return ToMap(newBase(appName, LoginNotification, name, email, opts...))
}
