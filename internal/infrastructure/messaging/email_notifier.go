package messaging

import (
	"context"
	"time"

	"github.com/oksasatya/partner-auth-service/internal/application"
	"github.com/oksasatya/partner-auth-service/internal/domain/entity"
	"github.com/oksasatya/partner-auth-service/pkg/mailer"
	mailtpl "github.com/oksasatya/partner-auth-service/pkg/mailer/templates"
)

// Publisher puts a JSON message on the email queue.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// EmailNotifier turns auth events into email jobs for cmd/email_worker.
type EmailNotifier struct {
	Pub     Publisher
	AppName string

	now func() time.Time
}

func NewEmailNotifier(pub Publisher, appName string) *EmailNotifier {
	return &EmailNotifier{Pub: pub, AppName: appName, now: time.Now}
}

var _ application.Notifier = (*EmailNotifier)(nil)

func (n *EmailNotifier) IdentityRegistered(ctx context.Context, v entity.IdentityView) error {
	data := mailtpl.NewWelcomeData(n.AppName, v.Name, v.Email, mailtpl.WithCompany(v.CompanyName))
	return n.Pub.PublishJSON(ctx, mailer.EmailJob{To: v.Email, Template: mailtpl.Welcome, Data: data})
}

func (n *EmailNotifier) IdentityLoggedIn(ctx context.Context, v entity.IdentityView, client application.ClientInfo) error {
	at := n.now()
	if v.LastLogin != nil {
		at = *v.LastLogin
	}
	data := mailtpl.NewLoginNotificationData(n.AppName, v.Name, v.Email,
		mailtpl.WithTime(at),
		mailtpl.WithIP(client.IP),
		mailtpl.WithUserAgent(client.UserAgent),
	)
	return n.Pub.PublishJSON(ctx, mailer.EmailJob{To: v.Email, Template: mailtpl.LoginNotification, Data: data})
}
