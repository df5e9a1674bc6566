package emailsvc

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"github.com/resend/resend-go/v2"

	"github.com/edulane/lms/core"
)

const resendTimeout = 30 * time.Second

type resendService struct {
	client      *resend.Client
	appName     string
	frontendURL string
	from        mail.Address
	subjPrefix  string
	logger      core.Logger
}

var _ core.EmailService = (*resendService)(nil)

func NewResendService(conf *core.Config, logger core.Logger) core.EmailService {
	return &resendService{
		client:      resend.NewClient(conf.ResendApiKey),
		appName:     conf.AppName,
		frontendURL: conf.FrontendBaseURL,
		from:        conf.DefaultFromEmail(),
		subjPrefix:  "[" + conf.AppName + "] ",
		logger:      logger,
	}
}

func (svc resendService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		msg := msg
		go func() {
			if err := msg.Render(svc.appName, svc.frontendURL); err != nil {
				svc.logger.Error(fmt.Sprintf("rendering email: %v", err), errors.WithStack(err))
				return
			}
			if msg.HasRecipients() && msg.HasContent() {
				svc.send(*msg)
			}
		}()
	}
}

func (svc resendService) prepare(msg core.EmailMessage) *resend.SendEmailRequest {
	return &resend.SendEmailRequest{
		From:    svc.from.String(),
		To:      addresses(msg.To),
		Cc:      addresses(msg.Cc),
		Bcc:     addresses(msg.Bcc),
		Subject: svc.subjPrefix + msg.Subject,
		Text:    msg.TextContent,
		Html:    msg.HTMLContent,
	}
}

func (svc resendService) send(msg core.EmailMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), resendTimeout)
	defer cancel()

	if _, err := svc.client.Emails.SendWithContext(ctx, svc.prepare(msg)); err != nil {
		svc.logger.Error(fmt.Sprintf("sending email: %v", err), errors.WithStack(err))
	}
}

func addresses(addrs []mail.Address) []string {
	if len(addrs) == 0 {
		return nil
	}
	list := make([]string, 0, len(addrs))
	for _, a := range addrs {
		list = append(list, a.String())
	}
	return list
}
