// Package emailsvc implements core.EmailService over the console, SendGrid and Resend.
package emailsvc

import (
	"github.com/edulane/lms/core"
)

// NewService returns the email service selected by the configuration.
func NewService(conf *core.Config, logger core.Logger) core.EmailService {
	switch conf.EmailBackend {
	case core.EmailBackendSendgrid:
		return NewSendgridService(conf, logger)
	case core.EmailBackendResend:
		return NewResendService(conf, logger)
	default:
		return NewConsoleService(conf, logger)
	}
}
