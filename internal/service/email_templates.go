package service

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

type emailPurpose int

const (
	purposeActivation emailPurpose = iota
	purposeLogin
	purposePasswordReset
)

type emailCopy struct {
	subject       string
	resendSubject string
	heading       string
	intro         string
}

var emailCopies = map[emailPurpose]emailCopy{
	purposeActivation: {
		subject:       "Verify Your Account",
		resendSubject: "Resend Account Verification",
		heading:       "Welcome aboard!",
		intro:         "Use the code below to activate your account, or open the verification link.",
	},
	purposeLogin: {
		subject:       "Login OTP",
		resendSubject: "Resend Login OTP",
		heading:       "Your login code",
		intro:         "Someone is signing in to your account. Enter this code to finish logging in.",
	},
	purposePasswordReset: {
		subject:       "Reset Password OTP",
		resendSubject: "Resend Reset Password OTP",
		heading:       "Reset your password",
		intro:         "Enter this code together with your new password. If you did not ask for a reset you can ignore this email.",
	},
}

type otpEmailData struct {
	AppName          string
	Heading          string
	Intro            string
	OTP              string
	Link             string
	ExpiresInMinutes int
}

var otpEmailTemplate = template.Must(template.New("otp").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <h2>{{.Heading}}</h2>
  <p>{{.Intro}}</p>
  <p style="font-size: 28px; letter-spacing: 6px; font-weight: bold;">{{.OTP}}</p>
  {{- if .Link}}
  <p><a href="{{.Link}}">Verify your account</a></p>
  {{- end}}
  <p>This code expires in {{.ExpiresInMinutes}} minutes.</p>
  <p>The {{.AppName}} team</p>
</body>
</html>
`))

// buildOTPEmail renders the subject and HTML body for an OTP email. link is
// only shown when non-empty.
func buildOTPEmail(appName string, purpose emailPurpose, resend bool, otp, link string, ttl time.Duration) (string, string, error) {
	c, ok := emailCopies[purpose]
	if !ok {
		return "", "", fmt.Errorf("unknown email purpose %d", purpose)
	}
	subject := c.subject
	if resend {
		subject = c.resendSubject
	}

	var buf bytes.Buffer
	err := otpEmailTemplate.Execute(&buf, otpEmailData{
		AppName:          appName,
		Heading:          c.heading,
		Intro:            c.intro,
		OTP:              otp,
		Link:             link,
		ExpiresInMinutes: int(ttl.Round(time.Minute) / time.Minute),
	})
	if err != nil {
		return "", "", fmt.Errorf("render %s email: %w", c.subject, err)
	}
	return appName + " - " + subject, buf.String(), nil
}
