package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"
)

var (
	welcomeTmpl = template.Must(template.New("welcome").Parse(
		`<h1>Welcome, {{.Name}}!</h1>
<p>Thanks for joining Todo App. Start creating todos and collaborating with your team!</p>
`))

	invitationTmpl = template.Must(template.New("invitation").Parse(
		`<p>You have been invited to collaborate on the Todo: <strong>{{.Title}}</strong></p>
<p>Click <a href="{{.Link}}">here</a> to accept the invitation and join the app.</p>
<p>If you don't have an account yet, signing up will automatically accept the invitation.</p>
`))
)

// WelcomeEmail is sent once on registration.
func WelcomeEmail(to, userName string) (Message, error) {
	html, err := render(welcomeTmpl, struct{ Name string }{userName})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: "Welcome to Todo App!",
		HTML:    html,
		Text:    fmt.Sprintf("Welcome, %s! Thanks for joining Todo App.", userName),
	}, nil
}

// InvitationEmail carries the invitation link for a todo.
func InvitationEmail(to, todoTitle, link string) (Message, error) {
	html, err := render(invitationTmpl, struct{ Title, Link string }{todoTitle, link})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: fmt.Sprintf("You're invited to collaborate on %q", todoTitle),
		HTML:    html,
		Text:    fmt.Sprintf("You have been invited to collaborate on %q. Accept here: %s", todoTitle, link),
	}, nil
}

// OTPEmail carries a password-reset code.
func OTPEmail(to, otp string, ttl time.Duration) Message {
	return Message{
		To:      to,
		Subject: "Your OTP for Password Reset",
		Text:    fmt.Sprintf("Your OTP is: %s. It will expire in %d minutes.", otp, int(ttl.Minutes())),
	}
}

// InvitationLink builds "<base>/invite?token=<token>".
func InvitationLink(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/invite?token=" + url.QueryEscape(token)
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s email: %w", t.Name(), err)
	}
	return buf.String(), nil
}
