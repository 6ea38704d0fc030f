package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/scoop/internal/auth"
)

type authMode int

const (
	modeSignIn authMode = iota
	modeSignUp
)

const accountCreated = "Account created! You can now sign in."

// authForm is the signed-out screen: email and password, plus a confirmation
// field when creating an account.
type authForm struct {
	mode     authMode
	email    textinput.Model
	password textinput.Model
	confirm  textinput.Model
	focus    int
	err      string
	info     string
}

func newAuthForm(lastIdentity string) authForm {
	email := textinput.New()
	email.Placeholder = "Email"
	email.SetValue(strings.TrimSpace(lastIdentity))

	password := textinput.New()
	password.Placeholder = "Password"
	password.EchoMode = textinput.EchoPassword

	confirm := textinput.New()
	confirm.Placeholder = "Confirm Password"
	confirm.EchoMode = textinput.EchoPassword

	f := authForm{email: email, password: password, confirm: confirm}
	if email.Value() != "" {
		f.focus = 1
	}
	f.applyFocus()
	return f
}

func (f *authForm) inputs() []*textinput.Model {
	if f.mode == modeSignUp {
		return []*textinput.Model{&f.email, &f.password, &f.confirm}
	}
	return []*textinput.Model{&f.email, &f.password}
}

func (f authForm) onLastField() bool {
	return f.focus == len(f.inputs())-1
}

func (f *authForm) applyFocus() {
	for i, in := range f.inputs() {
		if i == f.focus {
			in.Focus()
		} else {
			in.Blur()
		}
	}
	if f.mode == modeSignIn {
		f.confirm.Blur()
	}
}

func (f *authForm) focusCmd() tea.Cmd {
	f.applyFocus()
	return textinput.Blink
}

func (f *authForm) toggleMode() {
	if f.mode == modeSignIn {
		f.mode = modeSignUp
		f.password.Placeholder = "Password (min 8 characters)"
	} else {
		f.mode = modeSignIn
		f.password.Placeholder = "Password"
	}
	f.focus = 0
	f.err = ""
	f.info = ""
	f.password.SetValue("")
	f.confirm.SetValue("")
}

func (f authForm) update(msg tea.Msg, keys keyMap) (authForm, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		n := len(f.inputs())
		switch {
		case key.Matches(k, keys.NextField), key.Matches(k, keys.Confirm):
			f.focus = (f.focus + 1) % n
			return f, f.focusCmd()
		case key.Matches(k, keys.PrevField):
			f.focus = (f.focus - 1 + n) % n
			return f, f.focusCmd()
		}
	}

	in := f.inputs()[f.focus]
	var cmd tea.Cmd
	*in, cmd = in.Update(msg)
	return f, cmd
}

// submit checks the form. Signing in yields the identity to use. Creating an
// account switches back to sign-in and returns an empty identity.
func (f *authForm) submit() (string, error) {
	f.err = ""
	f.info = ""
	email := f.email.Value()
	password := f.password.Value()

	if f.mode == modeSignUp {
		if err := auth.SignUp(email, password, f.confirm.Value()); err != nil {
			f.err = sentence(err.Error())
			return "", err
		}
		f.toggleMode()
		f.email.SetValue("")
		f.info = accountCreated
		f.applyFocus()
		return "", nil
	}

	identity, err := auth.SignIn(email, password)
	if err != nil {
		f.err = sentence(err.Error())
		return "", err
	}
	return identity, nil
}

// reset returns the form to sign-in with only the email kept.
func (f *authForm) reset(identity string) {
	f.mode = modeSignIn
	f.password.Placeholder = "Password"
	f.email.SetValue(identity)
	f.password.SetValue("")
	f.confirm.SetValue("")
	f.err = ""
	f.info = ""
	f.focus = 1
	f.applyFocus()
}

func (f authForm) title() string {
	if f.mode == modeSignUp {
		return "Create Account"
	}
	return "Sign In"
}
