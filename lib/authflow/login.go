package authflow

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"
)

var ErrLoginFormNotFound = errors.New("login form not found")

type LoginConfig struct {
	// FormSelector locates the primary login form on the page.
	FormSelector string
	// DefaultAction is used when the form has no action attribute, it is
	// resolved against the login page url.
	DefaultAction string
	UsernameField string
	PasswordField string
	Detector      Detector
}

// DefaultLoginConfig matches the hosted universal login page layout.
func DefaultLoginConfig() LoginConfig {
	return LoginConfig{
		FormSelector:  `form[data-form-primary="true"]`,
		DefaultAction: "/u/login",
		UsernameField: "username",
		PasswordField: "password",
		Detector:      PhraseDetector{Phrases: DefaultPhrases},
	}
}

// withDefaults fills every empty field of cfg from DefaultLoginConfig.
func (cfg LoginConfig) withDefaults() LoginConfig {
	def := DefaultLoginConfig()
	if cfg.FormSelector == "" {
		cfg.FormSelector = def.FormSelector
	}
	if cfg.DefaultAction == "" {
		cfg.DefaultAction = def.DefaultAction
	}
	if cfg.UsernameField == "" {
		cfg.UsernameField = def.UsernameField
	}
	if cfg.PasswordField == "" {
		cfg.PasswordField = def.PasswordField
	}
	if cfg.Detector == nil {
		cfg.Detector = def.Detector
	}
	return cfg
}

type Credentials struct {
	Username string
	Password string
}

func (c Credentials) Valid() bool {
	return c.Username != "" && c.Password != ""
}

type LoginForm struct {
	SubmitURL     string
	Hidden        url.Values
	UsernameField string
	PasswordField string
}

// ParseLoginForm reads the submission target and hidden inputs of the login
// form on the page served at pageURL.
func ParseLoginForm(pageURL string, body []byte, cfg LoginConfig) (LoginForm, error) {
	cfg = cfg.withDefaults()

	base, err := url.Parse(pageURL)
	if err != nil {
		return LoginForm{}, fmt.Errorf("parse login page url: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return LoginForm{}, fmt.Errorf("parse login page: %w", err)
	}

	form := doc.Find(cfg.FormSelector).First()
	if form.Length() == 0 {
		return LoginForm{}, ErrLoginFormNotFound
	}

	action, ok := form.Attr("action")
	if !ok || action == "" {
		action = cfg.DefaultAction
	}
	submit, err := base.Parse(action)
	if err != nil {
		return LoginForm{}, fmt.Errorf("resolve form action '%s': %w", action, err)
	}

	hidden := url.Values{}
	form.Find(`input[type="hidden"]`).Each(func(_ int, input *goquery.Selection) {
		name := input.AttrOr("name", "")
		if name == "" {
			return
		}
		hidden.Add(name, input.AttrOr("value", ""))
	})

	return LoginForm{
		SubmitURL:     submit.String(),
		Hidden:        hidden,
		UsernameField: cfg.UsernameField,
		PasswordField: cfg.PasswordField,
	}, nil
}

// Values is the urlencoded body of the submission: hidden fields unchanged,
// then the credentials and action=default.
func (f LoginForm) Values(creds Credentials) url.Values {
	values := url.Values{}
	for k, v := range f.Hidden {
		values[k] = append([]string(nil), v...)
	}
	values.Set(f.UsernameField, creds.Username)
	values.Set(f.PasswordField, creds.Password)
	values.Set("action", "default")
	return values
}
