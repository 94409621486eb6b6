package core

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed locales.yaml
var localesYAML []byte

// Message identifiers in the locale table.
const (
	MsgLanguageMenu   = "language_menu"
	MsgAskIdentifier  = "ask_identifier"
	MsgAskName        = "ask_name"
	MsgAskAge         = "ask_age"
	MsgAskGender      = "ask_gender"
	MsgAskConditions  = "ask_conditions"
	MsgAskSurgeries   = "ask_surgeries"
	MsgIntakeComplete = "intake_complete"
	MsgWelcomeBack    = "welcome_back"
	MsgGoodbye        = "goodbye"
	MsgApology        = "apology"
	MsgNotConfigured  = "not_configured"
	MsgSystemPrompt   = "system_prompt"
)

// Language is one entry of the language menu.
type Language struct {
	Token string `yaml:"token"`
	Code  string `yaml:"code"`
	Name  string `yaml:"name"`
}

type catalogFile struct {
	Default   string                       `yaml:"default"`
	Languages []Language                   `yaml:"languages"`
	Messages  map[string]map[string]string `yaml:"messages"`
}

// Catalog is the per-(message, locale) template table.  Lookups for a
// locale without a translation fall back to the default locale.
type Catalog struct {
	defaultLang string
	languages   []Language
	templates   map[string]map[string]*template.Template
}

// LoadCatalog parses a YAML locale table.  Every message must have a
// default-locale entry.
func LoadCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse locales: %w", err)
	}
	if f.Default == "" {
		return nil, fmt.Errorf("parse locales: no default locale")
	}
	c := &Catalog{
		defaultLang: f.Default,
		languages:   f.Languages,
		templates:   make(map[string]map[string]*template.Template, len(f.Messages)),
	}
	for id, byLang := range f.Messages {
		if _, ok := byLang[f.Default]; !ok {
			return nil, fmt.Errorf("parse locales: message %q has no %q text", id, f.Default)
		}
		c.templates[id] = make(map[string]*template.Template, len(byLang))
		for lang, text := range byLang {
			tmpl, err := template.New(id + "." + lang).Option("missingkey=zero").Parse(text)
			if err != nil {
				return nil, fmt.Errorf("parse locales: %s.%s: %w", id, lang, err)
			}
			c.templates[id][lang] = tmpl
		}
	}
	return c, nil
}

// DefaultCatalog returns the embedded locale table.
func DefaultCatalog() *Catalog {
	c, err := LoadCatalog(localesYAML)
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultLanguage returns the fallback locale code.
func (c *Catalog) DefaultLanguage() string { return c.defaultLang }

// Languages returns the menu in display order.
func (c *Catalog) Languages() []Language { return c.languages }

// LanguageByToken resolves a menu token such as "2".
func (c *Catalog) LanguageByToken(token string) (Language, bool) {
	for _, l := range c.languages {
		if l.Token == token {
			return l, true
		}
	}
	return Language{}, false
}

// LanguageName returns the display name of code, or code itself.
func (c *Catalog) LanguageName(code string) string {
	for _, l := range c.languages {
		if l.Code == code {
			return l.Name
		}
	}
	return code
}

// Text renders message id for lang with data.
func (c *Catalog) Text(id, lang string, data any) string {
	byLang, ok := c.templates[id]
	if !ok {
		return ""
	}
	tmpl, ok := byLang[lang]
	if !ok {
		tmpl = byLang[c.defaultLang]
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return tmpl.Root.String()
	}
	return buf.String()
}
