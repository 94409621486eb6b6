package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogLanguages(t *testing.T) {
	c := DefaultCatalog()
	assert.Equal(t, "en", c.DefaultLanguage())
	require.Len(t, c.Languages(), 6)

	l, ok := c.LanguageByToken("1")
	require.True(t, ok)
	assert.Equal(t, "en", l.Code)

	l, ok = c.LanguageByToken("6")
	require.True(t, ok)
	assert.Equal(t, "ml", l.Code)

	_, ok = c.LanguageByToken("7")
	assert.False(t, ok)
	_, ok = c.LanguageByToken("")
	assert.False(t, ok)

	assert.Equal(t, "Tamil", c.LanguageName("ta"))
	assert.Equal(t, "xx", c.LanguageName("xx"))
}

func TestDefaultCatalogHasEveryMessage(t *testing.T) {
	c := DefaultCatalog()
	for _, id := range []string{
		MsgLanguageMenu, MsgAskIdentifier, MsgAskName, MsgAskAge, MsgAskGender,
		MsgAskConditions, MsgAskSurgeries, MsgIntakeComplete, MsgWelcomeBack,
		MsgGoodbye, MsgApology, MsgNotConfigured, MsgSystemPrompt,
	} {
		assert.NotEmpty(t, c.Text(id, "en", map[string]string{"Name": "Asha"}), id)
	}
}

func TestTextFallsBackToDefaultLocale(t *testing.T) {
	c := DefaultCatalog()
	assert.Equal(t, c.Text(MsgAskGender, "en", nil), c.Text(MsgAskGender, "ta", nil))
	assert.Equal(t, c.Text(MsgApology, "en", nil), c.Text(MsgApology, "zz", nil))
	assert.NotEqual(t, c.Text(MsgGoodbye, "en", nil), c.Text(MsgGoodbye, "hi", nil))
	assert.Empty(t, c.Text("no_such_message", "en", nil))
}

func TestTextRendersTemplateData(t *testing.T) {
	c := DefaultCatalog()
	assert.Contains(t, c.Text(MsgWelcomeBack, "en", map[string]string{"Name": "Ravi"}), "Ravi")
	assert.Contains(t, c.Text(MsgWelcomeBack, "hi", map[string]string{"Name": "Ravi"}), "Ravi")
}

func TestLoadCatalogRequiresDefaultText(t *testing.T) {
	_, err := LoadCatalog([]byte("default: en\nmessages:\n  hello:\n    hi: namaste\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"hello"`)

	_, err = LoadCatalog([]byte("messages: {}\n"))
	require.Error(t, err)

	_, err = LoadCatalog([]byte("default: en\nmessages:\n  bad:\n    en: '{{.Name'\n"))
	require.Error(t, err)
}
