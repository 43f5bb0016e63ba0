package i18n

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestT(t *testing.T) {
	assert.Equal(t, "Razão social é obrigatório", T(language.BrazilianPortuguese, MsgCompanyNameRequired))
	assert.Equal(t, "E-mail é obrigatorio", T(language.BrazilianPortuguese, MsgEmailRequired))
	assert.Equal(t, "Formato inválido", T(language.BrazilianPortuguese, MsgEmailInvalid))
	assert.Equal(t, "Company name is required", T(language.English, MsgCompanyNameRequired))
}

func TestParse(t *testing.T) {
	assert.Equal(t, language.BrazilianPortuguese, Parse("pt-BR"))
	assert.Equal(t, language.English, Parse("en"))
	assert.Equal(t, language.BrazilianPortuguese, Parse("not a locale!"))
}

func TestFromAcceptLanguage(t *testing.T) {
	assert.Equal(t, language.English, FromAcceptLanguage("en-US,en;q=0.9", language.BrazilianPortuguese))
	assert.Equal(t, language.BrazilianPortuguese, FromAcceptLanguage("pt-BR,pt;q=0.9", language.English))
	assert.Equal(t, language.BrazilianPortuguese, FromAcceptLanguage("", language.BrazilianPortuguese))
	assert.Equal(t, language.English, FromAcceptLanguage("ja", language.English))
}

func TestCatalogCoversEveryKey(t *testing.T) {
	for _, m := range []map[string]string{portuguese, labels} {
		for key, pt := range m {
			assert.Equal(t, pt, T(language.BrazilianPortuguese, key), key)
			assert.Equal(t, key, T(language.English, key), key)
		}
	}
}

func TestLanguageContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, language.BrazilianPortuguese, FromContext(ctx))
	assert.Equal(t, language.English, FromContext(WithLanguage(ctx, language.English)))
}
