package validation

import (
	"errors"
	"testing"

	"github.com/isow/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

var ptBR = language.BrazilianPortuguese

func TestStruct_Organization(t *testing.T) {
	t.Run("valid input passes and is trimmed", func(t *testing.T) {
		in := &OrganizationInput{Name: "  Isow LTDA ", Email: "contato@isow.com", CNPJ: "12.345.678/0001-90"}
		require.NoError(t, Struct(ptBR, in))
		assert.Equal(t, "Isow LTDA", in.Name)
	})

	t.Run("empty form lists every field", func(t *testing.T) {
		err := Struct(ptBR, &OrganizationInput{})
		require.Error(t, err)

		ve, ok := AsErrors(err)
		require.True(t, ok)
		assert.Equal(t, map[string]string{
			"name":  "Razão social é obrigatório",
			"email": "E-mail é obrigatorio",
			"cnpj":  "CNPJ é obrigatório",
		}, ve.Map())
	})

	t.Run("malformed email", func(t *testing.T) {
		err := Struct(ptBR, &OrganizationInput{Name: "A", Email: "not-an-email", CNPJ: "1"})
		ve, ok := AsErrors(err)
		require.True(t, ok)
		require.Len(t, ve, 1)
		assert.Equal(t, FieldError{Field: "email", Message: "Formato inválido"}, ve[0])
	})

	t.Run("whitespace only counts as missing", func(t *testing.T) {
		err := Struct(ptBR, &OrganizationInput{Name: "   ", Email: "a@b.com", CNPJ: "1"})
		ve, _ := AsErrors(err)
		assert.Equal(t, "Razão social é obrigatório", ve.Map()["name"])
	})
}

func TestStruct_Individual(t *testing.T) {
	err := Struct(ptBR, &IndividualInput{Email: "a@b.com"})
	ve, ok := AsErrors(err)
	require.True(t, ok)
	assert.Equal(t, map[string]string{
		"name": "Nome é obrigatório",
		"cpf":  "CPF é obrigatório",
		"cnpj": "CNPJ é obrigatório",
	}, ve.Map())
}

func TestStruct_SignIn(t *testing.T) {
	err := Struct(ptBR, &SignInInput{Email: "x"})
	ve, ok := AsErrors(err)
	require.True(t, ok)
	assert.Equal(t, "Formato inválido", ve.Map()["email"])
	assert.Equal(t, "Senha é obrigatório", ve.Map()["password"])
}

func TestStruct_English(t *testing.T) {
	err := Struct(language.English, &OrganizationInput{})
	ve, _ := AsErrors(err)
	assert.Equal(t, "Company name is required", ve.Map()["name"])
}

func TestErrors_IsValidation(t *testing.T) {
	err := Struct(ptBR, &SignInInput{})
	assert.True(t, errors.Is(err, shared.ErrValidation))
	assert.Contains(t, err.Error(), "validation failed")
}
