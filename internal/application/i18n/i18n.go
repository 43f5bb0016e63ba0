// Package i18n holds the message catalog for user-facing text. Keys are the
// English wording; Brazilian Portuguese is the default display language.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys
const (
	MsgCompanyNameRequired   = "Company name is required"
	MsgPersonNameRequired    = "Name is required"
	MsgEmailRequired         = "E-mail is required"
	MsgEmailInvalid          = "Invalid format"
	MsgCNPJRequired          = "CNPJ is required"
	MsgCPFRequired           = "CPF is required"
	MsgPasswordRequired      = "Password is required"
	MsgFieldRequired         = "This field is required"
	MsgFieldInvalid          = "Invalid value"
	MsgValidationFailed      = "Request validation failed"
	MsgCompanyRemovedTitle   = "Company removed"
	MsgCompanyRemovedBody    = "Company deleted successfully"
	MsgCompanyRemoveFailed   = "Could not remove the company, please try again"
	MsgCompanyEditedTitle    = "Company edited"
	MsgCompanyEditedBody     = "Company edited successfully"
	MsgCompanyEditFailed     = "Could not edit the company, please try again"
	MsgCompanyCreatedTitle   = "Company registered"
	MsgCompanyCreatedBody    = "Company registered successfully"
	MsgCompanyCreateFailed   = "Could not register the company, please try again"
	MsgUserRemovedTitle      = "User removed"
	MsgUserRemovedBody       = "User deleted successfully"
	MsgUserRemoveFailed      = "Could not remove the user, please try again"
	MsgUserEditedTitle       = "User edited"
	MsgUserEditedBody        = "User edited successfully"
	MsgUserEditFailed        = "Could not edit the user, please try again"
	MsgUserCreatedTitle      = "User created"
	MsgUserCreatedBody       = "User created successfully"
	MsgUserCreateFailed      = "Could not create the user, please try again"
	MsgRemoveFailedTitle     = "Error while removing"
	MsgEditFailedTitle       = "Error while editing"
	MsgCreateFailedTitle     = "Error while registering"
	MsgLoadFailedTitle       = "Error while loading"
	MsgLoadFailedBody        = "Could not load the records, please try again"
	MsgSignInSucceededTitle  = "Signed in successfully"
	MsgSignInSucceededBody   = "Enjoy our platform!"
	MsgSignInFailedTitle     = "Error while signing in"
	MsgSignInFailedBody      = "Check your details and try again"
	MsgNoCompaniesFound      = "No company found"
	MsgNoUsersFound          = "No user found"
)

var portuguese = map[string]string{
	MsgCompanyNameRequired:  "Razão social é obrigatório",
	MsgPersonNameRequired:   "Nome é obrigatório",
	MsgEmailRequired:        "E-mail é obrigatorio",
	MsgEmailInvalid:         "Formato inválido",
	MsgCNPJRequired:         "CNPJ é obrigatório",
	MsgCPFRequired:          "CPF é obrigatório",
	MsgPasswordRequired:     "Senha é obrigatório",
	MsgFieldRequired:        "Campo obrigatório",
	MsgFieldInvalid:         "Valor inválido",
	MsgValidationFailed:     "Falha na validação dos dados",
	MsgCompanyRemovedTitle:  "Empresa removida",
	MsgCompanyRemovedBody:   "Empresa deletada com sucesso",
	MsgCompanyRemoveFailed:  "Não foi possível remover a empresa, tente novamente",
	MsgCompanyEditedTitle:   "Empresa editada",
	MsgCompanyEditedBody:    "Empresa editada com sucesso",
	MsgCompanyEditFailed:    "Não foi possível editar a empresa, tente novamente",
	MsgCompanyCreatedTitle:  "Empresa cadastrada",
	MsgCompanyCreatedBody:   "Empresa cadastrada com sucesso",
	MsgCompanyCreateFailed:  "Não foi possível cadastrar a empresa, tente novamente",
	MsgUserRemovedTitle:     "Usuário removido",
	MsgUserRemovedBody:      "Usuário deletado com sucesso",
	MsgUserRemoveFailed:     "Não foi possível remover o usuário, tente novamente",
	MsgUserEditedTitle:      "Usuário editado",
	MsgUserEditedBody:       "Usuário editado com sucesso",
	MsgUserEditFailed:       "Não foi possível editar o usuário, tente novamente",
	MsgUserCreatedTitle:     "Usuário criado",
	MsgUserCreatedBody:      "Usuário criado com sucesso",
	MsgUserCreateFailed:     "Não foi possível criar o usuário, tente novamente",
	MsgRemoveFailedTitle:    "Erro ao remover",
	MsgEditFailedTitle:      "Erro ao editar",
	MsgCreateFailedTitle:    "Erro ao cadastrar",
	MsgLoadFailedTitle:      "Erro ao carregar",
	MsgLoadFailedBody:       "Não foi possível carregar os registros, tente novamente",
	MsgSignInSucceededTitle: "Login feito com sucesso",
	MsgSignInSucceededBody:  "Aproveite nossa plataforma!",
	MsgSignInFailedTitle:    "Erro ao realizar login",
	MsgSignInFailedBody:     "Verifique seus dados e tente novamente",
	MsgNoCompaniesFound:     "Nenhuma empresa encontrada",
	MsgNoUsersFound:         "Nenhum usuário encontrado",
}

// Supported display languages, default first
var Supported = []language.Tag{language.BrazilianPortuguese, language.English}

var (
	cat     = buildCatalog()
	matcher = language.NewMatcher(Supported)
)

func buildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for _, m := range []map[string]string{portuguese, labels} {
		for key, pt := range m {
			_ = b.SetString(language.BrazilianPortuguese, key, pt)
			_ = b.SetString(language.English, key, key)
		}
	}
	return b
}

// Printer returns a printer for tag backed by the catalog
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(Resolve(tag), message.Catalog(cat))
}

// T translates key into tag's language
func T(tag language.Tag, key string) string {
	return Printer(tag).Sprintf(key)
}

// Resolve maps any tag onto the closest supported one
func Resolve(tag language.Tag) language.Tag {
	_, idx, _ := matcher.Match(tag)
	return Supported[idx]
}

// Parse resolves a locale name such as "pt-BR" or "en", falling back to
// the default language for unknown input.
func Parse(locale string) language.Tag {
	tag, err := language.Parse(locale)
	if err != nil {
		return Supported[0]
	}
	return Resolve(tag)
}

// FromAcceptLanguage picks a supported language from an Accept-Language
// header value, or fallback when the header names none.
func FromAcceptLanguage(header string, fallback language.Tag) language.Tag {
	if header == "" {
		return fallback
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return fallback
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return fallback
	}
	return Supported[idx]
}
