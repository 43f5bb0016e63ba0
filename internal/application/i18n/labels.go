package i18n

// Page label keys
const (
	LabelSignIn            = "Sign in"
	LabelSignInWithGoogle  = "Sign in with Google"
	LabelSignOut           = "Sign out"
	LabelPassword          = "Password"
	LabelEmail             = "E-mail"
	LabelCompanyName       = "Company name"
	LabelFullName          = "Full name"
	LabelCNPJ              = "CNPJ"
	LabelCPF               = "CPF"
	LabelCompany           = "Company"
	LabelCompanies         = "Companies"
	LabelUser              = "User"
	LabelUsers             = "Users"
	LabelDashboard         = "Dashboard"
	LabelNotifications     = "Notifications"
	LabelRegister          = "Register"
	LabelRegisterCompany   = "Register company"
	LabelCreateUser        = "Create user"
	LabelEdit              = "Edit"
	LabelEditCompany       = "Edit company"
	LabelEditUser          = "Edit user"
	LabelRemoveCompany     = "Remove company"
	LabelRemoveUser        = "Remove user"
	LabelConfirmRemoveComp = "Do you want to remove this company? This action cannot be undone"
	LabelConfirmRemoveUser = "Do you want to remove this user? This action cannot be undone"
	LabelSave              = "Save"
	LabelCancel            = "Cancel"
	LabelRefresh           = "Refresh"
	LabelLoading           = "Loading..."
	LabelRemove            = "Remove"
	LabelActions           = "Actions"
	LabelOverview          = "Overview"
)

var labels = map[string]string{
	LabelSignIn:            "Entrar",
	LabelSignInWithGoogle:  "Login com Google",
	LabelSignOut:           "Sair",
	LabelPassword:          "Senha",
	LabelEmail:             "E-mail",
	LabelCompanyName:       "Razão Social",
	LabelFullName:          "Nome completo",
	LabelCNPJ:              "CNPJ",
	LabelCPF:               "CPF",
	LabelCompany:           "Empresa",
	LabelCompanies:         "Empresas",
	LabelUser:              "Usuário",
	LabelUsers:             "Usuários",
	LabelDashboard:         "Dashboard",
	LabelNotifications:     "Notificações",
	LabelRegister:          "Cadastrar",
	LabelRegisterCompany:   "Cadastrar empresa",
	LabelCreateUser:        "Criar usuário",
	LabelEdit:              "Editar",
	LabelEditCompany:       "Editar empresa",
	LabelEditUser:          "Editar usuário",
	LabelRemoveCompany:     "Remover empresa",
	LabelRemoveUser:        "Remover usuário",
	LabelConfirmRemoveComp: "Deseja remover essa empresa? Essa ação não poderá ser revertida",
	LabelConfirmRemoveUser: "Deseja remover esse usuário? Essa ação não poderá ser revertida",
	LabelSave:              "Salvar",
	LabelCancel:            "Cancelar",
	LabelRefresh:           "Atualizar",
	LabelLoading:           "Carregando...",
	LabelRemove:            "Remover",
	LabelActions:           "Ações",
	LabelOverview:          "Visão geral",
}
