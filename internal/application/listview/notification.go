package listview

import (
	"time"

	"github.com/google/uuid"
	"github.com/isow/backend/internal/application/i18n"
	"golang.org/x/text/language"
)

// maxNotifications bounds the pending toasts kept per view
const maxNotifications = 20

// NotificationKind is the toast flavor
type NotificationKind string

const (
	NotificationSuccess NotificationKind = "success"
	NotificationError   NotificationKind = "error"
)

// Notification is a toast shown once to the user
type Notification struct {
	ID          string           `json:"id"`
	Kind        NotificationKind `json:"kind"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	CreatedAt   time.Time        `json:"created_at"`
}

// Messages are the catalog keys a view uses for its toasts and empty state
type Messages struct {
	Removed      string
	RemovedBody  string
	RemoveFailed string
	Edited       string
	EditedBody   string
	EditFailed   string
	Empty        string
}

// CompanyMessages are the toasts of the companies list
var CompanyMessages = Messages{
	Removed:      i18n.MsgCompanyRemovedTitle,
	RemovedBody:  i18n.MsgCompanyRemovedBody,
	RemoveFailed: i18n.MsgCompanyRemoveFailed,
	Edited:       i18n.MsgCompanyEditedTitle,
	EditedBody:   i18n.MsgCompanyEditedBody,
	EditFailed:   i18n.MsgCompanyEditFailed,
	Empty:        i18n.MsgNoCompaniesFound,
}

// UserMessages are the toasts of the users list
var UserMessages = Messages{
	Removed:      i18n.MsgUserRemovedTitle,
	RemovedBody:  i18n.MsgUserRemovedBody,
	RemoveFailed: i18n.MsgUserRemoveFailed,
	Edited:       i18n.MsgUserEditedTitle,
	EditedBody:   i18n.MsgUserEditedBody,
	EditFailed:   i18n.MsgUserEditFailed,
	Empty:        i18n.MsgNoUsersFound,
}

// notice is a pending toast holding catalog keys until it is rendered
type notice struct {
	id      string
	kind    NotificationKind
	title   string
	body    string
	created time.Time
}

func newNotice(kind NotificationKind, title, body string, now time.Time) notice {
	return notice{id: uuid.NewString(), kind: kind, title: title, body: body, created: now}
}

func (n notice) render(lang language.Tag) Notification {
	return Notification{
		ID:          n.id,
		Kind:        n.kind,
		Title:       i18n.T(lang, n.title),
		Description: i18n.T(lang, n.body),
		CreatedAt:   n.created,
	}
}
