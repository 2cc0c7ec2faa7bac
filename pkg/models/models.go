package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Loan is one circulation record. item_code references item.item_code and
// member_id references member.member_id.
type Loan struct {
	bun.BaseModel `bun:"table:loan"`

	LoanID     int64      `bun:"loan_id,pk,autoincrement" json:"loan_id"`
	ItemCode   string     `bun:"item_code" json:"item_code"`
	MemberID   string     `bun:"member_id" json:"member_id"`
	LoanDate   string     `bun:"loan_date" json:"loan_date"`
	DueDate    string     `bun:"due_date" json:"due_date"`
	Renewed    int        `bun:"renewed" json:"renewed"`
	IsLent     int        `bun:"is_lent" json:"is_lent"`
	IsReturn   int        `bun:"is_return" json:"is_return"`
	ActualDate *string    `bun:"actual" json:"actual"`
	ReturnDate *string    `bun:"return_date" json:"return_date"`
	LastUpdate *time.Time `bun:"last_update" json:"last_update"`
}

// Visitor is one check-in row in visitor_count. member_id is empty for
// guests.
type Visitor struct {
	bun.BaseModel `bun:"table:visitor_count"`

	VisitorID   int64     `bun:"visitor_id,pk,autoincrement" json:"visitor_id"`
	MemberID    *string   `bun:"member_id" json:"member_id"`
	MemberName  string    `bun:"member_name" json:"member_name"`
	Institution *string   `bun:"institution" json:"institution"`
	CheckinDate time.Time `bun:"checkin_date" json:"checkin_date"`
}

// Member mirrors the columns the circulation services read. The generic
// resource endpoints work on raw rows and do not use this struct.
type Member struct {
	bun.BaseModel `bun:"table:member"`

	MemberID     string  `bun:"member_id,pk" json:"member_id"`
	MemberName   string  `bun:"member_name" json:"member_name"`
	MemberEmail  *string `bun:"member_email" json:"member_email"`
	MemberTypeID *int64  `bun:"member_type_id" json:"member_type_id"`
	RegisterDate *string `bun:"register_date" json:"register_date"`
	ExpireDate   *string `bun:"expire_date" json:"expire_date"`
	IsPending    int     `bun:"is_pending" json:"is_pending"`
}

// Item is one physical copy of a biblio.
type Item struct {
	bun.BaseModel `bun:"table:item"`

	ItemID       int64   `bun:"item_id,pk,autoincrement" json:"item_id"`
	ItemCode     string  `bun:"item_code" json:"item_code"`
	BiblioID     int64   `bun:"biblio_id" json:"biblio_id"`
	CallNumber   *string `bun:"call_number" json:"call_number"`
	CollTypeID   *int64  `bun:"coll_type_id" json:"coll_type_id"`
	LocationID   *string `bun:"location_id" json:"location_id"`
	ItemStatusID *string `bun:"item_status_id" json:"item_status_id"`
}

// MemberType carries the loan rules applied at checkout.
type MemberType struct {
	bun.BaseModel `bun:"table:mst_member_type"`

	MemberTypeID   int64  `bun:"member_type_id,pk" json:"member_type_id"`
	MemberTypeName string `bun:"member_type_name" json:"member_type_name"`
	LoanLimit      int    `bun:"loan_limit" json:"loan_limit"`
	LoanPeriode    int    `bun:"loan_periode" json:"loan_periode"`
}

// User is an application account. Passwd holds a bcrypt hash. Groups is
// the legacy serialized group list; a user belongs to the admin group when
// it contains "1".
type User struct {
	bun.BaseModel `bun:"table:user"`

	UserID   int64   `bun:"user_id,pk,autoincrement" json:"user_id"`
	Username string  `bun:"username" json:"username"`
	RealName *string `bun:"realname" json:"realname"`
	Passwd   string  `bun:"passwd" json:"-"`
	Groups   *string `bun:"groups" json:"groups"`
	UserType *int    `bun:"user_type" json:"user_type"`
}

// Setting is one row of the setting table. SettingValue holds the legacy
// serialized encoding decoded by the settings package.
type Setting struct {
	bun.BaseModel `bun:"table:setting"`

	SettingID    int64   `bun:"setting_id,pk,autoincrement" json:"setting_id"`
	SettingName  string  `bun:"setting_name" json:"setting_name"`
	SettingValue *string `bun:"setting_value" json:"setting_value"`
}
