package domain

import "time"

// User and address errors.
var (
	ErrUserNotFound       = &Error{Code: ENOTFOUND, Message: "User not found"}
	ErrAddressNotFound    = &Error{Code: ENOTFOUND, Message: "Address not found"}
	ErrEmailTaken         = &Error{Code: ECONFLICT, Message: "An account with this email already exists"}
	ErrInvalidCredentials = &Error{Code: EUNAUTHORIZED, Message: "Invalid email or password"}
	ErrNotAuthenticated   = &Error{Code: EUNAUTHORIZED, Message: "Please sign in to continue"}
)

// Role gates access to the admin back-office.
type Role string

const (
	RoleGuest Role = "guest"
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Address is a saved shipping address in a user's address book.
type Address struct {
	ID        string `json:"id"`
	FullName  string `json:"fullName"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	IsDefault bool   `json:"isDefault,omitempty"`
}

// User is a storefront account.
type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Role           Role      `json:"role"`
	Avatar         string    `json:"avatar,omitempty"`
	SavedAddresses []Address `json:"savedAddresses,omitempty"`
	PasswordHash   string    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
}

// IsAdmin reports whether the user may use the back-office.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// DefaultAddress picks the address marked default, else the first one.
func (u *User) DefaultAddress() (Address, bool) {
	if u == nil || len(u.SavedAddresses) == 0 {
		return Address{}, false
	}
	for _, a := range u.SavedAddresses {
		if a.IsDefault {
			return a, true
		}
	}
	return u.SavedAddresses[0], true
}

// FindAddress looks up a saved address by id.
func (u *User) FindAddress(id string) (Address, bool) {
	if u == nil {
		return Address{}, false
	}
	for _, a := range u.SavedAddresses {
		if a.ID == id {
			return a, true
		}
	}
	return Address{}, false
}

// Clone returns a deep copy so callers can mutate the address book safely.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.SavedAddresses != nil {
		c.SavedAddresses = append([]Address(nil), u.SavedAddresses...)
	}
	return &c
}
