package entity

// UserType discriminates the two user variants stored in the users table.
type UserType string

const (
	// UserTypeParent indicates a parent user: carries address fields, never a parent reference.
	UserTypeParent UserType = "parent"
	// UserTypeChild indicates a child user: carries a parent reference, never address fields.
	UserTypeChild UserType = "child"
)

// String returns the string representation of the UserType.
func (t UserType) String() string {
	return string(t)
}

// IsValid checks if the UserType is a valid value.
func (t UserType) IsValid() bool {
	switch t {
	case UserTypeParent, UserTypeChild:
		return true
	default:
		return false
	}
}
