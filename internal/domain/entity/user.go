// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

// User represents both user variants of the single users table. The UserType
// discriminator decides which optional fields are populated: parents carry the
// four address fields and no ParentID, children carry a ParentID and no
// address fields.
type User struct {
	ID        uint     // Primary key, generated by the store.
	FirstName string   // Required for all users.
	LastName  string   // Required for all users.
	UserType  UserType // Immutable after creation.
	Street    *string  // Parent only.
	City      *string  // Parent only.
	State     *string  // Parent only.
	ZipCode   *string  // Parent only.
	ParentID  *uint    // Child only. References a parent user's ID.
	Children  []*User  // Derived, never stored. Populated for parents at assembly time.
}

// IsParent reports whether the user is of the parent variant.
func (u *User) IsParent() bool {
	return u.UserType == UserTypeParent
}

// FullName returns the user's display name.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
