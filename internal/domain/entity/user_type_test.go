package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserType_IsValid(t *testing.T) {
	assert.True(t, UserTypeParent.IsValid())
	assert.True(t, UserTypeChild.IsValid())
	assert.False(t, UserType("admin").IsValid())
	assert.False(t, UserType("").IsValid())
}

func TestUser_IsParent(t *testing.T) {
	parent := &User{UserType: UserTypeParent}
	child := &User{UserType: UserTypeChild}

	assert.True(t, parent.IsParent())
	assert.False(t, child.IsParent())
}

func TestUser_FullName(t *testing.T) {
	user := &User{FirstName: "John", LastName: "Doe"}

	assert.Equal(t, "John Doe", user.FullName())
}
