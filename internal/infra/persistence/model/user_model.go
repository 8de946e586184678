package model

// UserModel mirrors the single 'users' table holding both user variants.
// The named check constraints restate the consistency rules at the storage
// layer as a backstop; the usecase layer is the primary enforcement path.
type UserModel struct {
	ID        uint    `gorm:"primaryKey"`
	FirstName string  `gorm:"type:varchar(100);not null;index"`
	LastName  string  `gorm:"type:varchar(100);not null;index"`
	UserType  string  `gorm:"type:varchar(10);not null;index;check:valid_user_type,user_type IN ('parent','child')"`
	Street    *string `gorm:"type:varchar(255);check:child_no_address,NOT (user_type = 'child' AND (street IS NOT NULL OR city IS NOT NULL OR state IS NOT NULL OR zip_code IS NOT NULL))"`
	City      *string `gorm:"type:varchar(100)"`
	State     *string `gorm:"type:varchar(100)"`
	ZipCode   *string `gorm:"type:varchar(20);check:child_must_have_parent,NOT (user_type = 'child' AND parent_id IS NULL)"`
	ParentID  *uint   `gorm:"index;check:parent_no_parent_id,NOT (user_type = 'parent' AND parent_id IS NOT NULL)"`

	Parent   *UserModel   `gorm:"foreignKey:ParentID"`
	Children []*UserModel `gorm:"foreignKey:ParentID"`
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}
