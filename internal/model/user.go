package model

// User mirrors an identity-provider record together with the role and
// org/department attributes maintained locally.
type User struct {
	ID             string
	Email          string
	FullName       string
	Role           Role
	OrganizationID *int64
	DepartmentID   *int64
}

func (u User) Principal() Principal {
	return Principal{
		UserID:         u.ID,
		Email:          u.Email,
		FullName:       u.FullName,
		Role:           u.Role,
		OrganizationID: u.OrganizationID,
		DepartmentID:   u.DepartmentID,
	}
}
