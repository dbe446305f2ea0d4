package core

import "errors"

var (
	ErrNotFound          = errors.New("record not found")
	ErrNoEmployeeProfile = errors.New("no employee profile for user")
	ErrDepartmentInUse   = errors.New("department has employees")
	ErrUserAlreadyLinked = errors.New("user already has an employee profile")
	ErrDuplicateName     = errors.New("name already exists")
)
