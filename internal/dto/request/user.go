package request

// CreateUserRequest is the validated body for POST /users. The routing layer
// runs validation; the service receives it already well-formed.
type CreateUserRequest struct {
	FirstName string `json:"firstName" validate:"required,min=1,max=50"`
	LastName  string `json:"lastName" validate:"required,min=1,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
}

// UpdateUserRequest is a partial update: nil means "leave unchanged".
type UpdateUserRequest struct {
	FirstName   *string `json:"firstName" validate:"omitempty,min=1,max=50"`
	LastName    *string `json:"lastName" validate:"omitempty,min=1,max=50"`
	PhoneNumber *string `json:"phoneNumber"`
}

// Fields flattens the set pointers into the partial field map the
// repository's allow-list understands.
func (r UpdateUserRequest) Fields() map[string]any {
	fields := map[string]any{}
	if r.FirstName != nil {
		fields["firstName"] = *r.FirstName
	}
	if r.LastName != nil {
		fields["lastName"] = *r.LastName
	}
	if r.PhoneNumber != nil {
		fields["phoneNumber"] = *r.PhoneNumber
	}
	return fields
}
