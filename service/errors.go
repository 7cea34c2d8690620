package service

type InvalidPayloadErr struct {
	message string
}

func (e *InvalidPayloadErr) Error() string {
	return e.message
}

func NewInvalidPayloadError(msg string) *InvalidPayloadErr {
	return &InvalidPayloadErr{message: msg}
}

// AuthErr carries the deliberately generic message shown for unknown
// subscribers and wrong PINs alike
type AuthErr struct {
	message string
}

func (e *AuthErr) Error() string {
	return e.message
}

func NewAuthError(msg string) *AuthErr {
	return &AuthErr{message: msg}
}

type LockedErr struct {
	message string
}

func (e *LockedErr) Error() string {
	return e.message
}

func NewLockedError(msg string) *LockedErr {
	return &LockedErr{message: msg}
}

type NotFoundErr struct {
	message string
}

func (e *NotFoundErr) Error() string {
	return e.message
}

func NewNotFoundError(msg string) *NotFoundErr {
	return &NotFoundErr{message: msg}
}
