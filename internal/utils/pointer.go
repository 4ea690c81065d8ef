package utils

// Ptr returns a pointer to a copy of v.
//
//	res.TypeValid = utils.Ptr(valid)
func Ptr[T any](v T) *T {
	return &v
}
