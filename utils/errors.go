package utils

type PermError string

func (e PermError) Error() string {
	return string(e)
}

func (e PermError) IsPermanent() bool {
	return true
}

type permanent interface {
	IsPermanent() bool
}

// IsPermanentError reports whether err, or anything it wraps, says it
// should not be retried.
func IsPermanentError(err error) bool {
	for err != nil {
		if p, ok := err.(permanent); ok && p.IsPermanent() {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
