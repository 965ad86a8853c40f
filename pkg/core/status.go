package core

// CompileStatus represents the compile state of the current edit session.
type CompileStatus string

// Compile status constants.
const (
	CompileStatusCompiling CompileStatus = "compiling"
	CompileStatusPass      CompileStatus = "pass"
	CompileStatusFail      CompileStatus = "fail"
)

// Terminal reports whether the status ends a compile attempt.
func (s CompileStatus) Terminal() bool {
	return s == CompileStatusPass || s == CompileStatusFail
}

// LoadStatus tracks whether an example is being fetched.
type LoadStatus string

// Load status constants.
const (
	LoadStatusIdle    LoadStatus = "not-loading"
	LoadStatusLoading LoadStatus = "loading"
)
