package domain

// Command is a shell command line run in a directory.
type Command struct {
	Line string
	Dir  string
	// Env is applied on top of the process environment, in "KEY=VALUE" form.
	Env []string
}
