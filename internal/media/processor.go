// Package media builds and runs the ffmpeg invocations behind media jobs.
package media

import "context"

// Invoker runs the external media tool.
// Implementations must never pass args through a shell.
type Invoker interface {
	// Invoke runs the tool with args, using dir as the working directory,
	// and blocks until it exits or ctx is done. A non-zero exit must be
	// reported as *FFmpegError and a missing executable as ErrToolNotFound.
	Invoke(ctx context.Context, dir string, args []string) error
}

// Command is a fully built tool invocation.
type Command struct {
	// Args is the argument vector, without the executable name.
	Args []string
	// Output is the path the tool is expected to produce.
	Output string
}
