// Package shell renders environment snippets that put an installed runtime
// on PATH.
//
// The shell is detected from $SHELL, falling back to the name of the parent
// process:
//
//	res, _ := shell.DetectShell(ctx)
//	snippet, err := shell.PathExports(res.Shell, []string{"/data/python-runtimes/3.12.12/python/bin"})
//
//	# bash / zsh
//	export PATH="/data/python-runtimes/3.12.12/python/bin:$PATH"
//
//	# fish
//	set -gx PATH '/data/python-runtimes/3.12.12/python/bin' $PATH
//
// Users evaluate the output, e.g. eval "$(nexo-runtimes env python 3.12.12)".
package shell
