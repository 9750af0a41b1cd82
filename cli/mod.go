// Package cli describes the command line of a stake node independently of the
// library that parses it. Each component of the node registers its own
// commands on the builder, for instance the mission controller:
//
// 	cmd := builder.SetCommand("mission")
// 	cmd.SetDescription("manage the missions")
//
// 	sub := cmd.SetSubCommand("accept")
// 	sub.SetFlags(cli.Uint64Flag{Name: "id", Required: true})
// 	sub.SetAction(func(flags cli.Flags) error {
// 		return accept(flags.Uint64("id"))
// 	})
//
// The ucli package provides the implementation backed by urfave/cli.
package cli

import (
	"time"
)

// Builder collects the commands of the application.
type Builder interface {
	// SetCommand adds a top-level command and returns its builder.
	SetCommand(name string) CommandBuilder

	// Build returns the application with every command registered so far.
	Build() Application
}

// Application parses the arguments and runs the matching action.
type Application interface {
	Run(arguments []string) error
}

// CommandBuilder sets up one command. A command either has an action or
// subcommands, such as "mission create" and "mission verify".
type CommandBuilder interface {
	SetDescription(value string)

	SetFlags(...Flag)

	SetAction(Action)

	// SetSubCommand adds a command nested under this one.
	SetSubCommand(name string) CommandBuilder
}

// Action runs a command with the flags it was invoked with.
type Action func(Flags) error

// Flag is implemented by the flag definitions of flag.go.
type Flag interface {
	Flag()
}

// Flags reads the values of the flags by name. A flag that was not set returns
// its default value, or the zero value.
type Flags interface {
	String(name string) string

	// Duration reads a flag such as the expiry of a session token.
	Duration(name string) time.Duration

	// Path reads a flag pointing to a file or a directory, like the
	// configuration folder of the node.
	Path(name string) string

	Int(name string) int

	// Uint64 reads the mission IDs and the reward amounts.
	Uint64(name string) uint64

	Bool(name string) bool
}
