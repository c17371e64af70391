package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isSignedIn(ctx context.Context) bool
	Query(ctx context.Context, args []string) error
	SignIn(ctx context.Context, args []string) error
	SSO(ctx context.Context, args []string) error
	Process(ctx context.Context) error
	Preview(ctx context.Context) error
	Paywall(ctx context.Context) error
	Checkout(ctx context.Context, args []string) error
	Return(ctx context.Context, args []string) error
	Reveal(ctx context.Context) error
	Dashboard(ctx context.Context) error
	Credits(ctx context.Context) error
	Back(ctx context.Context) error
	StartOver(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	SignOut(ctx context.Context) error
}

const (
	helpAnonymous = "Available commands: query <text>, signin <email>, sso <id-token>, paywall, back, startover, whoami, exit"
	helpSignedIn  = "Available commands: query <text>, process, preview, reveal, paywall, checkout <plan> [monthly|annual], return <url>, dashboard, credits, back, startover, whoami, signout, exit"
)

// runREPL starts a simple read–eval–print loop for the ViQi client.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a' with the remaining tokens as
// arguments. Unknown commands are reported back to the user. The loop exits
// on scanner EOF, when ctx is done, or when the user types "exit" or "quit".
//
// Command errors are printed and the loop continues; failures of the
// backend are shown by the services themselves.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("viqi %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isSignedIn(ctx) {
				printlnFn(helpSignedIn)
			} else {
				printlnFn(helpAnonymous)
			}
		case "q", "query":
			err = a.Query(ctx, args)
		case "signin":
			err = a.SignIn(ctx, args)
		case "sso":
			err = a.SSO(ctx, args)
		case "process":
			err = a.Process(ctx)
		case "preview":
			err = a.Preview(ctx)
		case "paywall", "plans":
			err = a.Paywall(ctx)
		case "checkout":
			err = a.Checkout(ctx, args)
		case "return":
			err = a.Return(ctx, args)
		case "reveal":
			err = a.Reveal(ctx)
		case "dashboard":
			err = a.Dashboard(ctx)
		case "credits":
			err = a.Credits(ctx)
		case "back":
			err = a.Back(ctx)
		case "startover":
			err = a.StartOver(ctx)
		case "whoami":
			err = a.WhoAmI(ctx)
		case "signout":
			err = a.SignOut(ctx)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}
		if err != nil {
			printlnFn("Error:", err)
		}
	}
}
