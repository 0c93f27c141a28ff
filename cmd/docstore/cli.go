package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/blxryer/haste-server/internal/commands"
	"github.com/blxryer/haste-server/internal/queries"
	"github.com/blxryer/haste-server/internal/scope"
	"github.com/blxryer/haste-server/internal/utils/storeError"

	"github.com/The127/ioc"
	"github.com/The127/mediatr"
)

const usage = `usage: docstore [-config file] [-production] <command>

commands:
  migrate                          provision the document schema
  set [-skip-expire] <key> [value] store a document, the value is read from stdin when omitted
  get [-skip-expire] <key>         print a document
  purge                            delete expired documents
`

func run(ctx context.Context, dp *ioc.DependencyProvider, cmdArgs []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) int {
	if len(cmdArgs) == 0 {
		_, _ = fmt.Fprint(stderr, usage)
		return storeError.ExitBadRequest
	}

	err := scope.Run(ctx, dp, func(ctx context.Context) error {
		mediator := ioc.GetDependency[mediatr.Mediator](scope.GetScope(ctx))

		switch cmdArgs[0] {
		case "migrate":
			// schema provisioning already ran during startup
			_, err := fmt.Fprintln(stdout, "schema is up to date")
			return err

		case "set":
			return runSet(ctx, mediator, cmdArgs[1:], stdin, stdout)

		case "get":
			return runGet(ctx, mediator, cmdArgs[1:], stdout)

		case "purge":
			return runPurge(ctx, mediator, stdout)

		default:
			return fmt.Errorf("unknown command %q: %w", cmdArgs[0], storeError.ErrBadRequest)
		}
	})

	return storeError.HandleCliError(stderr, err)
}

func newFlagSet(name string) (*flag.FlagSet, *bool) {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	skipExpire := flags.Bool("skip-expire", false, "do not set or refresh the expiration")
	return flags, skipExpire
}

func runSet(ctx context.Context, mediator mediatr.Mediator, cmdArgs []string, stdin io.Reader, stdout io.Writer) error {
	flags, skipExpire := newFlagSet("set")
	err := flags.Parse(cmdArgs)
	if err != nil {
		return fmt.Errorf("%s: %w", err.Error(), storeError.ErrBadRequest)
	}

	var key, value string
	switch flags.NArg() {
	case 1:
		key = flags.Arg(0)
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("reading value from stdin: %w", err)
		}
		value = string(raw)

	case 2:
		key = flags.Arg(0)
		value = flags.Arg(1)

	default:
		return fmt.Errorf("set expects a key and an optional value: %w", storeError.ErrBadRequest)
	}

	response, err := mediatr.Send[*commands.SetDocumentResponse](ctx, mediator, commands.SetDocument{
		Key:        key,
		Value:      value,
		SkipExpire: *skipExpire,
	})
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(stdout, response.Key)
	return err
}

func runGet(ctx context.Context, mediator mediatr.Mediator, cmdArgs []string, stdout io.Writer) error {
	flags, skipExpire := newFlagSet("get")
	err := flags.Parse(cmdArgs)
	if err != nil {
		return fmt.Errorf("%s: %w", err.Error(), storeError.ErrBadRequest)
	}

	if flags.NArg() != 1 {
		return fmt.Errorf("get expects exactly one key: %w", storeError.ErrBadRequest)
	}

	response, err := mediatr.Send[*queries.GetDocumentResponse](ctx, mediator, queries.GetDocument{
		Key:        flags.Arg(0),
		SkipExpire: *skipExpire,
	})
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(stdout, response.Value)
	return err
}

func runPurge(ctx context.Context, mediator mediatr.Mediator, stdout io.Writer) error {
	response, err := mediatr.Send[*commands.PurgeExpiredDocumentsResponse](ctx, mediator, commands.PurgeExpiredDocuments{})
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(stdout, "purged %d expired documents\n", response.Purged)
	return err
}
