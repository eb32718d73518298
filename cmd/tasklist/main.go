// Command tasklist drives the task list from the shell. Results are printed
// to stdout as JSON; diagnostics go to the structured logger on stderr.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/99minutos/tasklist/internal/app"
	"github.com/99minutos/tasklist/internal/core/domain"
	"github.com/99minutos/tasklist/internal/core/ports"
	"github.com/99minutos/tasklist/internal/infrastructure/config"
	"github.com/99minutos/tasklist/pkg/logger"
)

const usage = `usage: tasklist <command> [args]

commands:
  register <id> <password>
  login    <id> <password>
  refresh  <refresh-token>
  add      <token> <content>
  list     <token>
  get      <token> <id>
  edit     <token> <id> <content>
  toggle   <token> <id>
  rm       <token> <id>`

// errUsage marks a malformed command line.
var errUsage = errors.New("invalid arguments")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootLog := logger.New(logger.Options{Level: os.Getenv("LOG_LEVEL")})
	cfg, err := config.Load(ctx, bootLog)
	if err != nil {
		stop()
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.Log.Level,
		Pretty:  cfg.Log.Pretty,
		Service: "tasklist",
	})

	if err := run(ctx, cfg, log, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, usage)
		}
		cliLog := logger.Component("cli")
		cliLog.Error().Err(err).Str("kind", kindName(err)).Msg("command failed")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	cmd, rest := args[0], args[1:]
	result, err := dispatch(ctx, a, cmd, rest)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func dispatch(ctx context.Context, a *app.App, cmd string, args []string) (any, error) {
	switch cmd {
	case "register":
		if len(args) != 2 {
			return nil, fmt.Errorf("%s: %w", cmd, errUsage)
		}
		return a.Register(ctx, args[0], args[1])
	case "login":
		if len(args) != 2 {
			return nil, fmt.Errorf("%s: %w", cmd, errUsage)
		}
		return a.Login(ctx, ports.Credentials{ID: args[0], Password: args[1]})
	case "refresh":
		if len(args) != 1 {
			return nil, fmt.Errorf("%s: %w", cmd, errUsage)
		}
		return a.Login(ctx, ports.Credentials{RefreshToken: args[0]})
	case "add":
		if len(args) != 2 {
			return nil, fmt.Errorf("%s: %w", cmd, errUsage)
		}
		return a.CreateTask(ctx, args[0], args[1])
	case "list":
		if len(args) != 1 {
			return nil, fmt.Errorf("%s: %w", cmd, errUsage)
		}
		return a.ListTasks(ctx, args[0])
	case "get":
		if len(args) != 2 {
			return nil, fmt.Errorf("%s: %w", cmd, errUsage)
		}
		task, found, err := a.GetTask(ctx, args[0], args[1])
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, domain.Failf("cli.get", domain.ErrNotFound, "task %s", args[1])
		}
		return task, nil
	case "edit":
		if len(args) != 3 {
			return nil, fmt.Errorf("%s: %w", cmd, errUsage)
		}
		content := args[2]
		return a.UpdateTask(ctx, args[0], args[1], domain.TaskPatch{Content: &content})
	case "toggle":
		if len(args) != 2 {
			return nil, fmt.Errorf("%s: %w", cmd, errUsage)
		}
		return a.ToggleTask(ctx, args[0], args[1])
	case "rm":
		if len(args) != 2 {
			return nil, fmt.Errorf("%s: %w", cmd, errUsage)
		}
		if err := a.DeleteTask(ctx, args[0], args[1]); err != nil {
			return nil, err
		}
		return map[string]string{"deleted": args[1]}, nil
	default:
		return nil, fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}
}

func kindName(err error) string {
	if kind := domain.KindOf(err); kind != nil {
		return kind.Error()
	}
	return "internal"
}
