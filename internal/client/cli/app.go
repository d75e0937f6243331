// Package cli implements the gcli command line: register, login and me
// against a Gatekeeper server.
//
// Prompts go to stderr so that the token printed by "login" can be captured
// from stdout, e.g.
//
//	export GATEKEEPER_TOKEN=$(gcli login)
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/gatekeeper/internal/client/client"
	"github.com/dmitrijs2005/gatekeeper/internal/client/config"
	"github.com/dmitrijs2005/gatekeeper/internal/common"
)

// ErrUsage reports a missing or unknown sub-command.
var ErrUsage = errors.New("usage: gcli [flags] register|login|me")

// getSimpleText and getPassword are swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

type App struct {
	config *config.Config
	client client.Client
	reader *bufio.Reader
	out    io.Writer
	prompt io.Writer
}

func NewApp(c *config.Config) (*App, error) {
	cl, err := client.NewHTTPClient(c.ServerURL, c.Timeout)
	if err != nil {
		return nil, err
	}
	return newApp(c, cl, os.Stdin, os.Stdout, os.Stderr), nil
}

func newApp(c *config.Config, cl client.Client, in io.Reader, out, prompt io.Writer) *App {
	return &App{config: c, client: cl, reader: bufio.NewReader(in), out: out, prompt: prompt}
}

// Run executes the sub-command found in args (typically os.Args[1:]).
func (a *App) Run(ctx context.Context, args []string) error {
	cmd := Command(args)

	switch cmd {
	case "register":
		return a.Register(ctx)
	case "login":
		return a.Login(ctx)
	case "me":
		return a.Me(ctx)
	case "help":
		fmt.Fprintln(a.out, ErrUsage.Error())
		return nil
	case "":
		return ErrUsage
	default:
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
}

// Command returns the first positional argument, skipping flags and the
// values of flags that take one.
func Command(args []string) string {
	valued := make(map[string]struct{}, len(config.ValueFlags))
	for _, f := range config.ValueFlags {
		valued[f] = struct{}{}
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			return arg
		}
		if strings.Contains(arg, "=") {
			continue
		}
		if _, ok := valued[arg]; ok {
			i++
		}
	}
	return ""
}

func (a *App) readCredentials() (string, []byte, error) {
	email, err := getSimpleText(a.reader, "Enter email", a.prompt)
	if err != nil {
		return "", nil, err
	}
	password, err := getPassword(a.prompt)
	if err != nil {
		return "", nil, err
	}
	return email, password, nil
}

func (a *App) Register(ctx context.Context) error {
	email, password, err := a.readCredentials()
	if err != nil {
		return err
	}
	defer wipe(password)

	u, err := a.client.Register(ctx, email, password)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Registered %s (%s, id %s)\n", u.Email, u.Role, u.ID)
	return nil
}

// Login prints the access token alone on stdout and the expiry on the
// prompt stream.
func (a *App) Login(ctx context.Context) error {
	email, password, err := a.readCredentials()
	if err != nil {
		return err
	}
	defer wipe(password)

	s, err := a.client.Login(ctx, email, password)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.prompt, "Logged in as %s, token expires at %s\n", s.Email, s.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintln(a.out, s.Token)
	return nil
}

func (a *App) Me(ctx context.Context) error {
	if a.config.Token == "" {
		return fmt.Errorf("no token: pass -token or set %s", common.TokenEnvName)
	}

	id, err := a.client.Me(ctx, a.config.Token)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s (%s)\n", id.Email, id.Role)
	return nil
}
