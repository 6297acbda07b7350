// Package cli реализует команды утилиты identity-cli.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/magabrotheeeer/identity-service/internal/config"
	"github.com/magabrotheeeer/identity-service/internal/models"
	"github.com/magabrotheeeer/identity-service/internal/services/identity"
)

// Коды завершения.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// Подменяются в тестах.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

var errPasswordRequired = errors.New("--password is required when stdin is not a terminal")

// ErrEphemeralStorage возвращается, если CLI настроен на хранилище в памяти:
// созданная учётная запись исчезла бы вместе с процессом.
var ErrEphemeralStorage = errors.New("storage driver \"memory\" does not persist accounts, set STORAGE_DRIVER to sqlite or postgres")

// CheckPersistent проверяет, что хранилище переживёт завершение процесса.
func CheckPersistent(cfg config.Storage) error {
	if cfg.Driver == config.DriverMemory || cfg.Driver == "" {
		return ErrEphemeralStorage
	}
	return nil
}

// Creator создаёт учётные записи.
type Creator interface {
	CreateAccount(ctx context.Context, in models.CreateAccountInput) (identity.CreateResult, error)
}

// Opener открывает сервис и возвращает функцию освобождения ресурсов.
type Opener func(ctx context.Context) (Creator, func() error, error)

// Run разбирает подкоманду из args и выполняет её.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer, open Opener) int {
	if len(args) == 0 {
		usage(stderr)
		return ExitUsage
	}

	switch args[0] {
	case "create-user":
		return createUser(ctx, args[1:], stdout, stderr, open)
	case "help", "-h", "--help":
		usage(stdout)
		return ExitOK
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", args[0])
		usage(stderr)
		return ExitUsage
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: identity-cli create-user --username NAME --email EMAIL [--password PASSWORD] --full-name NAME --birthdate YYYY-MM-DD --country CC")
}

func createUser(ctx context.Context, args []string, stdout, stderr io.Writer, open Opener) int {
	var in models.CreateAccountInput

	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&in.Username, "username", "", "unique username")
	fs.StringVar(&in.Email, "email", "", "unique email address")
	fs.StringVar(&in.Password, "password", "", "password (prompted when omitted)")
	fs.StringVar(&in.FullName, "full-name", "", "full name")
	fs.StringVar(&in.Birthdate, "birthdate", "", "birthdate, YYYY-MM-DD")
	fs.StringVar(&in.Country, "country", "", "ISO 3166-1 alpha-2 country code")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	if in.Password == "" {
		pw, err := promptPassword(stderr)
		if err != nil {
			fmt.Fprintf(stderr, "%s. %v\n", identity.MsgCreateFailed, err)
			return ExitError
		}
		in.Password = pw
	}

	svc, closeFn, err := open(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "%s. %v\n", identity.MsgCreateFailed, err)
		return ExitError
	}
	defer func() {
		if err := closeFn(); err != nil {
			fmt.Fprintf(stderr, "close: %v\n", err)
		}
	}()

	res, err := svc.CreateAccount(ctx, in)
	if err != nil {
		fmt.Fprintf(stderr, "%s. %s\n", identity.MsgCreateFailed, cause(err))
		return ExitError
	}

	fmt.Fprintf(stdout, "%s. id=%s\n", res.Message, res.AccountID)
	return ExitOK
}

func promptPassword(w io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !isTerminal(fd) {
		return "", errPasswordRequired
	}
	fmt.Fprint(w, "Enter password: ")
	pw, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// cause возвращает тип доменной ошибки, а для внутренних ошибок полный текст.
func cause(err error) string {
	kind := models.FieldKind(err)
	if kind == models.KindInternal {
		var f *identity.Failure
		if errors.As(err, &f) && f.Err != nil {
			return f.Err.Error()
		}
		return err.Error()
	}
	return string(kind)
}
