package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"runtime/debug"
	"time"

	"github.com/AsheeSoftworks/Authentication-Frontend-Boilerplate-Auth-Flow/authclient"
	"github.com/AsheeSoftworks/Authentication-Frontend-Boilerplate-Auth-Flow/gateway"
	"github.com/AsheeSoftworks/Authentication-Frontend-Boilerplate-Auth-Flow/googleauth"
	"github.com/AsheeSoftworks/Authentication-Frontend-Boilerplate-Auth-Flow/internal/config"
	"github.com/AsheeSoftworks/Authentication-Frontend-Boilerplate-Auth-Flow/routeguard"
	"github.com/AsheeSoftworks/Authentication-Frontend-Boilerplate-Auth-Flow/session"
	"github.com/AsheeSoftworks/Authentication-Frontend-Boilerplate-Auth-Flow/storage"
	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"
)

const usage = `Usage: authflow <command> [flags]

Commands:
  signup               Register a new account
  login                Sign in with email and password
  logout               Sign out and clear stored credentials
  whoami               Show the current session
  refresh              Exchange the stored token for a fresh one
  verify-email         Confirm an email address with a verification token
  request-reset        Request a password reset email
  reset-password       Set a new password with a reset token
  resend-verification  Resend the verification email
  google-url           Print the Google consent URL
  google-login         Complete a Google sign-in with an authorization code
  get                  Perform an authenticated GET through the gateway
  guard                Evaluate the route guard for a path
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("authflow: %s\n", err)
	}
}

func run(args []string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return errors.New("no command given")
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel)

	store, err := storage.NewFileStore(cfg.StateDir)
	if err != nil {
		return err
	}
	backend := authclient.New(cfg.APIBaseURL, authclient.WithTimeout(cfg.RequestTimeout))

	manager, err := session.New(backend, store,
		session.WithLogger(logger),
		session.WithTokenTTL(cfg.TokenTTL),
	)
	if err != nil {
		return err
	}
	if err := manager.Rehydrate(); err != nil {
		logger.Warn().Err(err).Msg("starting without persisted session")
	}

	app := &application{cfg: cfg, log: logger, store: store, backend: backend, sessions: manager}
	return app.dispatch(args[0], args[1:])
}

type application struct {
	cfg      config.Config
	log      zerolog.Logger
	store    *storage.FileStore
	backend  *authclient.Client
	sessions *session.Manager
}

func (a *application) dispatch(command string, args []string) error {
	ctx := context.Background()

	switch command {
	case "signup":
		return a.signUp(ctx, args)
	case "login":
		return a.logIn(ctx, args)
	case "logout":
		a.sessions.LogOut()
		fmt.Println("signed out")
		return nil
	case "whoami":
		return a.whoAmI()
	case "refresh":
		return a.refresh(ctx)
	case "verify-email":
		return a.verifyEmail(ctx, args)
	case "request-reset":
		return a.requestReset(ctx, args)
	case "reset-password":
		return a.resetPassword(ctx, args)
	case "resend-verification":
		return a.resendVerification(ctx, args)
	case "google-url":
		return a.googleURL(args)
	case "google-login":
		return a.googleLogIn(ctx, args)
	case "get":
		return a.authenticatedGet(args)
	case "guard":
		return a.guard(ctx, args)
	case "help", "-h", "--help":
		banner()
		fmt.Print(usage)
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *application) signUp(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("signup", flag.ContinueOnError)
	name := flags.String("name", "", "display name")
	email := flags.String("email", "", "email address")
	password := flags.String("password", "", "password")
	confirm := flags.String("confirm-password", "", "password again")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if err := a.sessions.SignUp(ctx, *name, *email, *password, *confirm); err != nil {
		return err
	}
	fmt.Printf("registered %s, check your inbox for a verification email\n", *email)
	return nil
}

func (a *application) logIn(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("login", flag.ContinueOnError)
	email := flags.String("email", "", "email address")
	password := flags.String("password", "", "password")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if err := a.sessions.LogIn(ctx, *email, *password); err != nil {
		return err
	}
	fmt.Printf("signed in as %s\n", a.sessions.Current().User.Email)
	return nil
}

func (a *application) whoAmI() error {
	current := a.sessions.Current()
	if !current.Authenticated {
		fmt.Println("not signed in")
		return nil
	}
	fmt.Printf("email: %s\nname: %s\n", current.User.Email, current.User.Name)
	if expiry, ok := session.CredentialExpiry(current.Token); ok {
		fmt.Printf("token expires: %s\n", expiry.Format(time.RFC3339))
	}
	return nil
}

func (a *application) refresh(ctx context.Context) error {
	if _, err := a.sessions.RefreshToken(ctx); err != nil {
		return err
	}
	fmt.Println("token refreshed")
	return nil
}

func (a *application) verifyEmail(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("verify-email", flag.ContinueOnError)
	token := flags.String("token", "", "verification token from the email link")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if err := a.sessions.VerifyEmail(ctx, *token); err != nil {
		return err
	}
	fmt.Println("email verified")
	return nil
}

func (a *application) requestReset(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("request-reset", flag.ContinueOnError)
	email := flags.String("email", "", "email address")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if err := a.sessions.RequestPasswordReset(ctx, *email); err != nil {
		return err
	}
	fmt.Printf("reset email sent to %s\n", *email)
	return nil
}

func (a *application) resetPassword(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("reset-password", flag.ContinueOnError)
	password := flags.String("password", "", "new password")
	confirm := flags.String("confirm-password", "", "new password again")
	token := flags.String("token", "", "reset token from the email link")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if err := a.sessions.PasswordReset(ctx, *password, *confirm, *token); err != nil {
		return err
	}
	fmt.Println("password updated, sign in with the new password")
	return nil
}

func (a *application) resendVerification(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("resend-verification", flag.ContinueOnError)
	email := flags.String("email", "", "email address")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if err := a.sessions.ResendVerificationEmail(ctx, *email); err != nil {
		return err
	}
	fmt.Printf("verification email resent to %s\n", *email)
	return nil
}

func (a *application) googleURL(args []string) error {
	flags := flag.NewFlagSet("google-url", flag.ContinueOnError)
	state := flags.String("state", "", "state value to correlate the redirect (generated when empty)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if a.cfg.GoogleClientID == "" || a.cfg.GoogleRedirectURL == "" {
		return errors.New("AUTH_GOOGLE_CLIENT_ID and AUTH_GOOGLE_REDIRECT_URL must be set")
	}
	if *state == "" {
		*state = googleauth.NewState()
	}
	fmt.Printf("state: %s\n%s\n", *state, googleauth.ConsentURL(a.cfg.GoogleClientID, a.cfg.GoogleRedirectURL, *state))
	return nil
}

func (a *application) googleLogIn(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("google-login", flag.ContinueOnError)
	code := flags.String("code", "", "authorization code from the Google redirect")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if err := a.sessions.GoogleLogin(ctx, *code); err != nil {
		return err
	}
	fmt.Printf("signed in as %s\n", a.sessions.Current().User.Email)
	return nil
}

func (a *application) authenticatedGet(args []string) error {
	flags := flag.NewFlagSet("get", flag.ContinueOnError)
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return errors.New("get takes exactly one URL")
	}

	client := gateway.NewTransport(a.sessions, gateway.WithLogger(a.log)).Client()
	resp, err := client.Get(flags.Arg(0))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	fmt.Printf("%s\n", resp.Status)
	if _, err := io.Copy(os.Stdout, resp.Body); err != nil {
		return err
	}
	return nil
}

func (a *application) guard(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("guard", flag.ContinueOnError)
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return errors.New("guard takes exactly one path")
	}

	routes, err := routeguard.New(a.store, a.backend, routeguard.WithLogger(a.log))
	if err != nil {
		return err
	}

	decision := routes.Evaluate(ctx, flags.Arg(0))
	switch decision.Action {
	case routeguard.ActionRedirect:
		fmt.Printf("redirect %s\n", decision.Location)
	default:
		fmt.Println("allow")
	}
	return nil
}

func newLogger(level string) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(writer).Level(parsed).With().Timestamp().Logger()
}

func banner() {
	figure.NewFigure("authflow", "cybermedium", true).Print()
	fmt.Println()
}
