// Command certctl requests a certificate from a running certificate service
// and follows the request until it concludes.
//
//	certctl -url http://localhost:3000 -email me@example.com -domain example.com -method dns
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/gridlinecompany/LetsEcrypt/core/logger"
	"github.com/gridlinecompany/LetsEcrypt/pkg/certrequest"
	"github.com/gridlinecompany/LetsEcrypt/pkg/poller"
)

var (
	flagURL      = flag.String("url", "http://localhost:3000", "certificate service base URL")
	flagEmail    = flag.String("email", "", "account email, also used for the ACME account")
	flagPassword = flag.String("password", os.Getenv("CERTCTL_PASSWORD"), "account password (default $CERTCTL_PASSWORD)")
	flagName     = flag.String("name", "", "register a new account with this name before requesting")
	flagDomain   = flag.String("domain", "", "domain to request a certificate for")
	flagMethod   = flag.String("method", certrequest.MethodHTTP, "challenge type: http or dns")
	flagOut      = flag.String("out", ".", "directory for the downloaded certificate and key")
	flagInterval = flag.Duration("interval", 5*time.Second, "status poll interval")
	flagVerbose  = flag.Bool("v", false, "log poll updates")
)

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "certctl:", err)
		os.Exit(1)
	}
}

type term struct {
	interactive bool
	color       bool
	in          *bufio.Reader
	out         io.Writer
}

func newTerm() *term {
	return &term{
		interactive: isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()),
		color:       isatty.IsTerminal(os.Stdout.Fd()) && os.Getenv("NO_COLOR") == "",
		in:          bufio.NewReader(os.Stdin),
		out:         os.Stdout,
	}
}

func (t *term) printf(format string, args ...any) {
	fmt.Fprintf(t.out, format+"\n", args...)
}

func (t *term) success(msg string) {
	if t.color {
		msg = "\x1b[32m" + msg + "\x1b[0m"
	}
	fmt.Fprintln(t.out, msg)
}

// confirm asks a yes/no question. Without a terminal it answers yes.
func (t *term) confirm(question string) bool {
	if !t.interactive {
		return true
	}
	for {
		fmt.Fprintf(t.out, "%s (Y)es/(N)o: ", question)
		ans, err := t.in.ReadString('\n')
		if err != nil {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(ans)) {
		case "y", "yes":
			return true
		case "n", "no":
			return false
		}
	}
}

func run(ctx context.Context) error {
	if *flagEmail == "" || *flagDomain == "" {
		flag.Usage()
		return errors.New("-email and -domain are required")
	}
	t := newTerm()

	client, err := poller.NewClient(*flagURL)
	if err != nil {
		return err
	}
	if *flagName != "" {
		err = client.Register(ctx, *flagName, *flagEmail, *flagPassword)
	} else {
		err = client.Login(ctx, *flagEmail, *flagPassword)
	}
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}

	resp, err := client.Generate(ctx, certrequest.GenerateRequest{
		Domain:        *flagDomain,
		Email:         *flagEmail,
		ChallengeType: *flagMethod,
	})
	if err != nil {
		return fmt.Errorf("request certificate: %w", err)
	}
	t.printf("%s", resp.Message)

	if *flagMethod == certrequest.MethodDNS {
		if err := dnsSteps(ctx, t, client, resp.DNSData); err != nil {
			return err
		}
	}

	res, err := follow(ctx, poller.StatusCheck(client))
	if err != nil {
		return err
	}
	t.success(res.Update.Message)
	return download(ctx, t, client, res.Update.Value)
}

// dnsSteps waits for the TXT record, lets the user publish it and starts
// CA validation.
func dnsSteps(ctx context.Context, t *term, client *poller.Client, data *certrequest.DNSData) error {
	if data == nil {
		res, err := follow(ctx, poller.DNSReadyCheck(client))
		if err != nil {
			return err
		}
		st, err := client.DNSChallengeStatus(ctx)
		if err != nil {
			return err
		}
		if st.DNSData == nil {
			return errors.New(res.Update.Message)
		}
		data = st.DNSData
	}

	t.printf("Create this DNS TXT record:\n  name:  %s\n  value: %s", data.RecordName, data.RecordValue)
	if data.Fallback {
		t.printf("Warning: the certificate authority did not register this challenge; validation will fail.")
	}
	if !t.confirm("Is the record published?") {
		return errors.New("aborted")
	}

	check, err := client.CheckDNS(ctx, data.Domain, "")
	if err != nil {
		return err
	}
	if !check.Success {
		t.printf("%s", check.Message)
		for _, d := range check.Details {
			t.printf("  - %s", d)
		}
		if !t.confirm("Ask the certificate authority to validate anyway?") {
			return errors.New("aborted")
		}
	}

	resp, err := client.VerifyDNS(ctx, data.Domain, false)
	if err != nil {
		return fmt.Errorf("verify dns: %w", err)
	}
	t.printf("%s", resp.Message)
	return nil
}

func follow(ctx context.Context, check poller.CheckFunc) (poller.Result, error) {
	opts := []poller.Option{poller.WithInterval(*flagInterval)}
	var onUpdate func(poller.Update)
	if *flagVerbose {
		log := logger.New(logger.WithOutput(os.Stderr), logger.WithLevel(slog.LevelDebug))
		opts = append(opts, poller.WithLogger(log))
		onUpdate = func(u poller.Update) {
			log.InfoContext(ctx, u.Message)
		}
	}

	res := <-poller.New(opts...).Start(ctx, check, onUpdate)
	if res.Err != nil {
		return res, res.Err
	}
	if res.Update.Failed {
		msg := res.Update.Message
		for _, d := range res.Update.Details {
			msg += "\n  - " + d
		}
		return res, errors.New(msg)
	}
	return res, nil
}

func download(ctx context.Context, t *term, client *poller.Client, certID string) error {
	if certID == "" {
		return nil
	}
	if err := os.MkdirAll(*flagOut, 0o755); err != nil {
		return err
	}
	for _, kind := range []string{"cert", "key"} {
		path := filepath.Join(*flagOut, fmt.Sprintf("%s_%s.pem", *flagDomain, kind))
		if err := saveFile(ctx, client, certID, kind, path); err != nil {
			return fmt.Errorf("download %s: %w", kind, err)
		}
		t.printf("Saved %s", path)
	}
	return nil
}

func saveFile(ctx context.Context, client *poller.Client, certID, kind, path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := client.Download(ctx, certID, kind, f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
