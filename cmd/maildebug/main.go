// Command maildebug sends debug emails through the configured provider and
// looks up delivery status.
//
//	maildebug send-test -to someone@example.com
//	maildebug send-otp -to someone@example.com
//	maildebug status <provider-id>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"groona_alerts/internal/app"
	domainMail "groona_alerts/internal/domain/mail"
	"groona_alerts/internal/infra/config"
	"groona_alerts/internal/infra/logger"
	imail "groona_alerts/internal/infra/mail"
)

const requestTimeout = 30 * time.Second

var errUsage = errors.New("usage: maildebug send-test -to addr | send-otp -to addr | status <id>")

type command struct {
	sender domainMail.Sender
	from   string
	otpTTL time.Duration
	out    io.Writer
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	log := logger.Component("maildebug")

	sender, err := imail.NewSender(cfg.Email)
	if err != nil {
		log.WithError(err).Fatal("Email is not configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	cmd := &command{sender: sender, from: cfg.Email.From, otpTTL: cfg.OTPTTL, out: os.Stdout}
	if err := cmd.run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
		} else {
			log.WithError(err).Error("Command failed")
		}
		cancel()
		os.Exit(1)
	}
}

func (c *command) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "send-test", "send-otp":
		fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		to := fs.String("to", "", "recipient address")
		if err := fs.Parse(args[1:]); err != nil || *to == "" {
			return errUsage
		}
		msg, err := c.message(args[0], *to)
		if err != nil {
			return err
		}
		id, err := c.sender.Send(ctx, msg)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "sent %s to %s, id %s\n", args[0], *to, id)
		return nil
	case "status":
		if len(args) != 2 {
			return errUsage
		}
		fetcher, ok := c.sender.(domainMail.StatusFetcher)
		if !ok {
			return errors.New("the configured provider does not report delivery status")
		}
		d, err := fetcher.Status(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "id: %s\nto: %v\nsubject: %s\nlast_event: %s\ncreated_at: %s\n",
			d.ID, d.To, d.Subject, d.LastEvent, d.CreatedAt.Format(time.RFC3339))
		return nil
	default:
		return errUsage
	}
}

func (c *command) message(kind, to string) (domainMail.Message, error) {
	if kind == "send-otp" {
		code, err := app.GenerateCode()
		if err != nil {
			return domainMail.Message{}, err
		}
		return app.RenderOTPMessage(c.from, to, code, c.otpTTL)
	}
	return domainMail.Message{
		From:    c.from,
		To:      []string{to},
		Subject: "Groona email test",
		HTML:    "<p>This is a test email from the Groona alert service.</p>",
		Text:    "This is a test email from the Groona alert service.",
	}, nil
}
