package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"go.uber.org/zap"

	"SignalDesk/internal/config"
	"SignalDesk/internal/model"
	"SignalDesk/internal/recipient"
	"SignalDesk/pkg/logger"
)

const usage = `SignalDesk - indicator reports and SMA crossover signals

Usage:
  bot scan                              run the market scanner once
  bot strategy                          run the SMA crossover strategy once
  bot report                            build and send the owner report now
  bot scheduler                         start the minute dispatcher (default)
  bot recipients list
  bot recipients subscribe <id> [username]
  bot recipients unsubscribe <id>
  bot recipients symbols <id> <AAPL,MSFT>
  bot recipients times <id> <08:00,20:00>
  bot recipients frequency <id> <minutes>
  bot recipients contact <id> [-email addr] [-whatsapp addr]
`

func main() {
	cmd := "scheduler"
	if len(os.Args) > 1 {
		cmd = strings.ToLower(os.Args[1])
	}
	if err := run(cmd, os.Args[min(len(os.Args), 2):]); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", cmd, err)
		os.Exit(1)
	}
}

func run(cmd string, args []string) error {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(logger.Options{Level: cfg.Log.Level, File: cfg.Log.File}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	if cmd != "recipients" {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("config validation: %w", err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a := newApp(cfg)
	defer a.close()

	switch cmd {
	case "scan":
		return runScan(ctx, a)
	case "strategy":
		return runStrategy(ctx, a)
	case "report":
		return runReport(ctx, a)
	case "scheduler":
		return runScheduler(ctx, a)
	case "recipients":
		return runRecipients(a, args)
	}
	fmt.Print(usage)
	return fmt.Errorf("unknown command")
}

func runScan(ctx context.Context, a *app) error {
	sess, err := a.connector.Connect(ctx)
	if err != nil {
		return fmt.Errorf("connect %s: %w", a.connector.Name(), err)
	}
	defer sess.Close()

	snap := a.scanner.Scan(ctx, sess, a.cfg.Scanner.Symbols)
	for _, s := range snap.Valid() {
		fmt.Printf("%s: $%.2f | RSI: %.1f | Trend: %s\n", s.Symbol, s.Price, s.RSI, s.Trend)
	}
	for _, e := range snap.Errors {
		fmt.Printf("error: %s\n", e)
	}
	return nil
}

func runStrategy(ctx context.Context, a *app) error {
	sess, err := a.connector.Connect(ctx)
	if err != nil {
		return fmt.Errorf("connect %s: %w", a.connector.Name(), err)
	}
	defer sess.Close()

	results, err := a.engine.Run(ctx, sess, a.cfg.Strategy.TradeSymbols)
	for _, r := range results {
		fmt.Printf("%s: %s | %s\n", r.Symbol, r.Signal, r.Message)
	}
	return err
}

func runReport(ctx context.Context, a *app) error {
	if err := a.withDelivery(ctx); err != nil {
		return err
	}
	owner := a.cfg.Recipients.OwnerID
	if owner == "" {
		return fmt.Errorf("recipients.owner_id is not set")
	}
	r, err := a.registry.GetOrCreate(owner, "")
	if err != nil {
		return err
	}
	out, err := a.sched.RunManual(ctx, r)
	if out != nil && out.Path != "" {
		fmt.Printf("Report saved to %s\n", out.Path)
	}
	if err != nil {
		return err
	}
	fmt.Println("Report generated and sent.")
	return nil
}

func runScheduler(ctx context.Context, a *app) error {
	if err := a.withDelivery(ctx); err != nil {
		return err
	}
	if err := a.sched.Register(a.cfg.Schedule.TickCron); err != nil {
		return err
	}
	if addr := a.cfg.Metrics.Listen; addr != "" {
		go func() {
			if err := a.metrics.Serve(ctx, addr); err != nil {
				logger.Error("metrics server", zap.Error(err))
			}
		}()
	}

	a.sched.Start()
	defer a.sched.Stop()

	logger.Info("SignalDesk is running. Press Ctrl+C to stop.",
		zap.String("broker", a.connector.Name()),
		zap.String("profile", a.engine.Profile.Name),
	)
	<-ctx.Done()
	logger.Info("shutdown signal received, stopping...")
	return nil
}

func runRecipients(a *app, args []string) error {
	if len(args) == 0 || args[0] == "list" {
		return listRecipients(a)
	}
	if len(args) < 2 {
		return fmt.Errorf("usage: recipients %s <id> ...", args[0])
	}
	id, rest := args[1], args[2:]

	var (
		r   model.Recipient
		err error
	)
	switch args[0] {
	case "subscribe":
		username := ""
		if len(rest) > 0 {
			username = rest[0]
		}
		r, err = a.registry.Subscribe(id, username)
	case "unsubscribe":
		r, err = a.registry.Unsubscribe(id)
	case "symbols":
		r, err = a.registry.SetSymbols(id, strings.Join(rest, " "))
	case "times":
		r, err = a.registry.SetTimes(id, recipient.ParseList(strings.Join(rest, ",")))
	case "frequency":
		if len(rest) != 1 {
			return fmt.Errorf("usage: recipients frequency <id> <minutes>")
		}
		minutes, perr := strconv.Atoi(rest[0])
		if perr != nil {
			return fmt.Errorf("frequency %q: %w", rest[0], recipient.ErrInvalidFrequency)
		}
		r, err = a.registry.SetFrequency(id, minutes)
	case "contact":
		fs := flag.NewFlagSet("contact", flag.ContinueOnError)
		email := fs.String("email", "", "email address")
		whatsapp := fs.String("whatsapp", "", "whatsapp address, e.g. whatsapp:+15551234567")
		if perr := fs.Parse(rest); perr != nil {
			return perr
		}
		r, err = a.registry.SetContact(id, *email, *whatsapp)
	default:
		return fmt.Errorf("unknown recipients command %q", args[0])
	}
	if err != nil {
		return err
	}
	printRecipients(a, []model.Recipient{r})
	return nil
}

func listRecipients(a *app) error {
	all, err := a.registry.List()
	if err != nil {
		return err
	}
	printRecipients(a, all)
	return nil
}

func printRecipients(a *app, list []model.Recipient) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tROLE\tSUBSCRIBED\tSYMBOLS\tTIMES\tFREQUENCY")
	for _, r := range list {
		role := model.RoleStandard
		if r.IsOwner(a.registry.OwnerID()) {
			role = model.RoleOwner
		}
		freq := "-"
		if r.FrequencyMinutes > 0 {
			freq = fmt.Sprintf("%dm", r.FrequencyMinutes)
		}
		fmt.Fprintf(w, "%s\t%s\t%v\t%s\t%s\t%s\n", r.ID, role, r.Subscribed,
			strings.Join(a.defaults.Symbols(r), ","), strings.Join(a.defaults.Times(r), ","), freq)
	}
	w.Flush()
}
