package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	_ "github.com/joho/godotenv/autoload"

	"github.com/netmon-tools/check-srx-session/internal/check"
	"github.com/netmon-tools/check-srx-session/internal/config"
	"github.com/netmon-tools/check-srx-session/internal/device"
	"github.com/netmon-tools/check-srx-session/internal/logger"
	"github.com/netmon-tools/check-srx-session/internal/model"
	"github.com/netmon-tools/check-srx-session/internal/session"
)

func main() {
	var (
		srcAddress = flag.String("src-address", "", "Source address or prefix of desired session(s).")
		dstAddress = flag.String("dst-address", "", "Destination address or prefix of desired session(s).")
		dstPort    = flag.String("dst-port", "", "Destination port of desired session(s).")
		protocol   = flag.String("protocol", "", "TCP or UDP, or any supported SRX protocol.")
		nagios     = flag.Bool("nagios", false, "Emit a single Nagios status line instead of the full listing.")
		username   = flag.String("username", "", "Firewall username, in the event ssh-keys are not available.")
		password   = flag.String("password", "", "Firewall password, in the event ssh-keys are not available.")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: check-srx-session [flags] <device>")
		flag.PrintDefaults()
		os.Exit(check.ExitUnknown)
	}
	host := flag.Arg(0)

	cfg := config.Load()
	if *username != "" {
		cfg.Username = *username
	}
	if *password != "" {
		cfg.Password = *password
	}

	log, err := logger.NewLogrusLogger(cfg.LogFilePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(check.ExitUnknown)
	}
	filter := model.FlowFilter{
		SourcePrefix:      *srcAddress,
		DestinationPrefix: *dstAddress,
		DestinationPort:   *dstPort,
		Protocol:          *protocol,
	}

	log = log.WithFields(map[string]any{
		"run_id":   uuid.NewString(),
		"device":   host,
		"filtered": !filter.IsZero(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.QueryTimeout)
	defer cancel()

	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		cancel()
	}()

	querier, err := buildQuerier(cfg, host, log)
	if err != nil {
		log.Error(err)
		fmt.Fprintln(os.Stderr, "Cannot connect to device:", err)
		os.Exit(check.ExitUnknown)
	}

	raw, err := querier.Query(ctx, filter)
	if err != nil {
		log.Error(err)
		fmt.Fprintln(os.Stderr, "Cannot connect to device:", err)
		os.Exit(check.ExitUnknown)
	}

	sessions, err := session.Extract(raw)
	if err != nil {
		log.Error(err)
		fmt.Fprintln(os.Stderr, "invalid device response:", err)
		os.Exit(check.ExitUnknown)
	}

	if *nagios {
		verdict := check.Evaluate(sessions)
		fmt.Println(verdict.StatusLine())
		os.Exit(verdict.ExitCode())
	}

	if err := check.WriteListing(os.Stdout, sessions); err != nil {
		log.Error(err)
		os.Exit(check.ExitUnknown)
	}
}

// buildQuerier picks the transport. NETCONF uses password auth when a
// password is set, otherwise the configured SSH key file.
func buildQuerier(cfg config.Config, host string, log logger.Logger) (device.Querier, error) {
	if cfg.Transport == config.TransportREST {
		return device.NewRESTQuerier(host, cfg.RESTPort, cfg.Username, cfg.Password, cfg.QueryTimeout, log), nil
	}

	auth := device.PasswordAuth(cfg.Password)
	if cfg.Password == "" {
		var err error
		auth, err = device.KeyFileAuth(cfg.KeyFile)
		if err != nil {
			return nil, err
		}
	}
	return device.NewNetconfQuerier(host, cfg.NetconfPort, cfg.Username, auth, cfg.QueryTimeout, log), nil
}
