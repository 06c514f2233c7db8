package device

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/netmon-tools/check-srx-session/internal/logger"
	"github.com/netmon-tools/check-srx-session/internal/model"
)

const (
	netconfSubsystem = "netconf"

	// RFC 4742 end-of-message framing used by the Junos NETCONF server.
	messageSeparator = "]]>]]>"

	clientHello = `<hello xmlns="urn:ietf:params:xml:ns:netconf:base:1.0">` +
		`<capabilities><capability>urn:ietf:params:xml:ns:netconf:base:1.0</capability></capabilities>` +
		`</hello>`
)

// NetconfQuerier issues the flow-session RPC over the device's NETCONF
// SSH subsystem.
type NetconfQuerier struct {
	Host    string
	Port    int
	User    string
	Auth    []ssh.AuthMethod
	Timeout time.Duration
	Logger  logger.Logger
}

// NewNetconfQuerier returns a querier for one device.
func NewNetconfQuerier(host string, port int, user string, auth []ssh.AuthMethod, timeout time.Duration, log logger.Logger) *NetconfQuerier {
	return &NetconfQuerier{
		Host:    host,
		Port:    port,
		User:    user,
		Auth:    auth,
		Timeout: timeout,
		Logger:  log,
	}
}

// PasswordAuth builds the SSH auth methods for username/password login.
func PasswordAuth(password string) []ssh.AuthMethod {
	return []ssh.AuthMethod{ssh.Password(password)}
}

// KeyFileAuth builds the SSH auth methods from a private key file.
func KeyFileAuth(path string) ([]ssh.AuthMethod, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key %s: %w", path, err)
	}
	signer, err := ssh.ParsePrivateKey(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key %s: %w", path, err)
	}
	return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
}

// Query opens a NETCONF session, exchanges hellos, sends the RPC and
// returns the raw rpc-reply document. One connection per call; the
// tool runs one query per process.
func (q *NetconfQuerier) Query(ctx context.Context, filter model.FlowFilter) ([]byte, error) {
	addr := net.JoinHostPort(q.Host, strconv.Itoa(q.Port))

	conf := &ssh.ClientConfig{
		User:            q.User,
		Auth:            q.Auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         q.Timeout,
	}

	client, err := ssh.Dial("tcp", addr, conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, addr, err)
	}
	defer client.Close()

	// Unblock reads if the caller gives up.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = client.Close()
		case <-done:
		}
	}()

	sess, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, addr, err)
	}
	defer sess.Close()

	stdin, err := sess.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, addr, err)
	}
	stdout, err := sess.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, addr, err)
	}

	if err := sess.RequestSubsystem(netconfSubsystem); err != nil {
		return nil, fmt.Errorf("%w: %s: netconf subsystem: %v", ErrUnavailable, addr, err)
	}

	reader := bufio.NewReader(stdout)

	if _, err := stdin.Write([]byte(clientHello + "\n" + messageSeparator + "\n")); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, addr, err)
	}
	// Server hello; only the framing matters here.
	if _, err := readMessage(reader); err != nil {
		return nil, fmt.Errorf("%w: %s: hello exchange: %v", ErrUnavailable, addr, err)
	}

	body, err := BuildRPC(filter)
	if err != nil {
		return nil, err
	}
	rpc := "<rpc>" + string(body) + "</rpc>"

	q.Logger.WithFields(map[string]any{"addr": addr}).Info("Sending flow-session RPC")

	if _, err := stdin.Write([]byte(rpc + "\n" + messageSeparator + "\n")); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, addr, err)
	}

	reply, err := readMessage(reader)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, addr, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, addr, err)
	}
	return reply, nil
}

// readMessage consumes one end-of-message framed NETCONF message and
// returns it without the separator.
func readMessage(r *bufio.Reader) ([]byte, error) {
	var buf bytes.Buffer
	for {
		chunk, err := r.ReadString('>')
		buf.WriteString(chunk)
		if strings.HasSuffix(buf.String(), messageSeparator) {
			msg := buf.String()
			msg = strings.TrimSuffix(msg, messageSeparator)
			return []byte(strings.TrimSpace(msg)), nil
		}
		if err != nil {
			return nil, err
		}
	}
}
