package device

import (
	"bufio"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/netmon-tools/check-srx-session/internal/model"
)

func TestReadMessage(t *testing.T) {
	t.Run("strips separator", func(t *testing.T) {
		r := bufio.NewReader(strings.NewReader("<hello/>\n]]>]]>\n"))
		msg, err := readMessage(r)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if string(msg) != "<hello/>" {
			t.Errorf("unexpected message: %q", msg)
		}
	})

	t.Run("two messages", func(t *testing.T) {
		r := bufio.NewReader(strings.NewReader("<a/>]]>]]><b/>]]>]]>"))
		first, err := readMessage(r)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		second, err := readMessage(r)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if string(first) != "<a/>" || string(second) != "<b/>" {
			t.Errorf("unexpected messages: %q, %q", first, second)
		}
	})

	t.Run("truncated stream", func(t *testing.T) {
		r := bufio.NewReader(strings.NewReader("<a/>]]>]]"))
		if _, err := readMessage(r); err == nil {
			t.Fatal("expected error for stream without separator")
		}
	})
}

func generateKeyPEM(t *testing.T) []byte {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	return pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
}

func TestKeyFileAuth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "id_rsa")
	if err := os.WriteFile(path, generateKeyPEM(t), 0600); err != nil {
		t.Fatalf("failed to write key: %v", err)
	}

	auth, err := KeyFileAuth(path)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(auth) != 1 {
		t.Fatalf("expected 1 auth method, got %d", len(auth))
	}
}

func TestKeyFileAuth_MissingFile(t *testing.T) {
	if _, err := KeyFileAuth(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("expected error for missing key file")
	}
}

// startNetconfServer runs a minimal NETCONF-over-SSH endpoint that
// answers one flow-session RPC with the given reply and records the
// rpc it received.
func startNetconfServer(t *testing.T, reply string, gotRPC *string) (host string, port int) {
	t.Helper()

	conf := &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, password []byte) (*ssh.Permissions, error) {
			if c.User() == "nagios" && string(password) == "secret" {
				return nil, nil
			}
			return nil, errors.New("invalid credentials")
		},
	}
	hostKey, err := ssh.ParsePrivateKey(generateKeyPEM(t))
	if err != nil {
		t.Fatalf("failed to parse host key: %v", err)
	}
	conf.AddHostKey(hostKey)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	t.Cleanup(func() { _ = listener.Close() })

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		sconn, chans, reqs, err := ssh.NewServerConn(conn, conf)
		if err != nil {
			return
		}
		defer sconn.Close()
		go ssh.DiscardRequests(reqs)

		for newChannel := range chans {
			if newChannel.ChannelType() != "session" {
				_ = newChannel.Reject(ssh.UnknownChannelType, "unsupported")
				continue
			}
			channel, requests, err := newChannel.Accept()
			if err != nil {
				return
			}
			go func() {
				for req := range requests {
					// Only the netconf subsystem request matters.
					_ = req.Reply(req.Type == "subsystem", nil)
				}
			}()

			reader := bufio.NewReader(channel)
			_, _ = channel.Write([]byte(clientHello + "\n" + messageSeparator + "\n"))
			if _, err := readMessage(reader); err != nil { // client hello
				return
			}
			rpc, err := readMessage(reader)
			if err != nil {
				return
			}
			*gotRPC = string(rpc)
			_, _ = channel.Write([]byte(reply + "\n" + messageSeparator + "\n"))
			_ = channel.Close()
			return
		}
	}()

	addr := listener.Addr().(*net.TCPAddr)
	return "127.0.0.1", addr.Port
}

func TestNetconfQuerier_Query(t *testing.T) {
	replyDoc := "<rpc-reply><flow-session-information/></rpc-reply>"
	var gotRPC string
	host, port := startNetconfServer(t, replyDoc, &gotRPC)

	q := NewNetconfQuerier(host, port, "nagios", PasswordAuth("secret"), 2*time.Second, &mockLogger{})

	raw, err := q.Query(context.Background(), model.FlowFilter{SourcePrefix: "10.0.0.5"})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if string(raw) != replyDoc {
		t.Errorf("unexpected reply: %q", raw)
	}
	if !strings.Contains(gotRPC, "<get-flow-session-information>") {
		t.Errorf("rpc missing request element: %s", gotRPC)
	}
	if !strings.Contains(gotRPC, "<source-prefix>10.0.0.5</source-prefix>") {
		t.Errorf("rpc missing filter criterion: %s", gotRPC)
	}
}

func TestNetconfQuerier_BadCredentials(t *testing.T) {
	var gotRPC string
	host, port := startNetconfServer(t, "", &gotRPC)

	q := NewNetconfQuerier(host, port, "nagios", PasswordAuth("wrong"), 2*time.Second, &mockLogger{})

	_, err := q.Query(context.Background(), model.FlowFilter{})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got: %v", err)
	}
}

func TestNetconfQuerier_ConnectionRefused(t *testing.T) {
	// Reserve a port and close the listener so nothing answers.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	_ = listener.Close()

	q := NewNetconfQuerier("127.0.0.1", port, "nagios", PasswordAuth("secret"), time.Second, &mockLogger{})

	_, err = q.Query(context.Background(), model.FlowFilter{})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got: %v", err)
	}
	if !strings.Contains(err.Error(), "127.0.0.1:"+strconv.Itoa(port)) {
		t.Errorf("expected address in error, got: %v", err)
	}
}
