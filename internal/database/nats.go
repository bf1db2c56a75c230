package database

import (
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
)

// ConnectNATS dials the NATS server used for push fan-out. name identifies the
// binary in the server's connection list.
func ConnectNATS(url, name string) (*nats.Conn, error) {
	if url == "" {
		return nil, fmt.Errorf("nats: %w", ErrMissingURL)
	}

	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.Timeout(dialTimeout),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("nats: connect: %w", err)
	}
	return conn, nil
}

// NATSStatus reports an error unless the connection is currently usable.
func NATSStatus(conn *nats.Conn) error {
	if conn == nil {
		return errors.New("nats: not connected")
	}
	if status := conn.Status(); status != nats.CONNECTED {
		return fmt.Errorf("nats: connection %s", status)
	}
	return nil
}
