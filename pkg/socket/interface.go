// Package socket provides an interface for managing socket.
package socket

// Socket is a persistent bidirectional message channel to one client.
//
//go:generate mockgen -destination=mock_socket.go -package=socket . Socket
type Socket interface {
	Read(v any) error
	Write(v any) error
	Close() error
}
