package wstransport

// Adapted from the teacher's credentials.go: the constructor shapes
// (NewClientTLSFromCert/File, NewServerTLSFromCert/File) are kept, but the
// TransportCredentials/AuthInfo/ClientHandshake/ServerHandshake machinery
// is dropped. That machinery exists in gRPC to assert a verified peer
// *identity*; this protocol has no authentication layer (spec §1
// Non-goals), so only transport confidentiality survives: a plain
// *tls.Config handed to the WebSocket dialer/upgrader.

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// NewClientTLSFromCert builds a client *tls.Config trusting the given
// certificate pool. serverNameOverride, if non-empty, overrides the
// virtual host name used for SNI and verification.
func NewClientTLSFromCert(cp *x509.CertPool, serverNameOverride string) *tls.Config {
	return &tls.Config{ServerName: serverNameOverride, RootCAs: cp}
}

// NewClientTLSFromFile builds a client *tls.Config trusting the
// certificate(s) in the PEM file at certFile.
func NewClientTLSFromFile(certFile, serverNameOverride string) (*tls.Config, error) {
	b, err := os.ReadFile(certFile)
	if err != nil {
		return nil, err
	}
	cp := x509.NewCertPool()
	if !cp.AppendCertsFromPEM(b) {
		return nil, fmt.Errorf("wstransport: failed to append certificates from %s", certFile)
	}
	return NewClientTLSFromCert(cp, serverNameOverride), nil
}

// NewServerTLSFromCert builds a server *tls.Config presenting cert.
func NewServerTLSFromCert(cert *tls.Certificate) *tls.Config {
	return &tls.Config{Certificates: []tls.Certificate{*cert}}
}

// NewServerTLSFromFile builds a server *tls.Config from a certificate and
// key file pair.
func NewServerTLSFromFile(certFile, keyFile string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, err
	}
	return NewServerTLSFromCert(&cert), nil
}
