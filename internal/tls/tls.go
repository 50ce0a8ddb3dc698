package tls

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/emicklei/go-restful"
	log "github.com/sirupsen/logrus"
)

// ClientAuth is a string to tls clientAuthType map
var ClientAuth = map[string]tls.ClientAuthType{
	"no":              tls.NoClientCert,
	"require":         tls.RequestClientCert,
	"require_any":     tls.RequireAnyClientCert,
	"challenge_given": tls.VerifyClientCertIfGiven,
	"challenge":       tls.RequireAndVerifyClientCert,
}

const (
	// CAFile is the certificate authority file
	CAFile = "ca.pem"
	// CertFile is the server certificate file
	CertFile = "zbxcall-cert.pem"
	// KeyFile is the server private key file
	KeyFile = "zbxcall-key.pem"
	// ClientCAFile certificate authority file of client side
	ClientCAFile = "ca.pem"
)

// GenTLSConfig builds the server TLS config from the pem files in certPath.
// A client CA is loaded from clientCAPath when client certificates are verified.
func GenTLSConfig(certPath, clientCAPath, clientAuth string) (*tls.Config, error) {
	var roots *x509.CertPool
	var clientPool *x509.CertPool
	tlsfiles := map[string]string{}
	files, err := filepath.Glob(certPath + "/*.pem")
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		switch filepath.Base(f) {
		case CAFile:
			tlsfiles["ca"] = f
			roots, err = GetCertPool(f)
			if err != nil {
				return nil, err
			}
		case CertFile:
			tlsfiles["cert"] = f
		case KeyFile:
			tlsfiles["key"] = f
		}
	}
	if len(tlsfiles) < 3 {
		missing := []string{}
		for _, k := range []string{"cert", "ca", "key"} {
			if _, ok := tlsfiles[k]; !ok {
				missing = append(missing, k)
			}
		}
		return nil, fmt.Errorf("Missing enough files for tls config: %s", strings.Join(missing, ", "))
	}

	clientauth, ok := ClientAuth[clientAuth]
	if !ok {
		return nil, errors.New("Unknow ClientAuth config setting: " + clientAuth)
	}
	if clientauth >= tls.VerifyClientCertIfGiven {
		clientPool, err = GetCertPool(filepath.Join(clientCAPath, ClientCAFile))
		if err != nil {
			return nil, err
		}
	}

	tlsCert, err := tls.LoadX509KeyPair(tlsfiles["cert"], tlsfiles["key"])
	if err != nil {
		return nil, err
	}

	return &tls.Config{
		RootCAs:      roots,
		ClientAuth:   clientauth,
		Certificates: []tls.Certificate{tlsCert},
		ClientCAs:    clientPool,
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// GetCertPool Get Certification pool
func GetCertPool(cafile string) (*x509.CertPool, error) {
	pool := x509.NewCertPool()
	data, err := ioutil.ReadFile(cafile)
	if err != nil {
		return nil, err
	}
	if ok := pool.AppendCertsFromPEM(data); !ok {
		return nil, errors.New("failed to parse root certificate")
	}
	return pool, nil
}

// CertSubject returns a filter that replaces the subject header of HTTPS
// requests with the common name of the verified client certificate.
// Over HTTPS without a verified certificate the header is dropped.
func CertSubject(header string) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		state := req.Request.TLS
		if state == nil {
			chain.ProcessFilter(req, resp)
			return
		}
		if len(state.VerifiedChains) == 0 || len(state.PeerCertificates) == 0 {
			req.Request.Header.Del(header)
			chain.ProcessFilter(req, resp)
			return
		}
		cn := state.PeerCertificates[0].Subject.CommonName
		log.Debugf("Client certificate subject %q", cn)
		req.Request.Header.Set(header, cn)
		chain.ProcessFilter(req, resp)
	}
}
