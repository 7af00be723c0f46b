/*
Copyright 2016 Google LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package testing generates certificates for testing the realm API.
package testing

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"
)

// GenerateSelfSignedCert generates a self-signed certificate for cn
// usable for both server and client authentication. It returns the
// certificate in DER format and its key.
func GenerateSelfSignedCert(cn string, notBefore, notAfter time.Time) ([]byte, *rsa.PrivateKey, error) {
	if cn == "" || strings.HasPrefix(cn, ".") {
		return nil, nil, fmt.Errorf("cn(%s) is invalid or empty", cn)
	}

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, nil, fmt.Errorf("rsa.GenerateKey returned %v", err)
	}

	serialNumberLimit := new(big.Int).Lsh(big.NewInt(1), 128)
	serialNumber, err := rand.Int(rand.Reader, serialNumberLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to generate certificate serial number: %v", err)
	}

	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			CommonName: cn,
		},
		Issuer: pkix.Name{
			OrganizationalUnit: []string{"SelfSigned"},
		},
		DNSNames:              []string{cn},
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
		NotBefore:             notBefore,
		NotAfter:              notAfter,
	}

	derBytes, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to generate a self-signed certificate, x509.CreateCertificate returned %v", err)
	}

	return derBytes, priv, nil
}

// WritePEM writes a DER certificate and its key to certFile and keyFile.
func WritePEM(der []byte, key *rsa.PrivateKey, certFile, keyFile string) error {
	c := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	if err := os.WriteFile(certFile, c, 0644); err != nil {
		return fmt.Errorf("writing %s: %v", certFile, err)
	}
	k := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	if err := os.WriteFile(keyFile, k, 0600); err != nil {
		return fmt.Errorf("writing %s: %v", keyFile, err)
	}
	return nil
}
