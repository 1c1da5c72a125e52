package integrity

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"
)

// MinKeyBits is the smallest RSA modulus accepted for signing parties.
const MinKeyBits = 2048

// KeyLookup resolves a party's registered public key text.
type KeyLookup interface {
	PublicKey(party string) (string, bool)
}

// Keys is an in-memory key registry snapshot.
type Keys map[string]string

// PublicKey implements KeyLookup.
func (k Keys) PublicKey(party string) (string, bool) {
	key, ok := k[party]
	return key, ok
}

// ParsePublicKey decodes an RSA public key from PEM (PKIX "PUBLIC KEY" or
// PKCS#1 "RSA PUBLIC KEY") or an OpenSSH authorized-key line.
func ParsePublicKey(text string) (*rsa.PublicKey, error) {
	text = strings.TrimSpace(text)
	var pub crypto.PublicKey
	if strings.HasPrefix(text, "ssh-rsa ") {
		sshKey, _, _, _, err := ssh.ParseAuthorizedKey([]byte(text))
		if err != nil {
			return nil, fmt.Errorf("parse ssh key: %w", err)
		}
		cryptoKey, ok := sshKey.(ssh.CryptoPublicKey)
		if !ok {
			return nil, errors.New("ssh key does not expose a crypto key")
		}
		pub = cryptoKey.CryptoPublicKey()
	} else {
		block, _ := pem.Decode([]byte(text))
		if block == nil {
			return nil, errors.New("no PEM block found")
		}
		var err error
		switch block.Type {
		case "PUBLIC KEY":
			pub, err = x509.ParsePKIXPublicKey(block.Bytes)
		case "RSA PUBLIC KEY":
			pub, err = x509.ParsePKCS1PublicKey(block.Bytes)
		default:
			return nil, fmt.Errorf("unsupported PEM block %q", block.Type)
		}
		if err != nil {
			return nil, fmt.Errorf("parse public key: %w", err)
		}
	}
	rsaKey, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("public key is not RSA")
	}
	if rsaKey.N.BitLen() < MinKeyBits {
		return nil, fmt.Errorf("RSA key is %d bits, need at least %d", rsaKey.N.BitLen(), MinKeyBits)
	}
	return rsaKey, nil
}

// VerifySignature checks a base64 RSA-PSS (SHA-256, MGF1-SHA-256) signature
// over message. Any malformed key, malformed signature or mismatch is false.
// Signatures are salted, so two valid signatures of one message differ; only
// cryptographic validity is checked.
func VerifySignature(publicKey string, message []byte, signatureB64 string) bool {
	pub, err := ParsePublicKey(publicKey)
	if err != nil {
		return false
	}
	sig, err := base64.StdEncoding.DecodeString(strings.TrimSpace(signatureB64))
	if err != nil || len(sig) == 0 {
		return false
	}
	digest := sha256.Sum256(message)
	opts := &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthAuto, Hash: crypto.SHA256}
	return rsa.VerifyPSS(pub, crypto.SHA256, digest[:], sig, opts) == nil
}

// Sign produces a base64 RSA-PSS signature with the maximal salt length.
func Sign(key *rsa.PrivateKey, message []byte) (string, error) {
	digest := sha256.Sum256(message)
	opts := &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthAuto, Hash: crypto.SHA256}
	sig, err := rsa.SignPSS(rand.Reader, key, crypto.SHA256, digest[:], opts)
	if err != nil {
		return "", fmt.Errorf("sign: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}
