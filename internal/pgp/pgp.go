// Package pgp wraps the OpenPGP engine behind a small encryption service:
// symmetric passphrase mode when no recipients are selected, public-key mode
// otherwise. Output is opaque binary, never newline-translated.
package pgp

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
)

// ErrorKind classifies encryption failures.
type ErrorKind string

const (
	NoPassphrase   ErrorKind = "no passphrase"
	BackendFailure ErrorKind = "backend failure"
)

// Error is returned when encryption cannot proceed. The pipeline must abort
// on it: content is never uploaded in plaintext after a failed encryption.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("encryption: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("encryption: %s", e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a pgp Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == kind
}

// PassphraseFunc obtains a symmetric passphrase from the user. It is an
// injected collaborator; the cmd layer wires an interactive prompt or an
// environment lookup.
type PassphraseFunc func() ([]byte, error)

// Service encrypts byte buffers or files for a set of recipients.
type Service struct {
	Passphrase PassphraseFunc
}

// NewService returns a Service using passphrase for symmetric mode.
func NewService(passphrase PassphraseFunc) *Service {
	return &Service{Passphrase: passphrase}
}

// Encrypt produces ciphertext for plaintext. With no recipients it encrypts
// symmetrically with a passphrase from the injected callback; otherwise it
// encrypts to exactly the given recipients, with no implicit encrypt-to-self.
func (s *Service) Encrypt(plaintext []byte, recipients []*openpgp.Entity) ([]byte, error) {
	var buf bytes.Buffer
	var w io.WriteCloser
	var err error

	if len(recipients) == 0 {
		pass, perr := s.passphrase()
		if perr != nil {
			return nil, perr
		}
		w, err = openpgp.SymmetricallyEncrypt(&buf, pass, nil, nil)
	} else {
		w, err = openpgp.Encrypt(&buf, recipients, nil, nil, nil)
	}
	if err != nil {
		return nil, &Error{Kind: BackendFailure, Err: err}
	}

	if _, err := w.Write(plaintext); err != nil {
		w.Close()
		return nil, &Error{Kind: BackendFailure, Err: err}
	}
	if err := w.Close(); err != nil {
		return nil, &Error{Kind: BackendFailure, Err: err}
	}

	return buf.Bytes(), nil
}

// EncryptFile encrypts the file at src and writes the ciphertext to dst with
// the same semantics as Encrypt.
func (s *Service) EncryptFile(src, dst string, recipients []*openpgp.Entity) error {
	plaintext, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("reading plaintext file: %w", err)
	}

	ciphertext, err := s.Encrypt(plaintext, recipients)
	if err != nil {
		return err
	}

	if err := os.WriteFile(dst, ciphertext, 0600); err != nil {
		return fmt.Errorf("writing ciphertext file: %w", err)
	}
	return nil
}

func (s *Service) passphrase() ([]byte, error) {
	if s.Passphrase == nil {
		return nil, &Error{Kind: NoPassphrase}
	}
	pass, err := s.Passphrase()
	if err != nil {
		return nil, &Error{Kind: NoPassphrase, Err: err}
	}
	if len(pass) == 0 {
		return nil, &Error{Kind: NoPassphrase}
	}
	return pass, nil
}

// Decrypt reverses Encrypt given the matching private keys, or the symmetric
// passphrase when keys is empty.
func Decrypt(ciphertext []byte, keys openpgp.EntityList, passphrase []byte) ([]byte, error) {
	attempted := false
	prompt := func(_ []openpgp.Key, _ bool) ([]byte, error) {
		if attempted {
			return nil, errors.New("passphrase rejected")
		}
		attempted = true
		return passphrase, nil
	}

	md, err := openpgp.ReadMessage(bytes.NewReader(ciphertext), keys, prompt, nil)
	if err != nil {
		return nil, &Error{Kind: BackendFailure, Err: err}
	}

	plaintext, err := io.ReadAll(md.UnverifiedBody)
	if err != nil {
		return nil, &Error{Kind: BackendFailure, Err: err}
	}
	return plaintext, nil
}

// DecryptFile reverses EncryptFile.
func DecryptFile(src string, keys openpgp.EntityList, passphrase []byte) ([]byte, error) {
	ciphertext, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("reading ciphertext file: %w", err)
	}
	return Decrypt(ciphertext, keys, passphrase)
}
