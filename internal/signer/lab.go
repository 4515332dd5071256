package signer

import (
	"bufio"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"
)

const labBaseURL = "https://lab.stellar.org/transaction/sign"

// Lab hands a transaction off for signing on lab.stellar.org, by passing a
// handoff URL to OpenURL, and waits for the signed envelope to be pasted
// back on stdin. It is strictly interactive and refuses to run unless
// stdin is a terminal.
type Lab struct {
	// OpenURL is called with the lab handoff URL; see NewLab for its default.
	OpenURL func(url string) error
	// Stdin is read for the pasted-back signed envelope.
	Stdin io.Reader
	// IsTerminal reports whether Stdin is an interactive TTY.
	IsTerminal func() bool
}

// NewLab returns a Lab signer reading from os.Stdin. Its default OpenURL
// launches no browser on any platform: it returns an error, so
// SignTransaction fails before reading stdin unless OpenURL is replaced.
func NewLab() *Lab {
	return &Lab{
		OpenURL:    openBrowser,
		Stdin:      os.Stdin,
		IsTerminal: func() bool { return isTerminal(os.Stdin) },
	}
}

func (l *Lab) PublicKey() (string, error) {
	return "", errors.New("signer: the lab signer does not expose a public key until a transaction is signed")
}

func (l *Lab) SignAuthEntry(ctx context.Context, preimage AuthPreimage) (xdr.ScVal, error) {
	return xdr.ScVal{}, errors.New("signer: the lab signer only supports whole-transaction signing")
}

func (l *Lab) SignTransaction(ctx context.Context, tx *txnbuild.Transaction, networkPassphrase string) (*txnbuild.Transaction, error) {
	if l.IsTerminal != nil && !l.IsTerminal() {
		return nil, errors.New("signer: the lab signer requires an interactive terminal")
	}
	envXDR, err := tx.Base64()
	if err != nil {
		return nil, errors.Wrap(err, "signer: encoding transaction envelope")
	}

	handoff := labBaseURL + "?xdr=" + url.QueryEscape(envXDR) + "&networkPassphrase=" + url.QueryEscape(networkPassphrase)
	if err := l.OpenURL(handoff); err != nil {
		return nil, errors.Wrap(err, "signer: opening lab handoff URL")
	}

	fmt.Fprintln(os.Stderr, "Paste the signed transaction envelope (base64) and press enter:")
	reader := bufio.NewReader(l.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "signer: reading pasted envelope")
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, ErrUserCancelled
	}

	var envelope xdr.TransactionEnvelope
	if err := xdr.SafeUnmarshalBase64(line, &envelope); err != nil {
		return nil, errors.Wrap(err, "signer: decoding pasted envelope")
	}
	signed, err := txnbuild.NewTransactionFromXDR(envelope)
	if err != nil {
		return nil, errors.Wrap(err, "signer: rebuilding transaction from pasted envelope")
	}
	result, ok := signed.(*txnbuild.Transaction)
	if !ok {
		return nil, errors.New("signer: pasted envelope is not a plain transaction")
	}
	return result, nil
}

func openBrowser(target string) error {
	_ = base64.StdEncoding // imported for handoff URL symmetry with other encodings in this package
	return errors.New("signer: no browser launcher configured for this platform")
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
