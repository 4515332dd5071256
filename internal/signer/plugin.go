package signer

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"
)

// PluginFailure reports a non-zero exit from a signer plugin child process.
type PluginFailure struct {
	Plugin string
	Stderr string
}

func (e *PluginFailure) Error() string {
	return "signer: plugin " + e.Plugin + " failed: " + e.Stderr
}

// pluginInput is the JSON object written to a plugin's stdin, matching the
// CLI signer-plugin protocol.
type pluginInput struct {
	Mode               string            `json:"mode"`
	Args               map[string]string `json:"args"`
	Payload            string            `json:"payload,omitempty"`
	NetworkPassphrase  string            `json:"network_passphrase"`
	Nonce              *int64            `json:"nonce,omitempty"`
	SigExpirationLedger *uint32          `json:"signature_expiration_ledger,omitempty"`
	RootInvocation     string            `json:"root_invocation,omitempty"`
	TxEnvXDR           string            `json:"tx_env_xdr,omitempty"`
	TxHash             string            `json:"tx_hash,omitempty"`
}

// Plugin launches an external `stellar-signer-<name>` executable on PATH
// and exchanges a single JSON request/response pair over stdin/stdout.
type Plugin struct {
	Name              string
	Args              map[string]string
	NetworkPassphrase string
	// runner executes the plugin; overridable in tests.
	runner func(ctx context.Context, name string, stdin []byte) (stdout, stderr []byte, err error)
}

// NewPlugin returns a Plugin that invokes `stellar-signer-<name>` on PATH.
func NewPlugin(name, networkPassphrase string, args map[string]string) *Plugin {
	return &Plugin{
		Name:              name,
		Args:              args,
		NetworkPassphrase: networkPassphrase,
		runner:            runPlugin,
	}
}

func runPlugin(ctx context.Context, name string, stdin []byte) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, "stellar-signer-"+name)
	cmd.Stdin = bytes.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// PublicKey is not supported by a plugin without first invoking it; the
// plugin protocol has no key-discovery mode, so the bound address must
// already be known to the caller (it came from the `--sign-with-plugin
// address=plugin-name` binding).
func (p *Plugin) PublicKey() (string, error) {
	return "", errors.New("signer: plugin signers do not expose a discoverable public key")
}

func (p *Plugin) SignTransaction(ctx context.Context, tx *txnbuild.Transaction, networkPassphrase string) (*txnbuild.Transaction, error) {
	envXDR, err := tx.Base64()
	if err != nil {
		return nil, errors.Wrap(err, "signer: encoding transaction envelope")
	}
	hash, err := tx.Hash(networkPassphrase)
	if err != nil {
		return nil, errors.Wrap(err, "signer: hashing transaction")
	}

	input := pluginInput{
		Mode:              "sign_tx",
		Args:              p.Args,
		NetworkPassphrase: networkPassphrase,
		TxEnvXDR:          envXDR,
		TxHash:            hex.EncodeToString(hash[:]),
	}
	stdout, err := p.invoke(ctx, input)
	if err != nil {
		return nil, err
	}

	var sigsB64 []string
	if err := json.Unmarshal(stdout, &sigsB64); err != nil {
		return nil, errors.Wrap(err, "signer: decoding plugin sign_tx response")
	}
	decorated := make([]xdr.DecoratedSignature, 0, len(sigsB64))
	for _, sigB64 := range sigsB64 {
		var sig xdr.DecoratedSignature
		if err := xdr.SafeUnmarshalBase64(sigB64, &sig); err != nil {
			return nil, errors.Wrap(err, "signer: decoding plugin decorated signature")
		}
		decorated = append(decorated, sig)
	}
	tx, err = tx.AddSignatureDecorated(decorated...)
	if err != nil {
		return nil, errors.Wrap(err, "signer: attaching plugin signatures")
	}
	return tx, nil
}

func (p *Plugin) SignAuthEntry(ctx context.Context, preimage AuthPreimage) (xdr.ScVal, error) {
	networkID := sha256.Sum256([]byte(preimage.NetworkPassphrase))
	hashPreimage := xdr.HashIdPreimage{
		Type: xdr.EnvelopeTypeEnvelopeTypeSorobanAuthorization,
		SorobanAuthorization: &xdr.HashIdPreimageSorobanAuthorization{
			NetworkId:                 xdr.Hash(networkID),
			Invocation:                preimage.Invocation,
			Nonce:                     preimage.Nonce,
			SignatureExpirationLedger: xdr.Uint32(preimage.SignatureExpirationLedger),
		},
	}
	payloadXDR, err := hashPreimage.MarshalBinary()
	if err != nil {
		return xdr.ScVal{}, errors.Wrap(err, "signer: encoding authorization preimage")
	}
	payload := sha256.Sum256(payloadXDR)

	invocationXDR, err := preimage.Invocation.MarshalBinary()
	if err != nil {
		return xdr.ScVal{}, errors.Wrap(err, "signer: encoding root invocation")
	}

	nonce := int64(preimage.Nonce)
	expiration := preimage.SignatureExpirationLedger
	input := pluginInput{
		Mode:                "sign_auth",
		Args:                p.Args,
		NetworkPassphrase:   preimage.NetworkPassphrase,
		Payload:             hex.EncodeToString(payload[:]),
		Nonce:               &nonce,
		SigExpirationLedger: &expiration,
		RootInvocation:      base64.StdEncoding.EncodeToString(invocationXDR),
	}
	stdout, err := p.invoke(ctx, input)
	if err != nil {
		return xdr.ScVal{}, err
	}

	var signature xdr.ScVal
	if err := xdr.SafeUnmarshalBase64(strings.TrimSpace(string(stdout)), &signature); err != nil {
		return xdr.ScVal{}, errors.Wrap(err, "signer: decoding plugin sign_auth response")
	}
	return signature, nil
}

func (p *Plugin) SignBlob(ctx context.Context, payload []byte) ([]byte, error) {
	hash := sha256.Sum256(payload)
	input := pluginInput{
		Mode:              "sign_blob",
		Args:              p.Args,
		NetworkPassphrase: p.NetworkPassphrase,
		Payload:           hex.EncodeToString(hash[:]),
	}
	stdout, err := p.invoke(ctx, input)
	if err != nil {
		return nil, err
	}
	return hex.DecodeString(strings.TrimSpace(string(stdout)))
}

func (p *Plugin) invoke(ctx context.Context, input pluginInput) ([]byte, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, errors.Wrap(err, "signer: encoding plugin request")
	}
	stdout, stderr, err := p.runner(ctx, p.Name, body)
	if err != nil {
		return nil, &PluginFailure{Plugin: p.Name, Stderr: strings.TrimSpace(string(stderr))}
	}
	return stdout, nil
}
