// Command sorobanctl wires every pipeline stage — config, keystore, the
// Wasm spec reader, the argument coder, the assembler, the signer and
// authorization layers, the submit/poll loop, and the error resolver —
// into one bounded invoke pipeline. The CLI argument surface (command
// tree, flag parsing, help generation) is out of this core's scope per
// the toolchain's design; this entrypoint reads its target from
// environment variables and two positional arguments.
package main

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/stellar/go/strkey"
	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"

	soroban "github.com/halide-labs/sorobanctl"
	"github.com/halide-labs/sorobanctl/internal/actionlog"
	"github.com/halide-labs/sorobanctl/internal/argcoder"
	"github.com/halide-labs/sorobanctl/internal/assembler"
	"github.com/halide-labs/sorobanctl/internal/authz"
	"github.com/halide-labs/sorobanctl/internal/cli"
	"github.com/halide-labs/sorobanctl/internal/config"
	"github.com/halide-labs/sorobanctl/internal/errresolve"
	"github.com/halide-labs/sorobanctl/internal/keystore"
	"github.com/halide-labs/sorobanctl/internal/rpc"
	"github.com/halide-labs/sorobanctl/internal/signer"
	"github.com/halide-labs/sorobanctl/internal/speccache"
	"github.com/halide-labs/sorobanctl/internal/submit"
	"github.com/halide-labs/sorobanctl/internal/wasmspec"
)

func main() {
	printer := cli.NewPrinter(os.Getenv("STELLAR_QUIET") != "")
	args := os.Args[1:]
	ctx := context.Background()

	var err error
	if len(args) > 0 && args[0] == "--deploy" {
		err = runDeploy(ctx, printer, args[1:])
	} else {
		err = run(ctx, printer, args)
	}
	if err != nil {
		printer.Printf("error: %s", err)
		os.Exit(1)
	}
}

// run assembles, signs, submits and — on a typed contract failure —
// resolves one invocation, named by positional args[0] (the contract
// function) and args[1] (a JSON array of arguments).
func run(ctx context.Context, printer *cli.Printer, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: sorobanctl <function-name> <json-args-array>")
	}
	functionName := args[0]
	var rawArgs []json.RawMessage
	if err := json.Unmarshal([]byte(args[1]), &rawArgs); err != nil {
		return errors.Wrap(err, "decoding json argument array")
	}

	networkName := envOr("STELLAR_NETWORK", "testnet")
	identityName := os.Getenv("STELLAR_ACCOUNT")
	contractAliasName := os.Getenv("STELLAR_CONTRACT")
	if identityName == "" || contractAliasName == "" {
		return errors.New("STELLAR_ACCOUNT and STELLAR_CONTRACT must both be set")
	}

	locator := config.Locator{Printer: printer}
	network, err := locator.ReadNetwork(networkName)
	if err != nil {
		return err
	}
	var secret keystore.Secret
	if err := locator.ReadIdentity(identityName, &secret); err != nil {
		return err
	}
	kp, err := (keystore.Resolver{}).KeyPair(secret)
	if err != nil {
		return err
	}
	alias, err := locator.ReadAlias(contractAliasName)
	if err != nil {
		return err
	}

	client := &soroban.Client{
		Client:     rpc.Client{URL: network.RPCURL, Timeout: rpc.DefaultTimeout},
		PassPhrase: network.NetworkPassphrase,
	}

	actionDir, err := locator.ConfigDir()
	if err != nil {
		return err
	}
	log, err := actionlog.New(actionDir+"/actions", nil)
	if err != nil {
		return err
	}
	specDir, err := locator.ConfigDir()
	if err != nil {
		return err
	}
	specs, err := speccache.New(specDir + "/spec")
	if err != nil {
		return err
	}

	contractAddress, err := scAddressFromContractStrkey(alias.ContractID)
	if err != nil {
		return err
	}

	source, err := client.GetAccount(ctx, kp.Address())
	if err != nil {
		return err
	}

	spec, err := fetchSpec(ctx, client, specs, contractAddress)
	if err != nil {
		return err
	}
	fn, ok := spec.FindFunction(functionName)
	if !ok {
		return errors.Errorf("contract has no function named %q", functionName)
	}
	if len(rawArgs) != len(fn.Inputs) {
		return errors.Errorf("function %q expects %d arguments, got %d", functionName, len(fn.Inputs), len(rawArgs))
	}

	coder := argcoder.NewRegistry(spec)
	scArgs := make(xdr.ScVec, len(rawArgs))
	for i, raw := range rawArgs {
		var v interface{}
		if err := json.Unmarshal(raw, &v); err != nil {
			return errors.Wrapf(err, "decoding argument %d", i)
		}
		scVal, err := coder.Parse(v, fn.Inputs[i].Type)
		if err != nil {
			return errors.Wrapf(err, "converting argument %d", i)
		}
		scArgs[i] = scVal
	}

	invoke := &txnbuild.InvokeHostFunction{
		HostFunction: xdr.HostFunction{
			Type: xdr.HostFunctionTypeHostFunctionTypeInvokeContract,
			InvokeContract: &xdr.InvokeContractArgs{
				ContractAddress: contractAddress,
				FunctionName:    xdr.ScSymbol(functionName),
				Args:            scArgs,
			},
		},
		SourceAccount: source.GetAccountID(),
	}

	localSigner := signer.NewLocal(kp)

	asm := assembler.New(
		simulateFunc(client, log),
		restoreFunc(client, localSigner, network.NetworkPassphrase, log),
		network.NetworkPassphrase,
	)

	assembled, err := asm.Assemble(ctx, assembler.Request{
		Source:               source,
		Operations:           []txnbuild.Operation{invoke},
		TimeBounds:           txnbuild.NewTimeout(300),
		InclusionFee:         inclusionFeeOverride(),
		LegacyFee:            envInt64("STELLAR_INCLUSION_FEE") == 0 && envInt64("STELLAR_FEE") != 0,
		ResourceFeeOverride:  envInt64("STELLAR_RESOURCE_FEE"),
		InstructionsOverride: envUint32("STELLAR_INSTRUCTIONS"),
		ReadBytesOverride:    envUint32("STELLAR_READ_BYTES"),
		WriteBytesOverride:   envUint32("STELLAR_WRITE_BYTES"),
		FeeBumpSource:        os.Getenv("STELLAR_FEE_BUMP_SOURCE"),
	})
	if err != nil {
		return annotateSimulationFailure(ctx, client, specs, err)
	}
	if assembled.FeeWarning != "" {
		printer.Printf("%s", assembled.FeeWarning)
	}

	bindings, err := pluginBindings(network.NetworkPassphrase)
	if err != nil {
		return err
	}
	health, err := client.GetHealth(ctx)
	if err != nil {
		return err
	}
	expirationLedger := uint32(health.LatestLedger) + defaultAuthExpirationHorizon
	signedAuth, err := authz.SignAll(ctx, invoke.Auth, localSigner, bindings, expirationLedger, network.NetworkPassphrase)
	if err != nil {
		return err
	}
	invoke.Auth = signedAuth

	signedTx, err := localSigner.SignTransaction(ctx, assembled.Transaction, network.NetworkPassphrase)
	if err != nil {
		return err
	}

	var envelope signedEnvelope = signedTx
	if assembled.NeedsFeeBump {
		feeBumpSource := assembled.FeeBumpSource
		if feeBumpSource == "" {
			feeBumpSource = kp.Address()
		}
		feeBumpTx, err := txnbuild.NewFeeBumpTransaction(txnbuild.FeeBumpTransactionParams{
			Inner:      signedTx,
			FeeAccount: feeBumpSource,
			BaseFee:    assembled.FeeBumpBaseFee,
		})
		if err != nil {
			return errors.Wrap(err, "building fee-bump transaction")
		}
		feeBumpTx, err = feeBumpTx.Sign(network.NetworkPassphrase, kp)
		if err != nil {
			return errors.Wrap(err, "signing fee-bump transaction")
		}
		printer.Printf("fee bump: inner transaction fee exceeded the envelope limit, wrapped in a fee-bump envelope (fee %d, paid by %s)", assembled.FeeBumpBaseFee, feeBumpSource)
		envelope = feeBumpTx
	}

	hash, status, err := submit.Run(ctx, submit.Policy{}, sendFunc(client, log, envelope), pollFunc(client))
	if err != nil {
		return err
	}
	printer.Printf("transaction %s: %s", hash, status)
	return nil
}

// inclusionFeeOverride reads the user's explicit inclusion fee, preferring
// the current flag name over the deprecated one.
func inclusionFeeOverride() int64 {
	if v := envInt64("STELLAR_INCLUSION_FEE"); v != 0 {
		return v
	}
	return envInt64("STELLAR_FEE")
}

func envInt64(key string) int64 {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func envUint32(key string) uint32 {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0
	}
	return uint32(n)
}

// pluginBindings parses STELLAR_SIGN_WITH_PLUGIN, a comma-separated list of
// address=plugin-name pairs, into a signer lookup for authz.SignAll — a
// plugin signer has no key-discovery mode, so the address it signs for must
// be supplied externally rather than resolved by querying the plugin.
func pluginBindings(networkPassphrase string) (map[string]signer.Signer, error) {
	raw := os.Getenv("STELLAR_SIGN_WITH_PLUGIN")
	if raw == "" {
		return nil, nil
	}
	bindings := make(map[string]signer.Signer)
	for _, pair := range strings.Split(raw, ",") {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, errors.Errorf("invalid STELLAR_SIGN_WITH_PLUGIN entry %q, expected address=plugin-name", pair)
		}
		bindings[parts[0]] = signer.NewPlugin(parts[1], networkPassphrase, nil)
	}
	return bindings, nil
}

const defaultAuthExpirationHorizon = uint32(100)

// signedEnvelope is satisfied by both *txnbuild.Transaction and
// *txnbuild.FeeBumpTransaction, so a submitted envelope can be either shape.
type signedEnvelope interface {
	Base64() (string, error)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func scAddressFromContractStrkey(s string) (xdr.ScAddress, error) {
	raw, err := strkey.Decode(strkey.VersionByteContract, s)
	if err != nil {
		return xdr.ScAddress{}, errors.Wrap(err, "decoding contract address")
	}
	var hash xdr.Hash
	copy(hash[:], raw)
	return xdr.ScAddress{Type: xdr.ScAddressTypeScAddressTypeContract, ContractId: &hash}, nil
}

// fetchSpec resolves a contract's Wasm spec via its ledger entries,
// caching the decoded result by Wasm hash so a repeat invocation against
// the same contract skips re-downloading and re-parsing its binary.
func fetchSpec(ctx context.Context, client *soroban.Client, specs *speccache.Cache, contractAddress xdr.ScAddress) (*wasmspec.Spec, error) {
	instanceKey := xdr.LedgerKey{
		Type: xdr.LedgerEntryTypeContractData,
		ContractData: &xdr.LedgerKeyContractData{
			Contract:   contractAddress,
			Key:        xdr.ScVal{Type: xdr.ScValTypeScvLedgerKeyContractInstance},
			Durability: xdr.ContractDataDurabilityPersistent,
		},
	}
	instanceKeyXDR, err := instanceKey.MarshalBinaryBase64()
	if err != nil {
		return nil, err
	}
	instanceRes, err := client.GetLedgerEntries(ctx, instanceKeyXDR)
	if err != nil {
		return nil, err
	}
	if len(instanceRes.Entries) == 0 {
		return nil, errors.New("contract instance not found")
	}
	var instanceEntry xdr.LedgerEntryData
	if err := xdr.SafeUnmarshalBase64(instanceRes.Entries[0].Xdr, &instanceEntry); err != nil {
		return nil, err
	}
	if instanceEntry.ContractData == nil || instanceEntry.ContractData.Val.Instance == nil {
		return nil, errors.New("contract instance entry missing instance value")
	}
	executable := instanceEntry.ContractData.Val.Instance.Executable
	if executable.WasmHash == nil {
		return nil, errors.New("contract instance has no wasm executable")
	}
	wasmHash := [32]byte(*executable.WasmHash)

	if entries, ok, err := specs.Get(wasmHash); err != nil {
		return nil, err
	} else if ok {
		return &wasmspec.Spec{Entries: entries}, nil
	}

	codeKey := xdr.LedgerKey{
		Type:         xdr.LedgerEntryTypeContractCode,
		ContractCode: &xdr.LedgerKeyContractCode{Hash: xdr.Hash(wasmHash)},
	}
	codeKeyXDR, err := codeKey.MarshalBinaryBase64()
	if err != nil {
		return nil, err
	}
	codeRes, err := client.GetLedgerEntries(ctx, codeKeyXDR)
	if err != nil {
		return nil, err
	}
	if len(codeRes.Entries) == 0 {
		return nil, errors.New("contract code not found")
	}
	var codeEntry xdr.LedgerEntryData
	if err := xdr.SafeUnmarshalBase64(codeRes.Entries[0].Xdr, &codeEntry); err != nil {
		return nil, err
	}
	if codeEntry.ContractCode == nil {
		return nil, errors.New("ledger entry is not contract code")
	}

	spec, err := wasmspec.Read(ctx, codeEntry.ContractCode.Code)
	if err != nil {
		return nil, err
	}
	if err := specs.Put(wasmHash, spec.Entries); err != nil {
		return nil, err
	}
	return spec, nil
}

func simulateFunc(client *soroban.Client, log *actionlog.Log) assembler.SimulateFunc {
	return func(ctx context.Context, tx *txnbuild.Transaction) (*assembler.SimulateResult, error) {
		res, err := client.SimulateTransaction(ctx, tx)
		if err != nil {
			return nil, err
		}
		if b, mErr := json.Marshal(res); mErr == nil {
			log.Write(actionlog.Entry{Kind: actionlog.KindSimulate, RPCURL: client.URL, Result: b})
		}
		out := &assembler.SimulateResult{
			Error:           res.Error,
			TransactionData: res.TransactionData,
			MinResourceFee:  res.MinResourceFee,
			Events:          res.Events,
		}
		for _, r := range res.Results {
			out.Results = append(out.Results, assembler.SimulateOperationResult{XDR: r.XDR, Auth: r.Auth})
		}
		if res.RestorePreamble.MinResourceFee != 0 {
			out.RestorePreamble = &assembler.RestorePreamble{
				MinResourceFee:  res.RestorePreamble.MinResourceFee,
				TransactionData: res.RestorePreamble.TransactionData,
			}
		}
		return out, nil
	}
}

func restoreFunc(client *soroban.Client, s signer.Signer, passphrase string, log *actionlog.Log) assembler.RestoreFunc {
	return func(ctx context.Context, source txnbuild.Account, data xdr.SorobanTransactionData, baseFee int64) error {
		tx, err := txnbuild.NewTransaction(txnbuild.TransactionParams{
			SourceAccount: source,
			Operations: []txnbuild.Operation{&txnbuild.RestoreFootprint{
				SourceAccount: source.GetAccountID(),
				Ext:           xdr.TransactionExt{V: 1, SorobanData: &data},
			}},
			BaseFee:              baseFee,
			IncrementSequenceNum: true,
			Preconditions:        txnbuild.Preconditions{TimeBounds: txnbuild.NewTimeout(300)},
		})
		if err != nil {
			return err
		}
		signed, err := s.SignTransaction(ctx, tx, passphrase)
		if err != nil {
			return err
		}
		hash, status, err := submit.Run(ctx, submit.Policy{}, sendFunc(client, log, signed), pollFunc(client))
		if err != nil {
			return err
		}
		if status == submit.StatusFailed {
			return errors.Errorf("restore transaction %s failed", hash)
		}
		return nil
	}
}

func sendFunc(client *soroban.Client, log *actionlog.Log, tx signedEnvelope) submit.SendFunc {
	return func(ctx context.Context) (string, string, string, error) {
		res, err := client.SendTransaction(ctx, tx)
		if err != nil {
			return "", "", "", err
		}
		if b, mErr := json.Marshal(res); mErr == nil {
			log.Write(actionlog.Entry{Kind: actionlog.KindSend, RPCURL: client.URL, Result: b})
		}
		return res.Hash, res.Status, res.ErrorResultXdr, nil
	}
}

func pollFunc(client *soroban.Client) submit.PollFunc {
	return func(ctx context.Context, hash string) (string, error) {
		res, err := client.GetTransaction(ctx, hash)
		if err != nil {
			return "", err
		}
		return res.Status, nil
	}
}

// annotateSimulationFailure, on a simulation error, attempts to resolve the
// failing frame's typed Error(code) to a source-level enum case name before
// returning, so the caller sees "ContractError::NotFound" rather than a bare
// numeric code.
func annotateSimulationFailure(ctx context.Context, client *soroban.Client, specs *speccache.Cache, cause error) error {
	simErr, ok := cause.(*assembler.SimulationError)
	if !ok {
		return cause
	}
	frames, err := framesFromDiagnosticEvents(simErr.Events)
	if err != nil || len(frames) == 0 {
		return simErr
	}
	resolver := errresolve.New(&contractSpecSource{client: client, specs: specs})
	res, err := resolver.Resolve(ctx, frames)
	if err != nil || !res.Found {
		return simErr
	}
	return errors.Wrapf(simErr, "%s::%s", res.EnumName, res.CaseName)
}

// contractSpecSource adapts fetchSpec, which is keyed by ScAddress, to
// errresolve.SpecSource, which is keyed by contract strkey.
type contractSpecSource struct {
	client *soroban.Client
	specs  *speccache.Cache
}

func (s *contractSpecSource) Spec(ctx context.Context, contractID string) (*wasmspec.Spec, error) {
	address, err := scAddressFromContractStrkey(contractID)
	if err != nil {
		return nil, nil
	}
	spec, err := fetchSpec(ctx, s.client, s.specs, address)
	if err != nil {
		return nil, nil
	}
	return spec, nil
}

// framesFromDiagnosticEvents decodes simulate's base64 XDR diagnostic events
// into resolver frames. Soroban emits a contract's typed Error event at the
// point it is raised, so the deepest failing call's event appears first;
// reversing the list yields the outermost-first order Resolve expects.
func framesFromDiagnosticEvents(events []string) ([]errresolve.Frame, error) {
	var frames []errresolve.Frame
	for _, raw := range events {
		var event xdr.DiagnosticEvent
		if err := xdr.SafeUnmarshalBase64(raw, &event); err != nil {
			return nil, errors.Wrap(err, "decoding diagnostic event")
		}
		if event.Event.ContractId == nil || event.Event.Body.V0 == nil {
			continue
		}
		code, ok := errresolve.CodeFromError(event.Event.Body.V0.Data)
		if !ok {
			continue
		}
		contractID, err := strkey.Encode(strkey.VersionByteContract, event.Event.ContractId[:])
		if err != nil {
			continue
		}
		frames = append(frames, errresolve.Frame{ContractID: contractID, Code: code})
	}
	for i, j := 0, len(frames)-1; i < j; i, j = i+1, j-1 {
		frames[i], frames[j] = frames[j], frames[i]
	}
	return frames, nil
}
