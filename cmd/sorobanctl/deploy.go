package main

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/stellar/go/strkey"

	soroban "github.com/halide-labs/sorobanctl"
	"github.com/halide-labs/sorobanctl/internal/cli"
	"github.com/halide-labs/sorobanctl/internal/config"
	"github.com/halide-labs/sorobanctl/internal/keystore"
	"github.com/halide-labs/sorobanctl/internal/rpc"
)

// waitForTransaction polls getTransaction until it leaves NOT_FOUND, the
// same fixed-attempt linear backoff the teacher's waitCompletedTransaction
// used — deploy's own install-then-deploy sequence needs the install to
// land before Deploy's IsCodeAlive check can see it on the ledger.
func waitForTransaction(ctx context.Context, client *soroban.Client, hash string) (*soroban.GetTransactionResult, error) {
	for i := 0; i < 5; i++ {
		res, err := client.GetTransaction(ctx, hash)
		if err != nil {
			return nil, err
		}
		if res.Status != "NOT_FOUND" {
			return res, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(i) * 2 * time.Second):
		}
	}
	return nil, errors.Errorf("transaction %s not found after retries", hash)
}

// runDeploy handles the two upload stages a contract needs before it can be
// invoked: installing its compiled wasm, then creating a contract instance
// that points at it. It is triggered by the reserved first positional
// argument "--deploy" so the common invoke path in run() stays untouched.
//
// usage: sorobanctl --deploy <wasm-path> <salt> [alias-name]
func runDeploy(ctx context.Context, printer *cli.Printer, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: sorobanctl --deploy <wasm-path> <salt> [alias-name]")
	}
	wasmPath := args[0]
	salt := args[1]
	aliasName := salt
	if len(args) > 2 {
		aliasName = args[2]
	}

	wasm, err := os.ReadFile(wasmPath)
	if err != nil {
		return errors.Wrap(err, "reading wasm file")
	}

	networkName := envOr("STELLAR_NETWORK", "testnet")
	identityName := os.Getenv("STELLAR_ACCOUNT")
	if identityName == "" {
		return errors.New("STELLAR_ACCOUNT must be set")
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

	client := &soroban.Client{
		Client:     rpc.Client{URL: network.RPCURL, Timeout: rpc.DefaultTimeout},
		PassPhrase: network.NetworkPassphrase,
	}

	source, err := client.GetAccount(ctx, kp.Address())
	if err != nil {
		return err
	}

	contract := soroban.NewContract().
		Wasm(wasm).
		Client(client).
		Salt(salt).
		SourceAccount(source).
		KeyPair(kp)

	alive, _, err := contract.IsCodeAlive(ctx)
	if err != nil {
		return err
	}
	if !alive {
		installRes, err := contract.Install(ctx)
		if err != nil {
			return errors.Wrap(err, "installing contract wasm")
		}
		completed, err := waitForTransaction(ctx, client, installRes.Hash)
		if err != nil {
			return errors.Wrap(err, "awaiting install transaction")
		}
		if completed.Status != "SUCCESS" {
			return errors.Errorf("install transaction %s: %s", installRes.Hash, completed.Status)
		}
		printer.Printf("install transaction %s: %s", installRes.Hash, completed.Status)
	}

	deployRes, err := contract.Deploy(ctx)
	if err != nil {
		return errors.Wrap(err, "deploying contract instance")
	}
	printer.Printf("deploy transaction %s: %s", deployRes.Hash, deployRes.Status)

	address, err := contract.GetAddress()
	if err != nil {
		return err
	}
	if address.ContractId == nil {
		return errors.New("deployed contract address is not a contract id")
	}
	contractID, err := strkey.Encode(strkey.VersionByteContract, (*address.ContractId)[:])
	if err != nil {
		return errors.Wrap(err, "encoding contract address")
	}

	if err := locator.WriteAlias(aliasName, config.Alias{ContractID: contractID, Network: networkName}); err != nil {
		return err
	}
	printer.Printf("contract %s deployed as alias %q", contractID, aliasName)
	return nil
}
