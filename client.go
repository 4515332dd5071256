package soroban

import (
	"context"

	"github.com/halide-labs/sorobanctl/internal/rpc"
	"github.com/stellar/go/txnbuild"
)

// Client wrapper of rpc.Client. FriendbotURL, GetAccount and Fund are
// promoted from the embedded rpc.Client, which owns the account/friendbot
// surface alongside the rest of the JSON-RPC transport.
type Client struct {
	rpc.Client
	PassPhrase string
}

// Methods
const (
	SendTransaction     = "sendTransaction"
	SimulateTransaction = "simulateTransaction"
	GetTransaction      = "getTransaction"
	GetHealth           = "getHealth"
	GetNetwork          = "getNetwork"
	GetLedgerEntries    = "getLedgerEntries"
	GetFeeStats         = "getFeeStats"
	GetEvents           = "getEvents"
)

type transaction struct {
	Transaction string `json:"transaction"`
}

// SendTransactionResult as defined in the docs https://developers.stellar.org/docs/data/rpc/api-reference/methods/sendTransaction
type SendTransactionResult struct {
	Hash                  string   `json:"hash"`
	Status                string   `json:"status"`
	LatestLedger          int64    `json:"latestLedger"`
	LatestLedgerCloseTime string   `json:"latestLedgerCloseTime"`
	ErrorResultXdr        string   `json:"errorResultXdr"`
	DiagnosticEventsXdr   []string `json:"diagnosticEventsXdr"`
}

// signedEnvelope is satisfied by both *txnbuild.Transaction and
// *txnbuild.FeeBumpTransaction, so SendTransaction can submit either a plain
// envelope or one wrapped for a fee bump without the caller re-encoding it.
type signedEnvelope interface {
	Base64() (string, error)
}

// SendTransaction sends a signed transaction (or fee-bump envelope) and
// returns its result.
// Returns an error if unmarshal, http call, etc; fail, NOT if the transaction failed.
// Result matches the result in the docs https://developers.stellar.org/docs/data/rpc/api-reference/methods/sendTransaction
func (c Client) SendTransaction(ctx context.Context, tx signedEnvelope) (*SendTransactionResult, error) {
	base64, err := tx.Base64()
	if err != nil {
		return nil, err
	}
	var sendTransactionResult SendTransactionResult
	err = c.CallResult(ctx, SendTransaction, &sendTransactionResult, transaction{base64})
	if err != nil {
		return nil, err
	}
	return &sendTransactionResult, nil
}

// SimulateTransactionResult as defined in the docs https://developers.stellar.org/docs/data/rpc/api-reference/methods/simulateTransaction
type SimulateTransactionResult struct {
	Error           string   `json:"error,omitempty"`
	TransactionData string   `json:"transactionData"`
	MinResourceFee  int64    `json:"minResourceFee,string"`
	LatestLedger    int64    `json:"latestLedger"`
	Events          []string `json:"events"`

	Results []struct {
		Auth []string `json:"auth"`
		XDR  string   `json:"xdr"`
	} `json:"results"`

	RestorePreamble struct {
		MinResourceFee  int64  `json:"minResourceFee,string"`
		TransactionData string `json:"transactionData"`
	} `json:"restorePreamble"`

	StateChange struct {
		Type   int    `json:"type"`
		Key    string `json:"key"`
		Before string `json:"before"`
		After  string `json:"after"`
	} `json:"stateChange"`
}

// SimulateTransaction simulates a transaction and returns its result.
// Returns an error if unmarshal, http call, etc; fail, NOT if the transaction failed.
// Result matches the result in the docs https://developers.stellar.org/docs/data/rpc/api-reference/methods/simulateTransaction
func (c Client) SimulateTransaction(ctx context.Context, tx *txnbuild.Transaction) (*SimulateTransactionResult, error) {
	base64, err := tx.Base64()
	if err != nil {
		return nil, err
	}
	var simulateTransactionResult SimulateTransactionResult
	err = c.CallResult(ctx, SimulateTransaction, &simulateTransactionResult, transaction{base64})
	if err != nil {
		return nil, err
	}
	return &simulateTransactionResult, nil
}

// GetTransactionResult as defined in the docs https://developers.stellar.org/docs/data/rpc/api-reference/methods/getTransaction
type GetTransactionResult struct {
	Status                string `json:"status"`
	LatestLedger          int64  `json:"latestLedger"`
	LatestLedgerCloseTime string `json:"latestLedgerCloseTime"`
	OldestLedger          int64  `json:"oldestLedger"`
	OldestLedgerCloseTime string `json:"oldestLedgerCloseTime"`
	Ledger                int64  `json:"ledger"`
	CreatedAt             string `json:"createdAt"`
	ApplicationOrder      int64  `json:"applicationOrder"`
	FeeBump               bool   `json:"feeBump"`
	EnvelopeXdr           string `json:"envelopeXdr"`
	ResultXdr             string `json:"resultXdr"`
	ResultMetaXdr         string `json:"resultMetaXdr"`
}

// GetTransaction provides details about the specified transaction.
// Returns an error if unmarshal, http call, etc; fail, NOT if the transaction failed.
// Result matches the result in the docs https://developers.stellar.org/docs/data/rpc/api-reference/methods/getTransaction
func (c Client) GetTransaction(ctx context.Context, hash string) (*GetTransactionResult, error) {
	var getTransactionResult GetTransactionResult
	err := c.CallResult(ctx, GetTransaction, &getTransactionResult, struct {
		Hash string `json:"hash"`
	}{hash})
	if err != nil {
		return nil, err
	}
	return &getTransactionResult, nil
}

// GetHealthResult as defined in the docs https://developers.stellar.org/docs/data/rpc/api-reference/methods/getHealth
type GetHealthResult struct {
	Status                string `json:"status"`
	LatestLedger          int64  `json:"latestLedger"`
	OldestLedger          int64  `json:"oldestLedger"`
	LedgerRetentionWindow int64  `json:"ledgerRetentionWindow"`
}

// GetHealth provides details about the health of the network.
func (c Client) GetHealth(ctx context.Context) (*GetHealthResult, error) {
	var getHealthResult GetHealthResult
	err := c.CallResult(ctx, GetHealth, &getHealthResult)
	if err != nil {
		return nil, err
	}
	return &getHealthResult, nil
}

type GetLedgerEntriesResult struct {
	LatestLedger int64             `json:"latestLedger"`
	Entries      []GetLedgerEntrie `json:"entries"`
}

type GetLedgerEntrie struct {
	Key                   string `json:"key"`
	Xdr                   string `json:"xdr"`
	LastModifiedLedgerSeq int64  `json:"lastModifiedLedgerSeq"`
	LiveUntilLedgerSeq    int64  `json:"liveUntilLedgerSeq"`
}

// GetLedgerEntries provides the ledger entries for the given base64 LedgerKeys.
// Result matches the result in the docs https://developers.stellar.org/docs/data/rpc/api-reference/methods/getLedgerEntries
func (c Client) GetLedgerEntries(ctx context.Context, keys ...string) (*GetLedgerEntriesResult, error) {
	var getLedgerEntriesResult GetLedgerEntriesResult
	err := c.CallResult(ctx, GetLedgerEntries, &getLedgerEntriesResult, struct {
		Keys []string `json:"keys"`
	}{keys})
	if err != nil {
		return nil, err
	}
	return &getLedgerEntriesResult, nil
}

// GetNetworkResult as defined in the docs https://developers.stellar.org/docs/data/rpc/api-reference/methods/getNetwork
type GetNetworkResult struct {
	Passphrase      string `json:"passphrase"`
	FriendbotURL    string `json:"friendbotUrl,omitempty"`
	ProtocolVersion int64  `json:"protocolVersion"`
}

// GetNetwork provides details about the network.
func (c Client) GetNetwork(ctx context.Context) (*GetNetworkResult, error) {
	var getNetworkResult GetNetworkResult
	err := c.CallResult(ctx, GetNetwork, &getNetworkResult)
	if err != nil {
		return nil, err
	}
	return &getNetworkResult, nil
}

// GetFeeStatsResult as defined in the docs https://developers.stellar.org/docs/data/rpc/api-reference/methods/getFeeStats
type GetFeeStatsResult struct {
	SorobanInclusionFee FeeDistribution `json:"sorobanInclusionFee"`
	InclusionFee        FeeDistribution `json:"inclusionFee"`
	LatestLedger        int64           `json:"latestLedger"`
}

type FeeDistribution struct {
	Max              int64 `json:"max,string"`
	Min              int64 `json:"min,string"`
	Mode             int64 `json:"mode,string"`
	P10              int64 `json:"p10,string"`
	P50              int64 `json:"p50,string"`
	P90              int64 `json:"p90,string"`
	P99              int64 `json:"p99,string"`
	TransactionCount int64 `json:"transactionCount,string"`
	LedgerCount      int32 `json:"ledgerCount"`
}

// GetFeeStats returns the network's recent inclusion-fee distribution.
func (c Client) GetFeeStats(ctx context.Context) (*GetFeeStatsResult, error) {
	var res GetFeeStatsResult
	err := c.CallResult(ctx, GetFeeStats, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// GetEventsResult as defined in the docs https://developers.stellar.org/docs/data/rpc/api-reference/methods/getEvents
type GetEventsResult struct {
	LatestLedger int64 `json:"latestLedger"`
	Events       []struct {
		Type                     string   `json:"type"`
		Ledger                   int64    `json:"ledger"`
		LedgerClosedAt           string   `json:"ledgerClosedAt"`
		ContractID               string   `json:"contractId"`
		ID                       string   `json:"id"`
		PagingToken              string   `json:"pagingToken"`
		Topic                    []string `json:"topic"`
		Value                    string   `json:"value"`
		InSuccessfulContractCall bool     `json:"inSuccessfulContractCall"`
		TransactionHash          string   `json:"txHash"`
	} `json:"events"`
}

// GetEvents queries diagnostic/contract events starting at a ledger.
func (c Client) GetEvents(ctx context.Context, startLedger int64, filters ...interface{}) (*GetEventsResult, error) {
	var res GetEventsResult
	err := c.CallResult(ctx, GetEvents, &res, struct {
		StartLedger int64         `json:"startLedger"`
		Filters     []interface{} `json:"filters,omitempty"`
	}{startLedger, filters})
	if err != nil {
		return nil, err
	}
	return &res, nil
}
