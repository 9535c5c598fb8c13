package materialize

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
)

// Dataset identifies which record kind a filter document queries. It decides
// where inside a raw record the row values live and which field names are
// valid for column extraction.
type Dataset int

const (
	DatasetBlocks Dataset = iota
	DatasetTransactions
	DatasetLogs
	DatasetTraces
)

func (d Dataset) String() string {
	switch d {
	case DatasetBlocks:
		return "blocks"
	case DatasetTransactions:
		return "transactions"
	case DatasetLogs:
		return "logs"
	case DatasetTraces:
		return "traces"
	default:
		return fmt.Sprintf("dataset(%d)", int(d))
	}
}

// listKey returns the key of the nested row list inside a raw record, or
// ok=false for the blocks dataset whose single row is the header object.
func (d Dataset) listKey() (string, bool) {
	switch d {
	case DatasetTransactions:
		return "transactions", true
	case DatasetLogs:
		return "logs", true
	case DatasetTraces:
		return "traces", true
	default:
		return "", false
	}
}

// ValueKind is the closed set of column value types.
type ValueKind int

const (
	KindUint64 ValueKind = iota
	KindHexBytes
	KindString
	KindHexBytesArray
	KindBool
)

func (k ValueKind) arrowType() arrow.DataType {
	switch k {
	case KindUint64:
		return arrow.PrimitiveTypes.Uint64
	case KindBool:
		return arrow.FixedWidthTypes.Boolean
	case KindHexBytesArray:
		return arrow.ListOf(arrow.BinaryTypes.String)
	default:
		// hex values pass through as strings, validation is downstream's job
		return arrow.BinaryTypes.String
	}
}

// Per-dataset field vocabularies. Requesting a name outside the active
// dataset's table is not an error: the field is silently dropped.
var blockFields = map[string]ValueKind{
	"number":           KindUint64,
	"hash":             KindHexBytes,
	"parentHash":       KindHexBytes,
	"timestamp":        KindUint64,
	"miner":            KindHexBytes,
	"nonce":            KindHexBytes,
	"difficulty":       KindHexBytes,
	"totalDifficulty":  KindHexBytes,
	"size":             KindUint64,
	"gasLimit":         KindHexBytes,
	"gasUsed":          KindHexBytes,
	"baseFeePerGas":    KindHexBytes,
	"stateRoot":        KindHexBytes,
	"transactionsRoot": KindHexBytes,
	"receiptsRoot":     KindHexBytes,
	"sha3Uncles":       KindHexBytes,
	"extraData":        KindHexBytes,
	"logsBloom":        KindHexBytes,
	"mixHash":          KindHexBytes,
}

var transactionFields = map[string]ValueKind{
	"transactionIndex":     KindUint64,
	"hash":                 KindHexBytes,
	"from":                 KindHexBytes,
	"to":                   KindHexBytes,
	"value":                KindUint64,
	"gas":                  KindUint64,
	"gasPrice":             KindUint64,
	"maxFeePerGas":         KindUint64,
	"maxPriorityFeePerGas": KindUint64,
	"input":                KindHexBytes,
	"nonce":                KindUint64,
	"v":                    KindHexBytes,
	"r":                    KindHexBytes,
	"s":                    KindHexBytes,
	"yParity":              KindUint64,
	"chainId":              KindUint64,
	"gasUsed":              KindUint64,
	"cumulativeGasUsed":    KindUint64,
	"effectiveGasPrice":    KindUint64,
	"contractAddress":      KindHexBytes,
	"type":                 KindUint64,
	"status":               KindUint64,
	"sighash":              KindHexBytes,
}

var logFields = map[string]ValueKind{
	"logIndex":         KindUint64,
	"transactionIndex": KindUint64,
	"transactionHash":  KindHexBytes,
	"address":          KindHexBytes,
	"data":             KindHexBytes,
	"topics":           KindHexBytesArray,
	"removed":          KindBool,
}

var traceFields = map[string]ValueKind{
	"transactionIndex":    KindUint64,
	"type":                KindString,
	"callType":            KindString,
	"from":                KindHexBytes,
	"to":                  KindHexBytes,
	"value":               KindUint64,
	"gas":                 KindUint64,
	"input":               KindHexBytes,
	"init":                KindHexBytes,
	"output":              KindHexBytes,
	"sighash":             KindHexBytes,
	"error":               KindString,
	"revertReason":        KindString,
	"subtraces":           KindUint64,
	"callResultGasUsed":   KindUint64,
	"createResultGasUsed": KindUint64,
	"resultCode":          KindUint64,
	"resultAddress":       KindHexBytes,
	"address":             KindHexBytes,
	"refundAddress":       KindHexBytes,
	"rewardAuthor":        KindHexBytes,
	"balance":             KindUint64,
}

var fieldTables = map[Dataset]map[string]ValueKind{
	DatasetBlocks:       blockFields,
	DatasetTransactions: transactionFields,
	DatasetLogs:         logFields,
	DatasetTraces:       traceFields,
}

// fieldKind looks up the value kind for a field name within a dataset's
// closed vocabulary.
func fieldKind(dataset Dataset, name string) (ValueKind, bool) {
	table, ok := fieldTables[dataset]
	if !ok {
		return 0, false
	}
	kind, ok := table[name]
	return kind, ok
}
