// Package query assembles archive filter documents and reads back which
// dataset and fields a document selects. The document itself is plain keyed
// JSON: the acquisition layer treats it as opaque apart from injecting the
// fromBlock cursor.
package query

// LogRequest narrows the log selection by emitting address and topic filters.
type LogRequest struct {
	Address []string
	Topic0  []string
	Topic1  []string
	Topic2  []string
	Topic3  []string
}

// TransactionRequest narrows the transaction selection.
type TransactionRequest struct {
	From    []string
	To      []string
	Sighash []string
}

// TraceRequest narrows the trace selection.
type TraceRequest struct {
	Type                 []string
	CreateFrom           []string
	CallTo               []string
	CallFrom             []string
	CallSighash          []string
	SuicideRefundAddress []string
	RewardAuthor         []string
}

// BlockRequest selects a single block by number.
type BlockRequest struct {
	BlockNumber uint64
}

// LogFields marks which log fields the response should carry.
type LogFields struct {
	LogIndex         bool
	TransactionIndex bool
	TransactionHash  bool
	Address          bool
	Data             bool
	Topics           bool
}

// TransactionFields marks which transaction fields the response should carry.
type TransactionFields struct {
	TransactionIndex     bool
	From                 bool
	To                   bool
	Hash                 bool
	Gas                  bool
	GasPrice             bool
	MaxFeePerGas         bool
	MaxPriorityFeePerGas bool
	Input                bool
	Nonce                bool
	Value                bool
	V                    bool
	R                    bool
	S                    bool
	YParity              bool
	ChainID              bool
	GasUsed              bool
	CumulativeGasUsed    bool
	EffectiveGasPrice    bool
	ContractAddress      bool
	Type                 bool
	Status               bool
	Sighash              bool
}

// TraceFields marks which trace fields the response should carry.
type TraceFields struct {
	TransactionIndex bool
	TraceAddress     bool
	Subtraces        bool
	Error            bool
	RevertReason     bool
	Type             bool
	From             bool
	Value            bool
	Gas              bool
	Init             bool
	GasUsed          bool
	ResultCode       bool
	ResultAddress    bool
	CallType         bool
	Input            bool
	Sighash          bool
	Output           bool
	Address          bool
	RefundAddress    bool
	RewardAuthor     bool
	Balance          bool
}

// Builder accumulates selections and emits the final filter document.
type Builder struct {
	fields       map[string]any
	logs         []map[string]any
	transactions []map[string]any
	blocks       []map[string]any
	traces       []map[string]any
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Build emits the filter document. Only non-empty sections appear.
func (b *Builder) Build() map[string]any {
	doc := map[string]any{}
	if len(b.fields) > 0 {
		doc["fields"] = b.fields
	}
	if len(b.logs) > 0 {
		doc["logs"] = anySlice(b.logs)
	}
	if len(b.transactions) > 0 {
		doc["transactions"] = anySlice(b.transactions)
	}
	if len(b.blocks) > 0 {
		doc["blocks"] = anySlice(b.blocks)
	}
	if len(b.traces) > 0 {
		doc["traces"] = anySlice(b.traces)
	}
	return doc
}

func anySlice(in []map[string]any) []any {
	out := make([]any, len(in))
	for i, m := range in {
		out[i] = m
	}
	return out
}

func (b *Builder) AddLog(req LogRequest) *Builder {
	entry := map[string]any{}
	putStrings(entry, "address", req.Address)
	putStrings(entry, "topic0", req.Topic0)
	putStrings(entry, "topic1", req.Topic1)
	putStrings(entry, "topic2", req.Topic2)
	putStrings(entry, "topic3", req.Topic3)
	b.logs = append(b.logs, entry)
	return b
}

func (b *Builder) AddTransaction(req TransactionRequest) *Builder {
	entry := map[string]any{}
	putStrings(entry, "from", req.From)
	putStrings(entry, "to", req.To)
	putStrings(entry, "sighash", req.Sighash)
	b.transactions = append(b.transactions, entry)
	return b
}

func (b *Builder) AddTrace(req TraceRequest) *Builder {
	entry := map[string]any{}
	putStrings(entry, "type", req.Type)
	putStrings(entry, "createFrom", req.CreateFrom)
	putStrings(entry, "callTo", req.CallTo)
	putStrings(entry, "callFrom", req.CallFrom)
	putStrings(entry, "callSighash", req.CallSighash)
	putStrings(entry, "suicideRefundAddress", req.SuicideRefundAddress)
	putStrings(entry, "rewardAuthor", req.RewardAuthor)
	b.traces = append(b.traces, entry)
	return b
}

func (b *Builder) AddBlock(req BlockRequest) *Builder {
	b.blocks = append(b.blocks, map[string]any{"blockNumber": req.BlockNumber})
	return b
}

func (b *Builder) SelectLogFields(f LogFields) *Builder {
	selection := map[string]any{}
	putFlag(selection, "logIndex", f.LogIndex)
	putFlag(selection, "transactionIndex", f.TransactionIndex)
	putFlag(selection, "transactionHash", f.TransactionHash)
	putFlag(selection, "address", f.Address)
	putFlag(selection, "data", f.Data)
	putFlag(selection, "topics", f.Topics)
	b.setFieldSelection("log", selection)
	return b
}

func (b *Builder) SelectTransactionFields(f TransactionFields) *Builder {
	selection := map[string]any{}
	putFlag(selection, "transactionIndex", f.TransactionIndex)
	putFlag(selection, "from", f.From)
	putFlag(selection, "to", f.To)
	putFlag(selection, "hash", f.Hash)
	putFlag(selection, "gas", f.Gas)
	putFlag(selection, "gasPrice", f.GasPrice)
	putFlag(selection, "maxFeePerGas", f.MaxFeePerGas)
	putFlag(selection, "maxPriorityFeePerGas", f.MaxPriorityFeePerGas)
	putFlag(selection, "input", f.Input)
	putFlag(selection, "nonce", f.Nonce)
	putFlag(selection, "value", f.Value)
	putFlag(selection, "v", f.V)
	putFlag(selection, "r", f.R)
	putFlag(selection, "s", f.S)
	putFlag(selection, "yParity", f.YParity)
	putFlag(selection, "chainId", f.ChainID)
	putFlag(selection, "gasUsed", f.GasUsed)
	putFlag(selection, "cumulativeGasUsed", f.CumulativeGasUsed)
	putFlag(selection, "effectiveGasPrice", f.EffectiveGasPrice)
	putFlag(selection, "contractAddress", f.ContractAddress)
	putFlag(selection, "type", f.Type)
	putFlag(selection, "status", f.Status)
	putFlag(selection, "sighash", f.Sighash)
	b.setFieldSelection("transaction", selection)
	return b
}

func (b *Builder) SelectTraceFields(f TraceFields) *Builder {
	selection := map[string]any{}
	putFlag(selection, "transactionIndex", f.TransactionIndex)
	putFlag(selection, "traceAddress", f.TraceAddress)
	putFlag(selection, "subtraces", f.Subtraces)
	putFlag(selection, "error", f.Error)
	putFlag(selection, "revertReason", f.RevertReason)
	putFlag(selection, "type", f.Type)
	putFlag(selection, "from", f.From)
	putFlag(selection, "value", f.Value)
	putFlag(selection, "gas", f.Gas)
	putFlag(selection, "init", f.Init)
	// the archive reports gas usage under a result key that depends on the
	// trace type, so one flag selects both
	putFlag(selection, "callResultGasUsed", f.GasUsed)
	putFlag(selection, "createResultGasUsed", f.GasUsed)
	putFlag(selection, "resultCode", f.ResultCode)
	putFlag(selection, "resultAddress", f.ResultAddress)
	putFlag(selection, "callType", f.CallType)
	putFlag(selection, "input", f.Input)
	putFlag(selection, "sighash", f.Sighash)
	putFlag(selection, "output", f.Output)
	putFlag(selection, "address", f.Address)
	putFlag(selection, "refundAddress", f.RefundAddress)
	putFlag(selection, "rewardAuthor", f.RewardAuthor)
	putFlag(selection, "balance", f.Balance)
	b.setFieldSelection("trace", selection)
	return b
}

func (b *Builder) setFieldSelection(key string, selection map[string]any) {
	if len(selection) == 0 {
		return
	}
	if b.fields == nil {
		b.fields = map[string]any{}
	}
	b.fields[key] = selection
}

func putStrings(entry map[string]any, key string, values []string) {
	if len(values) == 0 {
		return
	}
	items := make([]any, len(values))
	for i, v := range values {
		items[i] = v
	}
	entry[key] = items
}

func putFlag(selection map[string]any, key string, enabled bool) {
	if enabled {
		selection[key] = true
	}
}
