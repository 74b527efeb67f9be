package types

// TxLog is one event log from a confirmed transaction, as reported by the
// relay. Topics and data are 0x-prefixed hex strings.
type TxLog struct {
	Address string   `json:"address"`
	Topics  []string `json:"topics"`
	Data    string   `json:"data"`
}
