package world

// Frame types exchanged between the hub and its members. Every collective
// carries an operation sequence number so both sides agree on which call a
// frame belongs to; ranks issue collectives in program order, so sequence
// numbers advance identically everywhere.
const (
	frameJoin    = "join"
	frameWelcome = "welcome"
	frameBarrier = "barrier"
	frameBcast   = "bcast"
	frameGather  = "gather"
	frameParts   = "parts"
	frameAbort   = "abort"
)

type frame struct {
	Type  string   `json:"type"`
	Rank  int      `json:"rank,omitempty"`
	Size  int      `json:"size,omitempty"`
	Op    uint64   `json:"op,omitempty"`
	Root  int      `json:"root,omitempty"`
	Code  int      `json:"code,omitempty"`
	Data  []byte   `json:"data,omitempty"`
	Parts [][]byte `json:"parts,omitempty"`
}
