package chain

// ArtifactEvent is an ArtifactRegistered log decoded into mirror-friendly
// form. Numeric uint256 values are carried as decimal strings.
type ArtifactEvent struct {
	ArtifactID   string
	LabID        string
	Cid          string
	ArtifactHash string
	ProposalID   string
	Creator      string
	BlockNumber  uint64
	LogIndex     uint32
	TxHash       string
}
