package trace

// Record is the wire form of one trace entry. It is only used to describe
// the format (see the schema command); decoding goes through Parse.
type Record struct {
	Address              string `json:"address" jsonschema:"title=Address,description=Instruction address as a JSON number or a 0x-prefixed string"`
	HexDump              string `json:"hexDump" jsonschema:"title=Hex Dump,description=Instruction encoding as hex digits with optional spaces"`
	Text                 string `json:"text" jsonschema:"title=Text,description=Disassembly of the instruction (may be empty when hexDump can be decoded)"`
	IsBranch             bool   `json:"isBranch,omitempty" jsonschema:"title=Is Branch,description=Instruction ends a basic block"`
	IsForeignBranch      bool   `json:"isForeignBranch,omitempty" jsonschema:"title=Is Foreign Branch,description=Branch leaves the traced region"`
	ForeignTargetAddress string `json:"foreignTargetAddress,omitempty" jsonschema:"title=Foreign Target Address,description=Where control went outside the traced region"`
	ForeignTargetName    string `json:"foreignTargetName,omitempty" jsonschema:"title=Foreign Target Name,description=Symbol of the foreign target"`
}

// Wire keys.
const (
	keyAddress       = "address"
	keyHexDump       = "hexDump"
	keyText          = "text"
	keyIsBranch      = "isBranch"
	keyIsForeign     = "isForeignBranch"
	keyForeignTarget = "foreignTargetAddress"
	keyForeignName   = "foreignTargetName"
)
