package romodify

import (
	"fmt"
	"strconv"
	"strings"
)

// Opcode is the first byte of a ro_account_modify instruction.
type Opcode uint8

const (
	Modify Opcode = iota
	InvokeModify
	ModifyInvoke
	VerifyModified
)

var opcodeNames = map[Opcode]string{
	Modify:         "modify",
	InvokeModify:   "invoke-modify",
	ModifyInvoke:   "modify-invoke",
	VerifyModified: "verify-modified",
}

var opcodeAliases = map[string]Opcode{
	"invoke-then-modify": InvokeModify,
	"modify-then-invoke": ModifyInvoke,
}

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint8(op))
}

func (op Opcode) Valid() bool {
	_, ok := opcodeNames[op]
	return ok
}

// ParseOpcode accepts an opcode name or its numeric value. Numeric values
// outside the known set are accepted so that unknown instructions can be
// sent on purpose.
func ParseOpcode(s string) (Opcode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for op, name := range opcodeNames {
		if name == s {
			return op, nil
		}
	}
	if op, ok := opcodeAliases[s]; ok {
		return op, nil
	}
	n, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid opcode %q", s)
	}
	return Opcode(n), nil
}

func (op Opcode) MarshalText() ([]byte, error) {
	if !op.Valid() {
		return []byte(strconv.Itoa(int(op))), nil
	}
	return []byte(op.String()), nil
}

func (op *Opcode) UnmarshalText(text []byte) error {
	parsed, err := ParseOpcode(string(text))
	if err != nil {
		return err
	}
	*op = parsed
	return nil
}
