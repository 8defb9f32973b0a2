package mmio

import "fmt"

// Offset is a byte offset of a register from the window base.
type Offset uint32

// AXI FIFO register offsets.
const (
	RegReadData  Offset = 0x0000 // read data (R)
	RegWriteData Offset = 0x0004 // write data (W)
	RegStatus    Offset = 0x0008 // status (reserved)
)

// RegisterSize is the width of every register in bytes.
const RegisterSize = 4

// String returns the register name, or the hex offset for unnamed registers.
func (o Offset) String() string {
	switch o {
	case RegReadData:
		return "READ_DATA"
	case RegWriteData:
		return "WRITE_DATA"
	case RegStatus:
		return "STATUS"
	default:
		return fmt.Sprintf("%#x", uint32(o))
	}
}
