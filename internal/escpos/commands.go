// internal/escpos/commands.go
package escpos

// ESC_POS_COMMANDS contains the ESC/POS command definitions used by the receipt encoder
var ESC_POS_COMMANDS = struct {
	// Basic commands
	INITIALIZE []byte

	// Text formatting
	TEXT_BOLD_ON  []byte
	TEXT_BOLD_OFF []byte
	TEXT_RESET    []byte

	// Text alignment
	ALIGN_LEFT   []byte
	ALIGN_CENTER []byte
	ALIGN_RIGHT  []byte

	// Paper handling
	LINE_FEED  []byte
	FEED_LINES []byte // + line count byte

	// Cutting
	CUT_FULL    []byte
	CUT_PARTIAL []byte
}{
	// Basic commands
	INITIALIZE: []byte{0x1B, 0x40}, // ESC @

	// Text formatting
	TEXT_BOLD_ON:  []byte{0x1B, 0x45, 0x01}, // ESC E 1
	TEXT_BOLD_OFF: []byte{0x1B, 0x45, 0x00}, // ESC E 0
	TEXT_RESET:    []byte{0x1B, 0x21, 0x00}, // ESC ! 0

	// Text alignment
	ALIGN_LEFT:   []byte{0x1B, 0x61, 0x00}, // ESC a 0
	ALIGN_CENTER: []byte{0x1B, 0x61, 0x01}, // ESC a 1
	ALIGN_RIGHT:  []byte{0x1B, 0x61, 0x02}, // ESC a 2

	// Paper handling
	LINE_FEED:  []byte{0x0A},       // LF
	FEED_LINES: []byte{0x1B, 0x64}, // ESC d + n

	// Cutting
	CUT_FULL:    []byte{0x1D, 0x56, 0x00}, // GS V 0
	CUT_PARTIAL: []byte{0x1D, 0x56, 0x01}, // GS V 1
}

// FeedLines returns the ESC d n sequence
func FeedLines(n byte) []byte {
	return append(append([]byte(nil), ESC_POS_COMMANDS.FEED_LINES...), n)
}
