// internal/escpos/encoder.go
package escpos

import (
	"bytes"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"printer-service/internal/model"
)

const (
	labelTable        = "Mesa: "
	labelOrder        = "Pedido: #"
	labelCustomer     = "Cliente: "
	labelItemNote     = "OBS: "
	labelGeneralNotes = "OBSERVACOES GERAIS"
	labelTotal        = "TOTAL:"
	labelPayment      = "Pagamento: "
	kitchenBanner     = "PEDIDO PARA COZINHA"
	paymentFooter     = "Obrigado pela preferencia!"

	DefaultDateLayout = "02/01/2006 15:04"
	DefaultCurrency   = "R$"
)

// Encoder renders print jobs into ESC/POS byte streams. It holds no state
// besides its formatting settings, so one Encoder can be shared.
type Encoder struct {
	DateLayout string
	Location   *time.Location
	Currency   string
}

// NewEncoder creates an encoder, falling back to defaults for empty settings
func NewEncoder(dateLayout string, loc *time.Location, currency string) *Encoder {
	if dateLayout == "" {
		dateLayout = DefaultDateLayout
	}
	if loc == nil {
		loc = time.Local
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Encoder{DateLayout: dateLayout, Location: loc, Currency: currency}
}

// Encode turns a job into the bytes sent to a printer with the given paper width.
// Text is emitted as-is; callers transliterate for printers without accent support.
func (e *Encoder) Encode(job model.PrintJob, width model.PaperWidth) []byte {
	cols := int(width)
	if cols <= 0 {
		cols = int(model.PaperWidth58mm)
	}
	kitchen := job.Kind == model.JobKitchenOrder

	commands := [][]byte{ESC_POS_COMMANDS.INITIALIZE}

	// Header
	commands = append(commands,
		ESC_POS_COMMANDS.ALIGN_CENTER,
		ESC_POS_COMMANDS.TEXT_BOLD_ON,
		[]byte(job.RestaurantName),
		ESC_POS_COMMANDS.LINE_FEED,
		ESC_POS_COMMANDS.TEXT_BOLD_OFF,
		[]byte(e.formatDate(job.IssuedAt)),
		ESC_POS_COMMANDS.LINE_FEED,
	)
	if kitchen {
		commands = append(commands, bold(kitchenBanner)...)
	}
	commands = append(commands, ESC_POS_COMMANDS.LINE_FEED, ESC_POS_COMMANDS.ALIGN_LEFT)

	// Context identifiers; table wins over order number
	switch {
	case job.TableNumber != nil:
		commands = append(commands, line(labelTable+*job.TableNumber)...)
	case job.OrderNumber != nil:
		commands = append(commands, line(labelOrder+*job.OrderNumber)...)
	}
	if job.CustomerName != nil {
		commands = append(commands, line(labelCustomer+*job.CustomerName)...)
	}

	commands = append(commands, line(Separator(cols))...)

	// Items
	for _, item := range job.Lines {
		label := fmt.Sprintf("%dx %s", item.Quantity, item.Name)
		if kitchen {
			commands = append(commands, bold(label)...)
			if item.Note != nil {
				commands = append(commands, line(labelItemNote+*item.Note)...)
			}
			continue
		}

		if item.UnitPrice != nil {
			commands = append(commands, line(FormatItemLine(label, e.formatMoney(*item.UnitPrice), cols))...)
		} else {
			commands = append(commands, line(label)...)
		}
	}

	// Totals
	if !kitchen {
		commands = append(commands, line(Separator(cols))...)
		if job.Total != nil {
			commands = append(commands, bold(FormatItemLine(labelTotal, e.formatMoney(*job.Total), cols))...)
		}
		if job.PaymentMethod != nil {
			commands = append(commands, line(labelPayment+*job.PaymentMethod)...)
		}
	}

	if job.GeneralNote != nil {
		commands = append(commands, ESC_POS_COMMANDS.LINE_FEED)
		if kitchen {
			commands = append(commands, bold(labelGeneralNotes)...)
			commands = append(commands, bold(*job.GeneralNote)...)
		} else {
			commands = append(commands, line(labelGeneralNotes)...)
			commands = append(commands, line(*job.GeneralNote)...)
		}
	}

	// Footer
	commands = append(commands, ESC_POS_COMMANDS.LINE_FEED, ESC_POS_COMMANDS.ALIGN_CENTER)
	if kitchen {
		commands = append(commands, bold(kitchenBanner)...)
	} else {
		commands = append(commands, line(paymentFooter)...)
	}

	commands = append(commands,
		ESC_POS_COMMANDS.ALIGN_LEFT,
		FeedLines(3),
		ESC_POS_COMMANDS.CUT_FULL,
	)

	return bytes.Join(commands, nil)
}

// FormatItemLine lays out a two-column line exactly width characters wide.
// When both columns do not fit, left is truncated and a single space kept
// before right.
func FormatItemLine(left, right string, width int) string {
	leftLen := utf8.RuneCountInString(left)
	rightLen := utf8.RuneCountInString(right)

	if rightLen >= width {
		return truncate(right, width)
	}
	if leftLen+rightLen >= width {
		return truncate(left, width-rightLen-1) + " " + right
	}
	return left + strings.Repeat(" ", width-leftLen-rightLen) + right
}

// Separator returns a dashed rule of the given width
func Separator(width int) string {
	return strings.Repeat("-", width)
}

func (e *Encoder) formatDate(t time.Time) string {
	loc := e.Location
	if loc == nil {
		loc = time.Local
	}
	layout := e.DateLayout
	if layout == "" {
		layout = DefaultDateLayout
	}
	return t.In(loc).Format(layout)
}

func (e *Encoder) formatMoney(amount decimal.Decimal) string {
	currency := e.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	return currency + " " + amount.StringFixed(2)
}

func line(text string) [][]byte {
	return [][]byte{[]byte(text), ESC_POS_COMMANDS.LINE_FEED}
}

func bold(text string) [][]byte {
	return [][]byte{
		ESC_POS_COMMANDS.TEXT_BOLD_ON,
		[]byte(text),
		ESC_POS_COMMANDS.LINE_FEED,
		ESC_POS_COMMANDS.TEXT_BOLD_OFF,
	}
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
