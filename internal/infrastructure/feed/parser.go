package feed

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/ledger"
)

// rowsetNS namespace de las filas z:row del rowset ADO.
const rowsetNS = "#RowsetSchema"

// dateLayouts formatos de fecha aceptados, en orden de prueba.
var dateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02/01/2006",
	"02-01-2006",
}

// ParseItems convierte el rowset del maestro en ítems. Atributos ausentes quedan vacíos.
func ParseItems(data []byte) ([]entity.Item, error) {
	rows, err := readRows(data)
	if err != nil {
		return nil, err
	}
	items := make([]entity.Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, entity.Item{
			Code: attr(row, "Code"),
			Name: attr(row, "Name"),
			Kind: attr(row, "MasterType"),
		})
	}
	return items, nil
}

// ParseEntries convierte el rowset de movimientos en entradas del ledger.
// Seq refleja el orden de llegada; Value1 ilegible o ausente cuenta como cero.
func ParseEntries(data []byte) ([]entity.LedgerEntry, error) {
	rows, err := readRows(data)
	if err != nil {
		return nil, err
	}
	entries := make([]entity.LedgerEntry, 0, len(rows))
	for i, row := range rows {
		e := entity.LedgerEntry{
			Seq:           int64(i + 1),
			Date:          parseDate(attr(row, "Date")),
			Kind:          entity.ParseVoucherKind(attr(row, "VchType")),
			VoucherNumber: attr(row, "VchNo"),
			ItemCode:      strings.TrimSpace(attr(row, "ItemCode")),
			LotID:         strings.TrimSpace(attr(row, "BCN")),
			Quantity:      parseQuantity(attr(row, "Value1")),
		}
		for p := 0; p < entity.ParamCount; p++ {
			e.Params[p] = attr(row, fmt.Sprintf("C%d", p+1))
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func readRows(data []byte) ([]*etree.Element, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charsetReader
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedFeed, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: documento sin raíz", domain.ErrMalformedFeed)
	}
	var rows []*etree.Element
	collectRows(root, &rows)
	return rows, nil
}

// collectRows recorre el árbol en orden de documento buscando z:row.
func collectRows(el *etree.Element, out *[]*etree.Element) {
	for _, child := range el.ChildElements() {
		if child.Tag == "row" && (child.NamespaceURI() == rowsetNS || child.Space == "z") {
			*out = append(*out, child)
			continue
		}
		collectRows(child, out)
	}
}

func attr(el *etree.Element, key string) string {
	return el.SelectAttrValue(key, "")
}

// charsetReader decodifica los charsets no UTF-8 que declaran los exportadores del origen.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "", "utf-8", "utf8":
		return input, nil
	case "windows-1252", "cp1252":
		return transform.NewReader(input, charmap.Windows1252.NewDecoder()), nil
	case "iso-8859-1", "iso8859-1", "latin1":
		return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("charset no soportado: %s", label)
	}
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return ledger.Day(t)
		}
	}
	return time.Time{}
}

func parseQuantity(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
