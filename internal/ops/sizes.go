package ops

// MMToPoints はミリメートルからPDFポイントへの換算係数です。
const MMToPoints = 2.83465

// PageSize は用紙サイズをmm単位で表します。幅は短辺です。
type PageSize struct {
	WidthMM  float64
	HeightMM float64
}

var pageSizes = map[string]PageSize{
	"A4":         {210, 297},
	"B5":         {182, 257},
	"A3":         {297, 420},
	"A5":         {148, 210},
	"LETTER":     {215.9, 279.4},
	"LEGAL":      {215.9, 355.6},
	"SHIROKUBAN": {127, 188},
	"BUNKO":      {105, 148},
}

// PageSizeIdentifiers は対応している用紙サイズ識別子の一覧です。
func PageSizeIdentifiers() []string {
	return []string{"A4", "B5", "A3", "A5", "LETTER", "LEGAL", "SHIROKUBAN", "BUNKO"}
}

// LookupPageSize は識別子から用紙サイズを引きます。
func LookupPageSize(identifier string) (PageSize, bool) {
	ps, ok := pageSizes[identifier]
	return ps, ok
}
