// Package export renders selected payment requests as downloadable files
// for the finance team.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/Jonatasvm/pagamento-sub000/internal/core"
)

// Header is the column layout shared by the CSV and XLS exports.
var Header = []string{
	"ID", "Data Lançamento", "Obra", "Referente", "Titular", "CPF/CNPJ",
	"Valor", "Forma de Pagamento", "Chave PIX", "Parcelas", "Vencimento",
	"Categoria", "Lançado", "Observação",
}

// row renders one request using Brazilian conventions: DD/MM/YYYY dates and
// comma-decimal amounts, which is what opens cleanly in pt-BR spreadsheets.
func row(r core.PaymentRequest, obraName string) []string {
	vencimento := ""
	if len(r.Parcelas) > 0 {
		vencimento = r.Parcelas[0].DueDate.BR()
	}
	lancado := "NÃO"
	if r.Lancado {
		lancado = "SIM"
	}
	return []string{
		fmt.Sprintf("%d", r.ID),
		r.DataLancamento.BR(),
		obraName,
		r.Referente,
		r.TitularNome,
		r.CpfCnpj,
		decimalComma(r.Valor),
		string(r.FormaPagamento),
		r.ChavePix,
		fmt.Sprintf("%d", len(r.Parcelas)),
		vencimento,
		r.Categoria,
		lancado,
		r.Observacao,
	}
}

func decimalComma(m core.Money) string {
	return strings.Replace(m.DecimalString(), ".", ",", 1)
}

// ObraNamer resolves obra ids to display names; missing ids render as the
// numeric id.
type ObraNamer func(obraID int64) string

// WriteCSV writes the requests as semicolon-separated CSV. Semicolons keep
// comma-decimal values unquoted for pt-BR Excel.
func WriteCSV(w io.Writer, requests []core.PaymentRequest, obraName ObraNamer) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range requests {
		if err := cw.Write(row(r, resolveObra(obraName, r.Obra))); err != nil {
			return fmt.Errorf("write row %d: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func resolveObra(namer ObraNamer, obraID int64) string {
	if namer != nil {
		if name := namer(obraID); name != "" {
			return name
		}
	}
	return fmt.Sprintf("%d", obraID)
}
