package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/beevik/etree"

	"github.com/Jonatasvm/pagamento-sub000/internal/core"
)

func sampleRequests() []core.PaymentRequest {
	return []core.PaymentRequest{
		{
			ID:             7,
			Obra:           43,
			Referente:      "Concreto usinado",
			TitularNome:    "Fornecedor Ltda",
			CpfCnpj:        "12.345.678/0001-00",
			Valor:          core.Money{Cents: 150000},
			FormaPagamento: core.Boleto,
			DataLancamento: core.NewDate(2025, 8, 1),
			Parcelas:       core.GenerateSchedule(150000, 4, core.NewDate(2025, 1, 31)),
			Lancado:        true,
		},
		{
			ID:             8,
			Obra:           51,
			Referente:      "Frete",
			TitularNome:    "Transportes SA",
			CpfCnpj:        "98.765.432/0001-00",
			Valor:          core.Money{Cents: 9950},
			FormaPagamento: core.Pix,
			ChavePix:       "frete@pix.com",
			DataLancamento: core.NewDate(2025, 8, 2),
		},
	}
}

func obraNames(id int64) string {
	switch id {
	case 43:
		return "Residencial Aurora"
	default:
		return ""
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleRequests(), obraNames); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if !strings.HasPrefix(lines[0], "ID;Data Lançamento;Obra") {
		t.Fatalf("header = %q", lines[0])
	}

	first := strings.Split(lines[1], ";")
	if first[1] != "01/08/2025" {
		t.Errorf("data lancamento = %q", first[1])
	}
	if first[2] != "Residencial Aurora" {
		t.Errorf("obra = %q", first[2])
	}
	if first[6] != "1500,00" {
		t.Errorf("valor = %q", first[6])
	}
	if first[12] != "SIM" {
		t.Errorf("lancado = %q", first[12])
	}

	// Unknown obra falls back to the numeric id.
	second := strings.Split(lines[2], ";")
	if second[2] != "51" {
		t.Errorf("obra fallback = %q", second[2])
	}
	if second[6] != "99,50" {
		t.Errorf("valor = %q", second[6])
	}
}

func TestWriteXLS(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLS(&buf, sampleRequests(), obraNames); err != nil {
		t.Fatal(err)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(buf.Bytes()); err != nil {
		t.Fatalf("output is not valid XML: %v", err)
	}

	rows := doc.FindElements("//Worksheet/Table/Row")
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}

	cells := rows[1].FindElements("Cell/Data")
	if len(cells) != len(Header) {
		t.Fatalf("got %d cells, want %d", len(cells), len(Header))
	}
	if cells[0].Text() != "7" || cells[0].SelectAttrValue("ss:Type", "") != "Number" {
		t.Errorf("id cell = %q type %q", cells[0].Text(), cells[0].SelectAttrValue("ss:Type", ""))
	}
	if cells[6].Text() != "1500,00" {
		t.Errorf("valor cell = %q", cells[6].Text())
	}
	if cells[10].Text() != "31/01/2025" {
		t.Errorf("vencimento cell = %q", cells[10].Text())
	}
}
