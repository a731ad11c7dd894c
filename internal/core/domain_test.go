package core

import (
	"errors"
	"testing"
)

func validRequest() PaymentRequest {
	return PaymentRequest{
		Obra:           43,
		Referente:      "Material elétrico",
		Valor:          Money{Cents: 150000},
		TitularNome:    "Maria de Oliveira",
		CpfCnpj:        "123.456.789-00",
		FormaPagamento: Pix,
		ChavePix:       "12345678900",
	}
}

func TestValidateSubmissionRequiredFields(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*PaymentRequest)
		want   error
	}{
		{"missing obra", func(r *PaymentRequest) { r.Obra = 0 }, ErrMissingObra},
		{"missing referente", func(r *PaymentRequest) { r.Referente = "  " }, ErrMissingReferente},
		{"zero amount", func(r *PaymentRequest) { r.Valor = Money{} }, ErrInvalidAmount},
		{"missing titular", func(r *PaymentRequest) { r.TitularNome = "" }, ErrMissingTitular},
		{"missing cpf/cnpj", func(r *PaymentRequest) { r.CpfCnpj = "" }, ErrMissingDocumento},
		{"pix without chave", func(r *PaymentRequest) { r.ChavePix = "" }, ErrMissingChavePix},
		{"unknown method", func(r *PaymentRequest) { r.FormaPagamento = "CARTAO" }, ErrInvalidMethod},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := validRequest()
			tc.mutate(&r)
			if err := r.ValidateSubmission(); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestValidateSubmissionBoleto(t *testing.T) {
	r := validRequest()
	r.FormaPagamento = Boleto
	r.ChavePix = ""

	// No schedule at all: first due date is required.
	if err := r.ValidateSubmission(); !errors.Is(err, ErrMissingVencimento) {
		t.Fatalf("got %v, want %v", err, ErrMissingVencimento)
	}

	r.Parcelas = GenerateSchedule(r.Valor.Cents, 3, NewDate(2025, 8, 10))
	if err := r.ValidateSubmission(); err != nil {
		t.Fatalf("valid boleto rejected: %v", err)
	}

	// A hand-edited schedule that no longer sums to the total is rejected
	// with the dedicated sum error, not a generic missing-field one.
	r.Parcelas = ApplyAmountEdit(r.Parcelas, 2, r.Parcelas[2].Amount.Cents+1)
	if err := r.ValidateSubmission(); !errors.Is(err, ErrScheduleSum) {
		t.Fatalf("got %v, want %v", err, ErrScheduleSum)
	}

	// A single installment skips the sum check; its amount is authoritative.
	r.Parcelas = GenerateSchedule(r.Valor.Cents, 1, NewDate(2025, 8, 10))
	r.Parcelas = ApplyAmountEdit(r.Parcelas, 0, r.Valor.Cents+500)
	if err := r.ValidateSubmission(); err != nil {
		t.Fatalf("single installment rejected: %v", err)
	}
}

func TestValidateSubmissionInstallmentCap(t *testing.T) {
	r := validRequest()
	r.FormaPagamento = Boleto
	r.ChavePix = ""

	// Hand-built oversized schedule; the generator itself refuses counts
	// above the cap, so the validator is the last line against one.
	start := NewDate(2025, 1, 15)
	for i := 0; i < MaxInstallments+1; i++ {
		r.Parcelas = append(r.Parcelas, Installment{
			Number:  i + 1,
			Amount:  Money{Cents: 100},
			DueDate: start.AddMonths(i),
		})
	}
	if err := r.ValidateSubmission(); !errors.Is(err, ErrTooManyParcelas) {
		t.Fatalf("got %v, want %v", err, ErrTooManyParcelas)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-01-31")
	if err != nil {
		t.Fatal(err)
	}
	if !d.Equal(NewDate(2025, 1, 31)) {
		t.Fatalf("got %s", d)
	}
	if d.String() != "2025-01-31" {
		t.Fatalf("String() = %q", d.String())
	}
	if d.BR() != "31/01/2025" {
		t.Fatalf("BR() = %q", d.BR())
	}

	empty, err := ParseDate("")
	if err != nil || !empty.IsZero() {
		t.Fatalf("empty date: %v %v", empty, err)
	}
	if empty.String() != "" {
		t.Fatalf("zero date String() = %q", empty.String())
	}

	if _, err := ParseDate("31/01/2025"); err == nil {
		t.Fatal("expected error for non-ISO date")
	}
}
